// Package common holds application services shared by the ticket and game
// engines.
package common

import (
	"context"
	"sync"
	"time"

	"helpbot/internal/application/gateway"
	"helpbot/internal/shared/auth"
	"helpbot/internal/shared/logger"
)

const staffCacheTTL = 5 * time.Minute

// StaffDirectory resolves the staff capability for an actor. Membership is
// fetched from the platform and cached briefly; staff churn is rare and a
// stale grant window of a few minutes is acceptable.
type StaffDirectory struct {
	gw     gateway.Gateway
	logger logger.Interface

	mu        sync.Mutex
	roles     map[string][]string
	fetchedAt time.Time
}

func NewStaffDirectory(gw gateway.Gateway, log logger.Interface) *StaffDirectory {
	return &StaffDirectory{
		gw:     gw,
		logger: log.Named("staff-directory"),
		roles:  make(map[string][]string),
	}
}

func (d *StaffDirectory) IsStaff(ctx context.Context, actorID string) (bool, error) {
	roles, err := d.rolesFor(ctx, actorID)
	if err != nil {
		return false, err
	}
	return auth.IsStaff(roles), nil
}

func (d *StaffDirectory) IsAdmin(ctx context.Context, actorID string) (bool, error) {
	roles, err := d.rolesFor(ctx, actorID)
	if err != nil {
		return false, err
	}
	return auth.IsAdmin(roles), nil
}

func (d *StaffDirectory) rolesFor(ctx context.Context, actorID string) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if time.Since(d.fetchedAt) > staffCacheTTL {
		members, err := d.gw.ListStaffMembers(ctx)
		if err != nil {
			// Keep serving the stale cache if one exists; a transient
			// platform failure must not lock staff out.
			if len(d.roles) == 0 {
				return nil, err
			}
			d.logger.Warnw("staff list refresh failed, using cached roles", "error", err)
		} else {
			d.roles = make(map[string][]string, len(members))
			for _, m := range members {
				roles := []string{auth.RoleStaff}
				if m.IsAdmin {
					roles = append(roles, auth.RoleAdmin)
				}
				d.roles[m.ID] = roles
			}
			d.fetchedAt = time.Now()
		}
	}

	return d.roles[actorID], nil
}
