package valueobjects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStatus(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Status
		wantErr bool
	}{
		{name: "valid open status", input: "open", want: StatusOpen},
		{name: "valid claimed status", input: "claimed", want: StatusClaimed},
		{name: "valid closed status", input: "closed", want: StatusClosed},
		{name: "invalid status", input: "pending", wantErr: true},
		{name: "empty status", input: "", wantErr: true},
		{name: "case sensitive", input: "Open", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NewStatus(tc.input)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from Status
		to   Status
		want bool
	}{
		{name: "open to claimed", from: StatusOpen, to: StatusClaimed, want: true},
		{name: "open to closed (unclaimed close)", from: StatusOpen, to: StatusClosed, want: true},
		{name: "claimed to closed", from: StatusClaimed, to: StatusClosed, want: true},
		{name: "claimed to claimed", from: StatusClaimed, to: StatusClaimed, want: false},
		{name: "claimed to open", from: StatusClaimed, to: StatusOpen, want: false},
		{name: "closed is terminal - to open", from: StatusClosed, to: StatusOpen, want: false},
		{name: "closed is terminal - to claimed", from: StatusClosed, to: StatusClaimed, want: false},
		{name: "closed is terminal - to closed", from: StatusClosed, to: StatusClosed, want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.from.CanTransitionTo(tc.to))
		})
	}
}

func TestStatus_IsActive(t *testing.T) {
	assert.True(t, StatusOpen.IsActive())
	assert.True(t, StatusClaimed.IsActive())
	assert.False(t, StatusClosed.IsActive())
}
