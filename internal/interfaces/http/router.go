// Package http exposes the service's HTTP surface: the Telegram webhook,
// a health probe and a small read-only stats API.
package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"helpbot/internal/domain/analytics"
	"helpbot/internal/domain/ticket"
	vo "helpbot/internal/domain/ticket/valueobjects"
	"helpbot/internal/infrastructure/telegram"
	"helpbot/internal/interfaces/http/middleware"
	sharedConfig "helpbot/internal/shared/config"
	"helpbot/internal/shared/logger"
	"helpbot/internal/shared/utils"
	"helpbot/internal/shared/version"
)

const webhookSecretHeader = "X-Telegram-Bot-Api-Secret-Token"

type Router struct {
	engine        *gin.Engine
	updateHandler telegram.UpdateHandler
	analyticsRepo analytics.Repository
	ticketRepo    ticket.Repository
	config        sharedConfig.TelegramConfig
	logger        logger.Interface
}

func NewRouter(
	updateHandler telegram.UpdateHandler,
	analyticsRepo analytics.Repository,
	ticketRepo ticket.Repository,
	config sharedConfig.TelegramConfig,
	mode string,
	log logger.Interface,
) *Router {
	gin.SetMode(ginMode(mode))

	r := &Router{
		engine:        gin.New(),
		updateHandler: updateHandler,
		analyticsRepo: analyticsRepo,
		ticketRepo:    ticketRepo,
		config:        config,
		logger:        log.Named("http"),
	}
	r.engine.Use(middleware.Recovery(r.logger))
	r.engine.Use(middleware.Logger(r.logger))
	r.registerRoutes()
	return r
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func (r *Router) registerRoutes() {
	r.engine.GET("/healthz", r.health)
	r.engine.POST("/webhook/telegram", r.webhook)

	api := r.engine.Group("/api/v1")
	api.GET("/stats", r.stats)
	api.GET("/tickets", r.listTickets)
}

func (r *Router) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": version.Version,
	})
}

// webhook accepts updates pushed by Telegram. Always answers 200 for valid
// requests: Telegram retries non-200 responses and a poison update must not
// wedge the queue.
func (r *Router) webhook(c *gin.Context) {
	if r.config.WebhookSecret != "" && c.GetHeader(webhookSecretHeader) != r.config.WebhookSecret {
		utils.ErrorResponse(c, http.StatusUnauthorized, "invalid webhook secret")
		return
	}

	var update telegram.Update
	if err := json.NewDecoder(c.Request.Body).Decode(&update); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "malformed update")
		return
	}

	if err := r.updateHandler.HandleUpdate(c.Request.Context(), &update); err != nil {
		r.logger.Errorw("failed to handle webhook update", "update_id", update.UpdateID, "error", err)
	}

	c.Status(http.StatusOK)
}

func (r *Router) stats(c *gin.Context) {
	to := time.Now()
	from := to.AddDate(0, 0, -30)

	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "from must be YYYY-MM-DD")
			return
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "to must be YYYY-MM-DD")
			return
		}
		to = parsed
	}
	if to.Before(from) {
		utils.ErrorResponse(c, http.StatusBadRequest, "to must not be before from")
		return
	}

	report, err := r.analyticsRepo.GetReport(c.Request.Context(), from, to)
	if err != nil {
		r.logger.Errorw("failed to build report", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	daily := make([]gin.H, 0, len(report.Daily))
	for _, row := range report.Daily {
		daily = append(daily, gin.H{
			"date":   row.Date.Format("2006-01-02"),
			"metric": row.Metric,
			"value":  row.Value,
		})
	}

	utils.SuccessResponse(c, http.StatusOK, "", gin.H{
		"from":   report.From.Format("2006-01-02"),
		"to":     report.To.Format("2006-01-02"),
		"totals": report.Totals,
		"daily":  daily,
	})
}

type ticketDTO struct {
	Number    string `json:"number"`
	UserID    string `json:"user_id"`
	Type      string `json:"type"`
	Priority  string `json:"priority"`
	Status    string `json:"status"`
	ClaimedBy string `json:"claimed_by,omitempty"`
	ClosedBy  string `json:"closed_by,omitempty"`
	CreatedAt string `json:"created_at"`
}

func (r *Router) listTickets(c *gin.Context) {
	filter := ticket.Filter{Page: 1, PageSize: 50}

	if raw := c.Query("status"); raw != "" {
		status, err := vo.NewStatus(raw)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "invalid status")
			return
		}
		filter.Status = &status
	}
	if raw := c.Query("user_id"); raw != "" {
		filter.UserID = &raw
	}

	tickets, total, err := r.ticketRepo.List(c.Request.Context(), filter)
	if err != nil {
		r.logger.Errorw("failed to list tickets", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	items := make([]ticketDTO, 0, len(tickets))
	for _, t := range tickets {
		items = append(items, ticketDTO{
			Number:    t.Number(),
			UserID:    t.UserID(),
			Type:      t.Type().String(),
			Priority:  t.Priority().String(),
			Status:    t.Status().String(),
			ClaimedBy: t.ClaimedBy(),
			ClosedBy:  t.ClosedBy(),
			CreatedAt: t.CreatedAt().Format(time.RFC3339),
		})
	}

	utils.SuccessResponse(c, http.StatusOK, "", gin.H{
		"items": items,
		"total": total,
	})
}

func ginMode(mode string) string {
	switch mode {
	case "release":
		return gin.ReleaseMode
	case "test":
		return gin.TestMode
	default:
		return gin.DebugMode
	}
}
