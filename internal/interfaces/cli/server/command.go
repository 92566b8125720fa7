package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	analyticsApp "helpbot/internal/application/analytics"
	"helpbot/internal/application/common"
	gameApp "helpbot/internal/application/game"
	"helpbot/internal/application/ticket/usecases"
	gameDomain "helpbot/internal/domain/game"
	"helpbot/internal/domain/shared/events"
	"helpbot/internal/domain/ticket"
	vo "helpbot/internal/domain/ticket/valueobjects"
	"helpbot/internal/infrastructure/backup"
	"helpbot/internal/infrastructure/config"
	"helpbot/internal/infrastructure/database"
	"helpbot/internal/infrastructure/ratelimit"
	"helpbot/internal/infrastructure/repository"
	"helpbot/internal/infrastructure/scheduler"
	"helpbot/internal/infrastructure/session"
	"helpbot/internal/infrastructure/telegram"
	"helpbot/internal/interfaces/bot"
	httpRouter "helpbot/internal/interfaces/http"
	"helpbot/internal/shared/logger"
	"helpbot/internal/shared/version"
)

// analyticsRetentionDays bounds the daily counter table. A year of history
// covers every report the stats endpoint serves.
const analyticsRetentionDays = 365

var env string

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the support bot",
		Long:  `Start the helpbot Telegram listener and HTTP server with the specified configuration.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.NewLogger()

	log.Infow("starting helpbot", "environment", env, "version", version.Version)

	gin.DefaultWriter = io.Discard

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			log.Errorw("failed to close database", "error", err)
		}
	}()

	dispatcher := events.NewInMemoryEventDispatcher(100)
	if err := dispatcher.Start(); err != nil {
		return fmt.Errorf("failed to start event dispatcher: %w", err)
	}
	defer func() {
		if err := dispatcher.Stop(); err != nil {
			log.Errorw("failed to stop event dispatcher", "error", err)
		}
	}()

	ticketRepo := repository.NewTicketRepository(database.Get())
	userRepo := repository.NewUserRepository(database.Get())
	analyticsRepo := repository.NewAnalyticsRepository(database.Get())
	gameRepo := repository.NewGameRepository(database.Get())

	recorder := analyticsApp.NewRecorder(analyticsRepo, log)
	if err := recorder.Register(dispatcher); err != nil {
		return fmt.Errorf("failed to register analytics recorder: %w", err)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.GetAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	ticketWindow := time.Duration(cfg.Ticket.CreateWindowSeconds) * time.Second
	gameWindow := time.Duration(cfg.Game.WindowSeconds) * time.Second
	gameTimeout := time.Duration(cfg.Game.TimeoutSeconds) * time.Second

	var (
		ticketLimiter usecases.RateLimiter
		gameLimiter   gameApp.RateLimiter
		registry      gameDomain.Registry
		sweepers      []scheduler.Sweeper
	)
	if redisClient != nil {
		ticketLimiter = ratelimit.NewRedisRateLimiter(redisClient, "ticket", ticketWindow, cfg.Ticket.CreateMaxRequests)
		gameLimiter = ratelimit.NewRedisRateLimiter(redisClient, "game", gameWindow, cfg.Game.MaxRequests)
		// Slot TTL runs past the game timeout so the expiry path always
		// releases the slot before Redis does.
		registry = session.NewRedisRegistry(redisClient, gameTimeout+time.Minute)
	} else {
		ticketMem := ratelimit.NewMemoryRateLimiter("ticket", ticketWindow, cfg.Ticket.CreateMaxRequests)
		gameMem := ratelimit.NewMemoryRateLimiter("game", gameWindow, cfg.Game.MaxRequests)
		ticketLimiter = ticketMem
		gameLimiter = gameMem
		sweepers = append(sweepers, ticketMem, gameMem)
		registry = session.NewMemoryRegistry()
	}

	client := telegram.NewClient(cfg.Telegram)
	gw := telegram.NewChannelGateway(client, cfg.Telegram, cfg.Ticket.TranscriptMaxEntries, log)
	if err := seedActiveChannels(cmd.Context(), gw, ticketRepo); err != nil {
		return fmt.Errorf("failed to seed active ticket channels: %w", err)
	}
	staff := common.NewStaffDirectory(gw, log)

	gameOfferDelay := time.Duration(cfg.Ticket.GameOfferDelaySecs) * time.Second
	channelGrace := time.Duration(cfg.Ticket.ChannelGraceSecs) * time.Second

	createTicket := usecases.NewCreateTicketUseCase(ticketRepo, userRepo, gw, ticketLimiter, dispatcher, log, gameOfferDelay)
	claimTicket := usecases.NewClaimTicketUseCase(ticketRepo, gw, staff, dispatcher, log, cfg.Ticket.AutoAssignEnabled)
	requestClose := usecases.NewRequestCloseUseCase(ticketRepo, gw, staff, log)
	closeTicket := usecases.NewCloseTicketUseCase(ticketRepo, userRepo, gw, staff, dispatcher, log, cfg.Ticket.TranscriptEnabled, channelGrace)
	recordRating := usecases.NewRecordRatingUseCase(ticketRepo, userRepo, gw, dispatcher, log)
	lockTicket := usecases.NewLockTicketUseCase(ticketRepo, gw, staff, log)
	unlockTicket := usecases.NewUnlockTicketUseCase(ticketRepo, gw, staff, log)

	games := gameApp.NewService(registry, gameLimiter, gw, userRepo, gameRepo, dispatcher, log, cfg.Game)

	botDispatcher := bot.NewDispatcher(
		createTicket,
		claimTicket,
		requestClose,
		closeTicket,
		recordRating,
		lockTicket,
		unlockTicket,
		games,
		ticketRepo,
		gw,
		client,
		cfg.Telegram,
		log,
	)

	jobs, err := scheduler.NewManager(log)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	if len(sweepers) > 0 {
		if err := jobs.RegisterRateLimitSweep(sweepers...); err != nil {
			return fmt.Errorf("failed to register rate limit sweep: %w", err)
		}
	}
	if err := jobs.RegisterAnalyticsPrune(analyticsRepo, analyticsRetentionDays); err != nil {
		return fmt.Errorf("failed to register analytics prune: %w", err)
	}
	if cfg.Backup.Enabled {
		backups := backup.NewService(cfg.Backup, cfg.Database.Path, log)
		if err := jobs.RegisterBackupJobs(backups); err != nil {
			return fmt.Errorf("failed to register backup jobs: %w", err)
		}
	}
	jobs.Start()
	defer func() {
		if err := jobs.Stop(); err != nil {
			log.Errorw("failed to stop scheduler", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telegram.UsePolling {
		polling := telegram.NewPollingService(client, botDispatcher, log)
		if err := polling.Start(ctx); err != nil {
			return fmt.Errorf("failed to start polling: %w", err)
		}
		defer polling.Stop()
	} else if cfg.Telegram.WebhookURL != "" {
		if err := client.SetWebhook(ctx, cfg.Telegram.WebhookURL); err != nil {
			return fmt.Errorf("failed to set webhook: %w", err)
		}
	} else {
		log.Warnw("polling disabled and no webhook url configured, relying on an externally registered webhook")
	}

	router := httpRouter.NewRouter(botDispatcher, analyticsRepo, ticketRepo, cfg.Telegram, cfg.Server.Mode, log)

	srv := &http.Server{
		Addr:         cfg.Server.GetAddr(),
		Handler:      router.Engine(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infow("http server starting", "address", cfg.Server.GetAddr(), "mode", cfg.Server.Mode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("http server failed: %w", err)
	case sig := <-quit:
		log.Infow("shutting down", "signal", sig.String())
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("http server forced to shut down", "error", err)
		return err
	}

	log.Infow("helpbot exited gracefully")
	return nil
}

// seedActiveChannels rebuilds the gateway's user-to-channel index from tickets
// that were open or claimed when the process last stopped, so the
// one-channel-per-user check survives restarts.
func seedActiveChannels(ctx context.Context, gw *telegram.ChannelGateway, repo ticket.Repository) error {
	entries := make(map[string]string)
	for _, status := range []vo.Status{vo.StatusOpen, vo.StatusClaimed} {
		st := status
		tickets, _, err := repo.List(ctx, ticket.Filter{Status: &st})
		if err != nil {
			return err
		}
		for _, t := range tickets {
			if t.ChannelID() != "" {
				entries[t.UserID()] = t.ChannelID()
			}
		}
	}
	gw.SeedUserChannels(entries)
	return nil
}
