package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/socketmode"

	httpapi "github.com/ContextLab/lab-manual/internal/api/http"
	"github.com/ContextLab/lab-manual/internal/border"
	"github.com/ContextLab/lab-manual/internal/config"
	"github.com/ContextLab/lab-manual/internal/jobs"
	"github.com/ContextLab/lab-manual/internal/logger"
	"github.com/ContextLab/lab-manual/internal/repository/memory"
	"github.com/ContextLab/lab-manual/internal/scheduler"
	"github.com/ContextLab/lab-manual/internal/service"
	"github.com/ContextLab/lab-manual/internal/slackbot"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting lab manual bot...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("GitHub configuration", "org", cfg.GitHub.Org, "default_team", cfg.GitHub.DefaultTeam)
	logger.Info("Calendar integration", "enabled", cfg.Calendar.Enabled())
	logger.Info("Bio rewriting", "enabled", cfg.Bio.Enabled())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Initialize Repositories
	store := memory.NewStore()

	// Initialize Slack clients
	api := slack.New(
		cfg.Slack.BotToken,
		slack.OptionAppLevelToken(cfg.Slack.AppToken),
	)
	socketClient := socketmode.New(api)

	// Initialize external service adapters
	githubSvc := service.NewGitHubService(cfg.GitHub.Token, cfg.GitHub.Org)

	var calendarSvc service.CalendarService
	calendarPolicy := map[string]string{}
	if cfg.Calendar.Enabled() {
		calendarSvc, err = service.NewCalendarService(ctx, cfg.Calendar.CredentialsFile, cfg.Calendar.Calendars)
		if err != nil {
			logger.Error("Failed to initialize calendar service", "error", err)
			log.Fatalf("Failed to initialize calendar service: %v", err)
		}
		calendarPolicy = config.DefaultCalendarPolicy()
	}

	messenger := slackbot.NewMessenger(api, cfg.Slack.AdminUserID, calendarPolicy)

	var bioSvc service.BioService
	if cfg.Bio.Enabled() {
		bioSvc = service.NewBioService(cfg.Bio.APIKey, cfg.Bio.Model)
	}

	photoSvc := border.NewRenderer(border.DartmouthGreen, cfg.Photo.BorderWidth)

	// Initialize lifecycle services
	lifecycleCfg := service.OnboardingConfig{
		AdminUserID:    cfg.Slack.AdminUserID,
		OrgName:        cfg.GitHub.Org,
		DefaultTeam:    cfg.GitHub.DefaultTeam,
		CalendarPolicy: calendarPolicy,
		PhotoOutputDir: cfg.Photo.OutputDir,
		PhotoBaseURL:   cfg.HTTP.BaseURL,
	}
	onboardingSvc := service.NewOnboardingService(
		store.OnboardingRepository,
		store.StepRepository,
		githubSvc,
		calendarSvc,
		bioSvc,
		photoSvc,
		messenger,
		messenger,
		lifecycleCfg,
	)
	offboardingSvc := service.NewOffboardingService(
		store.OffboardingRepository,
		store.OnboardingRepository,
		messenger,
		messenger,
		lifecycleCfg,
	)

	var correlator service.WorkflowCorrelator
	if cfg.Slack.IntakeChannel != "" {
		correlator = service.NewWorkflowCorrelator(
			store.PartialRepository,
			store.OnboardingRepository,
			onboardingSvc,
			messenger,
		)
		logger.Info("Workflow intake enabled", "channel", cfg.Slack.IntakeChannel)
	}

	// Start the photo/health HTTP server
	httpServer := httpapi.NewServer(cfg.GetHTTPAddress(), cfg.Photo.OutputDir)
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	// Start the cleanup scheduler
	jobRunner := jobs.NewJobRunner(store, cfg)
	cronScheduler := scheduler.NewScheduler(jobRunner)
	cronScheduler.Start()

	// Run the Slack event loop until interrupted
	router := slackbot.NewRouter(
		api,
		socketClient,
		onboardingSvc,
		offboardingSvc,
		correlator,
		githubSvc,
		store.OnboardingRepository,
		cfg.Slack.AdminUserID,
		cfg.Slack.IntakeChannel,
	)
	if err := router.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("Slack event loop failed", "error", err)
		log.Fatalf("Slack event loop failed: %v", err)
	}

	// Graceful shutdown
	logger.Info("Shutting down...")
	cronScheduler.Stop()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	logger.Info("Goodbye")
}
