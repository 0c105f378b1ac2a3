package bootstrap

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/asaskevich/EventBus"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	domainimage "plant-diagnosis-server/internal/domain/image"
	"plant-diagnosis-server/internal/domain/diagnosis"
	"plant-diagnosis-server/internal/domain/monitor"
	platformconfig "plant-diagnosis-server/internal/platform/config"
	platformerrors "plant-diagnosis-server/internal/platform/errors"
	platformlogging "plant-diagnosis-server/internal/platform/logging"
	platformstorage "plant-diagnosis-server/internal/platform/storage"
	httptransport "plant-diagnosis-server/internal/transport/http"
	"plant-diagnosis-server/internal/transport/http/diagapi"
)

// Options selects the run mode chosen on the command line.
type Options struct {
	// RunOnce probes storage and runs a single batch cycle instead of the loop.
	RunOnce bool
	// PollInterval overrides the configured loop interval when positive.
	PollInterval time.Duration
}

type stepFn func(context.Context, *appState) error

type initStep struct {
	ID        string
	Title     string
	DependsOn []string
	Kind      platformerrors.Kind
	Execute   stepFn
}

type appState struct {
	config     *platformconfig.Config
	configPath string
	logger     *platformlogging.Logger
	db         *gorm.DB
	repo       *platformstorage.ImageRepository
	store      *domainimage.S3Store
	pipeline   *domainimage.Pipeline
	fetcher    *domainimage.Fetcher
	requester  *diagnosis.Requester
	bus        EventBus.Bus

	// loopRunner paces records with the configured delay; apiRunner serves
	// HTTP callers without it.
	loopRunner *monitor.Orchestrator
	apiRunner  *monitor.Orchestrator
}

// Run drives the whole service lifecycle: configuration, dependency
// initialisation, the poll loop and the HTTP entry point, and shutdown.
func Run(ctx context.Context, opts Options) error {
	state := &appState{}

	steps := InitGraph()
	if err := executeInitSteps(ctx, steps, state); err != nil {
		return err
	}

	config := state.config
	logger := state.logger
	if config == nil || logger == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"bootstrap state validation",
			"config/logger not initialised",
		)
	}
	defer logger.Close()

	logBootstrapGraph(steps, logger)

	if opts.RunOnce {
		return runSingleCycle(ctx, state)
	}

	rootCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	signalCtx, stop := signal.NotifyContext(rootCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(rootCtx)

	if err := startServices(state, opts, group, groupCtx); err != nil {
		cancel()
		return err
	}

	return waitForShutdown(signalCtx, cancel, logger, group)
}

// runSingleCycle performs the storage probe and one batch cycle.
func runSingleCycle(ctx context.Context, state *appState) error {
	logger := state.logger

	logger.InfoTag("BOOT", "testing storage connection")
	if !state.loopRunner.TestConnection(ctx) {
		logger.ErrorTag("BOOT", "storage connection test failed")
		return platformerrors.New(platformerrors.KindStorage, "bootstrap run once", "storage connection test failed")
	}
	logger.InfoTag("BOOT", "storage connection ok")

	summary := state.loopRunner.RunOnce(ctx)
	logger.InfoTag("MONITOR", "cycle finished: %s (%d of %d)", summary.Message, summary.Processed, summary.Total)
	if summary.Status == monitor.StatusError {
		return platformerrors.New(platformerrors.KindUnknown, "bootstrap run once", summary.Message)
	}
	return nil
}

func logBootstrapGraph(steps []initStep, logger *platformlogging.Logger) {
	logger.InfoTag("BOOT", "initialisation order")
	for _, step := range steps {
		logger.InfoTag("BOOT", "  %s", step.Title)
	}
}

func executeInitSteps(ctx context.Context, steps []initStep, state *appState) error {
	if state == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"execute init steps",
			"nil bootstrap state",
		)
	}

	completed := make(map[string]struct{}, len(steps))
	for _, step := range steps {
		for _, dep := range step.DependsOn {
			if _, ok := completed[dep]; !ok {
				return platformerrors.New(
					platformerrors.KindBootstrap,
					step.ID,
					fmt.Sprintf("dependency %s not satisfied", dep),
				)
			}
		}
		if step.Execute == nil {
			return platformerrors.New(
				platformerrors.KindBootstrap,
				step.ID,
				"missing execute function",
			)
		}
		if err := step.Execute(ctx, state); err != nil {
			var typed *platformerrors.Error
			if stderrors.As(err, &typed) {
				return err
			}

			kind := step.Kind
			if kind == "" {
				kind = platformerrors.KindBootstrap
			}
			return platformerrors.Wrap(kind, step.ID, "bootstrap step failed", err)
		}
		completed[step.ID] = struct{}{}
	}
	return nil
}

func InitGraph() []initStep {
	return []initStep{
		{
			ID:      "config:load",
			Title:   "Load configuration",
			Kind:    platformerrors.KindConfig,
			Execute: loadConfigStep,
		},
		{
			ID:        "logging:init-provider",
			Title:     "Initialise logging provider",
			DependsOn: []string{"config:load"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initLoggingStep,
		},
		{
			ID:        "storage:open-database",
			Title:     "Open image database",
			DependsOn: []string{"logging:init-provider"},
			Kind:      platformerrors.KindStorage,
			Execute:   openDatabaseStep,
		},
		{
			ID:        "storage:init-object-store",
			Title:     "Initialise object store client",
			DependsOn: []string{"logging:init-provider"},
			Kind:      platformerrors.KindStorage,
			Execute:   initObjectStoreStep,
		},
		{
			ID:        "vision:init-requester",
			Title:     "Initialise vision requester",
			DependsOn: []string{"logging:init-provider"},
			Kind:      platformerrors.KindVision,
			Execute:   initRequesterStep,
		},
		{
			ID:        "monitor:init-orchestrator",
			Title:     "Initialise batch orchestrator",
			DependsOn: []string{"storage:open-database", "storage:init-object-store", "vision:init-requester"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initOrchestratorStep,
		},
	}
}

func loadConfigStep(_ context.Context, state *appState) error {
	result, err := platformconfig.NewLoader().WithDotEnv(true).Load()
	if err != nil {
		return err
	}
	state.config = result.Config
	state.configPath = result.Path
	return nil
}

func initLoggingStep(_ context.Context, state *appState) error {
	if state.config == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"logging:init-provider",
			"config not loaded",
		)
	}

	logger, err := platformlogging.New(platformlogging.Config{
		Level:    state.config.Log.Level,
		Dir:      state.config.Log.Dir,
		Filename: state.config.Log.File,
	})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "logging:init-provider", "failed to initialize logging provider", err)
	}

	state.logger = logger
	logger.InfoTag("BOOT", "logging ready [%s] config=%s", state.config.Log.Level, state.configPath)
	return nil
}

func openDatabaseStep(_ context.Context, state *appState) error {
	db, err := platformstorage.Open(state.config.Database.Path)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindStorage, "storage:open-database", "failed to open image database", err)
	}
	state.db = db
	state.repo = platformstorage.NewImageRepository(db, state.logger)
	state.logger.InfoTag("BOOT", "image database ready at %s", state.config.Database.Path)
	return nil
}

func initObjectStoreStep(ctx context.Context, state *appState) error {
	store, err := domainimage.NewS3Store(ctx, state.config.Storage, state.logger)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindStorage, "storage:init-object-store", "failed to create object store client", err)
	}
	state.store = store

	pipeline, err := domainimage.NewPipeline(domainimage.Options{
		Security: &state.config.Vision.Security,
		Logger:   state.logger,
	})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "storage:init-object-store", "failed to create image pipeline", err)
	}
	state.pipeline = pipeline
	state.fetcher = domainimage.NewFetcher(store, state.config.Storage, pipeline.Validator(), state.logger)
	return nil
}

func initRequesterStep(_ context.Context, state *appState) error {
	requester, err := diagnosis.NewRequester(state.config.Vision, state.pipeline, state.logger)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindVision, "vision:init-requester", "failed to create vision requester", err)
	}
	state.requester = requester
	state.logger.InfoTag("BOOT", "vision provider ready: %s/%s", state.config.Vision.Type, state.config.Vision.ModelName)
	return nil
}

func initOrchestratorStep(_ context.Context, state *appState) error {
	bus := EventBus.New()
	logger := state.logger

	if err := bus.Subscribe(monitor.TopicCompleted, func(outcome monitor.Outcome) {
		logger.InfoTag("MONITOR", "diagnosis stored for image %s", outcome.ID)
	}); err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "monitor:init-orchestrator", "failed to subscribe completion events", err)
	}
	if err := bus.Subscribe(monitor.TopicFailed, func(outcome monitor.Outcome) {
		logger.WarnTag("MONITOR", "image %s failed: %s (%v)", outcome.ID, outcome.Message, outcome.Err)
	}); err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "monitor:init-orchestrator", "failed to subscribe failure events", err)
	}
	state.bus = bus

	state.loopRunner = monitor.New(monitor.Options{
		Records:     state.repo,
		Fetcher:     state.fetcher,
		Diagnoser:   state.requester,
		Bus:         bus,
		RecordDelay: state.config.Monitor.RecordDelay,
		Logger:      logger,
	})
	state.apiRunner = monitor.New(monitor.Options{
		Records:   state.repo,
		Fetcher:   state.fetcher,
		Diagnoser: state.requester,
		Bus:       bus,
		Logger:    logger,
	})
	return nil
}

func startServices(state *appState, opts Options, g *errgroup.Group, groupCtx context.Context) error {
	if state.config.Web.Enabled {
		if _, err := startHTTPServer(state, g, groupCtx); err != nil {
			return err
		}
	}

	interval := opts.PollInterval
	if interval <= 0 {
		interval = state.config.Monitor.PollInterval
	}

	g.Go(func() error {
		state.loopRunner.RunLoop(groupCtx, interval)
		return nil
	})
	state.logger.InfoTag("BOOT", "poll loop started, interval %s", interval)
	return nil
}

func startHTTPServer(state *appState, g *errgroup.Group, groupCtx context.Context) (*http.Server, error) {
	config := state.config
	logger := state.logger

	httpRouter, err := httptransport.Build(httptransport.Options{
		Config: config,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}

	apiService, err := diagapi.NewService(state.apiRunner, logger)
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindTransport, "diagapi:new-service", "failed to create API service", err)
	}
	if err := apiService.Register(groupCtx, httpRouter.API); err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindTransport, "diagapi:register", "failed to register API routes", err)
	}

	httpServer := &http.Server{
		Addr:    config.Web.IP + ":" + strconv.Itoa(config.Web.Port),
		Handler: httpRouter.Engine,
	}

	g.Go(func() error {
		logger.InfoTag("HTTP", "API listening on http://%s", httpServer.Addr)

		go func() {
			<-groupCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.ErrorTag("HTTP", "HTTP server shutdown failed: %v", err)
			} else {
				logger.InfoTag("HTTP", "HTTP server stopped")
			}
		}()

		if err := httpServer.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			logger.ErrorTag("HTTP", "HTTP server failed: %v", err)
			return err
		}
		return nil
	})

	return httpServer, nil
}

func waitForShutdown(
	ctx context.Context,
	cancel context.CancelFunc,
	logger *platformlogging.Logger,
	g *errgroup.Group,
) error {
	<-ctx.Done()
	logger.InfoTag("BOOT", "shutdown signal received: %v", context.Cause(ctx))

	cancel()

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.ErrorTag("BOOT", "error during shutdown: %v", err)
			return err
		}
		logger.InfoTag("BOOT", "all services stopped")
	case <-time.After(15 * time.Second):
		logger.ErrorTag("BOOT", "shutdown timed out")
		return platformerrors.New(platformerrors.KindBootstrap, "bootstrap shutdown", "shutdown timed out")
	}
	return nil
}
