package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/bracketlab/tournament-platform/internal/config"
	"github.com/bracketlab/tournament-platform/internal/domain/identity"
	"github.com/bracketlab/tournament-platform/internal/domain/preview"
	"github.com/bracketlab/tournament-platform/internal/domain/tournament"
	"github.com/bracketlab/tournament-platform/internal/infrastructure/account/gatekeeper"
	"github.com/bracketlab/tournament-platform/internal/infrastructure/repository/memory"
	"github.com/bracketlab/tournament-platform/internal/infrastructure/repository/postgres"
	"github.com/bracketlab/tournament-platform/internal/infrastructure/teams"
	"github.com/bracketlab/tournament-platform/internal/interfaces/httpapi"
	"github.com/bracketlab/tournament-platform/internal/observability"
	"github.com/bracketlab/tournament-platform/internal/platform/cache"
	idgen "github.com/bracketlab/tournament-platform/internal/platform/id"
	"github.com/bracketlab/tournament-platform/internal/platform/kvstore"
	"github.com/bracketlab/tournament-platform/internal/platform/logging"
	"github.com/bracketlab/tournament-platform/internal/platform/resilience"
	"github.com/bracketlab/tournament-platform/internal/usecase"
)

// App owns the HTTP server plus the background loops and the shutdown order
// of everything wired behind it.
type App struct {
	cfg    config.Config
	logger *slog.Logger

	server     *http.Server
	pprofSrv   *http.Server
	db         *sqlx.DB
	previewSvc *usecase.PreviewService

	stopPrompt      context.CancelFunc
	shutdownTracing func(context.Context) error
	stopProfiler    func() error
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	zlog := logging.NewJSON(cfg.LogLevel)
	logging.SetDefault(zlog)

	shutdownTracing, err := observability.InitUptrace(cfg, zlog)
	if err != nil {
		return nil, fmt.Errorf("init uptrace: %w", err)
	}
	stopProfiler, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init pyroscope: %w", err)
	}
	pprofSrv, err := observability.StartPprofServer(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("start pprof: %w", err)
	}

	var (
		db        *sqlx.DB
		kv        kvstore.Store
		tournRepo tournament.Repository
	)
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		db, err = openDB(ctx, cfg)
		if err != nil {
			return nil, err
		}
		kv = postgres.NewKVRepository(db)
		tournRepo = postgres.NewTournamentRepository(db)
	default:
		kv = kvstore.NewMemory()
		tournRepo = memory.NewTournamentRepository()
	}

	var teamCache *cache.Store
	if cfg.CacheEnabled {
		teamCache = cache.NewStore(cfg.CacheTTL)
	}

	var linker usecase.TeamLinker = disabledTeamLinker{}
	if cfg.TeamsAPIEnabled {
		linker = teams.NewClient(teams.ClientConfig{
			HTTPClient: &http.Client{Timeout: cfg.TeamsAPITimeout},
			BaseURL:    cfg.TeamsAPIBaseURL,
			APIKey:     cfg.TeamsAPIKey,
			Timeout:    cfg.TeamsAPITimeout,
			Logger:     zlog,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.TeamsCircuitEnabled,
				FailureThreshold: cfg.TeamsCircuitFailureCount,
				OpenTimeout:      cfg.TeamsCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.TeamsCircuitHalfOpenMaxReq,
			},
		})
	}

	previewRules := preview.Rules{
		PromptAfter:        cfg.PreviewPromptAfter,
		PromptSectionCount: cfg.PreviewPromptSectionCount,
		TotalSections:      len(preview.AllSections),
		RecheckInterval:    cfg.PreviewRecheckInterval,
	}

	accessSvc := usecase.NewAccessService()
	previewSvc := usecase.NewPreviewService(kv, previewRules, zlog)
	teamLinkSvc := usecase.NewTeamLinkService(kv, linker, teamCache, zlog)
	tournamentSvc := usecase.NewTournamentService(tournRepo, idgen.NewRandomGenerator(), zlog)

	gatekeeperClient := gatekeeper.NewClient(
		&http.Client{Timeout: cfg.GatekeeperTimeout},
		cfg.GatekeeperBaseURL,
		cfg.GatekeeperIntrospectPath,
		logger,
	)
	var verifier httpapi.TokenVerifier = gatekeeperClient
	if cfg.GatekeeperCircuitEnabled {
		verifier = &verifierWithBreaker{
			inner: gatekeeperClient,
			breaker: resilience.NewCircuitBreaker(
				cfg.GatekeeperCircuitFailures,
				cfg.GatekeeperCircuitOpenTimeout,
				cfg.GatekeeperCircuitHalfOpenMax,
			),
		}
	}

	handler := httpapi.NewHandler(accessSvc, previewSvc, teamLinkSvc, tournamentSvc, logger, cfg.LinkSweepWorkers)
	router := httpapi.NewRouter(handler, verifier, logger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &App{
		cfg:             cfg,
		logger:          logger,
		server:          server,
		pprofSrv:        pprofSrv,
		db:              db,
		previewSvc:      previewSvc,
		shutdownTracing: shutdownTracing,
		stopProfiler:    stopProfiler,
	}, nil
}

// Start begins serving HTTP and launches the conversion prompt loop. It
// returns once the listener fails or is shut down.
func (a *App) Start() error {
	loopCtx, cancel := context.WithCancel(context.Background())
	a.stopPrompt = cancel
	go a.previewSvc.StartPromptLoop(loopCtx)

	a.logger.Info("http server starting", "addr", a.cfg.HTTPAddr)
	err := a.server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	if a.stopPrompt != nil {
		a.stopPrompt()
	}

	var errs []error
	if err := a.server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if err := observability.StopPprofServer(a.pprofSrv, a.logger, 5*time.Second); err != nil {
		errs = append(errs, fmt.Errorf("pprof shutdown: %w", err))
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("db close: %w", err))
		}
	}
	if a.stopProfiler != nil {
		if err := a.stopProfiler(); err != nil {
			errs = append(errs, fmt.Errorf("profiler stop: %w", err))
		}
	}
	if a.shutdownTracing != nil {
		if err := a.shutdownTracing(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracing shutdown: %w", err))
		}
	}

	return errors.Join(errs...)
}

type disabledTeamLinker struct{}

func (disabledTeamLinker) LinkTeam(context.Context, string, string) (usecase.LinkedTeam, error) {
	return usecase.LinkedTeam{}, errors.New("team linking is not configured")
}

// verifierWithBreaker trips after repeated introspection transport failures.
// Rejected tokens are not failures of the gatekeeper itself.
type verifierWithBreaker struct {
	inner   httpapi.TokenVerifier
	breaker *resilience.CircuitBreaker
}

func (v *verifierWithBreaker) VerifyAccessToken(ctx context.Context, token string) (*identity.Snapshot, error) {
	if err := v.breaker.Allow(); err != nil {
		return nil, fmt.Errorf("%w: gatekeeper circuit open", usecase.ErrDependencyUnavailable)
	}

	snap, err := v.inner.VerifyAccessToken(ctx, token)
	if err != nil {
		if errors.Is(err, usecase.ErrUnauthorized) {
			v.breaker.RecordSuccess()
		} else {
			v.breaker.RecordFailure()
		}
		return nil, err
	}

	v.breaker.RecordSuccess()
	return snap, nil
}
