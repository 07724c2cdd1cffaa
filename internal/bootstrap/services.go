package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/coffeehouse/config"
	"github.com/target/coffeehouse/internal/adapters/backend"
	"github.com/target/coffeehouse/internal/adapters/memory"
	redisadapter "github.com/target/coffeehouse/internal/adapters/redis"
	"github.com/target/coffeehouse/internal/data"
	"github.com/target/coffeehouse/internal/ports"
	"github.com/target/coffeehouse/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Auth     *service.AuthService
	Roles    *service.RoleCookieService
	Codec    ports.RoleCodec
	Cart     *service.CartService
	Customer *service.CustomerService
	Staff    *service.StaffService

	// Purger is set when the cart store needs the reaper to drop expired carts.
	Purger service.CartPurger
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB // Optional: required when CART_STORE=postgres
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// storage groups the adapters backing the cart and cache ports.
type storage struct {
	carts  ports.CartStore
	purger service.CartPurger
	cache  ports.Cache
}

func buildStorage(deps *ServiceDeps) (storage, error) {
	cfg := deps.Config
	var st storage

	switch cfg.Cart.Store {
	case config.CartStorePostgres:
		if deps.DB == nil {
			return st, errors.New("postgres cart store requires a database connection")
		}
		repo := data.NewCartRepo(deps.DB, cfg.Cart.TTL)
		st.carts, st.purger = repo, repo
	case config.CartStoreMemory:
		mem := memory.NewCartStore(cfg.Cart.TTL)
		st.carts, st.purger = mem, mem
	default:
		if deps.RedisClient == nil {
			return st, errors.New("redis cart store requires a redis client")
		}
		st.carts = redisadapter.NewCartStore(deps.RedisClient, cfg.Cart.TTL)
	}

	if cfg.Cache.Enabled {
		// A memory cart store means a single process, so a local cache stays coherent.
		if cfg.Cart.Store == config.CartStoreMemory || deps.RedisClient == nil {
			st.cache = memory.NewCache()
		} else {
			st.cache = data.NewRedisCacheRepo(deps.RedisClient, cfg.Cache.KeyPrefix)
		}
	}
	return st, nil
}

func newBackendClient(cfg config.BackendConfig, logger *slog.Logger) (*backend.Client, error) {
	client, err := backend.NewClient(backend.Config{
		BaseURL: cfg.URL,
		Timeout: cfg.Timeout,
		Breaker: backend.BreakerConfig{
			MaxRequests:  cfg.BreakerMaxRequests,
			Interval:     cfg.BreakerInterval,
			Timeout:      cfg.BreakerTimeout,
			MinRequests:  cfg.BreakerMinRequests,
			FailureRatio: cfg.BreakerFailureRatio,
		},
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create backend client: %w", err)
	}
	return client, nil
}

// NewServices wires adapters into the application services.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps with config are required")
	}
	if deps.RedisClient == nil {
		return ServiceContainer{}, errors.New("redis client is required for sessions")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config

	st, err := buildStorage(deps)
	if err != nil {
		return ServiceContainer{}, err
	}
	sessions := redisadapter.NewSessionStoreWithPrefix(deps.RedisClient, cfg.Cache.KeyPrefix+"session:")

	client, err := newBackendClient(cfg.Backend, logger)
	if err != nil {
		return ServiceContainer{}, err
	}
	resolver, err := backend.NewRoleResolver(client, cfg.Backend.RoleClaimPath)
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create role resolver: %w", err)
	}

	auth, err := BuildAuthService(AuthConfig{Auth: cfg.Auth, Sessions: sessions, Logger: logger})
	if err != nil {
		return ServiceContainer{}, err
	}
	roles, codec, err := BuildRoleService(RoleConfig{
		RoleCookie: cfg.RoleCookie,
		Sessions:   sessions,
		Resolver:   resolver,
		Logger:     logger,
	})
	if err != nil {
		return ServiceContainer{}, err
	}

	cart, err := service.NewCartService(service.CartServiceOptions{
		Store:      st.carts,
		Catalog:    client,
		Orders:     client,
		Payments:   client,
		Cache:      st.cache,
		CatalogTTL: cfg.Cache.CatalogTTL,
		Logger:     logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create cart service: %w", err)
	}
	customer, err := service.NewCustomerService(service.CustomerServiceOptions{
		Orders:   client,
		Payments: client,
		Users:    client,
		Logger:   logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create customer service: %w", err)
	}
	staff, err := service.NewStaffService(service.StaffServiceOptions{
		Catalog:  client,
		Orders:   client,
		Payments: client,
		Cache:    st.cache,
		Logger:   logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create staff service: %w", err)
	}

	return ServiceContainer{
		Auth:     auth,
		Roles:    roles,
		Codec:    codec,
		Cart:     cart,
		Customer: customer,
		Staff:    staff,
		Purger:   st.purger,
	}, nil
}

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

const (
	// shutdownWaitTimeout is the maximum time to wait for services to stop gracefully.
	shutdownWaitTimeout = 15 * time.Second
)

// serviceStartupDeps groups dependencies for service startup.
type serviceStartupDeps struct {
	ctx             context.Context
	cfg             *ServiceOrchestrationConfig
	logger          *slog.Logger
	enabledServices map[config.ServiceMode]bool
	errCh           chan error
}

// backgroundService describes a startable background component.
type backgroundService struct {
	mode  config.ServiceMode
	name  string
	start func(context.Context) error
}

// backgroundServiceHandle tracks a running background service.
type backgroundServiceHandle struct {
	mode config.ServiceMode
	name string
	done <-chan struct{}
}

// startHTTPServerIfEnabled starts the HTTP server if enabled.
func startHTTPServerIfEnabled(deps *serviceStartupDeps) (*http.Server, error) {
	if deps == nil || deps.cfg == nil || !deps.enabledServices[config.ServiceModeHTTP] {
		return nil, nil
	}
	return StartHTTPServer(&HTTPServerConfig{
		Config:   deps.cfg.Config,
		Services: deps.cfg.Services,
		Logger:   deps.logger,
		ErrCh:    deps.errCh,
	})
}

func launchBackground(ctx context.Context, deps *serviceStartupDeps, descriptor backgroundService) <-chan struct{} {
	if deps == nil || !deps.enabledServices[descriptor.mode] {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := descriptor.start(ctx); err != nil {
			errMsg := fmt.Errorf("%s failed: %w", descriptor.name, err)
			select {
			case deps.errCh <- errMsg:
			case <-ctx.Done():
			default:
				deps.logger.WarnContext(ctx, "dropping background service error", "service", descriptor.name, "error", errMsg)
			}
		}
	}()

	deps.logger.InfoContext(ctx, "background service started", "service", descriptor.name, "mode", descriptor.mode)
	return done
}

func startBackgroundServices(deps *serviceStartupDeps, services []backgroundService) []backgroundServiceHandle {
	if deps == nil {
		return nil
	}
	handles := make([]backgroundServiceHandle, 0, len(services))

	for _, svc := range services {
		done := launchBackground(deps.ctx, deps, svc)
		if done == nil {
			continue
		}

		handles = append(handles, backgroundServiceHandle{
			mode: svc.mode,
			name: svc.name,
			done: done,
		})
	}

	return handles
}

func newReaperBackgroundService(deps *serviceStartupDeps) backgroundService {
	return backgroundService{
		mode: config.ServiceModeReaper,
		name: "cart reaper",
		start: func(ctx context.Context) error {
			if deps == nil || deps.cfg == nil || deps.cfg.Config == nil {
				return nil
			}
			purger := deps.cfg.Services.Purger
			if purger == nil {
				return errors.New("configured cart store does not support purging")
			}
			reaper, err := service.NewReaperService(service.ReaperServiceOptions{
				Carts:  purger,
				Config: deps.cfg.Config.Reaper,
				Logger: deps.logger,
			})
			if err != nil {
				return fmt.Errorf("create reaper: %w", err)
			}
			return reaper.Run(ctx)
		},
	}
}

func buildBackgroundServices(deps *serviceStartupDeps) []backgroundService {
	if deps == nil {
		return nil
	}
	return []backgroundService{
		newReaperBackgroundService(deps),
	}
}

// RunServicesWithShutdown starts all enabled services and manages their lifecycle.
// This function blocks until a shutdown signal is received or a service fails.
func RunServicesWithShutdown(ctx context.Context, cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}
	serviceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	enabledServices, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}
	errCh := make(chan error, errorChannelBufferSize(enabledServices))

	deps := &serviceStartupDeps{
		ctx:             serviceCtx,
		cfg:             cfg,
		logger:          logger,
		enabledServices: enabledServices,
		errCh:           errCh,
	}
	server, err := startHTTPServerIfEnabled(deps)
	if err != nil {
		return err
	}
	backgrounds := startBackgroundServices(deps, buildBackgroundServices(deps))

	// Wait for shutdown signal or error
	return waitForShutdown(shutdownConfig{
		ctx:             serviceCtx,
		cancel:          cancel,
		errCh:           errCh,
		httpServer:      server,
		shutdownTimeout: cfg.Config.HTTP.ShutdownTimeout,
		logger:          logger,
		backgrounds:     backgrounds,
	})
}

func errorChannelCapacity(enabled map[config.ServiceMode]bool) int {
	count := 0
	for _, mode := range config.ValidServiceModes() {
		if enabled[mode] {
			count++
		}
	}
	return count
}

func errorChannelBufferSize(enabled map[config.ServiceMode]bool) int {
	return errorChannelCapacity(enabled) + 1
}

// shutdownConfig contains dependencies for graceful shutdown.
type shutdownConfig struct {
	ctx             context.Context
	cancel          context.CancelFunc
	errCh           <-chan error
	httpServer      *http.Server
	shutdownTimeout time.Duration
	logger          *slog.Logger
	backgrounds     []backgroundServiceHandle
}

// waitForShutdown waits for shutdown signal, parent cancellation or service error.
func waitForShutdown(cfg shutdownConfig) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		cfg.logger.Info("shutting down services...")
		cfg.cancel()
		return gracefulStop(cfg)
	case <-cfg.ctx.Done():
		cfg.logger.Info("context canceled, shutting down services...")
		return gracefulStop(cfg)
	case err := <-cfg.errCh:
		cfg.logger.Error("service error", "error", err)
		cfg.cancel()
		if stopErr := gracefulStop(cfg); stopErr != nil {
			cfg.logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}
}

// gracefulStop attempts to gracefully stop all services.
func gracefulStop(cfg shutdownConfig) error {
	if cfg.httpServer != nil {
		timeout := cfg.shutdownTimeout
		if timeout <= 0 {
			timeout = shutdownWaitTimeout
		}
		// The service context is already canceled, so shutdown gets a fresh deadline.
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(cfg.ctx), timeout)
		defer cancel()

		if err := ShutdownHTTPServer(ShutdownConfig{
			Context: shutdownCtx,
			Server:  cfg.httpServer,
			Logger:  cfg.logger,
		}); err != nil {
			return err
		}
	}

	for _, svc := range cfg.backgrounds {
		waitForService(svc.done, svc.name, cfg.logger)
	}

	return nil
}

// waitForService waits for a service to finish with timeout.
func waitForService(done <-chan struct{}, name string, logger *slog.Logger) {
	if done == nil {
		return
	}
	select {
	case <-done:
		logger.Info(name + " stopped")
	case <-time.After(shutdownWaitTimeout):
		logger.Warn("timeout waiting for " + name + " to stop")
	}
}
