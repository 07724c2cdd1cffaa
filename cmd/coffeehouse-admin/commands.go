package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/coffeehouse/config"
	redisadapter "github.com/target/coffeehouse/internal/adapters/redis"
	"github.com/target/coffeehouse/internal/bootstrap"
	"github.com/target/coffeehouse/internal/data"
	httpx "github.com/target/coffeehouse/internal/http"
	"github.com/target/coffeehouse/internal/ports"
	"github.com/target/coffeehouse/internal/rolesync"
	"github.com/target/coffeehouse/internal/service"
)

const defaultMigrationTimeout = 5 * time.Minute

var errMemoryCartStore = errors.New("memory carts live inside the server process; nothing to do from the CLI")

type migrateOptions struct {
	Timeout time.Duration
}

func parseMigrateFlags(args []string) (migrateOptions, error) {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := migrateOptions{}
	fs.DurationVar(&opts.Timeout, "timeout", defaultMigrationTimeout, "Maximum duration to wait for migrations to complete")

	if err := fs.Parse(args); err != nil {
		return migrateOptions{}, err
	}
	if opts.Timeout <= 0 {
		return migrateOptions{}, errors.New("--timeout must be greater than zero")
	}
	return opts, nil
}

func runMigrations(cmdCtx *commandContext, args []string) error {
	opts, err := parseMigrateFlags(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	db, err := connectDB(cmdCtx)
	if err != nil {
		return err
	}
	defer closeDB(cmdCtx.Logger, db)

	return bootstrap.RunMigrations(ctx, db, cmdCtx.Logger)
}

type purgeOptions struct {
	BatchSize int
}

func parsePurgeFlags(args []string, defaults config.ReaperConfig) (purgeOptions, error) {
	fs := flag.NewFlagSet("purge-carts", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := purgeOptions{}
	fs.IntVar(&opts.BatchSize, "batch-size", defaults.BatchSize, "Maximum carts deleted per statement")

	if err := fs.Parse(args); err != nil {
		return purgeOptions{}, err
	}
	if opts.BatchSize < 1 {
		return purgeOptions{}, errors.New("--batch-size must be at least 1")
	}
	return opts, nil
}

func runPurgeCarts(cmdCtx *commandContext, args []string) error {
	opts, err := parsePurgeFlags(args, cmdCtx.Config.Reaper)
	if err != nil {
		return err
	}
	switch cmdCtx.Config.Cart.Store {
	case config.CartStoreRedis:
		return writeln(cmdCtx.Out, "redis carts expire on their own; nothing to purge")
	case config.CartStoreMemory:
		return errMemoryCartStore
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, 2*time.Minute)
	defer cancel()

	db, err := connectDB(cmdCtx)
	if err != nil {
		return err
	}
	defer closeDB(cmdCtx.Logger, db)

	reaperCfg := cmdCtx.Config.Reaper
	reaperCfg.BatchSize = opts.BatchSize
	reaper, err := service.NewReaperService(service.ReaperServiceOptions{
		Carts:  data.NewCartRepo(db, cmdCtx.Config.Cart.TTL),
		Config: reaperCfg,
		Logger: cmdCtx.Logger,
	})
	if err != nil {
		return err
	}
	n, err := reaper.PurgeOnce(ctx)
	if err != nil {
		return err
	}
	return writef(cmdCtx.Out, "purged %d expired carts\n", n)
}

type clearCartOptions struct {
	UserID string
}

func parseClearCartFlags(args []string) (clearCartOptions, error) {
	fs := flag.NewFlagSet("clear-cart", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := clearCartOptions{}
	fs.StringVar(&opts.UserID, "user", "", "User id whose cart is emptied (required)")

	if err := fs.Parse(args); err != nil {
		return clearCartOptions{}, err
	}
	if opts.UserID = strings.TrimSpace(opts.UserID); opts.UserID == "" {
		return clearCartOptions{}, errors.New("--user is required")
	}
	return opts, nil
}

func runClearCart(cmdCtx *commandContext, args []string) error {
	opts, err := parseClearCartFlags(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, 30*time.Second)
	defer cancel()

	var store ports.CartStore
	switch cmdCtx.Config.Cart.Store {
	case config.CartStoreMemory:
		return errMemoryCartStore
	case config.CartStorePostgres:
		db, dbErr := connectDB(cmdCtx)
		if dbErr != nil {
			return dbErr
		}
		defer closeDB(cmdCtx.Logger, db)
		store = data.NewCartRepo(db, cmdCtx.Config.Cart.TTL)
	default:
		client, redisErr := connectRedis(cmdCtx)
		if redisErr != nil {
			return redisErr
		}
		defer closeRedis(cmdCtx.Logger, client)
		store = redisadapter.NewCartStore(client, cmdCtx.Config.Cart.TTL)
	}

	if err := store.Delete(ctx, opts.UserID); err != nil {
		return err
	}
	return writef(cmdCtx.Out, "cart cleared for %s\n", opts.UserID)
}

type listSessionsOptions struct {
	Limit int
}

func parseListSessionsFlags(args []string) (listSessionsOptions, error) {
	fs := flag.NewFlagSet("list-sessions", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := listSessionsOptions{}
	fs.IntVar(&opts.Limit, "limit", 100, "Maximum number of sessions to list")

	if err := fs.Parse(args); err != nil {
		return listSessionsOptions{}, err
	}
	if opts.Limit < 1 {
		return listSessionsOptions{}, errors.New("--limit must be at least 1")
	}
	return opts, nil
}

func runListSessions(cmdCtx *commandContext, args []string) error {
	opts, err := parseListSessionsFlags(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, 2*time.Minute)
	defer cancel()

	client, err := connectRedis(cmdCtx)
	if err != nil {
		return err
	}
	defer closeRedis(cmdCtx.Logger, client)

	prefix := cmdCtx.Config.Cache.KeyPrefix + "session:"
	return listSessions(ctx, cmdCtx.Out, client, prefix, opts.Limit)
}

// listSessions prints session ids under prefix with their TTL. Values are not
// printed since they carry user details.
func listSessions(ctx context.Context, out io.Writer, client redis.UniversalClient, prefix string, limit int) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	if err := writef(tw, "SESSION\tTTL\n"); err != nil {
		return err
	}

	total := 0
	iter := client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for total < limit && iter.Next(ctx) {
		key := iter.Val()
		ttl, err := client.TTL(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("ttl %s: %w", key, err)
		}
		if err := writef(tw, "%s\t%s\n", strings.TrimPrefix(key, prefix), ttl.Round(time.Second)); err != nil {
			return err
		}
		total++
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return writef(out, "\nTotal sessions: %d\n", total)
}

type roleSyncOptions struct {
	BaseURL   string
	SessionID string
	Delay     time.Duration
	Timeout   time.Duration
}

func parseRoleSyncFlags(args []string, baseURL string) (roleSyncOptions, error) {
	fs := flag.NewFlagSet("role-sync", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := roleSyncOptions{}
	fs.StringVar(&opts.BaseURL, "base-url", baseURL, "Externally visible base URL of the app")
	fs.StringVar(&opts.SessionID, "session", "", "Session id to present in the session cookie (required)")
	fs.DurationVar(&opts.Delay, "delay", rolesync.DefaultDelay, "Settling delay before the call")
	fs.DurationVar(&opts.Timeout, "timeout", 10*time.Second, "Request timeout")

	if err := fs.Parse(args); err != nil {
		return roleSyncOptions{}, err
	}
	if opts.SessionID = strings.TrimSpace(opts.SessionID); opts.SessionID == "" {
		return roleSyncOptions{}, errors.New("--session is required")
	}
	if opts.Timeout <= 0 {
		return roleSyncOptions{}, errors.New("--timeout must be greater than zero")
	}
	return opts, nil
}

func runRoleSync(cmdCtx *commandContext, args []string) error {
	opts, err := parseRoleSyncFlags(args, cmdCtx.Config.HTTP.BaseURL)
	if err != nil {
		return err
	}
	return roleSync(cmdCtx.Ctx, cmdCtx.Out, cmdCtx.Logger, opts, cmdCtx.Config.RoleCookie.Name)
}

type roleSyncOutcome struct {
	res rolesync.Result
	err error
}

// roleSync runs one synchronizer cycle against a live server and prints the
// role cookie the server left in the jar.
func roleSync(ctx context.Context, out io.Writer, logger *slog.Logger, opts roleSyncOptions, roleCookie string) error {
	base, err := url.Parse(opts.BaseURL)
	if err != nil || !base.IsAbs() {
		return fmt.Errorf("--base-url must be an absolute URL: %q", opts.BaseURL)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return err
	}
	jar.SetCookies(base, []*http.Cookie{{Name: httpx.DefaultSessionCookie, Value: opts.SessionID, Path: "/"}})

	outcomes := make(chan roleSyncOutcome, 1)
	syncer, err := rolesync.New(rolesync.Options{
		Client:   &http.Client{Jar: jar, Timeout: opts.Timeout},
		Endpoint: base.JoinPath("api", "auth", "role").String(),
		Delay:    opts.Delay,
		Logger:   logger,
		OnResult: func(res rolesync.Result, err error) {
			outcomes <- roleSyncOutcome{res: res, err: err}
		},
	})
	if err != nil {
		return err
	}
	defer syncer.Close()

	ctx, cancel := context.WithTimeout(ctx, opts.Delay+opts.Timeout)
	defer cancel()
	syncer.SessionObserved(ctx)

	select {
	case o := <-outcomes:
		if o.err != nil {
			return o.err
		}
		if err := writef(out, "role: %s\n", o.res.Role); err != nil {
			return err
		}
	case <-ctx.Done():
		return fmt.Errorf("role sync: %w", ctx.Err())
	}

	for _, c := range jar.Cookies(base) {
		if c.Name == roleCookie {
			return writef(out, "cookie %s=%s\n", c.Name, c.Value)
		}
	}
	return writeln(out, "warning: response did not set the role cookie")
}

func connectDB(cmdCtx *commandContext) (*sql.DB, error) {
	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{DBConfig: cmdCtx.Config.Postgres, Logger: cmdCtx.Logger})
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	return db, nil
}

//nolint:ireturn // returning redis.UniversalClient keeps sentinel/cluster support flexible.
func connectRedis(cmdCtx *commandContext) (redis.UniversalClient, error) {
	client, err := bootstrap.ConnectRedis(bootstrap.DatabaseConfig{RedisConfig: cmdCtx.Config.Redis, Logger: cmdCtx.Logger})
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return client, nil
}

func closeDB(logger *slog.Logger, db *sql.DB) {
	if err := db.Close(); err != nil {
		logger.Warn("db close failed", "error", err)
	}
}

func closeRedis(logger *slog.Logger, client redis.UniversalClient) {
	if err := client.Close(); err != nil {
		logger.Warn("redis close failed", "error", err)
	}
}
