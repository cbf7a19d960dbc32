package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/nestlayout/pkg/buildinfo"
	"github.com/matzehuels/nestlayout/pkg/cache"
	"github.com/matzehuels/nestlayout/pkg/observability"
	"github.com/matzehuels/nestlayout/pkg/pipeline"
	"github.com/matzehuels/nestlayout/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "nestlayout"

	envRedisAddr = "NESTLAYOUT_REDIS_ADDR"
	envMongoURI  = "NESTLAYOUT_MONGO_URI"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	noCache   bool
	redisAddr string
	mongoURI  string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Nestlayout lays out nested graphs tier by tier",
		Long: `Nestlayout computes layouts for hierarchical graphs whose nodes contain
other nodes. Every nesting tier gets its own algorithm (layer tree, circular,
force based or straight tree), edges are routed through ports on the node
borders, and layouts can be scored with a set of readability metrics.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			hooks := observability.NewLogHooks(c.Logger)
			observability.SetPipelineHooks(hooks)
			observability.SetCacheHooks(hooks)
			observability.SetHTTPHooks(hooks)
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.BoolVar(&c.noCache, "no-cache", false, "disable the layout cache")
	pf.StringVar(&c.redisAddr, "redis", os.Getenv(envRedisAddr), "cache in Redis at this address instead of on disk (env "+envRedisAddr+")")
	pf.StringVar(&c.mongoURI, "mongo", os.Getenv(envMongoURI), "store batch runs in MongoDB instead of on disk (env "+envMongoURI+")")

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.metricsCommand())
	root.AddCommand(c.convertCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.batchCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Backend Factories
// =============================================================================

// newRunner creates a pipeline runner backed by the configured cache.
func (c *CLI) newRunner(ctx context.Context) (*pipeline.Runner, error) {
	ch, err := c.newCache(ctx)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(ch, nil, c.Logger), nil
}

func (c *CLI) newCache(ctx context.Context) (cache.Cache, error) {
	switch {
	case c.noCache:
		return cache.NewNullCache(), nil
	case c.redisAddr != "":
		ch, err := cache.NewRedisCache(ctx, cache.RedisConfig{Addr: c.redisAddr})
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		c.Logger.Debug("using redis cache", "addr", c.redisAddr)
		return ch, nil
	}
	dir, err := cacheDir()
	if err != nil {
		c.Logger.Warn("no cache directory, caching disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// newStore opens the run store: MongoDB when configured, otherwise JSON
// files in the data directory.
func (c *CLI) newStore(ctx context.Context) (store.Store, error) {
	if c.mongoURI != "" {
		st, err := store.NewMongoStore(ctx, store.MongoConfig{URI: c.mongoURI, Logger: c.Logger})
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		return st, nil
	}
	dir, err := dataDir()
	if err != nil {
		return nil, fmt.Errorf("get data dir: %w", err)
	}
	return store.NewFileStore(filepath.Join(dir, "runs"))
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/nestlayout/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// dataDir returns the data directory using XDG standard (~/.local/share/nestlayout/).
func dataDir() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName), nil
}
