package cli

import (
	"context"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stackaudit/pkg/audit"
	"github.com/matzehuels/stackaudit/pkg/buildinfo"
	"github.com/matzehuels/stackaudit/pkg/cache"
	"github.com/matzehuels/stackaudit/pkg/config"
	"github.com/matzehuels/stackaudit/pkg/deps/java"
	"github.com/matzehuels/stackaudit/pkg/integrations/maven"
	"github.com/matzehuels/stackaudit/pkg/integrations/ossindex"
)

// appName is the application name used for directories and display.
const appName = config.AppName

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

	// Metrics is mounted on /metrics by the serve command when set.
	Metrics http.Handler

	configPath string
	noCache    bool
	refresh    bool
	cfg        *config.Config
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
		Short: "Stackaudit audits Maven dependency trees for known vulnerabilities",
		Long: `Stackaudit resolves the transitive dependencies of Maven artifacts or a pom.xml,
deduplicates them across roots and checks every package against the Sonatype
OSS Index. Findings are reported together with the root that pulled them in.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.cfg = cfg
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/stackaudit/config.toml)")
	flags.BoolVar(&c.noCache, "no-cache", false, "disable the response and report cache")
	flags.BoolVar(&c.refresh, "refresh", false, "ignore cached entries and fetch fresh data")

	root.AddCommand(c.auditCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// settings returns the loaded configuration, or defaults when a command runs
// without the root pre-run (as in tests).
func (c *CLI) settings() *config.Config {
	if c.cfg == nil {
		c.cfg = (&config.Config{}).WithDefaults()
	}
	return c.cfg
}

// =============================================================================
// Pipeline Factory
// =============================================================================

// pipeline bundles the components one audit run needs.
type pipeline struct {
	cache    cache.Cache
	maven    *maven.Client
	resolver *java.Resolver
	service  *ossindex.Client
}

// newPipeline wires the configured cache, Maven client and audit service.
// The caller owns the returned cache.
func (c *CLI) newPipeline(ctx context.Context) (*pipeline, error) {
	cfg := c.settings()

	store, err := c.openCache(ctx)
	if err != nil {
		return nil, err
	}

	mvn := maven.NewClient(store, cfg.Cache.TTL.Duration).
		WithRepository(cfg.Maven.Repository).
		WithSearch(cfg.Maven.Search)

	return &pipeline{
		cache:    store,
		maven:    mvn,
		resolver: java.NewResolver(mvn),
		service:  ossindex.NewClient(cfg.OSSIndexOptions()),
	}, nil
}

// auditResolver binds the Maven resolver to the configured limits.
func (c *CLI) auditResolver(p *pipeline, logger *log.Logger) audit.Resolver {
	opts := c.settings().ResolveOptions()
	opts.Refresh = c.refresh
	opts.Logger = logger
	return audit.FromDeps(p.resolver, opts)
}

// collectorOptions returns the collector options implied by the config.
func (c *CLI) collectorOptions(logger *log.Logger) []audit.Option {
	opts := []audit.Option{audit.WithLogger(logger)}
	if c.settings().Resolve.FirstSeenRoots {
		opts = append(opts, audit.WithFirstSeenRoots())
	}
	return opts
}

// requestOptions returns the batch options implied by the config and flags.
func (c *CLI) requestOptions(logger *log.Logger) []audit.RequestOption {
	cfg := c.settings()
	return []audit.RequestOption{
		audit.WithKeyer(cfg.ReportKeyer()),
		audit.WithReportTTL(cfg.OSSIndex.ReportTTL.Duration),
		audit.WithRefresh(c.refresh),
		audit.WithRequestLogger(logger),
	}
}

// openCache opens the configured backend, or a null cache with --no-cache.
// A file cache that cannot be created degrades to no caching.
func (c *CLI) openCache(ctx context.Context) (cache.Cache, error) {
	if c.noCache {
		return cache.NewNullCache(), nil
	}
	cfg := c.settings().CacheOptions()
	store, err := cache.Open(ctx, cfg)
	if err != nil && (cfg.Backend == cache.BackendFile || cfg.Backend == "") {
		c.Logger.Warn("cache disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	return store, err
}

// =============================================================================
// Output
// =============================================================================

// nopCloser wraps an io.Writer with a no-op Close method.
type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// openOutput returns a WriteCloser for the given path.
// If path is empty, it returns os.Stdout wrapped in nopCloser.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}
