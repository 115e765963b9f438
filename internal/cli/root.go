// Package cli implements the artsel command line interface.
package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Sternrassler/paged-select/pkg/client"
	"github.com/Sternrassler/paged-select/pkg/logging"
	"github.com/Sternrassler/paged-select/pkg/selection"
)

// Environment variables read as flag defaults.
const (
	EnvBaseURL   = "PAGESEL_BASE_URL"
	EnvRedisURL  = "PAGESEL_REDIS_URL"
	EnvUserAgent = "PAGESEL_USER_AGENT"
	EnvLogLevel  = "PAGESEL_LOG_LEVEL"
	EnvPageSize  = "PAGESEL_PAGE_SIZE"
)

// options are the persistent flags shared by all subcommands.
type options struct {
	baseURL     string
	redisURL    string
	userAgent   string
	pageSize    int
	debug       bool
	pretty      bool
	metricsAddr string
	logLevel    string
}

// NewRootCmd creates the root command for the artsel CLI.
func NewRootCmd(version string) *cobra.Command {
	return NewRootCmdWithEnv(version, os.LookupEnv)
}

// NewRootCmdWithEnv creates the root command with an explicit environment
// lookup for testability.
func NewRootCmdWithEnv(version string, lookupEnv func(string) (string, bool)) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "artsel",
		Short:         "Browse a paged artwork listing and select records across pages",
		Version:       version,
		Example:       rootCmdExample,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if opts.pageSize <= 0 {
				return fmt.Errorf("page-size must be > 0, got %d", opts.pageSize)
			}
			return setupLogging(cmd, opts)
		},
	}

	defaultPageSize := selection.DefaultPageSize
	if v := getEnv(lookupEnv, EnvPageSize, ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			defaultPageSize = n
		}
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.baseURL, "base-url", getEnv(lookupEnv, EnvBaseURL, client.DefaultBaseURL),
		"listing endpoint taking page and limit query parameters")
	flags.IntVar(&opts.pageSize, "page-size", defaultPageSize, "records per page")
	flags.StringVar(&opts.redisURL, "redis-url", getEnv(lookupEnv, EnvRedisURL, ""),
		"redis address or redis:// URL enabling the page cache and shared cooldown (optional)")
	flags.StringVar(&opts.userAgent, "user-agent", getEnv(lookupEnv, EnvUserAgent, "artsel/"+version),
		"User-Agent header sent to the source")
	flags.BoolVar(&opts.debug, "debug", false, "enable debug logging")
	flags.BoolVar(&opts.pretty, "pretty", false, "human readable log output instead of JSON")
	flags.StringVar(&opts.logLevel, "log-level", getEnv(lookupEnv, EnvLogLevel, "warn"),
		"log level (debug, info, warn, error); --debug wins")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "",
		"serve /health and /metrics on this address, e.g. :9090 (optional)")

	cmd.AddCommand(newBrowseCmd(opts), newSelectFirstCmd(opts))

	return cmd
}

const rootCmdExample = `  # Browse the artworks listing, 12 per page
  artsel browse

  # Select the first 30 artworks and print their ids
  artsel select-first 30

  # Use a Redis page cache and expose metrics
  artsel browse --redis-url redis://localhost:6379/0 --metrics-addr :9090`

// logger is the package-level logger for CLI operations.
var logger = zerolog.Nop() //nolint:gochecknoglobals // set by setupLogging

// setupLogging configures logging from flags and environment.
func setupLogging(cmd *cobra.Command, opts *options) error {
	cfg := logging.DefaultConfig()
	cfg.Output = cmd.ErrOrStderr()
	cfg.Pretty = opts.pretty

	level, err := logging.ParseLevel(opts.logLevel)
	if err != nil {
		return err
	}
	cfg.Level = level
	if opts.debug {
		cfg.Level = logging.LevelDebug
		cfg.Pretty = true
	}

	logging.Setup(cfg)
	logger = logging.NewLogger("artsel")
	logger.Debug().Str("command", cmd.Name()).Msg("command started")
	return nil
}

// getEnv returns the value of key, or defaultValue when unset or empty.
func getEnv(lookupEnv func(string) (string, bool), key, defaultValue string) string {
	if value, ok := lookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}
