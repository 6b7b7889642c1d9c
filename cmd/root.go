package cmd

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/neomestre/neomestre/internal/config"
	"github.com/neomestre/neomestre/internal/logging"
	"github.com/neomestre/neomestre/internal/state"
	"github.com/neomestre/neomestre/internal/store"
	"github.com/neomestre/neomestre/internal/syncer"
	"github.com/neomestre/neomestre/internal/unimestre"
)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "yaml"}

// rootOptions holds global flags and injected dependencies.
type rootOptions struct {
	dbPath     string
	configPath string
	baseURL    string
	logLevel   string
	format     string

	// transport replaces the HTTP client when set.
	transport unimestre.Transport
}

// Option customizes the root command.
type Option func(*rootOptions)

// WithTransport makes every command talk to t instead of the portal.
func WithTransport(t unimestre.Transport) Option {
	return func(o *rootOptions) { o.transport = t }
}

// NewRootCommand creates the neomestre command tree.
func NewRootCommand(options ...Option) *cobra.Command {
	opts := &rootOptions{}
	for _, o := range options {
		o(opts)
	}

	cmd := &cobra.Command{
		Use:           "neomestre",
		Short:         "Terminal client for the Unimestre school portal",
		Long:          "neomestre keeps an offline copy of your Unimestre grades, sections and support materials.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.format, ValidFormats)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, opts, runApp)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.dbPath, "db", "", "Path to SQLite database file (overrides NEOMESTRE_DB env var)")
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to a config file")
	cmd.PersistentFlags().StringVar(&opts.baseURL, "base-url", "", "Portal API root")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	cmd.PersistentFlags().StringVar(&opts.format, "format", "text", "Output format (text|json|yaml)")

	cmd.AddCommand(newLoginCmd(opts))
	cmd.AddCommand(newRefreshCmd(opts))
	cmd.AddCommand(newAccountsCmd(opts))
	cmd.AddCommand(newUseCmd(opts))
	cmd.AddCommand(newRemoveCmd(opts))
	cmd.AddCommand(newSectionsCmd(opts))
	cmd.AddCommand(newGradesCmd(opts))
	cmd.AddCommand(newMaterialsCmd(opts))
	cmd.AddCommand(newFilesCmd(opts))
	cmd.AddCommand(newSubjectsCmd(opts))
	cmd.AddCommand(newSettingsCmd(opts))
	cmd.AddCommand(newResetCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	root := NewRootCommand()
	if err := root.ExecuteContext(context.Background()); err != nil {
		format, _ := root.PersistentFlags().GetString("format")
		out := &OutputFormatter{Format: format, Writer: root.OutOrStdout(), ErrWriter: root.ErrOrStderr()}
		out.Error(err)
		return GetExitCode(err)
	}
	return ExitSuccess
}

// env is what a command needs at run time.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *store.Store
	state  *state.State
	syncer *syncer.Syncer
	out    *OutputFormatter
}

func (e *env) close() {
	_ = e.logger.Sync()
	_ = e.db.Close()
}

// withEnv opens config, logging, the database and the state, runs fn and
// releases everything.
func withEnv(cmd *cobra.Command, opts *rootOptions, fn func(cmd *cobra.Command, e *env) error) error {
	e, err := openEnv(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer e.close()

	e.out = &OutputFormatter{Format: opts.format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr()}
	return fn(cmd, e)
}

func openEnv(ctx context.Context, opts *rootOptions) (*env, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.baseURL != "" {
		cfg.BaseURL = opts.baseURL
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		return nil, err
	}

	dbPath, err := resolveDBPath(opts, cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	st, err := state.Open(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	transport := opts.transport
	if transport == nil {
		client, err := unimestre.NewClient(unimestre.ClientConfig{
			BaseURL:   cfg.BaseURL,
			Timeout:   cfg.HTTPTimeout,
			UserAgent: "neomestre/" + version,
		})
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		transport = client
	}
	transport = unimestre.WithLogging(transport, logger)

	logger.Debug("environment ready", zap.String("db", dbPath), zap.Int("accounts", st.Count()))
	return &env{
		cfg:    cfg,
		logger: logger,
		db:     db,
		state:  st,
		syncer: syncer.New(transport, st, logger),
	}, nil
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then the config file / NEOMESTRE_DB_PATH, then NEOMESTRE_DB and the default
// XDG path.
func resolveDBPath(opts *rootOptions, cfg *config.Config) (string, error) {
	for _, p := range []string{opts.dbPath, cfg.DBPath} {
		if p != "" {
			return p, store.EnsureDir(p)
		}
	}
	return store.DefaultDBPath()
}
