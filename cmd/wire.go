package cmd

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/bnema/nodekeeper/internal/adapters/gateway"
	statusadapter "github.com/bnema/nodekeeper/internal/adapters/render/status"
	linesrepo "github.com/bnema/nodekeeper/internal/adapters/repo/lines"
	tomlrepo "github.com/bnema/nodekeeper/internal/adapters/repo/toml"
	"github.com/bnema/nodekeeper/internal/adapters/useragent"
	"github.com/bnema/nodekeeper/internal/application"
	"github.com/bnema/nodekeeper/internal/config"
	"github.com/bnema/nodekeeper/internal/logging"
	"github.com/bnema/nodekeeper/internal/ports"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type rootOptions struct {
	configFile string
	logLevel   string
}

type app struct {
	cfg            config.Config
	logger         zerolog.Logger
	runID          string
	store          *tomlrepo.Repository
	statusRenderer func([]application.SessionStatus, statusadapter.RenderOptions) (string, error)
	now            func() time.Time
}

// accountSource is a repository that can say where it reads from.
type accountSource interface {
	ports.AccountRepository
	Path() string
}

func (a *app) wire(cmd *cobra.Command, opts rootOptions) error {
	cfg, err := config.Load(viper.New(), opts.configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}

	store, err := tomlrepo.NewRepository(cfg.Accounts.StorePath)
	if err != nil {
		return fmt.Errorf("wire account store: %w", err)
	}

	a.cfg = cfg
	a.runID = uuid.NewString()
	a.logger = logging.New(cmd.ErrOrStderr(), logging.Options{
		Level:   cfg.Log.Level,
		NoColor: cfg.Log.NoColor,
	}).With().Str("run", a.runID[:8]).Logger()
	a.store = store
	a.statusRenderer = statusadapter.Render
	a.now = time.Now

	return nil
}

// openAccounts picks the adapter by extension: .toml files use the account
// store format, anything else the one-line-per-node format.
func (a *app) openAccounts(path string) (accountSource, error) {
	if path == "" {
		path = a.cfg.Accounts.Path
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		repo, err := tomlrepo.NewRepository(path)
		if err != nil {
			return nil, fmt.Errorf("wire account repository: %w", err)
		}
		return repo, nil
	}

	repo, err := linesrepo.NewRepository(path)
	if err != nil {
		return nil, fmt.Errorf("wire account repository: %w", err)
	}
	return repo, nil
}

func (a *app) newRunner(accounts ports.AccountRepository) *application.Runner {
	deps := application.SessionDeps{
		Requesters: gateway.Factory{
			BaseURL:     a.cfg.API.BaseURL,
			Origin:      a.cfg.API.Origin,
			Timeout:     a.cfg.Request.Timeout,
			BackoffBase: a.cfg.Request.BackoffBase,
			Logger:      a.logger,
		},
		UserAgents: useragent.NewRandom(nil),
		Clock:      ports.SystemClock{},
		Logger:     a.logger,
	}

	return application.NewRunner(accounts, deps, application.SessionOptions{
		PingInterval:          a.cfg.Ping.Interval,
		MaxAttempts:           a.cfg.Request.MaxAttempts,
		ResetRetriesOnSuccess: a.cfg.Ping.ResetRetriesOnSuccess,
	}, application.RunnerOptions{
		Stagger: a.cfg.Startup.Stagger,
	})
}
