package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bnema/nodekeeper/internal/domain"
	"github.com/bnema/nodekeeper/internal/ports"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/iter"
	"github.com/sourcegraph/conc/panics"
)

var ErrNoAccounts = errors.New("no accounts configured")

type RunnerOptions struct {
	// Stagger spaces out session startups; session i starts after i*Stagger.
	Stagger time.Duration
}

// Runner owns every session of one process. Sessions share nothing except
// the context that stops them.
type Runner struct {
	accounts    ports.AccountRepository
	deps        SessionDeps
	sessionOpts SessionOptions
	opts        RunnerOptions
	sleep       ports.Sleeper
	logger      zerolog.Logger
}

type ProbeResult struct {
	NodeID     domain.NodeID
	IPAddress  string
	Registered bool
	Err        error
}

func NewRunner(accounts ports.AccountRepository, deps SessionDeps, sessionOpts SessionOptions, opts RunnerOptions) *Runner {
	if opts.Stagger < 0 {
		opts.Stagger = 0
	}

	return &Runner{
		accounts:    accounts,
		deps:        deps,
		sessionOpts: sessionOpts,
		opts:        opts,
		sleep:       ports.Sleep,
		logger:      deps.Logger,
	}
}

// Sessions builds one session per usable account. Accounts with a bad
// credential line, token or proxy are logged and skipped.
func (r *Runner) Sessions(ctx context.Context) ([]*Session, error) {
	accounts, err := r.accounts.List(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrMalformedCredential) {
			return nil, fmt.Errorf("list accounts: %w", err)
		}
		r.logger.Warn().Err(err).Msg("skipping malformed accounts")
	}

	sessions := make([]*Session, 0, len(accounts))
	for _, account := range accounts {
		session, err := NewSession(account, r.deps, r.sessionOpts)
		if err != nil {
			r.logger.Error().Str("node", account.NodeID.Short()).Err(err).Msg("skipping account")
			continue
		}
		sessions = append(sessions, session)
	}

	if len(sessions) == 0 {
		return nil, ErrNoAccounts
	}

	r.logger.Info().Int("accounts", len(sessions)).Msg("loaded nodes")
	return sessions, nil
}

// Run starts every session and blocks until ctx is cancelled and all ping
// loops have returned. It reports each session's final state.
func (r *Runner) Run(ctx context.Context) ([]SessionStatus, error) {
	sessions, err := r.Sessions(ctx)
	if err != nil {
		return nil, err
	}

	var startups sync.WaitGroup
	startups.Add(len(sessions))

	var wg conc.WaitGroup
	for i, session := range sessions {
		delay := time.Duration(i) * r.opts.Stagger
		wg.Go(func() {
			startupDone := sync.OnceFunc(startups.Done)
			defer startupDone()

			var catcher panics.Catcher
			catcher.Try(func() {
				r.runSession(ctx, session, delay, startupDone)
			})
			if recovered := catcher.Recovered(); recovered != nil {
				r.logger.Error().
					Str("node", session.nodeID.Short()).
					Err(recovered.AsError()).
					Msg("session crashed")
			}
		})
	}

	wg.Go(func() {
		startups.Wait()
		if ctx.Err() == nil {
			r.logger.Info().Int("sessions", len(sessions)).Msg("all sessions started")
		}
	})

	wg.Wait()

	statuses := make([]SessionStatus, 0, len(sessions))
	for _, session := range sessions {
		statuses = append(statuses, session.Status())
	}
	return statuses, nil
}

func (r *Runner) runSession(ctx context.Context, session *Session, delay time.Duration, startupDone func()) {
	if err := r.sleep(ctx, delay); err != nil {
		return
	}

	if err := session.Start(ctx); err != nil {
		if ctx.Err() == nil {
			session.logger.Error().Err(err).Msg("initialization error")
		}
		return
	}
	session.logger.Info().Str("node_id", string(session.nodeID)).Msg("node started")
	startupDone()

	session.RunPingLoop(ctx)
}

// Probe checks every account's registration without starting sessions.
func (r *Runner) Probe(ctx context.Context) ([]ProbeResult, error) {
	sessions, err := r.Sessions(ctx)
	if err != nil {
		return nil, err
	}

	return iter.Map(sessions, func(session **Session) ProbeResult {
		s := *session
		registered, err := s.Probe(ctx)
		return ProbeResult{
			NodeID:     s.nodeID,
			IPAddress:  s.ipAddress,
			Registered: registered,
			Err:        err,
		}
	}), nil
}
