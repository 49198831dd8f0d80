package application

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/bnema/nodekeeper/internal/adapters/gateway"
	"github.com/bnema/nodekeeper/internal/domain"
	"github.com/bnema/nodekeeper/internal/ports"
	"github.com/rs/zerolog"
)

const (
	DefaultPingInterval = 60 * time.Second

	disconnectAfterRetries = 2
	noProxyLabel           = "no-proxy"
)

type SessionOptions struct {
	PingInterval          time.Duration
	MaxAttempts           int
	ResetRetriesOnSuccess bool
}

type SessionDeps struct {
	Requesters ports.RequesterFactory
	UserAgents ports.UserAgentPicker
	Clock      ports.Clock
	Logger     zerolog.Logger
}

// Session keeps one node alive. Only its own goroutine drives it; the mutex
// lets Status be read from elsewhere.
type Session struct {
	userID     string
	nodeID     domain.NodeID
	hardwareID string
	proxy      domain.Proxy
	ipAddress  string
	userAgent  string

	requester ports.Requester
	clock     ports.Clock
	opts      SessionOptions
	logger    zerolog.Logger

	mu          sync.Mutex
	phase       domain.Phase
	connection  domain.ConnectionState
	retries     int
	lastPingAt  time.Time
	lastOutcome domain.PingOutcome
}

type SessionStatus struct {
	NodeID      domain.NodeID
	UserID      string
	IPAddress   string
	ProxyKind   domain.ProxyKind
	Phase       domain.Phase
	Connection  domain.ConnectionState
	Retries     int
	LastPingAt  time.Time
	LastOutcome domain.PingKind
}

type pingResponse struct {
	Status *string `json:"status"`
}

// NewSession fails when the token carries no userId or the proxy scheme is
// not supported. Both are configuration errors for this account only.
func NewSession(account domain.Account, deps SessionDeps, opts SessionOptions) (*Session, error) {
	if err := account.Validate(); err != nil {
		return nil, err
	}
	if deps.Requesters == nil {
		return nil, errors.New("requester factory is required")
	}

	userID, err := domain.UserIDFromToken(account.Token)
	if err != nil {
		return nil, fmt.Errorf("extract user id for node %s: %w", account.NodeID.Short(), err)
	}

	proxy, err := domain.ParseProxy(account.Proxy)
	if err != nil {
		return nil, fmt.Errorf("resolve proxy for node %s: %w", account.NodeID.Short(), err)
	}

	if deps.Clock == nil {
		deps.Clock = ports.SystemClock{}
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = DefaultPingInterval
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = gateway.DefaultMaxAttempts
	}

	userAgent := ""
	if deps.UserAgents != nil {
		userAgent = deps.UserAgents.Pick()
	}

	requester, err := deps.Requesters.NewRequester(account, proxy, userAgent)
	if err != nil {
		return nil, err
	}

	ip := domain.IPFromProxyURL(account.Proxy)
	ipLabel := ip
	if ipLabel == "" {
		ipLabel = noProxyLabel
	}

	return &Session{
		userID:     userID,
		nodeID:     account.NodeID,
		hardwareID: account.HardwareID,
		proxy:      proxy,
		ipAddress:  ip,
		userAgent:  userAgent,
		requester:  requester,
		clock:      deps.Clock,
		opts:       opts,
		logger: deps.Logger.With().
			Str("node", account.NodeID.Short()).
			Str("ip", ipLabel).
			Logger(),
		phase:      domain.PhaseUnregistered,
		connection: domain.ConnectionConnected,
	}, nil
}

// Start registers the node, opens a gateway session and pings once. The
// first error aborts the sequence; the ping loop must not be started then.
func (s *Session) Start(ctx context.Context) error {
	if err := s.RegisterNode(ctx); err != nil {
		return fmt.Errorf("register node: %w", err)
	}
	if err := s.StartSession(ctx); err != nil {
		return fmt.Errorf("start session: %w", err)
	}

	s.Ping(ctx)
	if err := ctx.Err(); err != nil {
		return err
	}

	s.setPhase(domain.PhasePinging)
	return nil
}

// RegisterNode is idempotent: a node the gateway already knows is not
// registered again.
func (s *Session) RegisterNode(ctx context.Context) error {
	registered, err := s.Probe(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		s.logger.Warn().Err(err).Msg("node lookup failed, registering")
	}
	if registered {
		s.logger.Info().Str("node_id", string(s.nodeID)).Msg("node already registered")
		s.setPhase(domain.PhaseRegistered)
		return nil
	}

	resp, err := s.requester.Perform(ctx, http.MethodPost, s.nodePath(""), map[string]string{
		"ipAddress":  s.ipAddress,
		"hardwareId": s.hardwareID,
	}, s.opts.MaxAttempts)
	if err != nil {
		return err
	}

	s.logger.Info().Str("body", string(resp.Body)).Msg("register node response")
	s.setPhase(domain.PhaseRegistered)
	return nil
}

// Probe reports whether the gateway already holds data for this node.
func (s *Session) Probe(ctx context.Context) (bool, error) {
	resp, err := s.requester.Perform(ctx, http.MethodGet, s.nodePath(""), nil, s.opts.MaxAttempts)
	if err != nil {
		return false, err
	}

	s.logger.Info().Str("body", string(resp.Body)).Msg("node lookup response")
	return hasNodeData(resp.Body), nil
}

func (s *Session) StartSession(ctx context.Context) error {
	resp, err := s.requester.Perform(ctx, http.MethodPost, s.nodePath("/start-session"), nil, s.opts.MaxAttempts)
	if err != nil {
		return err
	}

	s.logger.Info().Str("body", string(resp.Body)).Msg("start session response")
	s.setPhase(domain.PhaseSessionStarted)
	return nil
}

// Ping sends one heartbeat unless the previous attempt is less than one
// interval old. lastPingAt moves before the request goes out so a slow ping
// cannot overlap the next one.
func (s *Session) Ping(ctx context.Context) domain.PingOutcome {
	now := s.clock.Now()

	s.mu.Lock()
	if !s.lastPingAt.IsZero() && now.Sub(s.lastPingAt) < s.opts.PingInterval {
		s.mu.Unlock()
		s.logger.Info().Str("user_id", s.userID).Msg("skipping ping, interval has not elapsed")
		return domain.PingOutcome{Kind: domain.PingSkipped}
	}
	s.lastPingAt = now
	s.mu.Unlock()

	outcome := s.sendPing(ctx)
	if outcome.Kind == domain.PingTransportFailure && ctx.Err() != nil {
		return outcome
	}

	s.mu.Lock()
	s.lastOutcome = outcome
	s.mu.Unlock()

	switch outcome.Kind {
	case domain.PingTransportFailure:
		s.logger.Error().Err(outcome.Err).Msg("ping failed")
		s.handlePingFail(outcome.Err)
	case domain.PingFirstContact:
		s.logger.Info().Str("node_id", string(s.nodeID)).Msg("first time ping done")
	case domain.PingSuccess:
		s.logger.Info().Str("node_id", string(s.nodeID)).Msg("ping success")
	case domain.PingSoftFailure:
		// Reported but not counted: only transport failures reach failure
		// handling.
		s.logger.Error().Str("node_id", string(s.nodeID)).Str("status", outcome.Reason).Msg("ping failed")
	}

	if outcome.Succeeded() {
		s.handlePingSuccess()
	}

	return outcome
}

func (s *Session) sendPing(ctx context.Context) domain.PingOutcome {
	resp, err := s.requester.Perform(ctx, http.MethodPost, s.nodePath("/ping"), nil, s.opts.MaxAttempts)
	if err != nil {
		return domain.PingOutcome{Kind: domain.PingTransportFailure, Err: err}
	}

	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return domain.ClassifyPingStatus(nil)
	}

	var payload pingResponse
	if err := resp.DecodeJSON(&payload); err != nil {
		return domain.PingOutcome{Kind: domain.PingTransportFailure, Err: err}
	}

	return domain.ClassifyPingStatus(payload.Status)
}

func (s *Session) handlePingFail(cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.retries++
	switch {
	case errors.Is(cause, gateway.ErrForbidden):
		s.connection = domain.ConnectionLoggedOut
		s.logger.Warn().Str("proxy", s.proxy.String()).Msg("logged out, gateway refused the token")
	case s.retries >= disconnectAfterRetries && s.connection != domain.ConnectionLoggedOut:
		s.connection = domain.ConnectionDisconnected
	}
}

func (s *Session) handlePingSuccess() {
	if !s.opts.ResetRetriesOnSuccess {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.retries = 0
	if s.connection == domain.ConnectionDisconnected {
		s.connection = domain.ConnectionConnected
	}
}

// RunPingLoop pings every interval until ctx is done. Each wait is measured
// from the last attempt, so a scheduled ping never lands inside the gate.
func (s *Session) RunPingLoop(ctx context.Context) {
	s.logger.Info().Dur("interval", s.opts.PingInterval).Msg("ping loop started")

	timer := time.NewTimer(s.untilNextPing())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("ping loop stopped")
			return
		case <-timer.C:
		}

		s.Ping(ctx)
		timer.Reset(s.untilNextPing())
	}
}

func (s *Session) untilNextPing() time.Duration {
	s.mu.Lock()
	last := s.lastPingAt
	s.mu.Unlock()

	if last.IsZero() {
		return 0
	}

	wait := s.opts.PingInterval - s.clock.Now().Sub(last)
	if wait < 0 {
		return 0
	}
	return wait
}

func (s *Session) Status() SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	return SessionStatus{
		NodeID:      s.nodeID,
		UserID:      s.userID,
		IPAddress:   s.ipAddress,
		ProxyKind:   s.proxy.Kind,
		Phase:       s.phase,
		Connection:  s.connection,
		Retries:     s.retries,
		LastPingAt:  s.lastPingAt,
		LastOutcome: s.lastOutcome.Kind,
	}
}

func (s *Session) UserAgent() string {
	return s.userAgent
}

func (s *Session) setPhase(phase domain.Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = phase
}

func (s *Session) nodePath(suffix string) string {
	return "/nodes/" + string(s.nodeID) + suffix
}

// hasNodeData treats null, an empty object or a non-object body as "no node".
func hasNodeData(body []byte) bool {
	var node map[string]json.RawMessage
	if err := json.Unmarshal(body, &node); err != nil {
		return false
	}
	return len(node) > 0
}
