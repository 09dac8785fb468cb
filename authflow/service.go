// Package authflow drives the QR login state machine for every session. The
// handshake completes out-of-band: StartLogin returns immediately and the
// network's callbacks move the session through its states while callers poll.
package authflow

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/omnichat/telegram-adapter/credstore"
	apperrors "github.com/omnichat/telegram-adapter/internal/errors"
	"github.com/omnichat/telegram-adapter/internal/metrics"
	"github.com/omnichat/telegram-adapter/registry"
	"github.com/omnichat/telegram-adapter/tgclient"
)

type Status string

const (
	StatusConnected   Status = "connected"
	StatusQRGenerated Status = "qr_generated"
	StatusWaitingScan Status = "waiting_scan"
)

type LoginResult struct {
	Status Status
}

type ChallengeResult struct {
	Status Status
	// QR is the base64 PNG data URL, set only while waiting for a scan.
	QR string
}

// challenge is the pending artifact for a session in AwaitingScan. IssuedAt is
// recorded for observability; challenges do not expire.
type challenge struct {
	image    string
	issuedAt time.Time
}

// Service owns every session's auth state and the pending QR challenges.
type Service struct {
	creds    credstore.Repo
	registry *registry.Registry
	log      zerolog.Logger
	nowTime  func() time.Time

	mu      sync.Mutex
	pending map[string]challenge
	states  map[string]AuthState
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// NewService initializes the authentication flow with required dependencies.
func NewService(creds credstore.Repo, reg *registry.Registry, log zerolog.Logger, options ...ServiceOption) (*Service, error) {
	if creds == nil {
		return nil, errors.New("[NewService] credential repo is required")
	}
	if reg == nil {
		return nil, errors.New("[NewService] registry is required")
	}

	s := &Service{
		creds:    creds,
		registry: reg,
		log:      log.With().Str("component", "authflow").Logger(),
		nowTime:  time.Now,
		pending:  make(map[string]challenge),
		states:   make(map[string]AuthState),
	}
	for _, option := range options {
		option(s)
	}
	return s, nil
}

// StartLogin obtains (or creates) the session's connection and, unless the
// network already reports an authorized session, begins the QR handshake. It
// returns without waiting for either handshake callback.
func (s *Service) StartLogin(ctx context.Context, sessionID string) (LoginResult, error) {
	if strings.TrimSpace(sessionID) == "" {
		return LoginResult{}, apperrors.ErrInvalidSessionID
	}

	client, err := s.registry.GetOrCreate(ctx, sessionID, "")
	if err != nil {
		return LoginResult{}, err
	}

	// A redundant retry against an account that quietly stayed authenticated
	// is terminal success, no state machine entry needed.
	authorized, err := client.IsAuthorized(ctx)
	if err != nil {
		return LoginResult{}, apperrors.Wrapf(apperrors.ErrConnection, "[StartLogin] authorization check for %s failed (%v)", sessionID, err)
	}
	if authorized {
		s.transition(sessionID, StateAuthenticated)
		return LoginResult{Status: StatusConnected}, nil
	}

	s.transition(sessionID, StateUnauthenticated)

	err = client.SignInWithQR(ctx, tgclient.QRCallbacks{
		OnToken:   func(loginURL string) { s.onToken(sessionID, loginURL) },
		OnSuccess: func(credential string) { s.onSuccess(sessionID, credential) },
		OnError:   func(err error) { s.onHandshakeError(sessionID, err) },
	})
	if err != nil {
		s.transition(sessionID, StateFailed)
		return LoginResult{}, apperrors.Wrapf(apperrors.ErrAuthHandshake, "[StartLogin] start handshake for %s failed (%v)", sessionID, err)
	}

	return LoginResult{Status: StatusQRGenerated}, nil
}

// PollChallenge reports the current challenge for a session. A session that
// failed its handshake surfaces as not found until a new StartLogin.
func (s *Service) PollChallenge(sessionID string) (ChallengeResult, error) {
	if strings.TrimSpace(sessionID) == "" {
		return ChallengeResult{}, apperrors.ErrInvalidSessionID
	}

	s.mu.Lock()
	ch, hasPending := s.pending[sessionID]
	state := s.states[sessionID]
	s.mu.Unlock()

	if hasPending {
		return ChallengeResult{Status: StatusWaitingScan, QR: ch.image}, nil
	}
	if state == StateFailed {
		return ChallengeResult{}, apperrors.ErrSessionNotFound
	}
	if _, ok := s.registry.Get(sessionID); ok {
		// Optimistic: a handle with no pending challenge is the expected
		// post-authentication condition, not re-verified against the network.
		return ChallengeResult{Status: StatusConnected}, nil
	}
	return ChallengeResult{}, apperrors.ErrSessionNotFound
}

// RestoreAll replays every persisted credential into the registry. Invoked
// once at startup, before serving any requests. Returns the number of
// connections restored; every per-session failure is logged and contained.
func (s *Service) RestoreAll(ctx context.Context) int {
	table, err := s.creds.GetAll()
	if err != nil {
		s.log.Warn().Err(err).Msg("Credential store unavailable, no sessions restored")
		return 0
	}

	restored := 0
	for sessionID, token := range table {
		s.log.Info().Str("session_id", sessionID).Msg("Restoring session")

		client, err := s.registry.GetOrCreate(ctx, sessionID, token)
		if err != nil {
			s.log.Error().Err(err).Str("session_id", sessionID).Msg("Restore failed")
			continue
		}
		restored++
		metrics.RestoredSessions.Inc()

		authorized, err := client.IsAuthorized(ctx)
		switch {
		case err != nil:
			s.log.Warn().Err(err).Str("session_id", sessionID).Msg("Authorization check failed")
		case !authorized:
			// Connected but unauthorized is recoverable by re-login; the
			// credential and the registry entry both stay.
			s.log.Warn().Str("session_id", sessionID).Msg("Session invalid or expired")
		default:
			s.transition(sessionID, StateAuthenticated)
		}
	}
	return restored
}

// ActiveSessionCount reports registered connections regardless of auth state.
func (s *Service) ActiveSessionCount() int {
	return s.registry.Count()
}

// State returns the session's current auth state.
func (s *Service) State(sessionID string) AuthState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[sessionID]
}

// transition moves a session to a new state. The pending challenge is dropped
// the instant the state leaves AwaitingScan.
func (s *Service) transition(sessionID string, state AuthState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[sessionID] = state
	if state != StateAwaitingScan {
		delete(s.pending, sessionID)
	}
}

func (s *Service) onToken(sessionID, loginURL string) {
	image, err := renderChallengeImage(loginURL)
	if err != nil {
		s.log.Error().Err(err).Str("session_id", sessionID).Msg("Render QR image failed")
		return
	}

	// Rotation while unscanned: the artifact always reflects the latest token.
	s.mu.Lock()
	s.states[sessionID] = StateAwaitingScan
	s.pending[sessionID] = challenge{image: image, issuedAt: s.nowTime()}
	s.mu.Unlock()

	s.log.Info().Str("session_id", sessionID).Msg("QR generated")
}

func (s *Service) onSuccess(sessionID, credential string) {
	if err := s.creds.Put(sessionID, credential); err != nil {
		s.log.Error().Err(err).Str("session_id", sessionID).Msg("Persist credential failed")
	}
	s.transition(sessionID, StateAuthenticated)
	metrics.HandshakesCompleted.Inc()
	s.log.Info().Str("session_id", sessionID).Msg("User logged in")
}

func (s *Service) onHandshakeError(sessionID string, err error) {
	s.transition(sessionID, StateFailed)
	metrics.HandshakesFailed.Inc()
	s.log.Error().Err(err).Str("session_id", sessionID).Msg("QR login failed")
}
