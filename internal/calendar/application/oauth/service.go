package oauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/aawohq/aawo/internal/calendar/domain"
)

var (
	ErrNotConfigured = errors.New("microsoft graph oauth is not configured")
	ErrInvalidState  = errors.New("oauth state mismatch, restart sign-in")
)

// UserInfo is the provider profile fetched after code exchange.
type UserInfo struct {
	Username string
}

// UserInfoFetcher loads the signed-in user's profile with a fresh
// access token.
type UserInfoFetcher interface {
	FetchUserInfo(ctx context.Context, accessToken string) (*UserInfo, error)
}

// ConnectionStatus is the outward-facing connection view.
type ConnectionStatus struct {
	Configured bool               `json:"configured"`
	Connected  bool               `json:"connected"`
	Username   string             `json:"username,omitempty"`
	Sync       *domain.SyncStatus `json:"sync,omitempty"`
}

// Service drives the Microsoft OAuth authorization code flow.
type Service struct {
	oauthConfig *oauth2.Config
	connections domain.ConnectionRepository
	status      domain.SyncStatusRepository
	userInfo    UserInfoFetcher
	logger      *slog.Logger
}

// NewService creates the OAuth service.
func NewService(
	oauthConfig *oauth2.Config,
	connections domain.ConnectionRepository,
	status domain.SyncStatusRepository,
	userInfo UserInfoFetcher,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		oauthConfig: oauthConfig,
		connections: connections,
		status:      status,
		userInfo:    userInfo,
		logger:      logger,
	}
}

// Configured reports whether client credentials are present.
func (s *Service) Configured() bool {
	return s.oauthConfig != nil &&
		s.oauthConfig.ClientID != "" &&
		s.oauthConfig.ClientSecret != "" &&
		s.oauthConfig.RedirectURL != ""
}

// AuthURL issues a fresh authorization URL and stores the state for
// the callback to verify.
func (s *Service) AuthURL(ctx context.Context) (string, error) {
	if !s.Configured() {
		return "", ErrNotConfigured
	}
	conn, err := s.connections.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("load connection: %w", err)
	}

	state := uuid.NewString()
	conn.Provider = domain.ProviderMicrosoft
	conn.PendingState = state
	conn.UpdatedAt = time.Now().UTC()
	if err := s.connections.Save(ctx, conn); err != nil {
		return "", fmt.Errorf("save pending state: %w", err)
	}

	url := s.oauthConfig.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
	return url, nil
}

// CompleteAuth exchanges the callback code for tokens and persists the
// connection.
func (s *Service) CompleteAuth(ctx context.Context, code, state string) (*ConnectionStatus, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}
	conn, err := s.connections.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load connection: %w", err)
	}
	if conn.PendingState == "" || conn.PendingState != state {
		return nil, ErrInvalidState
	}

	token, err := s.oauthConfig.Exchange(ctx, code)
	if err != nil {
		s.recordConnected(ctx, false)
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	conn.Provider = domain.ProviderMicrosoft
	conn.AccessToken = token.AccessToken
	conn.RefreshToken = token.RefreshToken
	conn.ExpiresAt = token.Expiry
	conn.Connected = true
	conn.PendingState = ""
	conn.UpdatedAt = time.Now().UTC()

	if s.userInfo != nil {
		info, err := s.userInfo.FetchUserInfo(ctx, token.AccessToken)
		if err != nil {
			s.logger.Warn("failed to fetch user info", "error", err)
		} else {
			conn.Username = info.Username
		}
	}

	if err := s.connections.Save(ctx, conn); err != nil {
		return nil, fmt.Errorf("save connection: %w", err)
	}
	s.recordConnected(ctx, true)

	return &ConnectionStatus{
		Configured: true,
		Connected:  true,
		Username:   conn.Username,
	}, nil
}

// Status returns the connection plus mirror health.
func (s *Service) Status(ctx context.Context) (*ConnectionStatus, error) {
	conn, err := s.connections.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load connection: %w", err)
	}
	sync, err := s.status.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load sync status: %w", err)
	}
	return &ConnectionStatus{
		Configured: s.Configured(),
		Connected:  conn.Connected,
		Username:   conn.Username,
		Sync:       sync,
	}, nil
}

// Disconnect drops the stored tokens.
func (s *Service) Disconnect(ctx context.Context) error {
	conn, err := s.connections.Load(ctx)
	if err != nil {
		return fmt.Errorf("load connection: %w", err)
	}
	conn.Disconnect()
	conn.Username = ""
	if err := s.connections.Save(ctx, conn); err != nil {
		return fmt.Errorf("save connection: %w", err)
	}
	s.recordConnected(ctx, false)
	return nil
}

func (s *Service) recordConnected(ctx context.Context, connected bool) {
	status, err := s.status.Load(ctx)
	if err != nil {
		s.logger.Warn("failed to load sync status", "error", err)
		return
	}
	status.Provider = domain.ProviderMicrosoft
	if connected {
		status.RecordSuccess(time.Now().UTC())
	} else {
		status.Connected = false
	}
	if err := s.status.Save(ctx, status); err != nil {
		s.logger.Warn("failed to save sync status", "error", err)
	}
}
