package microsoft

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/aawohq/aawo/internal/calendar/domain"
)

// expirySkew refreshes tokens slightly before they actually expire.
const expirySkew = 2 * time.Minute

// tokenManager hands out access tokens, refreshing through the OAuth
// refresh token when needed and persisting rotated tokens.
type tokenManager struct {
	mu          sync.Mutex
	oauthConfig *oauth2.Config
	connections domain.ConnectionRepository
}

func newTokenManager(oauthConfig *oauth2.Config, connections domain.ConnectionRepository) *tokenManager {
	return &tokenManager{oauthConfig: oauthConfig, connections: connections}
}

// Connected reports whether a usable connection row exists.
func (m *tokenManager) Connected(ctx context.Context) bool {
	conn, err := m.connections.Load(ctx)
	if err != nil {
		return false
	}
	return conn.Connected && conn.RefreshToken != ""
}

// AccessToken returns a valid access token, refreshing when forced or
// when the stored one is about to expire.
func (m *tokenManager) AccessToken(ctx context.Context, force bool) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conn, err := m.connections.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("load connection: %w", err)
	}
	if !conn.Connected || conn.RefreshToken == "" {
		return "", domain.ErrNotConnected
	}

	if !force && conn.AccessToken != "" && time.Now().Add(expirySkew).Before(conn.ExpiresAt) {
		return conn.AccessToken, nil
	}
	return m.refresh(ctx, conn)
}

func (m *tokenManager) refresh(ctx context.Context, conn *domain.GraphConnection) (string, error) {
	source := m.oauthConfig.TokenSource(ctx, &oauth2.Token{
		RefreshToken: conn.RefreshToken,
	})
	token, err := source.Token()
	if err != nil {
		return "", fmt.Errorf("refresh graph token: %w", err)
	}

	conn.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		conn.RefreshToken = token.RefreshToken
	}
	conn.ExpiresAt = token.Expiry
	conn.UpdatedAt = time.Now().UTC()
	if err := m.connections.Save(ctx, conn); err != nil {
		return "", fmt.Errorf("save refreshed tokens: %w", err)
	}
	return token.AccessToken, nil
}
