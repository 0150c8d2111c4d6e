package persistence

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/aawohq/aawo/internal/calendar/domain"
	"github.com/aawohq/aawo/internal/shared/infrastructure/crypto"
	"github.com/aawohq/aawo/internal/shared/infrastructure/database"
)

// ConnectionRepository persists the singleton OAuth connection as row
// id 1. Tokens are encrypted at rest; an empty token stays empty.
type ConnectionRepository struct {
	conn      database.Connection
	encrypter crypto.Encrypter
}

// NewConnectionRepository creates the repository. The encrypter may be
// nil, in which case tokens are stored in the clear.
func NewConnectionRepository(conn database.Connection, encrypter crypto.Encrypter) *ConnectionRepository {
	return &ConnectionRepository{conn: conn, encrypter: encrypter}
}

var _ domain.ConnectionRepository = (*ConnectionRepository)(nil)

func (r *ConnectionRepository) executor(ctx context.Context) database.Executor {
	return database.ExecutorFromContext(ctx, r.conn)
}

func (r *ConnectionRepository) rebind(query string) string {
	return database.Rebind(r.conn.Driver(), query)
}

// Load returns the connection, or a disconnected default when none was
// saved yet.
func (r *ConnectionRepository) Load(ctx context.Context) (*domain.GraphConnection, error) {
	query := r.rebind(`
		SELECT provider, access_token, refresh_token, expires_at, username, pending_state, connected, updated_at
		FROM graph_connections WHERE id = 1`)

	var (
		provider                   string
		accessToken, refreshToken  string
		expiresAt                  *string
		username, pendingState     string
		connected                  bool
		updatedAt                  string
	)
	err := r.executor(ctx).QueryRow(ctx, query).Scan(
		&provider, &accessToken, &refreshToken, &expiresAt, &username, &pendingState, &connected, &updatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return &domain.GraphConnection{Provider: domain.ProviderMicrosoft}, nil
		}
		return nil, fmt.Errorf("load graph connection: %w", err)
	}

	access, err := r.decryptToken(accessToken)
	if err != nil {
		return nil, fmt.Errorf("decrypt access token: %w", err)
	}
	refresh, err := r.decryptToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("decrypt refresh token: %w", err)
	}

	graphConn := &domain.GraphConnection{
		Provider:     provider,
		AccessToken:  access,
		RefreshToken: refresh,
		Connected:    connected,
		Username:     username,
		PendingState: pendingState,
	}
	if expiresAt != nil && *expiresAt != "" {
		parsed, err := database.ParseTime(*expiresAt)
		if err != nil {
			return nil, fmt.Errorf("invalid expires_at: %w", err)
		}
		graphConn.ExpiresAt = parsed
	}
	graphConn.UpdatedAt, err = database.ParseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid updated_at: %w", err)
	}
	return graphConn, nil
}

// Save writes the connection, replacing any previous one.
func (r *ConnectionRepository) Save(ctx context.Context, graphConn *domain.GraphConnection) error {
	access, err := r.encryptToken(graphConn.AccessToken)
	if err != nil {
		return fmt.Errorf("encrypt access token: %w", err)
	}
	refresh, err := r.encryptToken(graphConn.RefreshToken)
	if err != nil {
		return fmt.Errorf("encrypt refresh token: %w", err)
	}

	var expiresAt any
	if !graphConn.ExpiresAt.IsZero() {
		expiresAt = database.FormatTime(graphConn.ExpiresAt)
	}
	updatedAt := graphConn.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	query := r.rebind(`
		INSERT INTO graph_connections (id, provider, access_token, refresh_token, expires_at, username, pending_state, connected, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			provider = excluded.provider,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at,
			username = excluded.username,
			pending_state = excluded.pending_state,
			connected = excluded.connected,
			updated_at = excluded.updated_at`)

	_, err = r.executor(ctx).Exec(ctx, query,
		graphConn.Provider,
		access,
		refresh,
		expiresAt,
		graphConn.Username,
		graphConn.PendingState,
		graphConn.Connected,
		database.FormatTime(updatedAt),
	)
	if err != nil {
		return fmt.Errorf("save graph connection: %w", err)
	}
	return nil
}

func (r *ConnectionRepository) encryptToken(token string) (string, error) {
	if token == "" || r.encrypter == nil {
		return token, nil
	}
	sealed, err := r.encrypter.Encrypt([]byte(token))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (r *ConnectionRepository) decryptToken(stored string) (string, error) {
	if stored == "" || r.encrypter == nil {
		return stored, nil
	}
	sealed, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return "", err
	}
	plain, err := r.encrypter.Decrypt(sealed)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}
