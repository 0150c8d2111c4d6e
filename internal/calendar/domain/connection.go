package domain

import (
	"context"
	"errors"
	"time"
)

var ErrNotConnected = errors.New("calendar provider is not connected")

// ProviderMicrosoft is the only supported mirror provider.
const ProviderMicrosoft = "microsoft"

// GraphConnection is the singleton OAuth connection to the provider.
// Tokens are encrypted by the persistence layer.
type GraphConnection struct {
	Provider     string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Connected    bool
	Username     string
	PendingState string
	UpdatedAt    time.Time
}

// Disconnect drops the tokens and the connected flag.
func (c *GraphConnection) Disconnect() {
	c.AccessToken = ""
	c.RefreshToken = ""
	c.ExpiresAt = time.Time{}
	c.Connected = false
	c.UpdatedAt = time.Now().UTC()
}

// ConnectionRepository persists the singleton connection row.
type ConnectionRepository interface {
	Load(ctx context.Context) (*GraphConnection, error)
	Save(ctx context.Context, conn *GraphConnection) error
}
