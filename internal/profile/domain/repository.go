package domain

import "context"

// Repository persists the singleton profile.
type Repository interface {
	// Load returns the stored profile, or the defaults when none exists.
	Load(ctx context.Context) (*Profile, error)
	Save(ctx context.Context, p *Profile) error
}
