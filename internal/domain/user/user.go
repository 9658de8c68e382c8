package user

import (
	"context"
	"time"
)

// User is the local record of an identity-provider account.
type User struct {
	ID         uint
	ExternalID string
	Email      *string
	FirstName  *string
	LastName   *string
	ImageURL   *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Profile is what the identity provider knows about an account.
type Profile struct {
	Email     *string
	FirstName *string
	LastName  *string
	ImageURL  *string
}

// Apply copies the profile fields onto the user.
func (p *Profile) Apply(u *User) {
	if p == nil {
		return
	}
	u.Email = p.Email
	u.FirstName = p.FirstName
	u.LastName = p.LastName
	u.ImageURL = p.ImageURL
}

// Repository persists users keyed by external id.
// Find methods return (nil, nil) when the user does not exist.
type Repository interface {
	FindByExternalID(ctx context.Context, externalID string) (*User, error)
	// Create fails with ErrorTypeConflict when the external id is already taken.
	Create(ctx context.Context, u *User) (*User, error)
	Upsert(ctx context.Context, u *User) (*User, error)
	// DeleteByExternalID reports whether a row was removed.
	DeleteByExternalID(ctx context.Context, externalID string) (bool, error)
}

// ProfileFetcher reads account details from the identity provider.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, externalID string) (*Profile, error)
}
