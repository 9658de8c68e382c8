package dbschema

import (
	"time"

	"github.com/janhq/money-coach/internal/domain/user"
)

// User represents the persisted user schema tied to the external identity provider.
type User struct {
	ID         uint      `gorm:"primaryKey"`
	ExternalID string    `gorm:"type:varchar(255);not null;uniqueIndex:ux_users_external_id"`
	Email      *string   `gorm:"type:varchar(320)"`
	FirstName  *string   `gorm:"type:varchar(255)"`
	LastName   *string   `gorm:"type:varchar(255)"`
	ImageURL   *string   `gorm:"type:varchar(1024)"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

// NewSchemaUser converts a domain user into a schema instance.
func NewSchemaUser(u *user.User) *User {
	if u == nil {
		return nil
	}

	return &User{
		ID:         u.ID,
		ExternalID: u.ExternalID,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		ImageURL:   u.ImageURL,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

// EtoD converts a schema user back to the domain representation.
func (u *User) EtoD() *user.User {
	if u == nil {
		return nil
	}

	return &user.User{
		ID:         u.ID,
		ExternalID: u.ExternalID,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		ImageURL:   u.ImageURL,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}
