package user

import (
	"encoding/json"
	"strings"

	"github.com/go-playground/validator/v10"
)

// EventKind is the normalized kind of an identity webhook event.
type EventKind string

const (
	EventCreated EventKind = "created"
	EventUpdated EventKind = "updated"
	EventDeleted EventKind = "deleted"
	EventOther   EventKind = "other"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// WebhookEvent is the verified envelope delivered by the identity provider.
type WebhookEvent struct {
	Type string    `json:"type" validate:"required,max=128"`
	Data EventData `json:"data"`
}

type EventData struct {
	ID                    string         `json:"id" validate:"required,max=255"`
	EmailAddresses        []EmailAddress `json:"email_addresses" validate:"dive"`
	PrimaryEmailAddressID string         `json:"primary_email_address_id"`
	FirstName             *string        `json:"first_name" validate:"omitempty,max=255"`
	LastName              *string        `json:"last_name" validate:"omitempty,max=255"`
	ImageURL              *string        `json:"image_url" validate:"omitempty,max=1024"`
}

type EmailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address" validate:"max=320"`
}

// ParseWebhookEvent decodes and validates an already verified payload.
// Unknown kinds only need a type; known kinds also need data.id.
func ParseWebhookEvent(payload []byte) (*WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, err
	}
	if err := validate.Var(event.Type, "required,max=128"); err != nil {
		return nil, err
	}
	if event.Kind() == EventOther {
		return &event, nil
	}
	if err := validate.Struct(&event); err != nil {
		return nil, err
	}
	return &event, nil
}

// Kind accepts both "user.created" and bare "created" style types.
func (e *WebhookEvent) Kind() EventKind {
	kind := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(e.Type)), "user.")
	switch EventKind(kind) {
	case EventCreated, EventUpdated, EventDeleted:
		return EventKind(kind)
	default:
		return EventOther
	}
}

// PrimaryEmail returns the address marked primary, else the first one.
func (d *EventData) PrimaryEmail() *string {
	if len(d.EmailAddresses) == 0 {
		return nil
	}
	for _, addr := range d.EmailAddresses {
		if d.PrimaryEmailAddressID != "" && addr.ID == d.PrimaryEmailAddressID {
			return nonEmpty(addr.EmailAddress)
		}
	}
	return nonEmpty(d.EmailAddresses[0].EmailAddress)
}

// ToUser builds the user snapshot carried by a created or updated event.
func (d *EventData) ToUser() *User {
	return &User{
		ExternalID: d.ID,
		Email:      d.PrimaryEmail(),
		FirstName:  d.FirstName,
		LastName:   d.LastName,
		ImageURL:   d.ImageURL,
	}
}

func nonEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
