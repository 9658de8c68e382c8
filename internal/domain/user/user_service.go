package user

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/janhq/money-coach/internal/utils/platformerrors"
)

// EventOutcome describes what handling a webhook event did.
type EventOutcome string

const (
	OutcomeUpserted      EventOutcome = "upserted"
	OutcomeDeleted       EventOutcome = "deleted"
	OutcomeAlreadyAbsent EventOutcome = "already_absent"
	OutcomeIgnored       EventOutcome = "ignored"
)

// ProvisionOutcome describes how EnsureUser found its user.
type ProvisionOutcome string

const (
	ProvisionExisting   ProvisionOutcome = "existing"
	ProvisionCreated    ProvisionOutcome = "created"
	// ProvisionReselected means a concurrent request created the row first.
	ProvisionReselected ProvisionOutcome = "reselected"
)

// Service reconciles local users with the identity provider.
type Service struct {
	repo     Repository
	profiles ProfileFetcher
	log      zerolog.Logger
}

// NewService creates a user service. profiles may be nil, in which case lazily
// provisioned users start with the external id alone.
func NewService(repo Repository, profiles ProfileFetcher, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		profiles: profiles,
		log:      log.With().Str("component", "user_service").Logger(),
	}
}

// HandleEvent applies a verified webhook event. Created and updated events
// upsert by external id; replays converge on the same row. Deleting an unknown
// user succeeds because delivery is at-least-once and may be reordered.
func (s *Service) HandleEvent(ctx context.Context, event *WebhookEvent) (EventOutcome, error) {
	switch event.Kind() {
	case EventCreated, EventUpdated:
		if _, err := s.repo.Upsert(ctx, event.Data.ToUser()); err != nil {
			return "", platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to upsert user from webhook")
		}
		return OutcomeUpserted, nil
	case EventDeleted:
		deleted, err := s.repo.DeleteByExternalID(ctx, event.Data.ID)
		if err != nil {
			return "", platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to delete user from webhook")
		}
		if !deleted {
			return OutcomeAlreadyAbsent, nil
		}
		return OutcomeDeleted, nil
	default:
		return OutcomeIgnored, nil
	}
}

// EnsureUser returns the local user for a verified external id, creating it on
// first sight. Concurrent first requests for the same id converge on one row.
func (s *Service) EnsureUser(ctx context.Context, externalID string) (*User, ProvisionOutcome, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, "", platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeUnauthorized, "missing identity subject", nil, "876268b5-8be3-42cb-bdd7-007debc083a8")
	}

	existing, err := s.repo.FindByExternalID(ctx, externalID)
	if err != nil {
		return nil, "", platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to look up user")
	}
	if existing != nil {
		return existing, ProvisionExisting, nil
	}

	candidate := &User{ExternalID: externalID}
	if s.profiles != nil {
		profile, fetchErr := s.profiles.FetchProfile(ctx, externalID)
		if fetchErr != nil {
			s.log.Warn().Err(fetchErr).Str("external_id", externalID).Msg("profile fetch failed, provisioning with id only")
		} else {
			profile.Apply(candidate)
		}
	}

	created, err := s.repo.Create(ctx, candidate)
	if err == nil {
		return created, ProvisionCreated, nil
	}
	if !platformerrors.IsErrorType(err, platformerrors.ErrorTypeConflict) {
		return nil, "", platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to provision user")
	}

	winner, err := s.repo.FindByExternalID(ctx, externalID)
	if err != nil {
		return nil, "", platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to reselect user after conflict")
	}
	if winner == nil {
		return nil, "", platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeDatabaseError, "user vanished after conflicting insert", nil, "ddd46926-720b-4b66-b850-ea7d120cdec0")
	}
	return winner, ProvisionReselected, nil
}
