package conversation

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/janhq/money-coach/internal/utils/idgen"
	"github.com/janhq/money-coach/internal/utils/platformerrors"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Service owns the (user, chat type) conversation invariants and the session-link state machine.
type Service struct {
	repo Repository
	log  zerolog.Logger
	now  func() time.Time
}

func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("component", "conversation_service").Logger(),
		now:  time.Now,
	}
}

// FindOrCreate returns the single conversation for (userID, chatType), creating it
// when absent. Without externalSessionID the new row carries a sentinel session id.
// A racing create that loses on the unique key is answered by a reselect.
func (s *Service) FindOrCreate(ctx context.Context, userID uint, chatType ChatType, externalSessionID string) (*Conversation, error) {
	if _, ok := ParseChatType(string(chatType)); !ok {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "unknown chat type", nil, "8f6f4430-ad29-4085-8382-1242819aeb56")
	}

	existing, err := s.repo.FindByUserAndType(ctx, userID, chatType)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to look up conversation")
	}
	if existing != nil {
		return existing, nil
	}

	publicID, err := idgen.GenerateSecureID("conv", 16)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to generate conversation ID")
	}

	externalSessionID = strings.TrimSpace(externalSessionID)
	conv := &Conversation{
		PublicID:          publicID,
		UserID:            userID,
		ChatType:          chatType,
		ExternalSessionID: externalSessionID,
		SessionLinked:     externalSessionID != "",
		Status:            StatusActive,
	}
	if !conv.SessionLinked {
		conv.ExternalSessionID = SentinelSessionID(userID, chatType, s.now())
	}

	createErr := s.repo.Create(ctx, conv)
	if createErr == nil {
		return conv, nil
	}
	if !platformerrors.IsErrorType(createErr, platformerrors.ErrorTypeConflict) {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, createErr, "failed to create conversation")
	}

	winner, err := s.repo.FindByUserAndType(ctx, userID, chatType)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to reselect conversation")
	}
	if winner == nil {
		// The conflict was on the session id, not on (user, chat type).
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, createErr, "session id belongs to another conversation")
	}
	s.log.Debug().Uint("user_id", userID).Str("chat_type", string(chatType)).Msg("conversation create lost race, reselected")
	return winner, nil
}

// GetByType returns (nil, nil) when the user has no conversation for chatType yet.
func (s *Service) GetByType(ctx context.Context, userID uint, chatType ChatType) (*Conversation, error) {
	conv, err := s.repo.FindByUserAndType(ctx, userID, chatType)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to look up conversation")
	}
	return conv, nil
}

// GetByID resolves either the public id or the external session id.
func (s *Service) GetByID(ctx context.Context, idOrExternalID string) (*Conversation, error) {
	key := strings.TrimSpace(idOrExternalID)
	if key == "" {
		return nil, notFound(ctx)
	}
	conv, err := s.repo.FindByPublicOrExternalID(ctx, key)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to look up conversation")
	}
	if conv == nil {
		return nil, notFound(ctx)
	}
	return conv, nil
}

// GetOwned is GetByID plus ownership. Absent and foreign conversations fail identically.
func (s *Service) GetOwned(ctx context.Context, idOrExternalID string, userID uint) (*Conversation, error) {
	conv, err := s.GetByID(ctx, idOrExternalID)
	if err != nil {
		return nil, err
	}
	if conv.UserID != userID {
		return nil, notFound(ctx)
	}
	return conv, nil
}

func (s *Service) Touch(ctx context.Context, conversationID uint) error {
	if err := s.repo.Touch(ctx, conversationID); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to touch conversation")
	}
	return nil
}

// List returns the user's conversations, most recently active first.
func (s *Service) List(ctx context.Context, userID uint, pagination Pagination) ([]*Conversation, int64, error) {
	if pagination.Limit <= 0 {
		pagination.Limit = DefaultListLimit
	}
	if pagination.Limit > MaxListLimit {
		pagination.Limit = MaxListLimit
	}
	if pagination.Offset < 0 {
		pagination.Offset = 0
	}

	conversations, total, err := s.repo.ListByUser(ctx, userID, pagination)
	if err != nil {
		return nil, 0, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list conversations")
	}
	return conversations, total, nil
}

// LinkSession moves a conversation from AwaitingFirstExchange to Linked.
// Linking is one-way: once linked, later ids are ignored and the call succeeds.
func (s *Service) LinkSession(ctx context.Context, conv *Conversation, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" || conv.State() == StateLinked {
		return nil
	}

	applied, err := s.repo.LinkSession(ctx, conv.ID, sessionID)
	if err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to link session")
	}
	if applied {
		conv.ExternalSessionID = sessionID
		conv.SessionLinked = true
		return nil
	}

	// Someone else linked it first, or the row is gone.
	current, err := s.repo.FindByID(ctx, conv.ID)
	if err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to reload conversation")
	}
	if current == nil {
		return notFound(ctx)
	}
	if !current.SessionLinked {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeDatabaseError, "session link was not applied", nil, "88df4e85-7b00-4467-bbdd-06f34ffcd8ff")
	}
	if current.ExternalSessionID != sessionID {
		s.log.Warn().
			Str("conversation_id", conv.PublicID).
			Msg("conversation already linked to a different session, keeping the first")
	}
	conv.ExternalSessionID = current.ExternalSessionID
	conv.SessionLinked = true
	return nil
}

// Archive marks an owned conversation archived. Archiving twice is a no-op.
func (s *Service) Archive(ctx context.Context, idOrExternalID string, userID uint) (*Conversation, error) {
	conv, err := s.GetOwned(ctx, idOrExternalID, userID)
	if err != nil {
		return nil, err
	}
	if conv.Status == StatusArchived {
		return conv, nil
	}
	if err := s.repo.UpdateStatus(ctx, conv.ID, userID, StatusArchived); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to archive conversation")
	}
	conv.Status = StatusArchived
	return conv, nil
}

// Reactivate returns an archived conversation to active; it is a no-op otherwise.
func (s *Service) Reactivate(ctx context.Context, conv *Conversation) error {
	if conv.Status != StatusArchived {
		return nil
	}
	if err := s.repo.UpdateStatus(ctx, conv.ID, conv.UserID, StatusActive); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to reactivate conversation")
	}
	conv.Status = StatusActive
	return nil
}

func notFound(ctx context.Context) error {
	return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound, "conversation not found", nil, "3dbd9b7e-2607-4fae-8510-ecbff1d08ac5")
}
