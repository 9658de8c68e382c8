package message

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/janhq/money-coach/internal/utils/idgen"
	"github.com/janhq/money-coach/internal/utils/platformerrors"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// Service appends and reads conversation history.
type Service struct {
	repo Repository
}

const publicIDPrefix = "msg"

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// AddPair appends the user turn and the assistant reply as one unit.
func (s *Service) AddPair(ctx context.Context, conversationID uint, userText, assistantText string, assistantMetadata map[string]any) ([]*Message, error) {
	return s.AddMany(ctx, conversationID, []Draft{
		{Role: RoleUser, Content: userText},
		{Role: RoleAssistant, Content: assistantText, Metadata: assistantMetadata},
	})
}

// AddMany appends drafts in slice order; either all are stored or none.
func (s *Service) AddMany(ctx context.Context, conversationID uint, drafts []Draft) ([]*Message, error) {
	if len(drafts) == 0 {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "no messages to append", nil, "7d76432a-4cfe-4c93-b10f-f66db0a4c30b")
	}

	pending := make([]*Message, 0, len(drafts))
	for i, draft := range drafts {
		if err := validateDraft(draft); err != nil {
			return nil, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, err.Error(), nil, "8b3f47e4-f2a2-4020-8de5-492227a9d534", map[string]any{"index": i})
		}
		publicID, err := idgen.GenerateSecureID(publicIDPrefix, 16)
		if err != nil {
			return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to generate message ID")
		}
		pending = append(pending, &Message{
			PublicID:       publicID,
			ConversationID: conversationID,
			Role:           draft.Role,
			Content:        draft.Content,
			Metadata:       draft.Metadata,
		})
	}

	stored, err := s.repo.Append(ctx, conversationID, pending)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to append messages")
	}
	return stored, nil
}

// List returns a page of a conversation's history ordered by sequence.
// Callers check conversation ownership first.
func (s *Service) List(ctx context.Context, conversationID uint, opts ListOptions) ([]*Message, int64, error) {
	switch opts.Order {
	case "":
		opts.Order = OrderAsc
	case OrderAsc, OrderDesc:
	default:
		return nil, 0, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "order must be asc or desc", nil, "0534018a-c7b2-404a-9581-565dfaf97913")
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultListLimit
	}
	if opts.Limit > MaxListLimit {
		opts.Limit = MaxListLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}

	messages, total, err := s.repo.List(ctx, conversationID, opts)
	if err != nil {
		return nil, 0, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list messages")
	}
	return messages, total, nil
}

// Get returns a message the user owns. Absent and foreign messages fail identically.
func (s *Service) Get(ctx context.Context, publicID string, userID uint) (*Message, error) {
	publicID = strings.TrimSpace(publicID)
	if !idgen.ValidateIDFormat(publicID, publicIDPrefix) {
		return nil, notFound(ctx)
	}
	msg, err := s.repo.FindOwned(ctx, publicID, userID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to get message")
	}
	if msg == nil {
		return nil, notFound(ctx)
	}
	return msg, nil
}

// Delete removes a message the user owns. Absent and foreign messages fail identically.
func (s *Service) Delete(ctx context.Context, publicID string, userID uint) error {
	publicID = strings.TrimSpace(publicID)
	if !idgen.ValidateIDFormat(publicID, publicIDPrefix) {
		return notFound(ctx)
	}
	deleted, err := s.repo.DeleteOwned(ctx, publicID, userID)
	if err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to delete message")
	}
	if !deleted {
		return notFound(ctx)
	}
	return nil
}

func validateDraft(d Draft) error {
	if !d.Role.Valid() {
		return fmt.Errorf("invalid role %q", d.Role)
	}
	if strings.TrimSpace(d.Content) == "" {
		return fmt.Errorf("%s message content is empty", d.Role)
	}
	if utf8.RuneCountInString(d.Content) > MaxContentLength {
		return fmt.Errorf("%s message content exceeds %d characters", d.Role, MaxContentLength)
	}
	return nil
}

func notFound(ctx context.Context) error {
	return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound, "message not found", nil, "fff00dd0-845e-4cc8-905a-aca1f904642c")
}
