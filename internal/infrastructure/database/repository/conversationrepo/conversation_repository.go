package conversationrepo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/janhq/money-coach/internal/domain/conversation"
	"github.com/janhq/money-coach/internal/infrastructure/database"
	"github.com/janhq/money-coach/internal/infrastructure/database/dbschema"
	"github.com/janhq/money-coach/internal/infrastructure/database/transaction"
	"github.com/janhq/money-coach/internal/utils/functional"
	"github.com/janhq/money-coach/internal/utils/platformerrors"
)

type ConversationGormRepository struct {
	db *transaction.Database
}

var _ conversation.Repository = (*ConversationGormRepository)(nil)

func NewConversationGormRepository(db *transaction.Database) conversation.Repository {
	return &ConversationGormRepository{db: db}
}

// Create inserts inside its own savepoint so a unique violation leaves an
// enclosing postgres transaction usable for the reselect.
func (repo *ConversationGormRepository) Create(ctx context.Context, conv *conversation.Conversation) error {
	entity := dbschema.NewSchemaConversation(conv)
	err := repo.db.GetTx(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(entity).Error
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			return platformerrors.NewErrorWithContext(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeConflict,
				"conversation already exists",
				err,
				"30267d3a-cc57-4cbc-9e72-71c41bc23393",
				map[string]any{"user_id": conv.UserID, "chat_type": string(conv.ChatType)},
			)
		}
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to create conversation", err, "f79f7ef0-8780-46e9-8e18-7d2ea2579850")
	}

	conv.ID = entity.ID
	conv.CreatedAt = entity.CreatedAt
	conv.UpdatedAt = entity.UpdatedAt
	return nil
}

func (repo *ConversationGormRepository) FindByID(ctx context.Context, id uint) (*conversation.Conversation, error) {
	return repo.findOne(ctx, "failed to find conversation by ID", "7b95044c-1ca1-4b29-b619-7dbc0713db9f", "id = ?", id)
}

func (repo *ConversationGormRepository) FindByUserAndType(ctx context.Context, userID uint, chatType conversation.ChatType) (*conversation.Conversation, error) {
	return repo.findOne(ctx, "failed to find conversation by user and chat type", "af988a11-d2fc-4d17-b2e8-95f997ba270b", "user_id = ? AND chat_type = ?", userID, string(chatType))
}

func (repo *ConversationGormRepository) FindByPublicOrExternalID(ctx context.Context, key string) (*conversation.Conversation, error) {
	return repo.findOne(ctx, "failed to find conversation by public or session id", "5e63cb4e-a11a-4941-a14f-af734705febe", "public_id = ? OR external_session_id = ?", key, key)
}

func (repo *ConversationGormRepository) findOne(ctx context.Context, failure, code string, query string, args ...any) (*conversation.Conversation, error) {
	var entity dbschema.Conversation
	err := repo.db.GetTx(ctx).Where(query, args...).First(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, failure, err, code)
	}
	return entity.EtoD(), nil
}

func (repo *ConversationGormRepository) ListByUser(ctx context.Context, userID uint, pagination conversation.Pagination) ([]*conversation.Conversation, int64, error) {
	db := repo.db.GetReadTx(ctx)

	var total int64
	if err := db.Model(&dbschema.Conversation{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to count conversations", err, "28addc6a-2e62-4b39-b2aa-067e9ddc8f59")
	}

	var entities []dbschema.Conversation
	err := db.
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Order("id DESC").
		Limit(pagination.Limit).
		Offset(pagination.Offset).
		Find(&entities).Error
	if err != nil {
		return nil, 0, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to list conversations", err, "f51058ab-5fe6-4f9d-979b-35315c28b16b")
	}

	return functional.Map(entities, func(e dbschema.Conversation) *conversation.Conversation {
		return e.EtoD()
	}), total, nil
}

func (repo *ConversationGormRepository) Touch(ctx context.Context, id uint) error {
	result := repo.db.GetTx(ctx).
		Model(&dbschema.Conversation{}).
		Where("id = ?", id).
		UpdateColumn("updated_at", time.Now().UTC())
	if result.Error != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to touch conversation", result.Error, "f2347073-6d9a-4d4c-8f78-d01779fbbb22")
	}
	if result.RowsAffected == 0 {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "conversation not found", nil, "d962ff5b-095e-4aba-b075-b4af920f5ec9")
	}
	return nil
}

func (repo *ConversationGormRepository) LinkSession(ctx context.Context, id uint, sessionID string) (bool, error) {
	result := repo.db.GetTx(ctx).
		Model(&dbschema.Conversation{}).
		Where("id = ? AND session_linked = ?", id, false).
		UpdateColumns(map[string]any{
			"external_session_id": sessionID,
			"session_linked":      true,
			"updated_at":          time.Now().UTC(),
		})
	if result.Error != nil {
		if database.IsUniqueViolation(result.Error) {
			return false, platformerrors.NewErrorWithContext(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeConflict,
				"session id already linked to another conversation",
				result.Error,
				"a3457eeb-500c-4937-9580-d5bdd3e077b7",
				map[string]any{"conversation_id": id},
			)
		}
		return false, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to link session", result.Error, "ca616752-79bb-45b2-8f0e-741978063a53")
	}
	return result.RowsAffected > 0, nil
}

func (repo *ConversationGormRepository) UpdateStatus(ctx context.Context, id uint, userID uint, status conversation.Status) error {
	result := repo.db.GetTx(ctx).
		Model(&dbschema.Conversation{}).
		Where("id = ? AND user_id = ?", id, userID).
		UpdateColumns(map[string]any{
			"status":     string(status),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to update conversation status", result.Error, "c3d85e21-d338-4fa2-a273-b00248dae98b")
	}
	if result.RowsAffected == 0 {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "conversation not found", nil, "2a0f84c9-4841-4b13-a135-0b7578678f8a")
	}
	return nil
}
