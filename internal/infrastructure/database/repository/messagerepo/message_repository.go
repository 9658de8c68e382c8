package messagerepo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/janhq/money-coach/internal/domain/message"
	"github.com/janhq/money-coach/internal/infrastructure/database/dbschema"
	"github.com/janhq/money-coach/internal/infrastructure/database/transaction"
	"github.com/janhq/money-coach/internal/utils/functional"
	"github.com/janhq/money-coach/internal/utils/platformerrors"
)

var errConversationMissing = errors.New("conversation does not exist")

type MessageGormRepository struct {
	db *transaction.Database
}

var _ message.Repository = (*MessageGormRepository)(nil)

func NewMessageGormRepository(db *transaction.Database) message.Repository {
	return &MessageGormRepository{db: db}
}

// Append reserves len(messages) sequence numbers by bumping the conversation's
// counter, then inserts the rows one by one. The counter update also touches
// updated_at and holds the conversation row lock until commit, so concurrent
// appends to one conversation never interleave their sequence ranges.
func (repo *MessageGormRepository) Append(ctx context.Context, conversationID uint, messages []*message.Message) ([]*message.Message, error) {
	now := time.Now().UTC()
	count := int64(len(messages))

	err := repo.db.GetTx(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&dbschema.Conversation{}).
			Where("id = ?", conversationID).
			UpdateColumns(map[string]any{
				"message_seq": gorm.Expr("message_seq + ?", count),
				"updated_at":  now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errConversationMissing
		}

		var last int64
		if err := tx.Model(&dbschema.Conversation{}).
			Select("message_seq").
			Where("id = ?", conversationID).
			Row().
			Scan(&last); err != nil {
			return err
		}

		first := last - count + 1
		for i, msg := range messages {
			msg.ConversationID = conversationID
			msg.Sequence = first + int64(i)
			msg.CreatedAt = now
			entity := dbschema.NewSchemaMessage(msg)
			if err := tx.Create(entity).Error; err != nil {
				return err
			}
			msg.ID = entity.ID
		}
		return nil
	})
	if errors.Is(err, errConversationMissing) {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "conversation not found", err, "b83d2b08-e36b-478a-ba9a-36fd922b9bcb")
	}
	if err != nil {
		return nil, platformerrors.NewErrorWithContext(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to append messages",
			err,
			"0b51062c-6848-4170-881d-5ea672da2c86",
			map[string]any{"conversation_id": conversationID, "count": count},
		)
	}
	return messages, nil
}

func (repo *MessageGormRepository) List(ctx context.Context, conversationID uint, opts message.ListOptions) ([]*message.Message, int64, error) {
	db := repo.db.GetReadTx(ctx)

	var total int64
	if err := db.Model(&dbschema.Message{}).Where("conversation_id = ?", conversationID).Count(&total).Error; err != nil {
		return nil, 0, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to count messages", err, "b0d5e240-60d6-4921-8dc0-2b5b5294efca")
	}

	order := "sequence ASC"
	if opts.Order == message.OrderDesc {
		order = "sequence DESC"
	}

	var entities []dbschema.Message
	err := db.
		Where("conversation_id = ?", conversationID).
		Order(order).
		Limit(opts.Limit).
		Offset(opts.Offset).
		Find(&entities).Error
	if err != nil {
		return nil, 0, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to list messages", err, "45c07f16-955e-4ca0-aab6-d41f9fa49e46")
	}

	return functional.Map(entities, func(e dbschema.Message) *message.Message {
		return e.EtoD()
	}), total, nil
}

func (repo *MessageGormRepository) FindOwned(ctx context.Context, publicID string, userID uint) (*message.Message, error) {
	db := repo.db.GetTx(ctx)

	var entity dbschema.Message
	err := db.
		Where("public_id = ? AND conversation_id IN (?)", publicID, ownedConversations(db, userID)).
		First(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to find message", err, "218c2be4-7cd2-431e-b536-92344cdf2bcf")
	}
	return entity.EtoD(), nil
}

// DeleteOwned deletes with the ownership check in the same statement, so a
// foreign message and a missing one both affect zero rows.
func (repo *MessageGormRepository) DeleteOwned(ctx context.Context, publicID string, userID uint) (bool, error) {
	db := repo.db.GetTx(ctx)

	result := db.
		Where("public_id = ? AND conversation_id IN (?)", publicID, ownedConversations(db, userID)).
		Delete(&dbschema.Message{})
	if result.Error != nil {
		return false, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to delete message", result.Error, "6c6645a9-6ef7-4b17-b980-2c5925c1efcf")
	}
	return result.RowsAffected > 0, nil
}

func ownedConversations(db *gorm.DB, userID uint) *gorm.DB {
	return db.Model(&dbschema.Conversation{}).Select("id").Where("user_id = ?", userID)
}
