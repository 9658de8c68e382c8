package message_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/janhq/money-coach/internal/domain/message"
	"github.com/janhq/money-coach/internal/infrastructure/database/dbschema"
	"github.com/janhq/money-coach/internal/infrastructure/database/dbtest"
	"github.com/janhq/money-coach/internal/infrastructure/database/repository/messagerepo"
	"github.com/janhq/money-coach/internal/utils/platformerrors"
)

func newService(t *testing.T) (*message.Service, *gorm.DB) {
	t.Helper()
	txdb, db := dbtest.OpenDatabase(t)
	return message.NewService(messagerepo.NewMessageGormRepository(txdb)), db
}

func countMessages(t *testing.T, db *gorm.DB, conversationID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&dbschema.Message{}).Where("conversation_id = ?", conversationID).Count(&n).Error)
	return n
}

func TestAddPair_StoresUserThenAssistant(t *testing.T) {
	ctx := context.Background()
	svc, db := newService(t)
	conv := dbtest.SeedConversation(t, db, dbtest.SeedUser(t, db, "user_1"), "INCOME")

	stored, err := svc.AddPair(ctx, conv.ID, "I earn 4000 a month", "Noted.", map[string]any{"valid": true})
	require.NoError(t, err)
	require.Len(t, stored, 2)

	assert.Equal(t, message.RoleUser, stored[0].Role)
	assert.Equal(t, message.RoleAssistant, stored[1].Role)
	assert.Equal(t, stored[0].Sequence+1, stored[1].Sequence)
	assert.True(t, strings.HasPrefix(stored[0].PublicID, "msg_"))
	assert.NotEqual(t, stored[0].PublicID, stored[1].PublicID)

	list, total, err := svc.List(ctx, conv.ID, message.ListOptions{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, list, 2)
	assert.Equal(t, "I earn 4000 a month", list[0].Content)
	assert.Equal(t, true, list[1].Metadata["valid"])

	var reloaded dbschema.Conversation
	require.NoError(t, db.First(&reloaded, conv.ID).Error)
	assert.EqualValues(t, 2, reloaded.MessageSeq)
	assert.False(t, reloaded.UpdatedAt.Before(conv.UpdatedAt))
}

func TestAddMany_RejectsInvalidDraftsBeforeWriting(t *testing.T) {
	ctx := context.Background()
	svc, db := newService(t)
	conv := dbtest.SeedConversation(t, db, dbtest.SeedUser(t, db, "user_1"), "DEBT")

	tests := []struct {
		name   string
		drafts []message.Draft
	}{
		{"empty batch", nil},
		{"unknown role", []message.Draft{{Role: "tool", Content: "x"}}},
		{"blank content", []message.Draft{{Role: message.RoleUser, Content: "ok"}, {Role: message.RoleAssistant, Content: "   "}}},
		{"too long", []message.Draft{{Role: message.RoleUser, Content: strings.Repeat("a", message.MaxContentLength+1)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddMany(ctx, conv.ID, tt.drafts)
			require.Error(t, err)
			assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation))
		})
	}
	assert.EqualValues(t, 0, countMessages(t, db, conv.ID))
}

func TestAddMany_FailedInsertRollsBackWholeBatch(t *testing.T) {
	ctx := context.Background()
	svc, db := newService(t)
	conv := dbtest.SeedConversation(t, db, dbtest.SeedUser(t, db, "user_1"), "SAVINGS")

	var inserts atomic.Int32
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:fail_second_message", func(tx *gorm.DB) {
		if tx.Statement.Table != "messages" {
			return
		}
		if inserts.Add(1) == 2 {
			_ = tx.AddError(errors.New("disk full"))
		}
	}))

	_, err := svc.AddPair(ctx, conv.ID, "question", "answer", nil)
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeDatabaseError))

	assert.EqualValues(t, 0, countMessages(t, db, conv.ID), "the first insert must be rolled back")
	var reloaded dbschema.Conversation
	require.NoError(t, db.First(&reloaded, conv.ID).Error)
	assert.EqualValues(t, 0, reloaded.MessageSeq, "reserved sequence numbers must be rolled back")
}

func TestAddMany_MissingConversation(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.AddPair(context.Background(), 999, "hi", "hello", nil)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))
}

func TestAddMany_ConcurrentAppendsGetDistinctSequences(t *testing.T) {
	ctx := context.Background()
	svc, db := newService(t)
	conv := dbtest.SeedConversation(t, db, dbtest.SeedUser(t, db, "user_1"), "EXPENSES")

	const writers = 8
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.AddPair(ctx, conv.ID, "q", "a", nil)
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		require.NoError(t, err, "writer %d", i)
	}

	list, total, err := svc.List(ctx, conv.ID, message.ListOptions{Limit: message.MaxListLimit})
	require.NoError(t, err)
	assert.EqualValues(t, 2*writers, total)
	for i, msg := range list {
		assert.EqualValues(t, i+1, msg.Sequence)
		// Each pair is contiguous: odd sequences are user turns.
		if i%2 == 0 {
			assert.Equal(t, message.RoleUser, msg.Role)
		} else {
			assert.Equal(t, message.RoleAssistant, msg.Role)
		}
	}
}

func TestList_OrderAndPaging(t *testing.T) {
	ctx := context.Background()
	svc, db := newService(t)
	conv := dbtest.SeedConversation(t, db, dbtest.SeedUser(t, db, "user_1"), "OPEN_CHAT")

	_, err := svc.AddMany(ctx, conv.ID, []message.Draft{
		{Role: message.RoleUser, Content: "one"},
		{Role: message.RoleAssistant, Content: "two"},
		{Role: message.RoleUser, Content: "three"},
	})
	require.NoError(t, err)

	desc, _, err := svc.List(ctx, conv.ID, message.ListOptions{Order: message.OrderDesc, Limit: 2})
	require.NoError(t, err)
	require.Len(t, desc, 2)
	assert.Equal(t, "three", desc[0].Content)
	assert.Equal(t, "two", desc[1].Content)

	page, total, err := svc.List(ctx, conv.ID, message.ListOptions{Offset: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, page, 1)
	assert.Equal(t, "three", page[0].Content)

	_, _, err = svc.List(ctx, conv.ID, message.ListOptions{Order: "sideways"})
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation))
}

func TestGetAndDelete_ForeignIndistinguishableFromMissing(t *testing.T) {
	ctx := context.Background()
	svc, db := newService(t)
	owner := dbtest.SeedUser(t, db, "owner")
	intruder := dbtest.SeedUser(t, db, "intruder")
	conv := dbtest.SeedConversation(t, db, owner, "INCOME")

	stored, err := svc.AddPair(ctx, conv.ID, "q", "a", nil)
	require.NoError(t, err)
	target := stored[0].PublicID

	got, err := svc.Get(ctx, target, owner)
	require.NoError(t, err)
	assert.Equal(t, "q", got.Content)

	_, foreignGet := svc.Get(ctx, target, intruder)
	_, missingGet := svc.Get(ctx, "msg_missing", intruder)
	assert.Equal(t, platformerrors.GetPlatformError(missingGet).Message, platformerrors.GetPlatformError(foreignGet).Message)
	assert.True(t, platformerrors.IsErrorType(foreignGet, platformerrors.ErrorTypeNotFound))

	foreignDelete := svc.Delete(ctx, target, intruder)
	missingDelete := svc.Delete(ctx, "msg_missing", intruder)
	assert.Equal(t, platformerrors.GetPlatformError(missingDelete).Message, platformerrors.GetPlatformError(foreignDelete).Message)
	assert.True(t, platformerrors.IsErrorType(foreignDelete, platformerrors.ErrorTypeNotFound))
	assert.EqualValues(t, 2, countMessages(t, db, conv.ID), "a foreign delete must not remove anything")

	require.NoError(t, svc.Delete(ctx, target, owner))
	assert.EqualValues(t, 1, countMessages(t, db, conv.ID))
	assert.True(t, platformerrors.IsErrorType(svc.Delete(ctx, target, owner), platformerrors.ErrorTypeNotFound))
}
