package chatsession_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gorm.io/gorm"

	"github.com/janhq/money-coach/internal/domain/chatsession"
	"github.com/janhq/money-coach/internal/domain/conversation"
	"github.com/janhq/money-coach/internal/domain/message"
	"github.com/janhq/money-coach/internal/domain/normalizer"
	"github.com/janhq/money-coach/internal/infrastructure/database/dbschema"
	"github.com/janhq/money-coach/internal/infrastructure/database/dbtest"
	"github.com/janhq/money-coach/internal/infrastructure/database/repository/conversationrepo"
	"github.com/janhq/money-coach/internal/infrastructure/database/repository/messagerepo"
	"github.com/janhq/money-coach/internal/utils/platformerrors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeReply struct {
	reply *chatsession.UpstreamReply
	err   error
}

type fakeAI struct {
	mu       sync.Mutex
	replies  []fakeReply
	requests []chatsession.UpstreamRequest
}

func (f *fakeAI) Chat(_ context.Context, req chatsession.UpstreamRequest) (*chatsession.UpstreamReply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if len(f.replies) == 0 {
		return &chatsession.UpstreamReply{DisplayText: "ok"}, nil
	}
	next := f.replies[0]
	f.replies = f.replies[1:]
	return next.reply, next.err
}

func (f *fakeAI) reply(text, sessionID string) *fakeAI {
	f.replies = append(f.replies, fakeReply{reply: &chatsession.UpstreamReply{DisplayText: text, SessionID: sessionID}})
	return f
}

func (f *fakeAI) fail(err error) *fakeAI {
	f.replies = append(f.replies, fakeReply{err: err})
	return f
}

type recordedTurn struct {
	mode    chatsession.Mode
	outcome string
}

type fakeRecorder struct {
	mu    sync.Mutex
	turns []recordedTurn
}

func (r *fakeRecorder) RecordTurn(mode chatsession.Mode, _ conversation.ChatType, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.turns = append(r.turns, recordedTurn{mode: mode, outcome: outcome})
}

type fixture struct {
	orchestrator  *chatsession.Orchestrator
	conversations *conversation.Service
	messages      *message.Service
	ai            *fakeAI
	recorder      *fakeRecorder
	db            *gorm.DB
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	txdb, db := dbtest.OpenDatabase(t)
	f := &fixture{
		conversations: conversation.NewService(conversationrepo.NewConversationGormRepository(txdb), zerolog.Nop()),
		messages:      message.NewService(messagerepo.NewMessageGormRepository(txdb)),
		ai:            &fakeAI{},
		recorder:      &fakeRecorder{},
		db:            db,
	}
	f.orchestrator = chatsession.NewOrchestrator(
		f.conversations,
		f.messages,
		txdb,
		f.ai,
		normalizer.New(normalizer.DefaultPolicy()),
		f.recorder,
		zerolog.Nop(),
	)
	return f
}

func (f *fixture) messageCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&dbschema.Message{}).Count(&n).Error)
	return n
}

func persisted(userID uint, chatType conversation.ChatType, text string) chatsession.TurnRequest {
	return chatsession.TurnRequest{Mode: chatsession.ModePersisted, UserID: userID, ChatType: chatType, Text: text}
}

func TestSend_FirstExchangeLinksSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := dbtest.SeedUser(t, f.db, "user_1")
	f.ai.reply("Tell me about your income.", "sess-abc").reply("Thanks.", "sess-abc")

	first, err := f.orchestrator.Send(ctx, persisted(userID, conversation.ChatTypeIncome, "  hi  "))
	require.NoError(t, err)
	assert.Equal(t, "sess-abc", first.SessionID)
	assert.Equal(t, conversation.StateLinked, first.Conversation.State())
	require.Len(t, first.Messages, 2)
	assert.Equal(t, message.RoleUser, first.Messages[0].Role)
	assert.Equal(t, "hi", first.Messages[0].Content)
	assert.Equal(t, message.RoleAssistant, first.Messages[1].Role)
	assert.Equal(t, "Tell me about your income.", first.Messages[1].Content)

	second, err := f.orchestrator.Send(ctx, persisted(userID, conversation.ChatTypeIncome, "4000 a month"))
	require.NoError(t, err)
	assert.Equal(t, first.Conversation.ID, second.Conversation.ID)

	require.Len(t, f.ai.requests, 2)
	assert.Empty(t, f.ai.requests[0].SessionID)
	assert.Equal(t, "sess-abc", f.ai.requests[1].SessionID)
	assert.Equal(t, conversation.ChatTypeIncome, f.ai.requests[1].ChatType)

	stored, err := f.conversations.GetByID(ctx, "sess-abc")
	require.NoError(t, err)
	assert.True(t, stored.SessionLinked)
	assert.EqualValues(t, 4, f.messageCount(t))
}

func TestSend_SentinelNeverSentUpstream(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := dbtest.SeedUser(t, f.db, "user_1")
	f.ai.reply("first", "").reply("second", "")

	for i := 0; i < 2; i++ {
		result, err := f.orchestrator.Send(ctx, persisted(userID, conversation.ChatTypeDebt, "hello"))
		require.NoError(t, err)
		assert.Equal(t, conversation.StateAwaitingFirstExchange, result.Conversation.State())
		assert.Empty(t, result.SessionID)
	}

	for _, req := range f.ai.requests {
		assert.Empty(t, req.SessionID)
	}
}

func TestSend_LinkedSessionIsNotReplaced(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := dbtest.SeedUser(t, f.db, "user_1")
	f.ai.reply("one", "sess-1").reply("two", "sess-2")

	_, err := f.orchestrator.Send(ctx, persisted(userID, conversation.ChatTypeSavings, "a"))
	require.NoError(t, err)
	result, err := f.orchestrator.Send(ctx, persisted(userID, conversation.ChatTypeSavings, "b"))
	require.NoError(t, err)

	assert.Equal(t, "sess-1", result.SessionID)
	assert.Equal(t, "sess-1", result.Conversation.ExternalSessionID)
}

func TestSend_AIFailureStoresNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := dbtest.SeedUser(t, f.db, "user_1")
	f.ai.fail(platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "AI service timed out", nil, "2606e0c8-0c74-4c03-a6cf-bea7dd53bb51"))

	_, err := f.orchestrator.Send(ctx, persisted(userID, conversation.ChatTypeIncome, "hi"))
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeExternal))
	assert.EqualValues(t, 0, f.messageCount(t))

	conv, err := f.conversations.GetByType(ctx, userID, conversation.ChatTypeIncome)
	require.NoError(t, err)
	require.NotNil(t, conv)
	assert.Equal(t, conversation.StateAwaitingFirstExchange, conv.State())

	require.Len(t, f.recorder.turns, 1)
	assert.Equal(t, "external", f.recorder.turns[0].outcome)
}

func TestSend_EmptyReplyIsExternal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := dbtest.SeedUser(t, f.db, "user_1")
	f.ai.reply("   ", "sess-x")

	_, err := f.orchestrator.Send(ctx, persisted(userID, conversation.ChatTypeIncome, "hi"))
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeExternal))
	assert.EqualValues(t, 0, f.messageCount(t))

	conv, err := f.conversations.GetByType(ctx, userID, conversation.ChatTypeIncome)
	require.NoError(t, err)
	assert.False(t, conv.SessionLinked)
}

func TestSend_RejectsBadInputBeforeCallingAI(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := dbtest.SeedUser(t, f.db, "user_1")

	tests := []struct {
		name    string
		req     chatsession.TurnRequest
		errType platformerrors.ErrorType
	}{
		{"blank text", persisted(userID, conversation.ChatTypeIncome, "   "), platformerrors.ErrorTypeValidation},
		{"text too long", persisted(userID, conversation.ChatTypeIncome, strings.Repeat("a", chatsession.MaxInputLength+1)), platformerrors.ErrorTypeValidation},
		{"unknown chat type", persisted(userID, "RETIREMENT", "hi"), platformerrors.ErrorTypeValidation},
		{"no user", persisted(0, conversation.ChatTypeIncome, "hi"), platformerrors.ErrorTypeUnauthorized},
		{"unknown mode", chatsession.TurnRequest{Mode: "guess", ChatType: conversation.ChatTypeIncome, Text: "hi"}, platformerrors.ErrorTypeValidation},
		{
			"session id too long",
			chatsession.TurnRequest{Mode: chatsession.ModeAnonymous, ChatType: conversation.ChatTypeIncome, Text: "hi", SessionID: strings.Repeat("s", chatsession.MaxSessionIDLength+1)},
			platformerrors.ErrorTypeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.orchestrator.Send(ctx, tt.req)
			require.Error(t, err)
			assert.True(t, platformerrors.IsErrorType(err, tt.errType), "got %v", err)
		})
	}
	assert.Empty(t, f.ai.requests)
}

func TestSend_AcceptsChatTypeInAnyCasing(t *testing.T) {
	f := newFixture(t)
	userID := dbtest.SeedUser(t, f.db, "user_1")

	result, err := f.orchestrator.Send(context.Background(), persisted(userID, "open-chat", "hi"))
	require.NoError(t, err)
	assert.Equal(t, conversation.ChatTypeOpenChat, result.Conversation.ChatType)
}

func TestSend_AnonymousKeepsNoHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.ai.reply("Welcome!", "anon-1").reply("Still here.", "")

	first, err := f.orchestrator.Send(ctx, chatsession.TurnRequest{Mode: chatsession.ModeAnonymous, ChatType: conversation.ChatTypeExpenses, Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "anon-1", first.SessionID)
	assert.Nil(t, first.Conversation)

	second, err := f.orchestrator.Send(ctx, chatsession.TurnRequest{Mode: chatsession.ModeAnonymous, ChatType: conversation.ChatTypeExpenses, Text: "again", SessionID: first.SessionID})
	require.NoError(t, err)
	assert.Equal(t, "anon-1", second.SessionID, "the caller's session id is echoed when upstream omits one")

	assert.Equal(t, "anon-1", f.ai.requests[1].SessionID)
	assert.EqualValues(t, 0, f.messageCount(t))

	var conversations int64
	require.NoError(t, f.db.Model(&dbschema.Conversation{}).Count(&conversations).Error)
	assert.Zero(t, conversations)

	require.Len(t, f.recorder.turns, 2)
	assert.Equal(t, chatsession.ModeAnonymous, f.recorder.turns[0].mode)
	assert.Equal(t, "ok", f.recorder.turns[0].outcome)
}

func TestSend_StructuredReplyMetadata(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := dbtest.SeedUser(t, f.db, "user_1")
	f.ai.reply("Here you go:\n```json\n{\"answer\":\"Your budget looks fine.\",\"valid\":true,\"monthly_income\":\"4,000\",\"session_id\":\"embedded\"}\n```", "envelope")

	result, err := f.orchestrator.Send(ctx, persisted(userID, conversation.ChatTypeIncome, "check my budget"))
	require.NoError(t, err)

	assert.Equal(t, "Your budget looks fine.", result.Payload.DisplayText)
	assert.Equal(t, normalizer.StructureFencedJSON, result.Payload.Structure)
	assert.True(t, result.Payload.Valid)
	assert.False(t, result.Payload.Ambiguous)
	assert.Equal(t, "envelope", result.SessionID)

	assistant := result.Messages[1]
	assert.Equal(t, "Your budget looks fine.", assistant.Content)
	assert.Equal(t, true, assistant.Metadata["valid"])
	assert.Equal(t, string(normalizer.StructureFencedJSON), assistant.Metadata["structure"])
}

func TestSend_TargetsConversationByID(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := dbtest.SeedUser(t, f.db, "owner")
	other := dbtest.SeedUser(t, f.db, "other")
	conv := dbtest.SeedConversation(t, f.db, owner, "DEBT")

	result, err := f.orchestrator.Send(ctx, chatsession.TurnRequest{Mode: chatsession.ModePersisted, UserID: owner, ConversationID: conv.PublicID, Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, conv.ID, result.Conversation.ID)
	assert.Equal(t, conversation.ChatTypeDebt, f.ai.requests[0].ChatType)

	_, err = f.orchestrator.Send(ctx, chatsession.TurnRequest{Mode: chatsession.ModePersisted, UserID: other, ConversationID: conv.PublicID, Text: "hi"})
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))
	assert.Len(t, f.ai.requests, 1)
}

func TestSend_ReactivatesArchivedConversation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := dbtest.SeedUser(t, f.db, "user_1")
	conv := dbtest.SeedConversation(t, f.db, userID, "SAVINGS")

	_, err := f.conversations.Archive(ctx, conv.PublicID, userID)
	require.NoError(t, err)

	result, err := f.orchestrator.Send(ctx, persisted(userID, conversation.ChatTypeSavings, "back again"))
	require.NoError(t, err)
	assert.Equal(t, conversation.StatusActive, result.Conversation.Status)

	stored, err := f.conversations.GetOwned(ctx, conv.PublicID, userID)
	require.NoError(t, err)
	assert.Equal(t, conversation.StatusActive, stored.Status)
}
