package user_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/janhq/money-coach/internal/domain/user"
	"github.com/janhq/money-coach/internal/infrastructure/database/dbschema"
	"github.com/janhq/money-coach/internal/infrastructure/database/dbtest"
	"github.com/janhq/money-coach/internal/infrastructure/database/repository/userrepo"
	"github.com/janhq/money-coach/internal/utils/platformerrors"
)

type fakeProfiles struct {
	profile *user.Profile
	err     error
	calls   int
	mu      sync.Mutex
}

func (f *fakeProfiles) FetchProfile(_ context.Context, _ string) (*user.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.profile, f.err
}

func newService(t *testing.T, profiles user.ProfileFetcher) (*user.Service, *gorm.DB) {
	t.Helper()
	txdb, db := dbtest.OpenDatabase(t)
	return user.NewService(userrepo.NewUserGormRepository(txdb), profiles, zerolog.Nop()), db
}

func countUsers(t *testing.T, db *gorm.DB, externalID string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&dbschema.User{}).Where("external_id = ?", externalID).Count(&n).Error)
	return n
}

func loadUser(t *testing.T, db *gorm.DB, externalID string) *dbschema.User {
	t.Helper()
	var row dbschema.User
	require.NoError(t, db.Where("external_id = ?", externalID).First(&row).Error)
	return &row
}

func mustParse(t *testing.T, payload string) *user.WebhookEvent {
	t.Helper()
	event, err := user.ParseWebhookEvent([]byte(payload))
	require.NoError(t, err)
	return event
}

func strPtr(s string) *string { return &s }

func TestHandleEvent_CreatedReplayIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, db := newService(t, nil)
	event := mustParse(t, `{
		"type": "user.created",
		"data": {
			"id": "user_2abc",
			"first_name": "Ada",
			"email_addresses": [{"id": "idn_1", "email_address": "ada@example.com"}],
			"primary_email_address_id": "idn_1"
		}
	}`)

	for i := 0; i < 2; i++ {
		outcome, err := svc.HandleEvent(ctx, event)
		require.NoError(t, err)
		assert.Equal(t, user.OutcomeUpserted, outcome)
	}

	assert.EqualValues(t, 1, countUsers(t, db, "user_2abc"))
	got := loadUser(t, db, "user_2abc")
	assert.Equal(t, strPtr("ada@example.com"), got.Email)
	assert.Equal(t, strPtr("Ada"), got.FirstName)
}

func TestHandleEvent_UpdatedOverwritesFields(t *testing.T) {
	ctx := context.Background()
	svc, db := newService(t, nil)

	_, err := svc.HandleEvent(ctx, mustParse(t, `{"type":"user.created","data":{"id":"user_1","first_name":"Old"}}`))
	require.NoError(t, err)
	_, err = svc.HandleEvent(ctx, mustParse(t, `{"type":"user.updated","data":{"id":"user_1","first_name":"New","last_name":"Name"}}`))
	require.NoError(t, err)

	got := loadUser(t, db, "user_1")
	assert.Equal(t, strPtr("New"), got.FirstName)
	assert.Equal(t, strPtr("Name"), got.LastName)
	assert.EqualValues(t, 1, countUsers(t, db, "user_1"))
}

func TestHandleEvent_UpdatedBeforeCreatedStillUpserts(t *testing.T) {
	ctx := context.Background()
	svc, db := newService(t, nil)

	outcome, err := svc.HandleEvent(ctx, mustParse(t, `{"type":"user.updated","data":{"id":"user_late"}}`))
	require.NoError(t, err)
	assert.Equal(t, user.OutcomeUpserted, outcome)
	assert.EqualValues(t, 1, countUsers(t, db, "user_late"))
}

func TestHandleEvent_DeleteUnknownUserSucceeds(t *testing.T) {
	svc, _ := newService(t, nil)

	outcome, err := svc.HandleEvent(context.Background(), mustParse(t, `{"type":"user.deleted","data":{"id":"never_seen"}}`))
	require.NoError(t, err)
	assert.Equal(t, user.OutcomeAlreadyAbsent, outcome)
}

func TestHandleEvent_DeleteCascadesToConversations(t *testing.T) {
	ctx := context.Background()
	svc, db := newService(t, nil)
	userID := dbtest.SeedUser(t, db, "user_gone")
	conv := dbtest.SeedConversation(t, db, userID, "INCOME")

	outcome, err := svc.HandleEvent(ctx, mustParse(t, `{"type":"user.deleted","data":{"id":"user_gone"}}`))
	require.NoError(t, err)
	assert.Equal(t, user.OutcomeDeleted, outcome)

	var n int64
	require.NoError(t, db.Model(&dbschema.Conversation{}).Where("id = ?", conv.ID).Count(&n).Error)
	assert.Zero(t, n)
}

func TestHandleEvent_OtherKindsAreIgnored(t *testing.T) {
	svc, db := newService(t, nil)

	outcome, err := svc.HandleEvent(context.Background(), mustParse(t, `{"type":"email.created","data":{"id":"x"}}`))
	require.NoError(t, err)
	assert.Equal(t, user.OutcomeIgnored, outcome)
	assert.EqualValues(t, 0, countUsers(t, db, "x"))
}

func TestEnsureUser_CreatesWithProfile(t *testing.T) {
	ctx := context.Background()
	profiles := &fakeProfiles{profile: &user.Profile{Email: strPtr("new@example.com")}}
	svc, db := newService(t, profiles)

	created, outcome, err := svc.EnsureUser(ctx, "user_new")
	require.NoError(t, err)
	assert.Equal(t, user.ProvisionCreated, outcome)
	assert.NotZero(t, created.ID)
	assert.Equal(t, strPtr("new@example.com"), created.Email)

	again, outcome, err := svc.EnsureUser(ctx, "user_new")
	require.NoError(t, err)
	assert.Equal(t, user.ProvisionExisting, outcome)
	assert.Equal(t, created.ID, again.ID)
	assert.Equal(t, 1, profiles.calls, "known users must not hit the identity provider")
	assert.EqualValues(t, 1, countUsers(t, db, "user_new"))
}

func TestEnsureUser_ProfileFailureIsNotFatal(t *testing.T) {
	profiles := &fakeProfiles{err: errors.New("identity provider down")}
	svc, _ := newService(t, profiles)

	created, _, err := svc.EnsureUser(context.Background(), "user_bare")
	require.NoError(t, err)
	assert.Equal(t, "user_bare", created.ExternalID)
	assert.Nil(t, created.Email)
}

func TestEnsureUser_BlankSubject(t *testing.T) {
	svc, _ := newService(t, nil)
	_, _, err := svc.EnsureUser(context.Background(), "  ")
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeUnauthorized))
}

func TestEnsureUser_ConcurrentFirstRequestsConverge(t *testing.T) {
	ctx := context.Background()
	svc, db := newService(t, nil)

	const callers = 12
	var wg sync.WaitGroup
	ids := make([]uint, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u, _, err := svc.EnsureUser(ctx, "user_race")
			errs[i] = err
			if u != nil {
				ids[i] = u.ID
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i], "caller %d", i)
		assert.Equal(t, ids[0], ids[i])
	}
	assert.EqualValues(t, 1, countUsers(t, db, "user_race"))
}

type conflictingRepo struct {
	user.Repository
	winner  *user.User
	lookups int
}

func (r *conflictingRepo) FindByExternalID(_ context.Context, _ string) (*user.User, error) {
	r.lookups++
	if r.lookups == 1 {
		return nil, nil
	}
	return r.winner, nil
}

func (r *conflictingRepo) Create(ctx context.Context, _ *user.User) (*user.User, error) {
	return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeConflict, "user already exists", nil, "test")
}

func TestEnsureUser_ConflictReselectsWinner(t *testing.T) {
	repo := &conflictingRepo{winner: &user.User{ID: 42, ExternalID: "user_race"}}
	svc := user.NewService(repo, nil, zerolog.Nop())

	got, outcome, err := svc.EnsureUser(context.Background(), "user_race")
	require.NoError(t, err)
	assert.Equal(t, user.ProvisionReselected, outcome)
	assert.EqualValues(t, 42, got.ID)
	assert.Equal(t, 2, repo.lookups)
}
