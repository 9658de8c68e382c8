package userrepo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/janhq/money-coach/internal/domain/user"
	"github.com/janhq/money-coach/internal/infrastructure/database"
	"github.com/janhq/money-coach/internal/infrastructure/database/dbschema"
	"github.com/janhq/money-coach/internal/infrastructure/database/transaction"
	"github.com/janhq/money-coach/internal/utils/platformerrors"
)

type UserGormRepository struct {
	db *transaction.Database
}

var _ user.Repository = (*UserGormRepository)(nil)

func NewUserGormRepository(db *transaction.Database) user.Repository {
	return &UserGormRepository{db: db}
}

func (repo *UserGormRepository) FindByExternalID(ctx context.Context, externalID string) (*user.User, error) {
	var entity dbschema.User
	err := repo.db.GetTx(ctx).
		Where("external_id = ?", externalID).
		First(&entity).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to find user by external id",
			err,
			"896b6388-72e4-47b8-9a92-010bdf08b067",
		)
	}
	return entity.EtoD(), nil
}

func (repo *UserGormRepository) Create(ctx context.Context, usr *user.User) (*user.User, error) {
	entity := dbschema.NewSchemaUser(usr)
	if err := repo.db.GetTx(ctx).Create(entity).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, platformerrors.NewErrorWithContext(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeConflict,
				"user already exists",
				err,
				"88c140bb-aef9-472e-b9c6-41aba9a82681",
				map[string]any{"external_id": usr.ExternalID},
			)
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to create user",
			err,
			"22c71b56-7854-4e55-b65e-9e0c5b08ec44",
		)
	}
	return entity.EtoD(), nil
}

func (repo *UserGormRepository) Upsert(ctx context.Context, usr *user.User) (*user.User, error) {
	entity := dbschema.NewSchemaUser(usr)

	assignments := map[string]any{
		"email":      entity.Email,
		"first_name": entity.FirstName,
		"last_name":  entity.LastName,
		"image_url":  entity.ImageURL,
		"updated_at": time.Now().UTC(),
	}

	db := repo.db.GetTx(ctx)
	if err := db.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_id"}},
			DoUpdates: clause.Assignments(assignments),
		}).
		Create(entity).Error; err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to upsert user",
			err,
			"181f2a67-9776-4594-b845-254f276d7702",
		)
	}

	// Reload to capture the surviving row's id and timestamps.
	var persisted dbschema.User
	if err := db.
		Where("external_id = ?", entity.ExternalID).
		First(&persisted).Error; err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to reload upserted user",
			err,
			"9efe522d-6692-4c55-a884-993ffc6b8c99",
		)
	}

	return persisted.EtoD(), nil
}

func (repo *UserGormRepository) DeleteByExternalID(ctx context.Context, externalID string) (bool, error) {
	result := repo.db.GetTx(ctx).
		Where("external_id = ?", externalID).
		Delete(&dbschema.User{})
	if result.Error != nil {
		return false, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to delete user",
			result.Error,
			"7d0c0454-3bfd-48c0-b110-80078bc754fd",
		)
	}
	return result.RowsAffected > 0, nil
}
