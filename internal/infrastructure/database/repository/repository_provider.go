package repository

import (
	"github.com/janhq/money-coach/internal/infrastructure/database/repository/conversationrepo"
	"github.com/janhq/money-coach/internal/infrastructure/database/repository/messagerepo"
	"github.com/janhq/money-coach/internal/infrastructure/database/repository/userrepo"

	"github.com/google/wire"
)

var RepositoryProvider = wire.NewSet(
	userrepo.NewUserGormRepository,
	conversationrepo.NewConversationGormRepository,
	messagerepo.NewMessageGormRepository,
)
