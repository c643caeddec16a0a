package repomanager

import (
	"context"
	"database/sql"

	"github.com/ssemyonovs/cloudvault/internal/dbx"
	"github.com/ssemyonovs/cloudvault/internal/server/repositories/files"
	"github.com/ssemyonovs/cloudvault/internal/server/repositories/refreshtokens"
	"github.com/ssemyonovs/cloudvault/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Files(db dbx.DBTX) files.Repository
}
