package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/oakboard/internal/dbx"
	"github.com/dmitrijs2005/oakboard/internal/server/repositories/posts"
	"github.com/dmitrijs2005/oakboard/internal/server/repositories/replies"
	"github.com/dmitrijs2005/oakboard/internal/server/repositories/users"
	"github.com/dmitrijs2005/oakboard/internal/server/repositories/votes"
)

// RepositoryManager vends repositories bound to either the pool or a
// transaction, so services can compose them inside dbx.WithTx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Posts(db dbx.DBTX) posts.Repository
	Replies(db dbx.DBTX) replies.Repository
	Votes(db dbx.DBTX) votes.Repository
}
