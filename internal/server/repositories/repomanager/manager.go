package repomanager

import (
	"context"
	"database/sql"

	"github.com/csuite-pathway/alumniportal/internal/dbx"
	"github.com/csuite-pathway/alumniportal/internal/server/repositories/alumni"
	"github.com/csuite-pathway/alumniportal/internal/server/repositories/events"
	"github.com/csuite-pathway/alumniportal/internal/server/repositories/faqs"
	"github.com/csuite-pathway/alumniportal/internal/server/repositories/messages"
	"github.com/csuite-pathway/alumniportal/internal/server/repositories/resources"
	"github.com/csuite-pathway/alumniportal/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Alumni(db dbx.DBTX) alumni.Repository
	Messages(db dbx.DBTX) messages.Repository
	Events(db dbx.DBTX) events.Repository
	Resources(db dbx.DBTX) resources.Repository
	FAQs(db dbx.DBTX) faqs.Repository
}
