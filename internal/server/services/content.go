package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/csuite-pathway/alumniportal/internal/common"
	"github.com/csuite-pathway/alumniportal/internal/dbx"
	"github.com/csuite-pathway/alumniportal/internal/logging"
	"github.com/csuite-pathway/alumniportal/internal/server/models"
	"github.com/csuite-pathway/alumniportal/internal/server/repositories/messages"
	"github.com/csuite-pathway/alumniportal/internal/server/repositories/repomanager"
)

const (
	dashboardAdminMessages     = 5
	dashboardClassmateMessages = 10
	dashboardUpcomingEvents    = 5
)

type MessageInput struct {
	Title   string
	Content string
	// MessageType is ignored; the stored type follows the author's role.
	MessageType string
}

type EventInput struct {
	Title       string
	Description string
	Date        time.Time
	Location    string
}

type FAQInput struct {
	Question string
	Answer   string
}

// Dashboard is the landing view for a logged-in user.
type Dashboard struct {
	AdminMessages     []*models.Message
	ClassmateMessages []*models.Message
	UpcomingEvents    []*models.Event
}

// ContentService serves messages, events and FAQs to authenticated users.
type ContentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
	now         func() time.Time
}

func NewContentService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *ContentService {
	return &ContentService{db: db, repomanager: m, log: log.With("module", "content"), now: time.Now}
}

func messageTypeFor(actor *models.User) string {
	if actor.IsAdmin {
		return models.MessageTypeAdmin
	}
	return models.MessageTypeClassmate
}

func (s *ContentService) CreateMessage(ctx context.Context, actor *models.User, in MessageInput) (*models.Message, error) {
	if err := Authorize(actor, PostContent, 0); err != nil {
		return nil, err
	}
	if err := required("title", in.Title); err != nil {
		return nil, err
	}
	if err := required("content", in.Content); err != nil {
		return nil, err
	}

	msg := &models.Message{
		Title:       strings.TrimSpace(in.Title),
		Content:     in.Content,
		AuthorID:    actor.ID,
		MessageType: messageTypeFor(actor),
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		msg, err = s.repomanager.Messages(tx).Create(ctx, msg)
		return err
	})
	if err != nil {
		s.log.Error(ctx, "create message failed", "error", err)
		return nil, common.ErrorInternal
	}
	msg.AuthorName = actor.FullName()
	return msg, nil
}

// ListMessages returns messages newest first. messageType may be empty,
// "admin" or "classmate".
func (s *ContentService) ListMessages(ctx context.Context, actor *models.User, messageType string) ([]*models.Message, error) {
	if err := Authorize(actor, PostContent, 0); err != nil {
		return nil, err
	}
	switch messageType {
	case "", models.MessageTypeAdmin, models.MessageTypeClassmate:
	default:
		return nil, fmt.Errorf("%w: unknown message type %q", common.ErrValidation, messageType)
	}

	list, err := s.repomanager.Messages(s.db).List(ctx, messages.ListFilter{Type: messageType})
	if err != nil {
		s.log.Error(ctx, "list messages failed", "error", err)
		return nil, common.ErrorInternal
	}
	return list, nil
}

func (s *ContentService) CreateEvent(ctx context.Context, actor *models.User, in EventInput) (*models.Event, error) {
	if err := Authorize(actor, PostContent, 0); err != nil {
		return nil, err
	}
	if err := required("title", in.Title); err != nil {
		return nil, err
	}
	if in.Date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", common.ErrValidation)
	}

	ev := &models.Event{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Date:        in.Date,
		Location:    strings.TrimSpace(in.Location),
		CreatedBy:   actor.ID,
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		ev, err = s.repomanager.Events(tx).Create(ctx, ev)
		return err
	})
	if err != nil {
		s.log.Error(ctx, "create event failed", "error", err)
		return nil, common.ErrorInternal
	}
	ev.CreatorName = actor.FullName()
	return ev, nil
}

// ListEvents returns every event ordered by date ascending.
func (s *ContentService) ListEvents(ctx context.Context, actor *models.User) ([]*models.Event, error) {
	if err := Authorize(actor, PostContent, 0); err != nil {
		return nil, err
	}
	list, err := s.repomanager.Events(s.db).List(ctx)
	if err != nil {
		s.log.Error(ctx, "list events failed", "error", err)
		return nil, common.ErrorInternal
	}
	return list, nil
}

func (s *ContentService) CreateFAQ(ctx context.Context, actor *models.User, in FAQInput) (*models.FAQ, error) {
	if err := Authorize(actor, PostContent, 0); err != nil {
		return nil, err
	}
	if err := required("question", in.Question); err != nil {
		return nil, err
	}
	if err := required("answer", in.Answer); err != nil {
		return nil, err
	}

	faq := &models.FAQ{
		Question:  strings.TrimSpace(in.Question),
		Answer:    in.Answer,
		CreatedBy: actor.ID,
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		faq, err = s.repomanager.FAQs(tx).Create(ctx, faq)
		return err
	})
	if err != nil {
		s.log.Error(ctx, "create faq failed", "error", err)
		return nil, common.ErrorInternal
	}
	faq.CreatorName = actor.FullName()
	return faq, nil
}

func (s *ContentService) ListFAQs(ctx context.Context, actor *models.User) ([]*models.FAQ, error) {
	if err := Authorize(actor, PostContent, 0); err != nil {
		return nil, err
	}
	list, err := s.repomanager.FAQs(s.db).List(ctx)
	if err != nil {
		s.log.Error(ctx, "list faqs failed", "error", err)
		return nil, common.ErrorInternal
	}
	return list, nil
}

// Dashboard collects the latest admin and classmate messages and the next
// few events.
func (s *ContentService) Dashboard(ctx context.Context, actor *models.User) (*Dashboard, error) {
	if err := Authorize(actor, PostContent, 0); err != nil {
		return nil, err
	}

	msgs := s.repomanager.Messages(s.db)
	admin, err := msgs.List(ctx, messages.ListFilter{Type: models.MessageTypeAdmin, Limit: dashboardAdminMessages})
	if err != nil {
		s.log.Error(ctx, "dashboard admin messages failed", "error", err)
		return nil, common.ErrorInternal
	}
	classmate, err := msgs.List(ctx, messages.ListFilter{Type: models.MessageTypeClassmate, Limit: dashboardClassmateMessages})
	if err != nil {
		s.log.Error(ctx, "dashboard classmate messages failed", "error", err)
		return nil, common.ErrorInternal
	}
	upcoming, err := s.repomanager.Events(s.db).Upcoming(ctx, s.now(), dashboardUpcomingEvents)
	if err != nil {
		s.log.Error(ctx, "dashboard events failed", "error", err)
		return nil, common.ErrorInternal
	}

	return &Dashboard{AdminMessages: admin, ClassmateMessages: classmate, UpcomingEvents: upcoming}, nil
}
