package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/csuite-pathway/alumniportal/internal/common"
	"github.com/csuite-pathway/alumniportal/internal/dbx"
	"github.com/csuite-pathway/alumniportal/internal/filex"
	"github.com/csuite-pathway/alumniportal/internal/logging"
	"github.com/csuite-pathway/alumniportal/internal/server/blob"
	"github.com/csuite-pathway/alumniportal/internal/server/metrics"
	"github.com/csuite-pathway/alumniportal/internal/server/models"
	"github.com/csuite-pathway/alumniportal/internal/server/repositories/repomanager"
)

// UploadInput carries a resource upload. FileName is only used for display
// and for its extension.
type UploadInput struct {
	Title       string
	Description string
	FileName    string
	ContentType string
	Body        io.Reader
}

type ResourceLimits struct {
	MaxBytes          int64
	AllowedExtensions []string
	PresignTTL        time.Duration
}

// ResourceService stores uploaded files in blob storage and their metadata
// in the database.
type ResourceService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       blob.Storage
	maxBytes    int64
	allowed     map[string]struct{}
	presignTTL  time.Duration
	metrics     *metrics.Metrics
	log         logging.Logger
}

func NewResourceService(db *sql.DB, m repomanager.RepositoryManager, store blob.Storage, limits ResourceLimits,
	mt *metrics.Metrics, log logging.Logger) *ResourceService {
	allowed := make(map[string]struct{}, len(limits.AllowedExtensions))
	for _, ext := range limits.AllowedExtensions {
		allowed[strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))] = struct{}{}
	}
	return &ResourceService{
		db:          db,
		repomanager: m,
		store:       store,
		maxBytes:    limits.MaxBytes,
		allowed:     allowed,
		presignTTL:  limits.PresignTTL,
		metrics:     mt,
		log:         log.With("module", "resources"),
	}
}

// displayName strips any directory part a client may have sent.
func displayName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}
	return name
}

// Upload validates the file, writes it to storage under a fresh key and
// records the metadata. If the metadata insert fails the stored file is
// removed again.
func (s *ResourceService) Upload(ctx context.Context, actor *models.User, in UploadInput) (*models.Resource, error) {
	if err := Authorize(actor, PostContent, 0); err != nil {
		return nil, err
	}
	if err := required("title", in.Title); err != nil {
		return nil, err
	}
	name := displayName(in.FileName)
	if name == "" || in.Body == nil {
		return nil, fmt.Errorf("%w: a file is required", common.ErrValidation)
	}

	ext := filex.Ext(name)
	if _, ok := s.allowed[ext]; !ok || ext == "" {
		s.metrics.Upload("unsupported_type")
		return nil, fmt.Errorf("%w: %q", common.ErrUnsupportedFileType, name)
	}

	data, err := io.ReadAll(io.LimitReader(in.Body, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read upload: %v", common.ErrValidation, err)
	}
	if int64(len(data)) > s.maxBytes {
		s.metrics.Upload("too_large")
		return nil, fmt.Errorf("%w: limit is %d bytes", common.ErrFileTooLarge, s.maxBytes)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: file is empty", common.ErrValidation)
	}

	key, err := s.store.Put(ctx, ext, data, in.ContentType)
	if err != nil {
		s.log.Error(ctx, "store upload failed", "error", err)
		s.metrics.Upload("error")
		return nil, common.ErrorInternal
	}

	res := &models.Resource{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		StorageKey:  key,
		FileName:    name,
		FileSize:    int64(len(data)),
		FileType:    ext,
		UploadedBy:  actor.ID,
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		res, err = s.repomanager.Resources(tx).Create(ctx, res)
		return err
	})
	if err != nil {
		s.log.Error(ctx, "record upload failed", "key", key, "error", err)
		if derr := s.store.Delete(ctx, key); derr != nil {
			s.log.Error(ctx, "orphaned upload", "key", key, "error", derr)
			s.metrics.OrphanedBlob()
		}
		s.metrics.Upload("error")
		return nil, common.ErrorInternal
	}

	s.metrics.Upload("ok")
	res.UploaderName = actor.FullName()
	return res, nil
}

// List returns resources newest first.
func (s *ResourceService) List(ctx context.Context, actor *models.User) ([]*models.Resource, error) {
	if err := Authorize(actor, PostContent, 0); err != nil {
		return nil, err
	}
	list, err := s.repomanager.Resources(s.db).List(ctx)
	if err != nil {
		s.log.Error(ctx, "list resources failed", "error", err)
		return nil, common.ErrorInternal
	}
	return list, nil
}

func (s *ResourceService) Get(ctx context.Context, actor *models.User, id int64) (*models.Resource, error) {
	if err := Authorize(actor, PostContent, 0); err != nil {
		return nil, err
	}
	res, err := s.repomanager.Resources(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		s.log.Error(ctx, "get resource failed", "id", id, "error", err)
		return nil, common.ErrorInternal
	}
	return res, nil
}

// Open streams the stored file. The caller closes the reader.
func (s *ResourceService) Open(ctx context.Context, actor *models.User, id int64) (*models.Resource, io.ReadCloser, error) {
	res, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.store.Open(ctx, res.StorageKey)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.log.Warn(ctx, "resource file missing", "id", id, "key", res.StorageKey)
			return nil, nil, err
		}
		s.log.Error(ctx, "open resource failed", "id", id, "error", err)
		return nil, nil, common.ErrorInternal
	}
	return res, rc, nil
}

// DownloadURL returns a time-limited direct link when the storage backend
// supports it, otherwise blob.ErrPresignNotSupported.
func (s *ResourceService) DownloadURL(ctx context.Context, actor *models.User, id int64) (string, error) {
	p, ok := s.store.(blob.Presigner)
	if !ok {
		return "", blob.ErrPresignNotSupported
	}
	res, err := s.Get(ctx, actor, id)
	if err != nil {
		return "", err
	}
	url, err := p.PresignGet(ctx, res.StorageKey, s.presignTTL)
	if err != nil {
		s.log.Error(ctx, "presign failed", "id", id, "error", err)
		return "", common.ErrorInternal
	}
	return url, nil
}

// Delete removes a resource and its file. Only the uploader or an admin may
// delete; on refusal neither the row nor the file is touched. The file is
// removed only after the row delete has committed.
func (s *ResourceService) Delete(ctx context.Context, actor *models.User, id int64) error {
	if actor == nil || actor.ID == 0 {
		return common.ErrorUnauthorized
	}

	var key string
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Resources(tx)
		res, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := Authorize(actor, DeleteResource, res.UploadedBy); err != nil {
			return err
		}
		key = res.StorageKey
		return repo.Delete(ctx, id)
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrForbidden) {
			return err
		}
		s.log.Error(ctx, "delete resource failed", "id", id, "error", err)
		return common.ErrorInternal
	}

	// the row is gone; a leftover file is only logged and counted
	if err := s.store.Delete(ctx, key); err != nil {
		s.log.Error(ctx, "orphaned blob", "id", id, "key", key, "error", err)
		s.metrics.OrphanedBlob()
	}
	s.log.Info(ctx, "resource deleted", "id", id, "by", actor.ID)
	return nil
}
