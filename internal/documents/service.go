package documents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/opremico/opremico-backend/pkg/config"
	"github.com/opremico/opremico-backend/pkg/db/models"
	"github.com/opremico/opremico-backend/pkg/enums"
	pkgerrors "github.com/opremico/opremico-backend/pkg/errors"
	"github.com/opremico/opremico-backend/pkg/logger"
	"github.com/opremico/opremico-backend/pkg/storage/gcs"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type orderLoader interface {
	Get(ctx context.Context, id int64) (*models.Order, error)
}

type blobStore interface {
	Put(ctx context.Context, path string, data []byte, contentType string) (*gcs.Object, error)
}

// RenderInput carries everything a renderer needs to produce one document.
type RenderInput struct {
	Order          *models.Order
	DocType        enums.DocumentType
	DocumentNumber string
	IssuedAt       time.Time
}

// Renderer turns order data into a finished PDF.
type Renderer interface {
	Render(ctx context.Context, input RenderInput) ([]byte, error)
}

// Archiver moves a document version into the soft-delete archive.
type Archiver interface {
	ArchiveDocument(ctx context.Context, documentID int64) error
}

// GenerateInput requests a fresh generated version for an order.
type GenerateInput struct {
	OrderID int64
	DocType enums.DocumentType
}

// AttachmentInput records an externally uploaded file against an order.
type AttachmentInput struct {
	OrderID  int64
	DocType  enums.DocumentType
	Filename string
	URL      string
}

type service struct {
	repo     Repository
	tx       txRunner
	orders   orderLoader
	renderer Renderer
	blobs    blobStore
	archive  Archiver
	cfg      config.DocumentsConfig
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds a document service with the required dependencies.
func NewService(
	repo Repository,
	tx txRunner,
	orders orderLoader,
	renderer Renderer,
	blobs blobStore,
	archive Archiver,
	cfg config.DocumentsConfig,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("documents repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order loader required")
	}
	if renderer == nil {
		return nil, fmt.Errorf("renderer required")
	}
	if blobs == nil {
		return nil, fmt.Errorf("blob store required")
	}
	if archive == nil {
		return nil, fmt.Errorf("archiver required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		orders:   orders,
		renderer: renderer,
		blobs:    blobs,
		archive:  archive,
		cfg:      cfg,
		logg:     logg,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// FormatNumber renders an allocated counter value with the type prefix,
// e.g. DOB-00012 for the twelfth delivery note.
func FormatNumber(docType enums.DocumentType, n int64, width int) string {
	if width <= 0 {
		width = 5
	}
	prefix, _ := docType.NumberPrefix()
	return fmt.Sprintf("%s-%0*d", prefix, width, n)
}

func (s *service) Generate(ctx context.Context, input GenerateInput) (*models.Document, error) {
	if !input.DocType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown document type")
	}
	if !input.DocType.IsGenerated() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "document type is upload-only")
	}

	order, err := s.orders.Get(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}

	issuedAt := s.now()
	var created *models.Document
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		seq, err := repo.NextNumber(ctx, input.DocType)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate document number")
		}
		number := FormatNumber(input.DocType, seq, s.cfg.NumberWidth)

		pdf, err := s.renderer.Render(ctx, RenderInput{
			Order:          order,
			DocType:        input.DocType,
			DocumentNumber: number,
			IssuedAt:       issuedAt,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "render document")
		}

		filename := number + ".pdf"
		path := s.storagePath(order.ID, filename)
		object, err := s.blobs.Put(ctx, path, pdf, "application/pdf")
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload document")
		}

		doc := &models.Document{
			OrderID:        order.ID,
			DocType:        input.DocType,
			DocumentNumber: &number,
			Filename:       filename,
			URL:            object.URL,
			StoragePath:    &object.Pathname,
		}
		created, err = repo.Create(ctx, doc)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist document")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id":        order.ID,
		"doc_type":        input.DocType,
		"document_number": *created.DocumentNumber,
	})
	s.logg.Info(logCtx, "document generated")
	return created, nil
}

func (s *service) RecordAttachment(ctx context.Context, input AttachmentInput) (*models.Document, error) {
	if !input.DocType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown document type")
	}
	if strings.TrimSpace(input.Filename) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "filename required")
	}
	if strings.TrimSpace(input.URL) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "url required")
	}

	order, err := s.orders.Get(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}

	doc := &models.Document{
		OrderID:  order.ID,
		DocType:  input.DocType,
		Filename: strings.TrimSpace(input.Filename),
		URL:      strings.TrimSpace(input.URL),
		Uploaded: true,
	}
	created, err := s.repo.Create(ctx, doc)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist attachment")
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, id int64) (*models.Document, error) {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "document not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load document")
	}
	return doc, nil
}

func (s *service) ListByOrder(ctx context.Context, orderID int64) ([]models.Document, error) {
	if _, err := s.orders.Get(ctx, orderID); err != nil {
		return nil, err
	}
	docs, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list documents")
	}
	return docs, nil
}

func (s *service) LatestByType(ctx context.Context, orderID int64, docType enums.DocumentType) (*models.Document, error) {
	if !docType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown document type")
	}
	doc, err := s.repo.LatestByType(ctx, orderID, docType)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no document of requested type")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load latest document")
	}
	return doc, nil
}

// LatestPerType returns the current version of every document type the
// order has, keyed by type.
func (s *service) LatestPerType(ctx context.Context, orderID int64) (map[enums.DocumentType]models.Document, error) {
	if _, err := s.orders.Get(ctx, orderID); err != nil {
		return nil, err
	}
	docs, err := s.repo.LatestPerType(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load latest documents")
	}
	out := make(map[enums.DocumentType]models.Document, len(docs))
	for _, doc := range docs {
		out[doc.DocType] = doc
	}
	return out, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.archive.ArchiveDocument(ctx, id)
}

func (s *service) storagePath(orderID int64, filename string) string {
	prefix := strings.Trim(s.cfg.StoragePrefix, "/")
	if prefix == "" {
		prefix = "documents"
	}
	return fmt.Sprintf("%s/orders/%d/%s", prefix, orderID, filename)
}
