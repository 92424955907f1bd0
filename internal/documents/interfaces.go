package documents

import (
	"context"

	"github.com/opremico/opremico-backend/pkg/db/models"
	"github.com/opremico/opremico-backend/pkg/enums"
	"gorm.io/gorm"
)

// Repository defines persistence operations for document versions and the
// per-type numbering counters.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, doc *models.Document) (*models.Document, error)
	FindByID(ctx context.Context, id int64) (*models.Document, error)
	ListByOrder(ctx context.Context, orderID int64) ([]models.Document, error)
	LatestByType(ctx context.Context, orderID int64, docType enums.DocumentType) (*models.Document, error)
	LatestPerType(ctx context.Context, orderID int64) ([]models.Document, error)
	NextNumber(ctx context.Context, docType enums.DocumentType) (int64, error)
}

// Service defines the document lifecycle operations exposed to controllers.
type Service interface {
	Generate(ctx context.Context, input GenerateInput) (*models.Document, error)
	RecordAttachment(ctx context.Context, input AttachmentInput) (*models.Document, error)
	Get(ctx context.Context, id int64) (*models.Document, error)
	ListByOrder(ctx context.Context, orderID int64) ([]models.Document, error)
	LatestByType(ctx context.Context, orderID int64, docType enums.DocumentType) (*models.Document, error)
	LatestPerType(ctx context.Context, orderID int64) (map[enums.DocumentType]models.Document, error)
	Delete(ctx context.Context, id int64) error
}
