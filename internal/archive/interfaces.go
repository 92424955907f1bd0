package archive

import (
	"context"
	"time"

	"github.com/opremico/opremico-backend/pkg/db/models"
	"github.com/opremico/opremico-backend/pkg/enums"
	"gorm.io/gorm"
)

// Repository defines persistence operations for the archive ledger and the
// tombstone flags on orders and documents.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateEntry(ctx context.Context, entry *models.ArchiveEntry) (*models.ArchiveEntry, error)
	FindEntry(ctx context.Context, id int64) (*models.ArchiveEntry, error)
	FindEntryByTarget(ctx context.Context, itemType enums.ArchiveItemType, orderID int64, documentID *int64) (*models.ArchiveEntry, error)
	ListEntries(ctx context.Context) ([]models.ArchiveEntry, error)
	ListChildren(ctx context.Context, parentID int64) ([]models.ArchiveEntry, error)
	ListExpired(ctx context.Context, cutoff time.Time, limit int) ([]models.ArchiveEntry, error)
	DeleteEntry(ctx context.Context, id int64) error
	DetachChildren(ctx context.Context, parentID int64) error

	FindOrderAny(ctx context.Context, id int64) (*models.Order, error)
	MarkOrderDeleted(ctx context.Context, orderID int64, deletedAt time.Time) error
	ClearOrderDeleted(ctx context.Context, orderID int64) error
	HardDeleteOrder(ctx context.Context, orderID int64) error

	FindDocumentAny(ctx context.Context, id int64) (*models.Document, error)
	ListDocumentsByOrder(ctx context.Context, orderID int64) ([]models.Document, error)
	MarkDocumentDeleted(ctx context.Context, documentID int64, deletedAt time.Time) error
	ClearDocumentDeleted(ctx context.Context, documentID int64) error
	HardDeleteDocument(ctx context.Context, documentID int64) error
}

// Service defines the archive lifecycle operations.
type Service interface {
	ArchiveOrder(ctx context.Context, orderID int64) error
	ArchiveDocument(ctx context.Context, documentID int64) error
	List(ctx context.Context) ([]Entry, error)
	Restore(ctx context.Context, input RestoreInput) error
	Purge(ctx context.Context, entryIDs []int64) (int, error)
	SweepExpired(ctx context.Context) (int, error)
}
