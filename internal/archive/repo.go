package archive

import (
	"context"
	"time"

	"github.com/opremico/opremico-backend/pkg/db/models"
	"github.com/opremico/opremico-backend/pkg/enums"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an archive repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateEntry(ctx context.Context, entry *models.ArchiveEntry) (*models.ArchiveEntry, error) {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *repository) FindEntry(ctx context.Context, id int64) (*models.ArchiveEntry, error) {
	var entry models.ArchiveEntry
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindEntryByTarget resolves an entry from what was archived rather than
// its id. For document entries a nil documentID matches any version of
// that order's documents, newest entry first.
func (r *repository) FindEntryByTarget(ctx context.Context, itemType enums.ArchiveItemType, orderID int64, documentID *int64) (*models.ArchiveEntry, error) {
	query := r.db.WithContext(ctx).
		Where("item_type = ? AND order_id = ?", itemType, orderID)
	if documentID != nil {
		query = query.Where("document_id = ?", *documentID)
	}

	var entry models.ArchiveEntry
	if err := query.Order("id DESC").First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) ListEntries(ctx context.Context) ([]models.ArchiveEntry, error) {
	var entries []models.ArchiveEntry
	err := r.db.WithContext(ctx).
		Order("deleted_at DESC").
		Order("id DESC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) ListChildren(ctx context.Context, parentID int64) ([]models.ArchiveEntry, error) {
	var entries []models.ArchiveEntry
	err := r.db.WithContext(ctx).
		Where("parent_entry_id = ?", parentID).
		Order("id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) ListExpired(ctx context.Context, cutoff time.Time, limit int) ([]models.ArchiveEntry, error) {
	var entries []models.ArchiveEntry
	err := r.db.WithContext(ctx).
		Where("expires_at <= ?", cutoff).
		Order("expires_at ASC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) DeleteEntry(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.ArchiveEntry{}).Error
}

func (r *repository) DetachChildren(ctx context.Context, parentID int64) error {
	return r.db.WithContext(ctx).
		Model(&models.ArchiveEntry{}).
		Where("parent_entry_id = ?", parentID).
		Update("parent_entry_id", nil).Error
}

func (r *repository) FindOrderAny(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) MarkOrderDeleted(ctx context.Context, orderID int64, deletedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND deleted_at IS NULL", orderID).
		Update("deleted_at", deletedAt).Error
}

func (r *repository) ClearOrderDeleted(ctx context.Context, orderID int64) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("deleted_at", nil).Error
}

func (r *repository) HardDeleteOrder(ctx context.Context, orderID int64) error {
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Delete(&models.OrderItem{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Where("id = ?", orderID).
		Delete(&models.Order{}).Error
}

func (r *repository) FindDocumentAny(ctx context.Context, id int64) (*models.Document, error) {
	var doc models.Document
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&doc).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *repository) ListDocumentsByOrder(ctx context.Context, orderID int64) ([]models.Document, error) {
	var docs []models.Document
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&docs).Error
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *repository) MarkDocumentDeleted(ctx context.Context, documentID int64, deletedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Document{}).
		Where("id = ? AND deleted_at IS NULL", documentID).
		Update("deleted_at", deletedAt).Error
}

func (r *repository) ClearDocumentDeleted(ctx context.Context, documentID int64) error {
	return r.db.WithContext(ctx).
		Model(&models.Document{}).
		Where("id = ?", documentID).
		Update("deleted_at", nil).Error
}

func (r *repository) HardDeleteDocument(ctx context.Context, documentID int64) error {
	return r.db.WithContext(ctx).
		Where("id = ?", documentID).
		Delete(&models.Document{}).Error
}
