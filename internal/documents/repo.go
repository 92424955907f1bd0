package documents

import (
	"context"

	"github.com/opremico/opremico-backend/pkg/db/models"
	"github.com/opremico/opremico-backend/pkg/enums"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a documents repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, doc *models.Document) (*models.Document, error) {
	if err := r.db.WithContext(ctx).Create(doc).Error; err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *repository) FindByID(ctx context.Context, id int64) (*models.Document, error) {
	var doc models.Document
	err := r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&doc).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *repository) ListByOrder(ctx context.Context, orderID int64) ([]models.Document, error) {
	var docs []models.Document
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND deleted_at IS NULL", orderID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&docs).Error
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// LatestPerType returns the newest live version of every document type
// the order has, from one query. Identical timestamps fall back to the
// higher id.
func (r *repository) LatestPerType(ctx context.Context, orderID int64) ([]models.Document, error) {
	var docs []models.Document
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND deleted_at IS NULL", orderID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&docs).Error
	if err != nil {
		return nil, err
	}

	seen := make(map[enums.DocumentType]bool, len(docs))
	latest := make([]models.Document, 0, len(docs))
	for _, doc := range docs {
		if seen[doc.DocType] {
			continue
		}
		seen[doc.DocType] = true
		latest = append(latest, doc)
	}
	return latest, nil
}

func (r *repository) LatestByType(ctx context.Context, orderID int64, docType enums.DocumentType) (*models.Document, error) {
	var doc models.Document
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND doc_type = ? AND deleted_at IS NULL", orderID, docType).
		Order("created_at DESC").
		Order("id DESC").
		First(&doc).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// NextNumber claims the next global number for a document type. The
// increment has to run inside the caller's transaction so a failed
// generation does not burn a number.
func (r *repository) NextNumber(ctx context.Context, docType enums.DocumentType) (int64, error) {
	conn := r.db.WithContext(ctx)

	err := conn.Exec(
		"INSERT INTO document_counters (doc_type, next_number) VALUES (?, 1) ON CONFLICT (doc_type) DO NOTHING",
		docType,
	).Error
	if err != nil {
		return 0, err
	}

	if err := conn.Exec(
		"UPDATE document_counters SET next_number = next_number + 1 WHERE doc_type = ?",
		docType,
	).Error; err != nil {
		return 0, err
	}

	var next int64
	if err := conn.Raw(
		"SELECT next_number FROM document_counters WHERE doc_type = ?",
		docType,
	).Scan(&next).Error; err != nil {
		return 0, err
	}
	return next - 1, nil
}
