package models

import (
	"time"

	"github.com/opremico/opremico-backend/pkg/enums"
)

// Document is one immutable version of a generated or uploaded artifact.
// Rows are append-only per (order, type); the newest created_at wins as the
// latest version, with id as tiebreak.
type Document struct {
	ID             int64              `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID        int64              `gorm:"column:order_id;not null;index:idx_documents_order_type,priority:1"`
	DocType        enums.DocumentType `gorm:"column:doc_type;type:text;not null;index:idx_documents_order_type,priority:2"`
	DocumentNumber *string            `gorm:"column:document_number"`
	Filename       string             `gorm:"column:filename;not null"`
	URL            string             `gorm:"column:url;not null"`
	StoragePath    *string            `gorm:"column:storage_path"`
	Uploaded       bool               `gorm:"column:uploaded;not null;default:false"`
	DeletedAt      *time.Time         `gorm:"column:deleted_at;index"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index:idx_documents_order_type,priority:3"`
}

// DocumentCounter backs global per-type document numbering. The next number
// is claimed with an atomic increment inside the creating transaction.
type DocumentCounter struct {
	DocType    enums.DocumentType `gorm:"column:doc_type;type:text;primaryKey"`
	NextNumber int64              `gorm:"column:next_number;not null;default:1"`
}
