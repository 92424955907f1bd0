package models

import (
	"time"

	"github.com/opremico/opremico-backend/pkg/enums"
)

// ArchiveEntry is the recovery ledger row for one soft-deleted order or
// document. Entries disappear on restore or on permanent purge.
type ArchiveEntry struct {
	ID            int64                 `gorm:"column:id;primaryKey;autoIncrement"`
	ItemType      enums.ArchiveItemType `gorm:"column:item_type;type:text;not null"`
	OrderID       int64                 `gorm:"column:order_id;not null;index"`
	DocumentID    *int64                `gorm:"column:document_id;index"`
	ParentEntryID *int64                `gorm:"column:parent_entry_id;index"`
	Label         string                `gorm:"column:label;not null"`
	DeletedAt     time.Time             `gorm:"column:deleted_at;not null"`
	ExpiresAt     time.Time             `gorm:"column:expires_at;not null;index"`
}
