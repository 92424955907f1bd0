package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/opremico/opremico-backend/pkg/config"
	"github.com/opremico/opremico-backend/pkg/db/models"
	"github.com/opremico/opremico-backend/pkg/enums"
	pkgerrors "github.com/opremico/opremico-backend/pkg/errors"
	"github.com/opremico/opremico-backend/pkg/logger"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type blobDeleter interface {
	Delete(ctx context.Context, pathOrURL string) error
}

// Entry is one archive listing row with its grouped children.
type Entry struct {
	models.ArchiveEntry
	Children []models.ArchiveEntry
}

// RestoreTarget identifies an archived item without its entry id, for
// callers that only know what was archived.
type RestoreTarget struct {
	ItemType   enums.ArchiveItemType
	OrderID    int64
	DocumentID *int64
}

// RestoreInput selects the entries to bring back, by entry id or by
// archived-item target. Both lists may be combined in one call.
type RestoreInput struct {
	EntryIDs []int64
	Targets  []RestoreTarget
}

type service struct {
	repo  Repository
	tx    txRunner
	blobs blobDeleter
	cfg   config.ArchiveConfig
	logg  *logger.Logger
	now   func() time.Time
}

// NewService builds an archive service with the required dependencies.
func NewService(repo Repository, tx txRunner, blobs blobDeleter, cfg config.ArchiveConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("archive repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if blobs == nil {
		return nil, fmt.Errorf("blob deleter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:  repo,
		tx:    tx,
		blobs: blobs,
		cfg:   cfg,
		logg:  logg,
		now:   func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) ArchiveOrder(ctx context.Context, orderID int64) error {
	deletedAt := s.now()
	expiresAt := deletedAt.Add(s.cfg.Retention())

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindOrderAny(ctx, orderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.DeletedAt != nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is already archived")
		}

		if err := repo.MarkOrderDeleted(ctx, orderID, deletedAt); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "archive order")
		}

		// Documents stay live; they are archived independently and only
		// group under this entry once archived while it exists.
		_, err = repo.CreateEntry(ctx, &models.ArchiveEntry{
			ItemType:  enums.ArchiveItemTypeOrder,
			OrderID:   orderID,
			Label:     fmt.Sprintf("%s (%s)", order.OrderNumber, order.CustomerName),
			DeletedAt: deletedAt,
			ExpiresAt: expiresAt,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record archive entry")
		}
		return nil
	})
}

func (s *service) ArchiveDocument(ctx context.Context, documentID int64) error {
	deletedAt := s.now()
	expiresAt := deletedAt.Add(s.cfg.Retention())

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		doc, err := repo.FindDocumentAny(ctx, documentID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "document not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load document")
		}
		if doc.DeletedAt != nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "document is already archived")
		}

		if err := repo.MarkDocumentDeleted(ctx, documentID, deletedAt); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "archive document")
		}

		// Group under the order's entry while the order itself is archived.
		var parentID *int64
		parent, err := repo.FindEntryByTarget(ctx, enums.ArchiveItemTypeOrder, doc.OrderID, nil)
		if err == nil {
			parentID = &parent.ID
		} else if err != gorm.ErrRecordNotFound {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up parent entry")
		}

		docID := doc.ID
		_, err = repo.CreateEntry(ctx, &models.ArchiveEntry{
			ItemType:      enums.ArchiveItemTypePDF,
			OrderID:       doc.OrderID,
			DocumentID:    &docID,
			ParentEntryID: parentID,
			Label:         doc.Filename,
			DeletedAt:     deletedAt,
			ExpiresAt:     expiresAt,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record archive entry")
		}
		return nil
	})
}

// List returns top-level archive entries newest first, each with the child
// document entries that were archived alongside it.
func (s *service) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.repo.ListEntries(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list archive entries")
	}

	children := map[int64][]models.ArchiveEntry{}
	for _, row := range rows {
		if row.ParentEntryID != nil {
			children[*row.ParentEntryID] = append(children[*row.ParentEntryID], row)
		}
	}

	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		if row.ParentEntryID != nil {
			continue
		}
		entries = append(entries, Entry{ArchiveEntry: row, Children: children[row.ID]})
	}
	return entries, nil
}

func (s *service) Restore(ctx context.Context, input RestoreInput) error {
	if len(input.EntryIDs) == 0 && len(input.Targets) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "nothing selected to restore")
	}

	for _, id := range input.EntryIDs {
		if err := s.restoreEntry(ctx, id); err != nil {
			return err
		}
	}
	for _, target := range input.Targets {
		entry, err := s.repo.FindEntryByTarget(ctx, target.ItemType, target.OrderID, target.DocumentID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				// Already restored or purged.
				continue
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up archive entry")
		}
		if err := s.restoreEntry(ctx, entry.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) restoreEntry(ctx context.Context, entryID int64) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		entry, err := repo.FindEntry(ctx, entryID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				// Already restored or purged.
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load archive entry")
		}

		switch entry.ItemType {
		case enums.ArchiveItemTypeOrder:
			if err := repo.ClearOrderDeleted(ctx, entry.OrderID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore order")
			}
			// Document entries archived while the order was gone stay
			// archived; they just lose the grouping parent.
			if err := repo.DetachChildren(ctx, entry.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "detach child entries")
			}
		case enums.ArchiveItemTypePDF:
			if entry.DocumentID != nil {
				if err := repo.ClearDocumentDeleted(ctx, *entry.DocumentID); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore document")
				}
			}
		default:
			return pkgerrors.New(pkgerrors.CodeInternal, "unknown archive item type")
		}

		if err := repo.DeleteEntry(ctx, entry.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "drop archive entry")
		}
		return nil
	})
}

func (s *service) Purge(ctx context.Context, entryIDs []int64) (int, error) {
	purged := 0
	for _, id := range entryIDs {
		done, paths, err := s.purgeEntry(ctx, id)
		if err != nil {
			return purged, err
		}
		if done {
			purged++
		}
		s.deleteBlobs(ctx, paths)
	}
	return purged, nil
}

// purgeEntry permanently removes one archive target inside a transaction and
// returns the blob paths to delete after commit. A missing entry is not an
// error so repeated purges stay idempotent.
func (s *service) purgeEntry(ctx context.Context, entryID int64) (bool, []string, error) {
	var paths []string
	purged := false

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		entry, err := repo.FindEntry(ctx, entryID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load archive entry")
		}

		switch entry.ItemType {
		case enums.ArchiveItemTypeOrder:
			docs, err := repo.ListDocumentsByOrder(ctx, entry.OrderID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order documents")
			}
			for _, doc := range docs {
				if doc.StoragePath != nil {
					paths = append(paths, *doc.StoragePath)
				}
				if err := repo.HardDeleteDocument(ctx, doc.ID); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "purge document")
				}
			}
			kids, err := repo.ListChildren(ctx, entry.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list child entries")
			}
			for _, kid := range kids {
				if err := repo.DeleteEntry(ctx, kid.ID); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "drop child entry")
				}
			}
			if err := repo.HardDeleteOrder(ctx, entry.OrderID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "purge order")
			}
		case enums.ArchiveItemTypePDF:
			if entry.DocumentID != nil {
				doc, err := repo.FindDocumentAny(ctx, *entry.DocumentID)
				if err == nil && doc.StoragePath != nil {
					paths = append(paths, *doc.StoragePath)
				}
				if err := repo.HardDeleteDocument(ctx, *entry.DocumentID); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "purge document")
				}
			}
		default:
			return pkgerrors.New(pkgerrors.CodeInternal, "unknown archive item type")
		}

		if err := repo.DeleteEntry(ctx, entry.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "drop archive entry")
		}
		purged = true
		return nil
	})
	if err != nil {
		return false, nil, err
	}
	return purged, paths, nil
}

// deleteBlobs removes stored files after the database work committed. Blob
// failures are logged and swallowed: the rows are gone, a stray object in
// the bucket is the lesser problem.
func (s *service) deleteBlobs(ctx context.Context, paths []string) {
	for _, path := range paths {
		if err := s.blobs.Delete(ctx, path); err != nil {
			logCtx := s.logg.WithField(ctx, "storage_path", path)
			s.logg.Error(logCtx, "purge blob delete failed", err)
		}
	}
}

// SweepExpired purges every entry whose recovery window has passed, up to
// the configured batch size per run.
func (s *service) SweepExpired(ctx context.Context) (int, error) {
	limit := s.cfg.SweepBatchSize
	if limit <= 0 {
		limit = 200
	}

	expired, err := s.repo.ListExpired(ctx, s.now(), limit)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list expired entries")
	}

	purged := 0
	for _, entry := range expired {
		// Skip children here: purging the parent removes them, and a child
		// entry found missing later is skipped anyway.
		if entry.ParentEntryID != nil {
			continue
		}
		done, paths, err := s.purgeEntry(ctx, entry.ID)
		if err != nil {
			return purged, err
		}
		if done {
			purged++
		}
		s.deleteBlobs(ctx, paths)
	}
	return purged, nil
}
