package controllers

import (
	"net/http"
	"time"

	"github.com/opremico/opremico-backend/api/responses"
	"github.com/opremico/opremico-backend/api/validators"
	"github.com/opremico/opremico-backend/internal/archive"
	"github.com/opremico/opremico-backend/pkg/enums"
	pkgerrors "github.com/opremico/opremico-backend/pkg/errors"
	"github.com/opremico/opremico-backend/pkg/logger"
)

type archiveEntryResponse struct {
	ID         int64                  `json:"id"`
	ItemType   string                 `json:"item_type"`
	OrderID    int64                  `json:"order_id"`
	DocumentID *int64                 `json:"document_id,omitempty"`
	Label      string                 `json:"label"`
	DeletedAt  time.Time              `json:"deleted_at"`
	ExpiresAt  time.Time              `json:"expires_at"`
	Children   []archiveEntryResponse `json:"children,omitempty"`
}

func newArchiveEntryResponse(entry archive.Entry) archiveEntryResponse {
	resp := archiveEntryResponse{
		ID:         entry.ID,
		ItemType:   entry.ItemType.String(),
		OrderID:    entry.OrderID,
		DocumentID: entry.DocumentID,
		Label:      entry.Label,
		DeletedAt:  entry.DeletedAt,
		ExpiresAt:  entry.ExpiresAt,
	}
	for _, child := range entry.Children {
		resp.Children = append(resp.Children, newArchiveEntryResponse(archive.Entry{ArchiveEntry: child}))
	}
	return resp
}

// AdminListArchive returns the recovery ledger with document entries grouped
// under their order entry. An optional ?type= filter narrows the top-level
// entries to one item type.
func AdminListArchive(svc archive.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var typeFilter *enums.ArchiveItemType
		if raw := r.URL.Query().Get("type"); raw != "" {
			itemType, err := enums.ParseArchiveItemType(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid type filter"))
				return
			}
			typeFilter = &itemType
		}

		entries, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := make([]archiveEntryResponse, 0, len(entries))
		for _, entry := range entries {
			if typeFilter != nil && entry.ItemType != *typeFilter {
				continue
			}
			resp = append(resp, newArchiveEntryResponse(entry))
		}

		responses.WriteSuccess(w, resp)
	}
}

type archiveSelectionRequest struct {
	EntryIDs []int64 `json:"entry_ids" validate:"required,min=1,dive,gt=0"`
}

type restoreTargetRequest struct {
	ItemType   string `json:"item_type" validate:"required,oneof=order pdf"`
	OrderID    int64  `json:"order_id" validate:"required,gt=0"`
	DocumentID *int64 `json:"document_id" validate:"omitempty,gt=0"`
}

// archiveRestoreRequest selects entries by id, by archived-item target,
// or a mix of both.
type archiveRestoreRequest struct {
	EntryIDs []int64                `json:"entry_ids" validate:"omitempty,dive,gt=0"`
	Targets  []restoreTargetRequest `json:"targets" validate:"omitempty,dive"`
}

// AdminRestoreArchive brings the selected entries back to the live dataset.
func AdminRestoreArchive(svc archive.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload archiveRestoreRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := archive.RestoreInput{EntryIDs: payload.EntryIDs}
		for _, target := range payload.Targets {
			itemType, err := enums.ParseArchiveItemType(target.ItemType)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item type"))
				return
			}
			input.Targets = append(input.Targets, archive.RestoreTarget{
				ItemType:   itemType,
				OrderID:    target.OrderID,
				DocumentID: target.DocumentID,
			})
		}

		if err := svc.Restore(r.Context(), input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "restored"})
	}
}

// AdminPurgeArchive permanently deletes the selected entries and their
// stored files.
func AdminPurgeArchive(svc archive.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload archiveSelectionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		purged, err := svc.Purge(r.Context(), payload.EntryIDs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]int{"purged_count": purged})
	}
}
