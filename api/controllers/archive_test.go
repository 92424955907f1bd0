package controllers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/opremico/opremico-backend/internal/archive"
	"github.com/opremico/opremico-backend/pkg/enums"
)

type stubArchiveService struct {
	archiveOrderFn    func(ctx context.Context, orderID int64) error
	archiveDocumentFn func(ctx context.Context, documentID int64) error
	listFn            func(ctx context.Context) ([]archive.Entry, error)
	restoreFn         func(ctx context.Context, input archive.RestoreInput) error
	purgeFn           func(ctx context.Context, entryIDs []int64) (int, error)
	sweepFn           func(ctx context.Context) (int, error)
}

func (s stubArchiveService) ArchiveOrder(ctx context.Context, orderID int64) error {
	return s.archiveOrderFn(ctx, orderID)
}

func (s stubArchiveService) ArchiveDocument(ctx context.Context, documentID int64) error {
	return s.archiveDocumentFn(ctx, documentID)
}

func (s stubArchiveService) List(ctx context.Context) ([]archive.Entry, error) {
	return s.listFn(ctx)
}

func (s stubArchiveService) Restore(ctx context.Context, input archive.RestoreInput) error {
	return s.restoreFn(ctx, input)
}

func (s stubArchiveService) Purge(ctx context.Context, entryIDs []int64) (int, error) {
	return s.purgeFn(ctx, entryIDs)
}

func (s stubArchiveService) SweepExpired(ctx context.Context) (int, error) {
	return s.sweepFn(ctx)
}

func TestRestoreArchiveByEntryIDs(t *testing.T) {
	var captured archive.RestoreInput
	svc := stubArchiveService{
		restoreFn: func(_ context.Context, input archive.RestoreInput) error {
			captured = input
			return nil
		},
	}

	payload := `{"entry_ids": [4, 9]}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/archive/restore", bytes.NewBufferString(payload))
	rec := httptest.NewRecorder()

	AdminRestoreArchive(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if len(captured.EntryIDs) != 2 || captured.EntryIDs[0] != 4 || captured.EntryIDs[1] != 9 {
		t.Fatalf("unexpected entry ids %+v", captured.EntryIDs)
	}
}

func TestRestoreArchiveByTargets(t *testing.T) {
	var captured archive.RestoreInput
	svc := stubArchiveService{
		restoreFn: func(_ context.Context, input archive.RestoreInput) error {
			captured = input
			return nil
		},
	}

	payload := `{"targets": [
		{"item_type": "order", "order_id": 7},
		{"item_type": "pdf", "order_id": 7, "document_id": 12}
	]}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/archive/restore", bytes.NewBufferString(payload))
	rec := httptest.NewRecorder()

	AdminRestoreArchive(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if len(captured.Targets) != 2 {
		t.Fatalf("unexpected targets %+v", captured.Targets)
	}
	if captured.Targets[0].ItemType != enums.ArchiveItemTypeOrder || captured.Targets[0].OrderID != 7 {
		t.Fatalf("unexpected order target %+v", captured.Targets[0])
	}
	if captured.Targets[1].ItemType != enums.ArchiveItemTypePDF || captured.Targets[1].DocumentID == nil || *captured.Targets[1].DocumentID != 12 {
		t.Fatalf("unexpected document target %+v", captured.Targets[1])
	}
}

func TestRestoreArchiveRejectsUnknownItemType(t *testing.T) {
	svc := stubArchiveService{
		restoreFn: func(_ context.Context, _ archive.RestoreInput) error {
			t.Fatal("service should not be called")
			return nil
		},
	}

	payload := `{"targets": [{"item_type": "spreadsheet", "order_id": 7}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/archive/restore", bytes.NewBufferString(payload))
	rec := httptest.NewRecorder()

	AdminRestoreArchive(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d: %s", rec.Code, rec.Body.String())
	}
}
