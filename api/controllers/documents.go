package controllers

import (
	"net/http"
	"time"

	"github.com/opremico/opremico-backend/api/responses"
	"github.com/opremico/opremico-backend/api/validators"
	"github.com/opremico/opremico-backend/internal/documents"
	"github.com/opremico/opremico-backend/pkg/db/models"
	"github.com/opremico/opremico-backend/pkg/enums"
	pkgerrors "github.com/opremico/opremico-backend/pkg/errors"
	"github.com/opremico/opremico-backend/pkg/logger"
)

type documentResponse struct {
	ID             int64     `json:"id"`
	OrderID        int64     `json:"order_id"`
	DocType        string    `json:"doc_type"`
	DocumentNumber *string   `json:"document_number,omitempty"`
	Filename       string    `json:"filename"`
	URL            string    `json:"url"`
	Uploaded       bool      `json:"uploaded"`
	CreatedAt      time.Time `json:"created_at"`
}

func newDocumentResponse(doc *models.Document) documentResponse {
	return documentResponse{
		ID:             doc.ID,
		OrderID:        doc.OrderID,
		DocType:        doc.DocType.String(),
		DocumentNumber: doc.DocumentNumber,
		Filename:       doc.Filename,
		URL:            doc.URL,
		Uploaded:       doc.Uploaded,
		CreatedAt:      doc.CreatedAt,
	}
}

func newDocumentListResponse(docs []models.Document) []documentResponse {
	out := make([]documentResponse, 0, len(docs))
	for i := range docs {
		out = append(out, newDocumentResponse(&docs[i]))
	}
	return out
}

type generateDocumentRequest struct {
	DocType string `json:"doc_type" validate:"required,oneof=offer proforma delivery_note invoice"`
}

// AdminGenerateDocument renders a new numbered version of the requested
// document type for the order.
func AdminGenerateDocument(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload generateDocumentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		docType, err := enums.ParseDocumentType(payload.DocType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid doc_type"))
			return
		}

		doc, err := svc.Generate(r.Context(), documents.GenerateInput{
			OrderID: orderID,
			DocType: docType,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newDocumentResponse(doc))
	}
}

type recordAttachmentRequest struct {
	DocType  string `json:"doc_type" validate:"required,oneof=purchase_order"`
	Filename string `json:"filename" validate:"required,max=255"`
	URL      string `json:"url" validate:"required,url"`
}

// AdminRecordAttachment stores the metadata of an externally uploaded file,
// such as an institution's purchase order scan.
func AdminRecordAttachment(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload recordAttachmentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		docType, err := enums.ParseDocumentType(payload.DocType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid doc_type"))
			return
		}

		doc, err := svc.RecordAttachment(r.Context(), documents.AttachmentInput{
			OrderID:  orderID,
			DocType:  docType,
			Filename: payload.Filename,
			URL:      payload.URL,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newDocumentResponse(doc))
	}
}

type documentInventoryResponse struct {
	Latest  map[string]documentResponse `json:"latest"`
	History []documentResponse          `json:"history"`
}

// AdminListOrderDocuments returns the current version of each document
// type plus the full version history, newest first.
func AdminListOrderDocuments(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		docs, err := svc.ListByOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		latest, err := svc.LatestPerType(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := documentInventoryResponse{
			Latest:  make(map[string]documentResponse, len(latest)),
			History: newDocumentListResponse(docs),
		}
		for docType, doc := range latest {
			current := doc
			resp.Latest[docType.String()] = newDocumentResponse(&current)
		}

		responses.WriteSuccess(w, resp)
	}
}

// AdminLatestDocument returns the current version of one document type.
func AdminLatestDocument(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		docType, err := enums.ParseDocumentType(r.URL.Query().Get("type"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid type filter"))
			return
		}

		doc, err := svc.LatestByType(r.Context(), orderID, docType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newDocumentResponse(doc))
	}
}

// AdminDeleteDocument moves one document version into the archive.
func AdminDeleteDocument(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		documentID, err := pathID(r, "documentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), documentID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "archived"})
	}
}
