package handler

import (
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/facturio/invoice-api/internal/repository"
)

// maxAttachmentSize caps uploads at 10 MiB; blobs are stored inline in the
// database.
const maxAttachmentSize = 10 << 20

// AttachmentHandler serves file attachments on invoices.  Every operation
// is gated by the owning user of the parent invoice; an invoice owned by
// someone else looks exactly like a missing one.
type AttachmentHandler struct {
	Repo        *repository.AttachmentRepo
	InvoiceRepo *repository.InvoiceRepo
}

// NewAttachmentHandler constructs an AttachmentHandler.
func NewAttachmentHandler(repo *repository.AttachmentRepo, invoiceRepo *repository.InvoiceRepo) *AttachmentHandler {
	if repo == nil || invoiceRepo == nil {
		panic("nil repository passed to NewAttachmentHandler")
	}
	return &AttachmentHandler{Repo: repo, InvoiceRepo: invoiceRepo}
}

// checkInvoiceOwner resolves the invoice's owner and compares it with the
// acting user.  Missing invoices and foreign invoices both return false
// with a nil error so the handler can answer a uniform 404.
func (h *AttachmentHandler) checkInvoiceOwner(c echo.Context, invoiceID, userID uint64) (bool, error) {
	owner, err := h.InvoiceRepo.OwnerID(c.Request().Context(), invoiceID)
	if err != nil {
		if errors.Is(err, repository.ErrInvoiceNotFound) {
			return false, nil
		}
		return false, err
	}
	return owner == userID, nil
}

// Upload handles POST /v1/invoices/:id/attachments (multipart form, field
// "file").
func (h *AttachmentHandler) Upload(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	invoiceID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ok, err := h.checkInvoiceOwner(c, invoiceID, userID)
	if err != nil {
		logErr(c, err, "attachment upload")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Invoice not found"})
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "file is required"})
	}
	if fh.Size > maxAttachmentSize {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "file too large"})
	}
	src, err := fh.Open()
	if err != nil {
		logErr(c, err, "attachment upload")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
	defer src.Close()
	data, err := io.ReadAll(io.LimitReader(src, maxAttachmentSize+1))
	if err != nil {
		logErr(c, err, "attachment upload")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
	if int64(len(data)) > maxAttachmentSize {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "file too large"})
	}

	mime := fh.Header.Get("Content-Type")
	if mime == "" {
		mime = "application/octet-stream"
	}
	a := &repository.Attachment{
		InvoiceID:  invoiceID,
		FileName:   fh.Filename,
		MimeType:   mime,
		Size:       int64(len(data)),
		StorageKey: uuid.NewString(),
		Data:       data,
	}
	if err := h.Repo.Create(c.Request().Context(), a); err != nil {
		logErr(c, err, "attachment upload")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not store attachment"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": a.ID, "message": "Attachment uploaded successfully"})
}

// List handles GET /v1/invoices/:id/attachments.
func (h *AttachmentHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	invoiceID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ok, err := h.checkInvoiceOwner(c, invoiceID, userID)
	if err != nil {
		logErr(c, err, "attachment list")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Invoice not found"})
	}
	attachments, err := h.Repo.ListByInvoice(c.Request().Context(), invoiceID, userID)
	if err != nil {
		logErr(c, err, "attachment list")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": attachments})
}

// Download handles GET /v1/attachments/:id and streams the stored blob.
func (h *AttachmentHandler) Download(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	a, err := h.Repo.GetByIDAndOwner(c.Request().Context(), id, userID)
	if err != nil {
		if errors.Is(err, repository.ErrAttachmentNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Attachment not found"})
		}
		logErr(c, err, "attachment download")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": a.FileName})
	c.Response().Header().Set(echo.HeaderContentDisposition, disposition)
	return c.Blob(http.StatusOK, a.MimeType, a.Data)
}

// Delete handles DELETE /v1/attachments/:id.
func (h *AttachmentHandler) Delete(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Repo.DeleteByIDAndOwner(c.Request().Context(), id, userID); err != nil {
		if errors.Is(err, repository.ErrAttachmentNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Attachment not found"})
		}
		logErr(c, err, "attachment delete")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete attachment"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Attachment deleted successfully"})
}
