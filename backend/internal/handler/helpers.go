package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	internal_errors "github.com/poradna-dev/poradna/backend/internal/errors"
	"github.com/poradna-dev/poradna/backend/internal/service"
	transcode "github.com/poradna-dev/poradna/backend/internal/service/utils"
	"github.com/poradna-dev/poradna/shared/domain"
	shared_errors "github.com/poradna-dev/poradna/shared/errors"
	"github.com/poradna-dev/poradna/shared/logger"
	"github.com/poradna-dev/poradna/shared/utils"
	"github.com/poradna-dev/poradna/shared/validation"
)

// multipartOverhead leaves room for the json field and multipart framing.
const multipartOverhead = 1 << 20

// parseMultipartRequest parses a multipart submission: the JSON payload in the
// "json" field and files in "attachments" parts. The returned cleanup closes
// every opened file.
func parseMultipartRequest[T any](w http.ResponseWriter, r *http.Request, h *Handler) (body T, pendingFiles []*domain.PendingFile, cleanup func(), err error) {
	cleanup = func() {}

	maxRequestSize := validation.CalculateMaxRequestSize(h.cfg.Public.MaxTotalAttachmentSize, multipartOverhead)
	if err = validation.ValidateAndParseMultipart(r, w, maxRequestSize); err != nil {
		maxSizeMB := validation.FormatSizeMB(h.cfg.Public.MaxTotalAttachmentSize)
		err = fmt.Errorf("%w: total attachment size exceeds the limit of %.0f MB", validation.ErrPayloadTooLarge, maxSizeMB)
		return
	}

	jsonPayload := r.FormValue("json")
	if jsonPayload == "" {
		err = errors.New("missing JSON payload in multipart form")
		return
	}
	if err = utils.DecodeValidate(strings.NewReader(jsonPayload), &body); err != nil {
		return
	}

	pendingFiles, err = validation.ValidateAttachments(r.MultipartForm.File["attachments"], validation.AttachmentLimits{
		MaxCount:     h.cfg.Public.MaxAttachmentsPerSubmission,
		MaxFileSize:  h.cfg.Public.MaxAttachmentSizeBytes,
		AllowedMimes: h.cfg.Public.AllowedImageMimeTypes,
	})
	if err != nil {
		return
	}
	files := pendingFiles
	cleanup = func() { validation.CloseAll(files) }
	return
}

// writeParseError answers 413 for oversized bodies and 400 otherwise.
func writeParseError(w http.ResponseWriter, err error) {
	var withStatus *shared_errors.ErrorWithStatusCode
	if errors.As(err, &withStatus) {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	statusCode := http.StatusBadRequest
	if errors.Is(err, validation.ErrPayloadTooLarge) {
		statusCode = http.StatusRequestEntityTooLarge
	}
	http.Error(w, err.Error(), statusCode)
}

// writeError maps service errors to responses. Attachment pipeline errors
// name the failing file.
func writeError(w http.ResponseWriter, err error) {
	var (
		validationErr *internal_errors.ValidationError
		attachmentErr *service.AttachmentUploadError
		readErr       *transcode.ReadError
		decodeErr     *transcode.DecodeError
		encodeErr     *transcode.EncodeError
		uploadErr     *service.UploadError
	)
	filename := ""
	if errors.As(err, &attachmentErr) {
		filename = attachmentErr.Filename
	}

	switch {
	case errors.As(err, &validationErr):
		http.Error(w, validationErr.Message, http.StatusBadRequest)
	case errors.As(err, &decodeErr):
		http.Error(w, fmt.Sprintf("File %q is not a supported image", filename), http.StatusUnprocessableEntity)
	case errors.As(err, &readErr):
		http.Error(w, fmt.Sprintf("File %q could not be read", filename), http.StatusBadRequest)
	case errors.As(err, &encodeErr):
		logger.Log.Error("attachment encoding failed", "filename", filename, "error", err)
		http.Error(w, fmt.Sprintf("File %q could not be processed", filename), http.StatusBadGateway)
	case errors.As(err, &uploadErr):
		logger.Log.Error("attachment upload failed", "filename", filename, "error", err)
		http.Error(w, "Storing attachments failed, try again later", http.StatusBadGateway)
	case errors.Is(err, context.DeadlineExceeded):
		http.Error(w, "Request timed out", http.StatusGatewayTimeout)
	case errors.Is(err, context.Canceled):
		http.Error(w, "Request canceled", http.StatusRequestTimeout)
	default:
		utils.WriteErrorAndStatusCode(w, err)
	}
}

// parseIdParam reads a positive int64 chi URL parameter.
func parseIdParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id: must be a positive integer", name)
	}
	return id, nil
}
