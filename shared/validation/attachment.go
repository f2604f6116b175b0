package validation

import (
	"fmt"
	"mime"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/poradna-dev/poradna/shared/domain"
)

type AttachmentLimits struct {
	MaxCount     int
	MaxFileSize  int64
	AllowedMimes []string
}

// ValidateAttachments checks count, size and MIME type of uploaded files and
// opens them in selection order. On error every file opened so far is closed.
func ValidateAttachments(fileHeaders []*multipart.FileHeader, limits AttachmentLimits) ([]*domain.PendingFile, error) {
	if len(fileHeaders) == 0 {
		return nil, nil
	}
	if limits.MaxCount > 0 && len(fileHeaders) > limits.MaxCount {
		return nil, fmt.Errorf("%w: max %d allowed", ErrTooManyAttachments, limits.MaxCount)
	}

	allowed := BuildAllowedMimeMap(limits.AllowedMimes)
	pendingFiles := make([]*domain.PendingFile, 0, len(fileHeaders))

	for _, fileHeader := range fileHeaders {
		if limits.MaxFileSize > 0 && fileHeader.Size > limits.MaxFileSize {
			CloseAll(pendingFiles)
			return nil, fmt.Errorf("%w: %s exceeds %.0f MB", ErrAttachmentTooLarge, fileHeader.Filename, FormatSizeMB(limits.MaxFileSize))
		}

		mimeType, err := DetectMimeType(fileHeader)
		if err != nil {
			CloseAll(pendingFiles)
			return nil, err
		}
		if !allowed[mimeType] {
			CloseAll(pendingFiles)
			return nil, fmt.Errorf("%w: %s (file: %s)", ErrInvalidMimeType, mimeType, fileHeader.Filename)
		}

		file, err := fileHeader.Open()
		if err != nil {
			CloseAll(pendingFiles)
			return nil, fmt.Errorf("failed to open uploaded file: %w", err)
		}

		pendingFiles = append(pendingFiles, &domain.PendingFile{
			Filename:  fileHeader.Filename,
			SizeBytes: fileHeader.Size,
			MimeType:  mimeType,
			Data:      file,
		})
	}

	return pendingFiles, nil
}

func BuildAllowedMimeMap(mimes []string) map[string]bool {
	allowed := make(map[string]bool, len(mimes))
	for _, m := range mimes {
		allowed[m] = true
	}
	return allowed
}

func DetectMimeType(fileHeader *multipart.FileHeader) (string, error) {
	mimeType := fileHeader.Header.Get("Content-Type")

	// If no Content-Type or it's generic, detect from extension
	if mimeType == "" || mimeType == "application/octet-stream" {
		if detected := mime.TypeByExtension(strings.ToLower(filepath.Ext(fileHeader.Filename))); detected != "" {
			mimeType = detected
		}
	}
	if mimeType == "" {
		return "", fmt.Errorf("could not detect MIME type for file: %s", fileHeader.Filename)
	}

	// drop parameters such as "; charset=binary"
	if mt, _, err := mime.ParseMediaType(mimeType); err == nil {
		mimeType = mt
	}
	return mimeType, nil
}

// CloseAll closes every pending file that holds an open handle.
func CloseAll(files []*domain.PendingFile) {
	for _, pf := range files {
		if f, ok := pf.Data.(multipart.File); ok {
			f.Close()
		}
	}
}
