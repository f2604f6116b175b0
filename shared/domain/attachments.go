package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"io"
)

// Attachment is one uploaded image in its three renditions.
type Attachment struct {
	OriginalUrl  string `json:"originalUrl"`
	FullImageUrl string `json:"fullImageUrl"`
	ThumbnailUrl string `json:"thumbnailUrl"`
}

// Complete reports whether all three renditions are present.
func (a Attachment) Complete() bool {
	return a.OriginalUrl != "" && a.FullImageUrl != "" && a.ThumbnailUrl != ""
}

func (a Attachment) Urls() []string {
	return []string{a.OriginalUrl, a.FullImageUrl, a.ThumbnailUrl}
}

// Attachments is the ordered attachment list of a question or answer.
// Stored as a JSONB column.
type Attachments []Attachment

func (a Attachments) Value() (driver.Value, error) {
	if a == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a)
}

func (a *Attachments) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*a = Attachments{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Attachments", src)
	}
	var out Attachments
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("failed to unmarshal attachments: %w", err)
	}
	*a = out
	return nil
}

// PendingFile is a user-selected file that has passed request validation
// and waits to go through the attachment pipeline.
type PendingFile struct {
	Filename  string
	SizeBytes int64
	MimeType  string
	Data      io.Reader
}

// Upload steps reported through UploadProgress.
const (
	StepOriginal  = "original"
	StepFull      = "full"
	StepThumbnail = "thumbnail"
)

type UploadProgress struct {
	Filename   string
	Index      int // position of the file in the submission
	Step       string
	BytesSent  int64
	BytesTotal int64
}
