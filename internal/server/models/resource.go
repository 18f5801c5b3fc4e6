package models

import "time"

// Resource describes an uploaded file. The bytes live in blob storage under
// StorageKey, which is generated server-side and unrelated to FileName.
type Resource struct {
	ID          int64
	Title       string
	Description string
	StorageKey  string
	FileName    string
	FileSize    int64
	FileType    string
	UploadedBy  int64
	CreatedAt   time.Time

	UploaderName string
}
