// Package model defines database models
package model

import "time"

// FileKind is the upload route a file came in through
type FileKind string

const (
	KindGeneric FileKind = "generic"
	KindImage   FileKind = "image"
	KindVideo   FileKind = "video"
)

// FieldName returns the multipart form field the file is expected under
func (k FileKind) FieldName() string {
	if k == KindGeneric {
		return "file"
	}

	return string(k)
}

// MimePrefix returns the required MIME type prefix or an empty string if
// any type is accepted
func (k FileKind) MimePrefix() string {
	switch k {
	case KindImage:
		return "image/"
	case KindVideo:
		return "video/"
	}

	return ""
}

type File struct {
	ID     string `gorm:"primaryKey;size:32" json:"id"`
	UserID string `gorm:"index;not null;size:32" json:"owner"`
	// Owner's email at the time of the upload
	Email string `json:"email"`

	// Original file name as submitted by the uploader
	Name string `gorm:"not null" json:"name"`
	URL  string `gorm:"not null" json:"url"`
	// Handle used to delete the object from the media store
	ExternalID string   `gorm:"uniqueIndex;not null" json:"externalId"`
	Format     string   `json:"format"`
	Kind       FileKind `gorm:"size:16" json:"kind"`
	// As reported by the media store, never the client
	Size       int64     `json:"size"`
	Tags       Tags      `gorm:"type:text" json:"tags"`
	UploadedAt time.Time `gorm:"index;not null" json:"uploadedAt"`
}
