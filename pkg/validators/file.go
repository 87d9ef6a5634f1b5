package validators

import (
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"strings"

	"storagify/file-api/internal/model"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrNoFile              = errors.New("no file provided")
	ErrFileTooLarge        = errors.New("file too large")
	ErrFileNameTooLong     = errors.New("file name is too long")
	ErrFileTypeUnsupported = errors.New("unsupported file type")
)

const maxFileNameSize = 255

// FileValidator checks an uploaded file against the rules of kind and
// returns its MIME type. The declared Content-Type of the part is used
// unless it's missing or generic, then the content is sniffed.
func FileValidator(kind model.FileKind, fh *multipart.FileHeader, maxBytes int64) (string, error) {
	if fh == nil {
		return "", ErrNoFile
	}

	if len(fh.Filename) > maxFileNameSize {
		return "", ErrFileNameTooLong
	}

	if fh.Size > maxBytes {
		return "", fmt.Errorf("%w, the limit is %d bytes", ErrFileTooLarge, maxBytes)
	}

	ct, err := contentType(fh)
	if err != nil {
		return "", err
	}

	if prefix := kind.MimePrefix(); prefix != "" && !strings.HasPrefix(ct, prefix) {
		return "", fmt.Errorf("%w, expected %s* but got %s", ErrFileTypeUnsupported, prefix, ct)
	}

	return ct, nil
}

func contentType(fh *multipart.FileHeader) (string, error) {
	declared := fh.Header.Get("Content-Type")
	if declared != "" {
		if mt, _, err := mime.ParseMediaType(declared); err == nil && mt != "application/octet-stream" {
			return mt, nil
		}
	}

	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open multipart file, %w", err)
	}
	defer f.Close()

	detected, err := mimetype.DetectReader(f)
	if err != nil {
		return "", fmt.Errorf("failed to detect file type, %w", err)
	}

	mt, _, _ := mime.ParseMediaType(detected.String())
	if mt == "" {
		mt = detected.String()
	}

	return mt, nil
}
