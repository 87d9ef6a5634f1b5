package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"time"

	"storagify/file-api/internal/apperr"
	"storagify/file-api/internal/media"
	"storagify/file-api/internal/model"
	"storagify/file-api/pkg/util"
	"storagify/file-api/pkg/validators"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type UploadService struct {
	db       *gorm.DB
	store    media.Store
	notifier *Notifier
	maxBytes int64
	timeout  time.Duration
}

func NewUploadService(db *gorm.DB, store media.Store, n *Notifier, maxBytes int64, timeout time.Duration) *UploadService {
	return &UploadService{
		db:       db,
		store:    store,
		notifier: n,
		maxBytes: maxBytes,
		timeout:  timeout,
	}
}

type UploadInput struct {
	Kind model.FileKind
	File *multipart.FileHeader
	// Raw tag values as sent by the client
	Tags []string
}

type UploadResult struct {
	File *model.File `json:"file"`
	URL  string      `json:"url"`
}

// Upload validates the file, stores it in the media store and records it.
// No record is created if the media store fails. If the record can't be
// saved the stored object is deleted again.
func (s *UploadService) Upload(ctx context.Context, user *model.User, in UploadInput) (*UploadResult, error) {
	res, err := s.upload(ctx, user, in)
	if err != nil {
		uploadsTotal.WithLabelValues(string(in.Kind), string(apperr.KindOf(err))).Inc()
		return nil, err
	}

	uploadsTotal.WithLabelValues(string(in.Kind), "ok").Inc()
	uploadedBytes.WithLabelValues(string(in.Kind)).Add(float64(res.File.Size))

	return res, nil
}

func (s *UploadService) upload(ctx context.Context, user *model.User, in UploadInput) (*UploadResult, error) {
	contentType, err := validators.FileValidator(in.Kind, in.File, s.maxBytes)
	if err != nil {
		if isValidationErr(err) {
			return nil, apperr.Wrap(apperr.ValidationError, capitalize(err), err)
		}

		return nil, apperr.Internal(err)
	}

	temp, err := spool(in.File)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer os.Remove(temp)

	tags := model.NormalizeTags(in.Tags)

	storeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	obj, err := s.store.Upload(storeCtx, temp, media.UploadOptions{
		Namespace:   "uploads/" + user.ID,
		Tags:        tags,
		Filename:    in.File.Filename,
		ContentType: contentType,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.UploadError, "Failed to upload file: "+err.Error(), err)
	}

	fileID, err := util.NewID()
	if err != nil {
		s.compensate(obj.ExternalID)
		return nil, apperr.Internal(fmt.Errorf("failed to generate file ID, %w", err))
	}

	file := &model.File{
		ID:         fileID,
		UserID:     user.ID,
		Email:      user.Email,
		Name:       in.File.Filename,
		URL:        obj.URL,
		ExternalID: obj.ExternalID,
		Format:     obj.Format,
		Kind:       in.Kind,
		Size:       obj.Bytes,
		Tags:       tags,
		UploadedAt: time.Now().UTC(),
	}

	if err := s.db.WithContext(ctx).Create(file).Error; err != nil {
		s.compensate(obj.ExternalID)
		return nil, apperr.Internal(fmt.Errorf("failed to save file record, %w", err))
	}

	s.notifier.Uploaded(user, file)

	return &UploadResult{File: file, URL: obj.URL}, nil
}

// compensate deletes an object that has no record. The request context may
// already be gone at this point so a fresh one is used.
func (s *UploadService) compensate(externalID string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.store.Delete(ctx, externalID); err != nil {
		orphansTotal.WithLabelValues("upload").Inc()
		zap.L().Error("Failed to remove orphaned object", zap.String("externalID", externalID), zap.Error(err))
		return
	}

	zap.L().Debug("Removed object after failed upload", zap.String("externalID", externalID))
}

// List returns every file of the user, newest first
func (s *UploadService) List(ctx context.Context, user *model.User) ([]model.File, error) {
	files := []model.File{}

	err := s.db.
		WithContext(ctx).
		Where("user_id = ?", user.ID).
		Order("uploaded_at desc").
		Find(&files).
		Error
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("failed to list files, %w", err))
	}

	return files, nil
}

// Get returns a file owned by the user. Files of other users are reported
// as missing.
func (s *UploadService) Get(ctx context.Context, user *model.User, fileID string) (*model.File, error) {
	var file model.File

	err := s.db.
		WithContext(ctx).
		Where("id = ? AND user_id = ?", fileID, user.ID).
		First(&file).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFoundError, "File not found")
		}

		return nil, apperr.Internal(fmt.Errorf("failed to find file, %w", err))
	}

	return &file, nil
}

// Remove deletes the object from the media store, then the record. The
// record is kept if the media store fails.
func (s *UploadService) Remove(ctx context.Context, user *model.User, fileID string) error {
	file, err := s.Get(ctx, user, fileID)
	if err != nil {
		return err
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.store.Delete(storeCtx, file.ExternalID); err != nil {
		deletesTotal.WithLabelValues("remote_error").Inc()
		return apperr.Wrap(apperr.RemoteServiceError, "Failed to delete file from storage", err)
	}

	r := s.db.
		WithContext(ctx).
		Where("id = ? AND user_id = ?", file.ID, user.ID).
		Delete(&model.File{})
	if r.Error != nil {
		deletesTotal.WithLabelValues("db_error").Inc()
		orphansTotal.WithLabelValues("delete").Inc()
		zap.L().Error("File record points to a deleted object",
			zap.String("fileID", file.ID),
			zap.String("externalID", file.ExternalID),
			zap.Error(r.Error),
		)

		return apperr.Internal(fmt.Errorf("failed to delete file record, %w", r.Error))
	}

	// Someone else deleted it in the meantime
	if r.RowsAffected == 0 {
		return apperr.New(apperr.NotFoundError, "File not found")
	}

	deletesTotal.WithLabelValues("ok").Inc()
	return nil
}

// spool copies the uploaded file to a temporary file on disk and returns
// its path. The caller removes it.
func spool(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open multipart file, %w", err)
	}
	defer src.Close()

	temp, err := os.CreateTemp("", "upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file, %w", err)
	}
	defer temp.Close()

	if _, err := io.Copy(temp, src); err != nil {
		os.Remove(temp.Name())
		return "", fmt.Errorf("failed to copy data to temporary file, %w", err)
	}

	return temp.Name(), nil
}

func isValidationErr(err error) bool {
	for _, target := range []error{
		validators.ErrNoFile,
		validators.ErrFileTooLarge,
		validators.ErrFileNameTooLong,
		validators.ErrFileTypeUnsupported,
	} {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}
