package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"storagify/file-api/internal/apperr"
	"storagify/file-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func registerUser(t *testing.T, env *testEnv, name string) *model.User {
	t.Helper()

	reg, err := env.auth.Register(name, name+"@x.com", "secret1")
	require.NoError(t, err)

	user, err := env.auth.ResolveUser(reg.User.ID)
	require.NoError(t, err)

	// Welcome mail goes out on its own goroutine, get it out of the way
	env.notify.Wait()
	env.mailer.reset()

	return user
}

func TestUploadImage(t *testing.T) {
	env := newTestEnv(t, 1<<20)
	env.store.reportBytes = 9000
	alice := registerUser(t, env, "alice")

	res, err := env.uploads.Upload(context.Background(), alice, UploadInput{
		Kind: model.KindImage,
		File: fileHeader(t, "image", "cat.jpg", "image/jpeg", jpegData),
	})
	require.NoError(t, err)

	assert.Equal(t, model.Tags{"general"}, res.File.Tags)
	assert.Equal(t, int64(9000), res.File.Size)
	assert.Equal(t, res.File.URL, res.URL)
	assert.Equal(t, "cat.jpg", res.File.Name)
	assert.Equal(t, alice.ID, res.File.UserID)
	assert.Equal(t, alice.Email, res.File.Email)
	assert.Equal(t, model.KindImage, res.File.Kind)
	assert.True(t, strings.HasPrefix(res.File.ExternalID, "uploads/"+alice.ID+"/"))

	require.Len(t, env.store.uploads, 1)
	assert.Equal(t, "uploads/"+alice.ID, env.store.uploads[0].Namespace)
	assert.Equal(t, []string{"general"}, env.store.uploads[0].Tags)
	assert.Equal(t, "image/jpeg", env.store.uploads[0].ContentType)

	files, err := env.uploads.List(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, res.File.ID, files[0].ID)
	assert.Equal(t, model.Tags{"general"}, files[0].Tags)

	env.notify.Wait()
	mails := env.mailer.mails()
	require.Len(t, mails, 1)
	assert.Equal(t, "File uploaded successfully!", mails[0].Subject)
	assert.Equal(t, alice.Email, mails[0].To)
}

func TestUploadTags(t *testing.T) {
	env := newTestEnv(t, 1<<20)
	alice := registerUser(t, env, "alice")

	res, err := env.uploads.Upload(context.Background(), alice, UploadInput{
		Kind: model.KindGeneric,
		File: fileHeader(t, "file", "notes.txt", "text/plain", []byte("hello")),
		Tags: []string{"work, notes", "work"},
	})
	require.NoError(t, err)
	assert.Equal(t, model.Tags{"work", "notes"}, res.File.Tags)
}

func TestUploadSizeBoundary(t *testing.T) {
	const limit = 4096
	env := newTestEnv(t, limit)
	alice := registerUser(t, env, "alice")

	_, err := env.uploads.Upload(context.Background(), alice, UploadInput{
		Kind: model.KindGeneric,
		File: fileHeader(t, "file", "big.bin", "application/octet-stream", bytes.Repeat([]byte{0}, limit+1)),
	})
	assert.Equal(t, apperr.ValidationError, apperr.KindOf(err))
	assert.Zero(t, env.store.count())

	_, err = env.uploads.Upload(context.Background(), alice, UploadInput{
		Kind: model.KindGeneric,
		File: fileHeader(t, "file", "exact.bin", "application/octet-stream", bytes.Repeat([]byte{0}, limit)),
	})
	require.NoError(t, err)
}

func TestUploadKindMismatch(t *testing.T) {
	env := newTestEnv(t, 1<<20)
	alice := registerUser(t, env, "alice")
	pdf := []byte("%PDF-1.4\n%test\n")

	_, err := env.uploads.Upload(context.Background(), alice, UploadInput{
		Kind: model.KindImage,
		File: fileHeader(t, "image", "doc.pdf", "application/pdf", pdf),
	})
	assert.Equal(t, apperr.ValidationError, apperr.KindOf(err))

	_, err = env.uploads.Upload(context.Background(), alice, UploadInput{
		Kind: model.KindGeneric,
		File: fileHeader(t, "file", "doc.pdf", "application/pdf", pdf),
	})
	require.NoError(t, err)
}

func TestUploadStoreFailure(t *testing.T) {
	env := newTestEnv(t, 1<<20)
	env.store.uploadErr = errors.New("quota exceeded")
	alice := registerUser(t, env, "alice")

	_, err := env.uploads.Upload(context.Background(), alice, UploadInput{
		Kind: model.KindImage,
		File: fileHeader(t, "image", "cat.jpg", "image/jpeg", jpegData),
	})
	require.Equal(t, apperr.UploadError, apperr.KindOf(err))
	assert.Contains(t, apperr.As(err).Message, "quota exceeded")

	var n int64
	require.NoError(t, env.db.Model(&model.File{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestUploadRecordFailureRemovesObject(t *testing.T) {
	env := newTestEnv(t, 1<<20)
	alice := registerUser(t, env, "alice")

	require.NoError(t, env.db.Migrator().DropTable(&model.File{}))

	_, err := env.uploads.Upload(context.Background(), alice, UploadInput{
		Kind: model.KindImage,
		File: fileHeader(t, "image", "cat.jpg", "image/jpeg", jpegData),
	})
	assert.Equal(t, apperr.InternalError, apperr.KindOf(err))
	assert.Len(t, env.store.uploads, 1)
	assert.Zero(t, env.store.count())
}

func TestListNewestFirst(t *testing.T) {
	env := newTestEnv(t, 1<<20)
	alice := registerUser(t, env, "alice")

	var ids []string
	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		res, err := env.uploads.Upload(context.Background(), alice, UploadInput{
			Kind: model.KindGeneric,
			File: fileHeader(t, "file", name, "text/plain", []byte(name)),
		})
		require.NoError(t, err)
		ids = append(ids, res.File.ID)
	}

	files, err := env.uploads.List(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, ids[2], files[0].ID)
	assert.Equal(t, ids[0], files[2].ID)

	bob := registerUser(t, env, "bob")
	files, err = env.uploads.List(context.Background(), bob)
	require.NoError(t, err)
	assert.NotNil(t, files)
	assert.Empty(t, files)
}

func TestRemove(t *testing.T) {
	env := newTestEnv(t, 1<<20)
	alice := registerUser(t, env, "alice")
	bob := registerUser(t, env, "bob")

	res, err := env.uploads.Upload(context.Background(), bob, UploadInput{
		Kind: model.KindImage,
		File: fileHeader(t, "image", "cat.jpg", "image/jpeg", jpegData),
	})
	require.NoError(t, err)

	// Not the owner
	err = env.uploads.Remove(context.Background(), alice, res.File.ID)
	assert.Equal(t, apperr.NotFoundError, apperr.KindOf(err))
	_, err = env.uploads.Get(context.Background(), alice, res.File.ID)
	assert.Equal(t, apperr.NotFoundError, apperr.KindOf(err))
	assert.Equal(t, 1, env.store.count())

	got, err := env.uploads.Get(context.Background(), bob, res.File.ID)
	require.NoError(t, err)
	assert.Equal(t, res.File.ExternalID, got.ExternalID)

	require.NoError(t, env.uploads.Remove(context.Background(), bob, res.File.ID))
	assert.Zero(t, env.store.count())

	err = env.uploads.Remove(context.Background(), bob, res.File.ID)
	assert.Equal(t, apperr.NotFoundError, apperr.KindOf(err))
}

func TestRemoveStoreFailureKeepsRecord(t *testing.T) {
	env := newTestEnv(t, 1<<20)
	alice := registerUser(t, env, "alice")

	res, err := env.uploads.Upload(context.Background(), alice, UploadInput{
		Kind: model.KindImage,
		File: fileHeader(t, "image", "cat.jpg", "image/jpeg", jpegData),
	})
	require.NoError(t, err)

	env.store.deleteErr = errBoom
	err = env.uploads.Remove(context.Background(), alice, res.File.ID)
	assert.Equal(t, apperr.RemoteServiceError, apperr.KindOf(err))

	_, err = env.uploads.Get(context.Background(), alice, res.File.ID)
	assert.NoError(t, err)
}

func TestRemoveRecordFailure(t *testing.T) {
	env := newTestEnv(t, 1<<20)
	alice := registerUser(t, env, "alice")

	res, err := env.uploads.Upload(context.Background(), alice, UploadInput{
		Kind: model.KindImage,
		File: fileHeader(t, "image", "cat.jpg", "image/jpeg", jpegData),
	})
	require.NoError(t, err)

	require.NoError(t, env.db.Callback().Delete().Before("gorm:delete").Register("test:fail", func(tx *gorm.DB) {
		tx.AddError(errBoom)
	}))

	err = env.uploads.Remove(context.Background(), alice, res.File.ID)
	assert.Equal(t, apperr.InternalError, apperr.KindOf(err))
	assert.ErrorIs(t, err, errBoom)
	assert.Zero(t, env.store.count())
}
