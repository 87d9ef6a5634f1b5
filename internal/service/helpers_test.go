package service

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/textproto"
	"os"
	"sync"
	"testing"
	"time"

	"storagify/file-api/config"
	"storagify/file-api/db"
	"storagify/file-api/internal/media"
	"storagify/file-api/pkg/security"
	"storagify/file-api/pkg/util"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var jpegData = append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, bytes.Repeat([]byte{0x01}, 10240)...)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name, err := util.NewID()
	require.NoError(t, err)

	conn, err := db.New(config.Database{
		Driver: "sqlite",
		DSN:    "file:" + name + "?mode=memory&cache=shared",
	})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	return conn
}

type fakeStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	uploads   []media.UploadOptions
	uploadErr error
	deleteErr error
	// Size reported back instead of the real one when set
	reportBytes int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (f *fakeStore) Upload(ctx context.Context, path string, opts media.UploadOptions) (*media.Object, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	id, err := util.NewID()
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	key := opts.Namespace + "/" + id
	f.objects[key] = b
	f.uploads = append(f.uploads, opts)

	size := int64(len(b))
	if f.reportBytes > 0 {
		size = f.reportBytes
	}

	return &media.Object{
		URL:        "https://media.test/" + key,
		ExternalID: key,
		Format:     "jpg",
		Bytes:      size,
	}, nil
}

func (f *fakeStore) Delete(_ context.Context, externalID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.objects, externalID)
	return nil
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.objects)
}

type fakeMailer struct {
	mu    sync.Mutex
	sent  []Mail
	err   error
	panic bool
}

func (m *fakeMailer) Send(_ context.Context, mail Mail) error {
	if m.panic {
		panic("mailer exploded")
	}

	if m.err != nil {
		return m.err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sent = append(m.sent, mail)
	return nil
}

func (m *fakeMailer) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sent = nil
}

func (m *fakeMailer) mails() []Mail {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]Mail(nil), m.sent...)
}

func fileHeader(t *testing.T, field, name, contentType string, data []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+name+`"`)
	h.Set("Content-Type", contentType)

	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })

	return form.File[field][0]
}

type testEnv struct {
	db      *gorm.DB
	store   *fakeStore
	mailer  *fakeMailer
	notify  *Notifier
	auth    *AuthService
	uploads *UploadService
}

func newTestEnv(t *testing.T, maxBytes int64) *testEnv {
	t.Helper()

	env := &testEnv{
		db:     newTestDB(t),
		store:  newFakeStore(),
		mailer: &fakeMailer{},
	}

	env.notify = NewNotifier(env.mailer, time.Second, "Storagify", 50)
	env.auth = NewAuthService(env.db, security.NewHasher(), security.NewTokenIssuer("test-secret", time.Hour), env.notify)
	env.uploads = NewUploadService(env.db, env.store, env.notify, maxBytes, 5*time.Second)

	t.Cleanup(func() {
		env.notify.Wait()
		env.auth.Close()
	})

	return env
}

var errBoom = errors.New("boom")
