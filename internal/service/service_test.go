package service

import (
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"go-classifieds/internal/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.User{},
		&domain.RefreshToken{},
		&domain.Category{},
		&domain.Announcement{},
		&domain.Comment{},
	))
	return db
}

// fakeStore 内存附件存储
type fakeStore struct {
	mu    sync.Mutex
	seq   int
	files map[string][]byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{files: map[string][]byte{}}
}

func (f *fakeStore) Save(name string, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	ref := fmt.Sprintf("file-%d", f.seq)
	f.files[ref] = b
	return ref, nil
}

func (f *fakeStore) Remove(ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, ref)
	return nil
}

func (f *fakeStore) has(ref string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.files[ref]
	return ok
}

func testLogger() *zap.Logger { return zap.NewNop() }
