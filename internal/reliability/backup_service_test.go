package reliability

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testingpkg "github.com/smasshh/finmate/internal/testing"
)

type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	failOn  string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: make(map[string][]byte)}
}

func (m *memoryStore) Upload(_ context.Context, key string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memoryStore) List(_ context.Context, prefix string) ([]ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ObjectInfo
	for k, v := range m.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, ObjectInfo{Key: k, Size: int64(len(v))})
		}
	}
	return out, nil
}

func (m *memoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if key == m.failOn {
		return errors.New("delete failed")
	}
	delete(m.objects, key)
	return nil
}

func (m *memoryStore) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.objects))
	for k := range m.objects {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func archiveEntries(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	gz, err := gzip.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	tr := tar.NewReader(gz)

	entries := make(map[string][]byte)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		body, err := io.ReadAll(tr)
		require.NoError(t, err)
		entries[hdr.Name] = body
	}
	return entries
}

func TestBackupService_CreateAndUploadBackup(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "finmate")
	defer cleanup()
	_, err := db.Conn().Exec(`INSERT INTO watchlist (user_id, symbol, name, added_at) VALUES ('alice', 'AAPL', '', 0)`)
	require.NoError(t, err)

	store := newMemoryStore()
	svc := NewBackupService(store, []Snapshotter{db}, t.TempDir(), zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2024, 7, 1, 4, 0, 0, 0, time.UTC) }

	name, err := svc.CreateAndUploadBackup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "finmate-backup-2024-07-01-040000.tar.gz", name)

	entries := archiveEntries(t, store.objects[name])
	require.Contains(t, entries, "finmate.db")
	require.Contains(t, entries, metadataFile)

	var meta BackupMetadata
	require.NoError(t, json.Unmarshal(entries[metadataFile], &meta))
	require.Len(t, meta.Databases, 1)
	assert.Equal(t, "finmate", meta.Databases[0].Name)
	assert.Equal(t, int64(len(entries["finmate.db"])), meta.Databases[0].SizeBytes)
	assert.True(t, strings.HasPrefix(meta.Databases[0].Checksum, "sha256:"))
}

func TestBackupService_RotateOldBackups(t *testing.T) {
	store := newMemoryStore()
	now := time.Date(2024, 7, 31, 12, 0, 0, 0, time.UTC)
	for _, day := range []int{1, 2, 3, 25, 29, 30} {
		ts := time.Date(2024, 7, day, 4, 0, 0, 0, time.UTC)
		store.objects[backupPrefix+ts.Format(backupTimestamp)+backupSuffix] = []byte("x")
	}
	store.objects["finmate-backup-garbage.tar.gz"] = []byte("x")

	svc := NewBackupService(store, nil, t.TempDir(), zerolog.Nop())
	svc.now = func() time.Time { return now }

	backups, err := svc.ListBackups(context.Background())
	require.NoError(t, err)
	require.Len(t, backups, 6)
	assert.Equal(t, "finmate-backup-2024-07-30-040000.tar.gz", backups[0].Filename)

	deleted, err := svc.RotateOldBackups(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)
	assert.Equal(t, []string{
		"finmate-backup-2024-07-25-040000.tar.gz",
		"finmate-backup-2024-07-29-040000.tar.gz",
		"finmate-backup-2024-07-30-040000.tar.gz",
		"finmate-backup-garbage.tar.gz",
	}, store.keys())
}

func TestBackupService_RotateKeepsMinimum(t *testing.T) {
	store := newMemoryStore()
	for _, day := range []int{1, 2, 3} {
		ts := time.Date(2023, 1, day, 4, 0, 0, 0, time.UTC)
		store.objects[backupPrefix+ts.Format(backupTimestamp)+backupSuffix] = []byte("x")
	}
	svc := NewBackupService(store, nil, t.TempDir(), zerolog.Nop())

	deleted, err := svc.RotateOldBackups(context.Background(), 1)
	require.NoError(t, err)
	assert.Zero(t, deleted)
	assert.Len(t, store.keys(), 3)

	deleted, err = svc.RotateOldBackups(context.Background(), 0)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}
