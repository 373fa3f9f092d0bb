package reliability

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	uploads map[string][]byte
	objects []BackupInfo
	deleted []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{uploads: map[string][]byte{}}
}

func (f *fakeStore) Upload(_ context.Context, key string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.uploads[key] = data
	return nil
}

func (f *fakeStore) List(_ context.Context, prefix string) ([]BackupInfo, error) {
	var out []BackupInfo
	for _, obj := range f.objects {
		if strings.HasPrefix(obj.Key, prefix) {
			out = append(out, obj)
		}
	}
	return out, nil
}

func (f *fakeStore) Delete(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

func readArchive(t *testing.T, data []byte) map[string][]byte {
	t.Helper()

	gz, err := gzip.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer gz.Close()

	files := map[string][]byte{}
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		content, err := io.ReadAll(tr)
		require.NoError(t, err)
		files[hdr.Name] = content
	}
	return files
}

func TestCreateAndUploadBackup(t *testing.T) {
	dataDir := t.TempDir()
	cacheData := []byte("cache contents")
	portfolioData := []byte("portfolio contents")
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "cache.db"), cacheData, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "portfolio.db"), portfolioData, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "notes.txt"), []byte("ignore me"), 0644))

	store := newFakeStore()
	svc := NewBackupService(store, dataDir, "creditdesk", zerolog.Nop())

	key, err := svc.CreateAndUploadBackup(context.Background())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(key, "creditdesk/creditdesk-backup-"))
	assert.True(t, strings.HasSuffix(key, ".tar.gz"))

	files := readArchive(t, store.uploads[key])
	assert.Equal(t, cacheData, files["cache.db"])
	assert.Equal(t, portfolioData, files["portfolio.db"])
	assert.NotContains(t, files, "notes.txt")

	var meta backupMetadata
	require.NoError(t, json.Unmarshal(files["backup-metadata.json"], &meta))
	assert.Len(t, meta.Files, 2)

	sum := sha256.Sum256(cacheData)
	assert.Equal(t, hex.EncodeToString(sum[:]), meta.Files["cache.db"])
	assert.WithinDuration(t, time.Now().UTC(), meta.CreatedAt, time.Minute)
}

func TestCreateAndUploadBackupCleansStaging(t *testing.T) {
	dataDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "cache.db"), []byte("x"), 0644))

	svc := NewBackupService(newFakeStore(), dataDir, "", zerolog.Nop())
	_, err := svc.CreateAndUploadBackup(context.Background())
	require.NoError(t, err)

	entries, err := os.ReadDir(dataDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "cache.db", entries[0].Name())
}

func TestCreateAndUploadBackupNoDatabases(t *testing.T) {
	svc := NewBackupService(newFakeStore(), t.TempDir(), "creditdesk", zerolog.Nop())
	_, err := svc.CreateAndUploadBackup(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no database files")
}

func TestRotateOldBackups(t *testing.T) {
	now := time.Now()
	store := newFakeStore()
	store.objects = []BackupInfo{
		{Key: "creditdesk/creditdesk-backup-a.tar.gz", Timestamp: now},
		{Key: "creditdesk/creditdesk-backup-b.tar.gz", Timestamp: now.Add(-1 * time.Hour)},
		{Key: "creditdesk/creditdesk-backup-c.tar.gz", Timestamp: now.Add(-2 * time.Hour)},
		{Key: "creditdesk/creditdesk-backup-d.tar.gz", Timestamp: now.Add(-60 * 24 * time.Hour)},
		{Key: "creditdesk/creditdesk-backup-e.tar.gz", Timestamp: now.Add(-90 * 24 * time.Hour)},
	}

	svc := NewBackupService(store, t.TempDir(), "creditdesk", zerolog.Nop())
	deleted, err := svc.RotateOldBackups(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, deleted)
	assert.ElementsMatch(t, []string{
		"creditdesk/creditdesk-backup-d.tar.gz",
		"creditdesk/creditdesk-backup-e.tar.gz",
	}, store.deleted)
}

func TestRotateKeepsMinimum(t *testing.T) {
	old := time.Now().Add(-365 * 24 * time.Hour)
	store := newFakeStore()
	store.objects = []BackupInfo{
		{Key: "creditdesk/creditdesk-backup-a.tar.gz", Timestamp: old},
		{Key: "creditdesk/creditdesk-backup-b.tar.gz", Timestamp: old},
		{Key: "creditdesk/creditdesk-backup-c.tar.gz", Timestamp: old},
	}

	svc := NewBackupService(store, t.TempDir(), "creditdesk", zerolog.Nop())
	deleted, err := svc.RotateOldBackups(context.Background())
	require.NoError(t, err)

	assert.Zero(t, deleted)
	assert.Empty(t, store.deleted)
}

func TestParseArchiveTimestamp(t *testing.T) {
	ts, ok := parseArchiveTimestamp("creditdesk/creditdesk-backup-2026-03-15-041500.tar.gz")
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 15, 4, 15, 0, 0, time.UTC), ts)

	_, ok = parseArchiveTimestamp("creditdesk/unrelated.tar.gz")
	assert.False(t, ok)
}
