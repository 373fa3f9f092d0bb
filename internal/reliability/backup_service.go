package reliability

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/creditdesk/creditdesk/internal/config"
)

const (
	archivePrefix = "creditdesk-backup-"
	archiveStamp  = "2006-01-02-150405"

	// Never rotate below this many archives, whatever the retention window.
	minBackupsKept = 3
)

// BackupInfo describes a single archive stored in the bucket.
type BackupInfo struct {
	Key       string    `json:"key"`
	Size      int64     `json:"size"`
	Timestamp time.Time `json:"timestamp"`
}

type backupMetadata struct {
	CreatedAt time.Time         `json:"created_at"`
	Files     map[string]string `json:"files"` // name -> sha256 hex
}

// ObjectStore is the slice of S3 the backup service needs.
type ObjectStore interface {
	Upload(ctx context.Context, key string, body io.Reader) error
	List(ctx context.Context, prefix string) ([]BackupInfo, error)
	Delete(ctx context.Context, key string) error
}

// S3Store talks to an S3-compatible bucket (AWS, R2, MinIO).
type S3Store struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
}

// NewS3Store builds a store from the backup configuration. Credentials come
// from the standard AWS chain (env, shared config, instance role).
func NewS3Store(ctx context.Context, cfg *config.BackupConfig) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   cfg.Bucket,
	}, nil
}

func (s *S3Store) Upload(ctx context.Context, key string, body io.Reader) error {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

func (s *S3Store) List(ctx context.Context, prefix string) ([]BackupInfo, error) {
	var backups []BackupInfo

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list backups: %w", err)
		}
		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			info := BackupInfo{Key: *obj.Key}
			if obj.Size != nil {
				info.Size = *obj.Size
			}
			if ts, ok := parseArchiveTimestamp(*obj.Key); ok {
				info.Timestamp = ts
			} else if obj.LastModified != nil {
				info.Timestamp = *obj.LastModified
			}
			backups = append(backups, info)
		}
	}
	return backups, nil
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// BackupService archives the on-disk databases and ships them to an
// object store. Archives are tar.gz files containing the database copies
// plus a metadata file with per-file checksums.
type BackupService struct {
	store     ObjectStore
	dataDir   string
	keyPrefix string
	retention time.Duration
	log       zerolog.Logger
}

func NewBackupService(store ObjectStore, dataDir, keyPrefix string, log zerolog.Logger) *BackupService {
	return &BackupService{
		store:     store,
		dataDir:   dataDir,
		keyPrefix: strings.Trim(keyPrefix, "/"),
		retention: 30 * 24 * time.Hour,
		log:       log.With().Str("service", "backup").Logger(),
	}
}

// CreateAndUploadBackup stages copies of every .db file in the data
// directory, writes checksums and metadata, packs the lot into a tar.gz
// and uploads it. The staging directory is removed afterwards.
func (s *BackupService) CreateAndUploadBackup(ctx context.Context) (string, error) {
	now := time.Now().UTC()
	staging, err := os.MkdirTemp(s.dataDir, "backup-staging-")
	if err != nil {
		return "", fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	files, err := s.stageDatabases(staging)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("no database files found in %s", s.dataDir)
	}

	meta := backupMetadata{CreatedAt: now, Files: map[string]string{}}
	for _, name := range files {
		sum, err := fileChecksum(filepath.Join(staging, name))
		if err != nil {
			return "", err
		}
		meta.Files[name] = sum
	}
	metaPath := filepath.Join(staging, "backup-metadata.json")
	if err := writeMetadata(metaPath, meta); err != nil {
		return "", err
	}

	archiveName := archivePrefix + now.Format(archiveStamp) + ".tar.gz"
	archivePath := filepath.Join(staging, archiveName)
	if err := createArchive(archivePath, staging, append(files, "backup-metadata.json")); err != nil {
		return "", err
	}

	f, err := os.Open(archivePath)
	if err != nil {
		return "", fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	key := s.objectKey(archiveName)
	if err := s.store.Upload(ctx, key, f); err != nil {
		return "", err
	}

	s.log.Info().Str("key", key).Int("files", len(files)).Msg("Backup uploaded")
	return key, nil
}

// ListBackups returns the stored archives, newest first.
func (s *BackupService) ListBackups(ctx context.Context) ([]BackupInfo, error) {
	backups, err := s.store.List(ctx, s.objectKey(archivePrefix))
	if err != nil {
		return nil, err
	}
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups, nil
}

// RotateOldBackups deletes archives older than the retention window,
// always keeping the newest few regardless of age.
func (s *BackupService) RotateOldBackups(ctx context.Context) (int, error) {
	backups, err := s.ListBackups(ctx)
	if err != nil {
		return 0, err
	}
	if len(backups) <= minBackupsKept {
		return 0, nil
	}

	cutoff := time.Now().Add(-s.retention)
	deleted := 0
	for _, b := range backups[minBackupsKept:] {
		if b.Timestamp.After(cutoff) {
			continue
		}
		if err := s.store.Delete(ctx, b.Key); err != nil {
			s.log.Error().Err(err).Str("key", b.Key).Msg("Failed to delete old backup")
			continue
		}
		deleted++
	}
	if deleted > 0 {
		s.log.Info().Int("deleted", deleted).Msg("Rotated old backups")
	}
	return deleted, nil
}

func (s *BackupService) objectKey(name string) string {
	if s.keyPrefix == "" {
		return name
	}
	return s.keyPrefix + "/" + name
}

// stageDatabases copies the .db files into the staging directory so the
// archive reads from stable snapshots rather than live files.
func (s *BackupService) stageDatabases(staging string) ([]string, error) {
	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".db") {
			continue
		}
		src := filepath.Join(s.dataDir, entry.Name())
		dst := filepath.Join(staging, entry.Name())
		if err := copyFile(src, dst); err != nil {
			return nil, err
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return out.Close()
}

func fileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to checksum %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func writeMetadata(path string, meta backupMetadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal backup metadata: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write backup metadata: %w", err)
	}
	return nil
}

func createArchive(archivePath, dir string, files []string) error {
	out, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer out.Close()

	gz := gzip.NewWriter(out)
	tw := tar.NewWriter(gz)

	for _, name := range files {
		if err := addFileToArchive(tw, filepath.Join(dir, name), name); err != nil {
			return err
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("failed to finalize tar: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("failed to finalize gzip: %w", err)
	}
	return out.Close()
}

func addFileToArchive(tw *tar.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return fmt.Errorf("failed to build tar header for %s: %w", name, err)
	}
	hdr.Name = name

	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("failed to write tar header for %s: %w", name, err)
	}
	if _, err := io.Copy(tw, f); err != nil {
		return fmt.Errorf("failed to write %s into archive: %w", name, err)
	}
	return nil
}

func parseArchiveTimestamp(key string) (time.Time, bool) {
	base := filepath.Base(key)
	if !strings.HasPrefix(base, archivePrefix) || !strings.HasSuffix(base, ".tar.gz") {
		return time.Time{}, false
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(base, archivePrefix), ".tar.gz")
	ts, err := time.Parse(archiveStamp, stamp)
	if err != nil {
		return time.Time{}, false
	}
	return ts.UTC(), true
}
