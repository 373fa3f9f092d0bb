package reliability

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// BackupJob creates an archive and rotates old ones on a schedule.
type BackupJob struct {
	service *BackupService
	log     zerolog.Logger
}

func NewBackupJob(service *BackupService, log zerolog.Logger) *BackupJob {
	return &BackupJob{
		service: service,
		log:     log.With().Str("job", "s3_backup").Logger(),
	}
}

func (j *BackupJob) Name() string { return "s3_backup" }

func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	key, err := j.service.CreateAndUploadBackup(ctx)
	if err != nil {
		return err
	}
	j.log.Info().Str("key", key).Msg("Scheduled backup complete")

	if _, err := j.service.RotateOldBackups(ctx); err != nil {
		j.log.Error().Err(err).Msg("Backup rotation failed")
	}
	return nil
}
