package jobs

import (
	"context"
	"log"

	attachment "anoa.com/classhub/internal/modules/attachment/service"
)

const OrphanCleanupJobName = "orphan-attachment-cleanup"

// OrphanCleanupJob deletes uploads that were never linked to a note.
type OrphanCleanupJob struct {
	attachments attachment.Service
	schedule    string
}

func NewOrphanCleanupJob(attachments attachment.Service, schedule string) *OrphanCleanupJob {
	return &OrphanCleanupJob{attachments: attachments, schedule: schedule}
}

func (j *OrphanCleanupJob) GetName() string {
	return OrphanCleanupJobName
}

func (j *OrphanCleanupJob) GetSchedule() string {
	return j.schedule
}

func (j *OrphanCleanupJob) Execute(ctx context.Context) error {
	removed, err := j.attachments.CleanupOrphanAttachments(ctx)
	if err != nil {
		return err
	}
	log.Printf("[%s] removed %d orphan attachments", j.GetName(), removed)
	return nil
}
