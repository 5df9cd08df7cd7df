package attachment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"anoa.com/classhub/internal/entity"
	"anoa.com/classhub/internal/modules/access"
	"anoa.com/classhub/internal/modules/attachment/dto"
	attachmentRepo "anoa.com/classhub/internal/modules/attachment/repository"
	noteRepo "anoa.com/classhub/internal/modules/note/repository"
	userRepo "anoa.com/classhub/internal/modules/user/repository"
	"anoa.com/classhub/pkg/apperror"
	"anoa.com/classhub/pkg/storage"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrphanTTL is how long an upload may stay unlinked before cleanup removes it.
const OrphanTTL = 24 * time.Hour

var allowedExtensions = map[string]bool{
	"png": true, "jpg": true, "jpeg": true, "gif": true,
	"pdf": true, "txt": true, "doc": true, "docx": true,
}

// Upload describes one incoming file.
type Upload struct {
	FileName string
	MimeType string
	Size     int64
	Body     io.Reader
}

type Service interface {
	UploadAttachment(ctx context.Context, userID uuid.UUID, upload Upload) (*dto.AttachmentResponse, error)
	GetAttachment(ctx context.Context, userID uuid.UUID, id uint) (*dto.AttachmentResponse, error)
	CleanupOrphanAttachments(ctx context.Context) (int, error)
}

type service struct {
	repo        attachmentRepo.AttachmentRepository
	noteRepo    noteRepo.NoteRepository
	userRepo    userRepo.UserRepository
	fileStorage storage.FileStorage
	folder      string
}

func NewService(repo attachmentRepo.AttachmentRepository, noteRepo noteRepo.NoteRepository, userRepo userRepo.UserRepository, fileStorage storage.FileStorage, folder string) Service {
	return &service{
		repo:        repo,
		noteRepo:    noteRepo,
		userRepo:    userRepo,
		fileStorage: fileStorage,
		folder:      folder,
	}
}

// AllowedExtension reports whether the file name carries an accepted extension.
func AllowedExtension(fileName string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileName)), ".")
	return allowedExtensions[ext]
}

func (s *service) UploadAttachment(ctx context.Context, userID uuid.UUID, upload Upload) (*dto.AttachmentResponse, error) {
	name := filepath.Base(strings.TrimSpace(upload.FileName))
	if name == "." || name == "/" || name == "" {
		return nil, fmt.Errorf("%w: file name is required", apperror.ErrValidation)
	}
	if !AllowedExtension(name) {
		return nil, fmt.Errorf("%w: file type not allowed", apperror.ErrValidation)
	}

	url, err := s.fileStorage.Upload(ctx, upload.Body, s.folder, name)
	if err != nil {
		return nil, fmt.Errorf("failed to store attachment: %w", err)
	}

	attachment := &entity.NoteAttachment{
		UserID:   userID,
		FileName: name,
		FileURL:  url,
		MimeType: upload.MimeType,
		Size:     upload.Size,
	}
	if err := s.repo.Create(ctx, attachment); err != nil {
		if delErr := s.fileStorage.Delete(ctx, url); delErr != nil {
			log.Printf("failed to remove stored file %s: %v", url, delErr)
		}
		return nil, err
	}

	resp := dto.ToAttachmentResponse(attachment)
	return &resp, nil
}

// GetAttachment applies the view rule of the owning note. Unlinked uploads are visible to the
// uploader only.
func (s *service) GetAttachment(ctx context.Context, userID uuid.UUID, id uint) (*dto.AttachmentResponse, error) {
	attachment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("attachment not found: %w", apperror.ErrNotFound)
		}
		return nil, err
	}

	if attachment.NoteID == nil {
		if attachment.UserID != userID {
			return nil, apperror.ErrAccessDenied
		}
	} else {
		note, err := s.noteRepo.FindByID(ctx, *attachment.NoteID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("note not found: %w", apperror.ErrNotFound)
			}
			return nil, err
		}
		user, err := s.userRepo.FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperror.ErrUnauthorized
			}
			return nil, err
		}
		if !access.CanViewNote(note, user) {
			return nil, apperror.ErrAccessDenied
		}
	}

	resp := dto.ToAttachmentResponse(attachment)
	return &resp, nil
}

// CleanupOrphanAttachments removes uploads never linked to a note. Failures are logged and
// retried on the next run.
func (s *service) CleanupOrphanAttachments(ctx context.Context) (int, error) {
	orphans, err := s.repo.FindOrphans(ctx, time.Now().Add(-OrphanTTL))
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, orphan := range orphans {
		if err := s.fileStorage.Delete(ctx, orphan.FileURL); err != nil {
			log.Printf("failed to delete orphan file %s: %v", orphan.FileURL, err)
			continue
		}
		if err := s.repo.Delete(ctx, orphan.ID); err != nil {
			log.Printf("failed to delete orphan attachment %d: %v", orphan.ID, err)
			continue
		}
		removed++
	}
	return removed, nil
}
