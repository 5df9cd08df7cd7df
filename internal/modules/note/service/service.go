package note

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"anoa.com/classhub/internal/entity"
	"anoa.com/classhub/internal/modules/access"
	"anoa.com/classhub/internal/modules/note/dto"
	noteRepo "anoa.com/classhub/internal/modules/note/repository"
	"anoa.com/classhub/internal/modules/note/search"
	userRepo "anoa.com/classhub/internal/modules/user/repository"
	"anoa.com/classhub/pkg/apperror"
	"anoa.com/classhub/pkg/ratelimiter"
	"anoa.com/classhub/pkg/storage"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	shareLinkLength   = 8
	shareLinkAttempts = 5
	searchLimit       = 20
)

// RateLimits are the cooldowns applied to note creation and comments.
type RateLimits struct {
	Global  time.Duration
	Note    time.Duration
	Comment time.Duration
}

type Service interface {
	CreateNote(ctx context.Context, actorID uuid.UUID, req dto.CreateNoteRequest) (*dto.NoteResponse, error)
	ListMyNotes(ctx context.Context, actorID uuid.UUID) ([]dto.NoteResponse, error)
	GetNote(ctx context.Context, actorID, noteID uuid.UUID) (*dto.NoteDetailResponse, error)
	UpdateNote(ctx context.Context, actorID, noteID uuid.UUID, req dto.UpdateNoteRequest) (*dto.NoteResponse, error)
	DeleteNote(ctx context.Context, actorID, noteID uuid.UUID) error
	GetHistory(ctx context.Context, actorID, noteID uuid.UUID) ([]dto.HistoryResponse, error)
	AddComment(ctx context.Context, actorID, noteID uuid.UUID, req dto.CreateCommentRequest) (*dto.CommentResponse, error)
	React(ctx context.Context, actorID, noteID uuid.UUID, reactionType string) (*dto.ReactionCounts, error)
	SearchNotes(ctx context.Context, actorID uuid.UUID, query string) ([]dto.NoteResponse, error)
}

type service struct {
	repo        noteRepo.NoteRepository
	userRepo    userRepo.UserRepository
	fileStorage storage.FileStorage
	indexer     search.Indexer
	limiter     *ratelimiter.Limiter
	limits      RateLimits
}

// NewService wires the note service. A nil indexer makes search fall back to SQL and a nil
// limiter disables cooldowns.
func NewService(repo noteRepo.NoteRepository, userRepo userRepo.UserRepository, fileStorage storage.FileStorage, indexer search.Indexer, limiter *ratelimiter.Limiter, limits RateLimits) Service {
	return &service{
		repo:        repo,
		userRepo:    userRepo,
		fileStorage: fileStorage,
		indexer:     indexer,
		limiter:     limiter,
		limits:      limits,
	}
}

func (s *service) findActor(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user not found: %w", apperror.ErrUnauthorized)
		}
		return nil, err
	}
	return user, nil
}

func (s *service) findNote(ctx context.Context, id uuid.UUID) (*entity.Note, error) {
	note, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("note not found: %w", apperror.ErrNotFound)
		}
		return nil, err
	}
	return note, nil
}

// load resolves the note and the actor and applies the given permission.
func (s *service) load(ctx context.Context, actorID, noteID uuid.UUID, allowed func(*entity.Note, *entity.User) bool) (*entity.Note, *entity.User, error) {
	note, err := s.findNote(ctx, noteID)
	if err != nil {
		return nil, nil, err
	}
	actor, err := s.findActor(ctx, actorID)
	if err != nil {
		return nil, nil, err
	}
	if !allowed(note, actor) {
		return nil, nil, apperror.ErrAccessDenied
	}
	return note, actor, nil
}

func (s *service) generateShareLink(ctx context.Context) (string, error) {
	for i := 0; i < shareLinkAttempts; i++ {
		link := strings.ReplaceAll(uuid.NewString(), "-", "")[:shareLinkLength]
		exists, err := s.repo.ShareLinkExists(ctx, link)
		if err != nil {
			return "", err
		}
		if !exists {
			return link, nil
		}
	}
	return "", fmt.Errorf("%w: could not generate a unique share link", apperror.ErrConflict)
}

func normalizeTitle(title string) string {
	if title = strings.TrimSpace(title); title == "" {
		return entity.DefaultNoteTitle
	}
	return title
}

func (s *service) index(note *entity.Note) {
	if s.indexer == nil {
		return
	}
	if err := s.indexer.IndexNote(note); err != nil {
		log.Printf("failed to index note %s: %v", note.ID, err)
	}
}

func (s *service) CreateNote(ctx context.Context, actorID uuid.UUID, req dto.CreateNoteRequest) (*dto.NoteResponse, error) {
	actor, err := s.findActor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: note content is required", apperror.ErrValidation)
	}

	release, err := s.limiter.Acquire(ctx, actor.ID, ratelimiter.ScopeNote, s.limits.Global, s.limits.Note)
	if err != nil {
		return nil, err
	}

	link, err := s.generateShareLink(ctx)
	if err != nil {
		release()
		return nil, err
	}

	note := &entity.Note{
		UserID:    actor.ID,
		Title:     normalizeTitle(req.Title),
		Content:   content,
		IsPublic:  req.IsPublic,
		Pinned:    req.Pinned,
		ShareLink: link,
	}
	if err := s.repo.Create(ctx, note, dto.ParseTags(req.Tags), req.AttachmentIDs); err != nil {
		release()
		return nil, err
	}

	created, err := s.findNote(ctx, note.ID)
	if err != nil {
		return nil, err
	}
	s.index(created)

	resp := dto.ToNoteResponse(created)
	return &resp, nil
}

func (s *service) ListMyNotes(ctx context.Context, actorID uuid.UUID) ([]dto.NoteResponse, error) {
	notes, err := s.repo.FindByUser(ctx, actorID)
	if err != nil {
		return nil, err
	}
	return dto.ToNoteResponses(notes), nil
}

func (s *service) GetNote(ctx context.Context, actorID, noteID uuid.UUID) (*dto.NoteDetailResponse, error) {
	note, _, err := s.load(ctx, actorID, noteID, access.CanViewNote)
	if err != nil {
		return nil, err
	}

	comments, err := s.repo.FindComments(ctx, note.ID)
	if err != nil {
		return nil, err
	}
	likes, dislikes, err := s.repo.CountReactions(ctx, note.ID)
	if err != nil {
		return nil, err
	}

	return &dto.NoteDetailResponse{
		NoteResponse: dto.ToNoteResponse(note),
		Reactions:    dto.ReactionCounts{Likes: likes, Dislikes: dislikes},
		Comments:     BuildCommentTree(comments),
	}, nil
}

func (s *service) UpdateNote(ctx context.Context, actorID, noteID uuid.UUID, req dto.UpdateNoteRequest) (*dto.NoteResponse, error) {
	note, _, err := s.load(ctx, actorID, noteID, access.CanEditNote)
	if err != nil {
		return nil, err
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: note content is required", apperror.ErrValidation)
	}

	previous := &entity.NoteHistory{
		NoteID:  note.ID,
		Title:   note.Title,
		Content: note.Content,
	}

	note.Title = normalizeTitle(req.Title)
	note.Content = content
	note.IsPublic = req.IsPublic
	note.Pinned = req.Pinned

	var tags []string
	if req.Tags != nil {
		tags = dto.ParseTags(*req.Tags)
	}

	if err := s.repo.Update(ctx, note, previous, tags, req.AttachmentIDs); err != nil {
		return nil, err
	}

	updated, err := s.findNote(ctx, note.ID)
	if err != nil {
		return nil, err
	}
	s.index(updated)

	resp := dto.ToNoteResponse(updated)
	return &resp, nil
}

func (s *service) DeleteNote(ctx context.Context, actorID, noteID uuid.UUID) error {
	note, _, err := s.load(ctx, actorID, noteID, access.CanDeleteNote)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, note.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("note not found: %w", apperror.ErrNotFound)
		}
		return err
	}

	for _, a := range note.Attachments {
		if err := s.fileStorage.Delete(ctx, a.FileURL); err != nil {
			log.Printf("failed to delete attachment file %s: %v", a.FileURL, err)
		}
	}
	if s.indexer != nil {
		if err := s.indexer.DeleteNote(note.ID); err != nil {
			log.Printf("failed to remove note %s from index: %v", note.ID, err)
		}
	}
	return nil
}

func (s *service) GetHistory(ctx context.Context, actorID, noteID uuid.UUID) ([]dto.HistoryResponse, error) {
	note, _, err := s.load(ctx, actorID, noteID, access.CanEditNote)
	if err != nil {
		return nil, err
	}

	history, err := s.repo.FindHistory(ctx, note.ID)
	if err != nil {
		return nil, err
	}
	return dto.ToHistoryResponses(history), nil
}

func (s *service) AddComment(ctx context.Context, actorID, noteID uuid.UUID, req dto.CreateCommentRequest) (*dto.CommentResponse, error) {
	note, actor, err := s.load(ctx, actorID, noteID, access.CanComment)
	if err != nil {
		return nil, err
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: comment is empty", apperror.ErrValidation)
	}

	if req.ParentID != nil {
		parent, err := s.repo.FindComment(ctx, *req.ParentID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if parent == nil || parent.NoteID != note.ID {
			return nil, fmt.Errorf("%w: comment %d is not on this note", apperror.ErrInvalidParent, *req.ParentID)
		}
	}

	release, err := s.limiter.Acquire(ctx, actor.ID, ratelimiter.ScopeComment, s.limits.Global, s.limits.Comment)
	if err != nil {
		return nil, err
	}

	comment := &entity.Comment{
		NoteID:   note.ID,
		UserID:   actor.ID,
		ParentID: req.ParentID,
		Content:  content,
	}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		release()
		return nil, err
	}
	comment.User = *actor

	resp := dto.ToCommentResponse(comment)
	return &resp, nil
}

func (s *service) React(ctx context.Context, actorID, noteID uuid.UUID, reactionType string) (*dto.ReactionCounts, error) {
	if reactionType != entity.ReactionLike && reactionType != entity.ReactionDislike {
		return nil, fmt.Errorf("%w: invalid reaction %q", apperror.ErrValidation, reactionType)
	}

	note, actor, err := s.load(ctx, actorID, noteID, access.CanViewNote)
	if err != nil {
		return nil, err
	}

	likes, dislikes, err := s.repo.SetReaction(ctx, note.ID, actor.ID, reactionType)
	if err != nil {
		return nil, err
	}
	return &dto.ReactionCounts{Likes: likes, Dislikes: dislikes}, nil
}

// SearchNotes queries the search index when one is configured and falls back to SQL otherwise.
// Hits are re-checked against the database so a stale index never leaks a private note.
func (s *service) SearchNotes(ctx context.Context, actorID uuid.UUID, query string) ([]dto.NoteResponse, error) {
	actor, err := s.findActor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return []dto.NoteResponse{}, nil
	}

	if s.indexer != nil {
		ids, err := s.indexer.Search(actor.ID, query, searchLimit)
		if err == nil {
			return s.notesInOrder(ctx, actor, ids)
		}
		log.Printf("note search failed, falling back to database: %v", err)
	}

	notes, err := s.repo.SearchLike(ctx, actor.ID, query, searchLimit)
	if err != nil {
		return nil, err
	}
	return dto.ToNoteResponses(notes), nil
}

func (s *service) notesInOrder(ctx context.Context, actor *entity.User, ids []uuid.UUID) ([]dto.NoteResponse, error) {
	notes, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*entity.Note, len(notes))
	for i := range notes {
		byID[notes[i].ID] = &notes[i]
	}

	result := make([]dto.NoteResponse, 0, len(ids))
	for _, id := range ids {
		n, ok := byID[id]
		if !ok || !access.CanViewNote(n, actor) {
			continue
		}
		result = append(result, dto.ToNoteResponse(n))
	}
	return result, nil
}
