package note

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"anoa.com/classhub/internal/entity"
	"anoa.com/classhub/internal/modules/note/dto"
	noteRepo "anoa.com/classhub/internal/modules/note/repository"
	userRepo "anoa.com/classhub/internal/modules/user/repository"
	"anoa.com/classhub/internal/testutil"
	"anoa.com/classhub/pkg/apperror"
	"anoa.com/classhub/pkg/ratelimiter"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeStorage struct {
	mu      sync.Mutex
	deleted []string
}

func (f *fakeStorage) Upload(ctx context.Context, r io.Reader, folder, fileName string) (string, error) {
	return "https://files.test/" + folder + "/" + fileName, nil
}

func (f *fakeStorage) Delete(ctx context.Context, fileURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, fileURL)
	return nil
}

type fakeIndexer struct {
	indexed   map[uuid.UUID]string
	deleted   []uuid.UUID
	hits      []uuid.UUID
	searchErr error
}

func newFakeIndexer() *fakeIndexer {
	return &fakeIndexer{indexed: map[uuid.UUID]string{}}
}

func (f *fakeIndexer) IndexNote(note *entity.Note) error {
	f.indexed[note.ID] = note.Content
	return nil
}

func (f *fakeIndexer) DeleteNote(id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	delete(f.indexed, id)
	return nil
}

func (f *fakeIndexer) Search(userID uuid.UUID, query string, limit int) ([]uuid.UUID, error) {
	return f.hits, f.searchErr
}

type fixture struct {
	db      *gorm.DB
	svc     Service
	storage *fakeStorage
	indexer *fakeIndexer
	alice   *entity.User
	bob     *entity.User
}

func setup(t *testing.T) *fixture {
	db := testutil.NewTestDB(t)
	f := &fixture{
		db:      db,
		storage: &fakeStorage{},
		indexer: newFakeIndexer(),
		alice:   testutil.CreateUser(t, db, "Alice", entity.RoleStudent),
		bob:     testutil.CreateUser(t, db, "Bob", entity.RoleStudent),
	}
	f.svc = NewService(noteRepo.NewNoteRepository(db), userRepo.NewUserRepository(db), f.storage, f.indexer, nil, RateLimits{})
	return f
}

func (f *fixture) note(t *testing.T, owner *entity.User, content string, public bool) *dto.NoteResponse {
	t.Helper()
	n, err := f.svc.CreateNote(context.Background(), owner.ID, dto.CreateNoteRequest{Content: content, IsPublic: public})
	require.NoError(t, err)
	return n
}

func (f *fixture) upload(t *testing.T, owner *entity.User, name string) *entity.NoteAttachment {
	t.Helper()
	a := &entity.NoteAttachment{UserID: owner.ID, FileName: name, FileURL: "https://files.test/notes/" + name}
	require.NoError(t, f.db.Omit("User").Create(a).Error)
	return a
}

func TestCreateNote(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	mine := f.upload(t, f.alice, "a.pdf")
	theirs := f.upload(t, f.bob, "b.pdf")

	n, err := f.svc.CreateNote(ctx, f.alice.ID, dto.CreateNoteRequest{
		Title:         "   ",
		Content:       " photosynthesis ",
		Tags:          "biology, plants, ,biology",
		AttachmentIDs: []uint{mine.ID, theirs.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.DefaultNoteTitle, n.Title)
	assert.Equal(t, "photosynthesis", n.Content)
	assert.ElementsMatch(t, []string{"biology", "plants"}, n.Tags)
	assert.Len(t, n.ShareLink, 8)
	require.Len(t, n.Attachments, 1)
	assert.Equal(t, mine.ID, n.Attachments[0].ID)
	assert.Contains(t, f.indexer.indexed, n.ID)

	// tags are shared between notes
	_, err = f.svc.CreateNote(ctx, f.bob.ID, dto.CreateNoteRequest{Content: "roots", Tags: "plants"})
	require.NoError(t, err)
	var tags int64
	require.NoError(t, f.db.Model(&entity.Tag{}).Count(&tags).Error)
	assert.EqualValues(t, 2, tags)

	_, err = f.svc.CreateNote(ctx, f.alice.ID, dto.CreateNoteRequest{Content: "   "})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestListMyNotesPinnedFirst(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.note(t, f.alice, "first", false)
	_, err := f.svc.CreateNote(ctx, f.alice.ID, dto.CreateNoteRequest{Content: "pinned", Pinned: true})
	require.NoError(t, err)
	f.note(t, f.bob, "not mine", true)

	notes, err := f.svc.ListMyNotes(ctx, f.alice.ID)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "pinned", notes[0].Content)
}

func TestNoteVisibility(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	private := f.note(t, f.alice, "secret", false)
	public := f.note(t, f.alice, "shared", true)

	_, err := f.svc.GetNote(ctx, f.bob.ID, private.ID)
	assert.ErrorIs(t, err, apperror.ErrAccessDenied)

	detail, err := f.svc.GetNote(ctx, f.bob.ID, public.ID)
	require.NoError(t, err)
	assert.Equal(t, "shared", detail.Content)

	_, err = f.svc.GetNote(ctx, f.alice.ID, private.ID)
	require.NoError(t, err)

	_, err = f.svc.GetNote(ctx, f.alice.ID, uuid.New())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestUpdateNoteKeepsHistory(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	admin := testutil.CreateUser(t, f.db, "Root", entity.RoleAdmin)

	n, err := f.svc.CreateNote(ctx, f.alice.ID, dto.CreateNoteRequest{Title: "v1", Content: "draft", Tags: "math"})
	require.NoError(t, err)

	updated, err := f.svc.UpdateNote(ctx, f.alice.ID, n.ID, dto.UpdateNoteRequest{Title: "v2", Content: "final", IsPublic: true})
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Content)
	assert.True(t, updated.IsPublic)
	assert.Equal(t, []string{"math"}, updated.Tags, "omitted tags are kept")
	assert.Equal(t, "final", f.indexer.indexed[n.ID])

	cleared := ""
	updated, err = f.svc.UpdateNote(ctx, f.alice.ID, n.ID, dto.UpdateNoteRequest{Title: "v3", Content: "again", Tags: &cleared})
	require.NoError(t, err)
	assert.Empty(t, updated.Tags)

	history, err := f.svc.GetHistory(ctx, f.alice.ID, n.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "final", history[0].Content)
	assert.Equal(t, "draft", history[1].Content)
	assert.Equal(t, "v1", history[1].Title)

	_, err = f.svc.UpdateNote(ctx, f.bob.ID, n.ID, dto.UpdateNoteRequest{Content: "hijack"})
	assert.ErrorIs(t, err, apperror.ErrAccessDenied)
	_, err = f.svc.UpdateNote(ctx, admin.ID, n.ID, dto.UpdateNoteRequest{Content: "admin edit"})
	assert.ErrorIs(t, err, apperror.ErrAccessDenied)
	_, err = f.svc.GetHistory(ctx, f.bob.ID, n.ID)
	assert.ErrorIs(t, err, apperror.ErrAccessDenied)
}

func TestDeleteNote(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	admin := testutil.CreateUser(t, f.db, "Root", entity.RoleAdmin)

	file := f.upload(t, f.alice, "slides.pdf")
	n, err := f.svc.CreateNote(ctx, f.alice.ID, dto.CreateNoteRequest{Content: "with file", Tags: "x", AttachmentIDs: []uint{file.ID}})
	require.NoError(t, err)
	_, err = f.svc.AddComment(ctx, f.alice.ID, n.ID, dto.CreateCommentRequest{Content: "note to self"})
	require.NoError(t, err)
	_, err = f.svc.React(ctx, f.alice.ID, n.ID, entity.ReactionLike)
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.DeleteNote(ctx, f.bob.ID, n.ID), apperror.ErrAccessDenied)
	require.NoError(t, f.svc.DeleteNote(ctx, admin.ID, n.ID))

	assert.Equal(t, []string{file.FileURL}, f.storage.deleted)
	assert.Equal(t, []uuid.UUID{n.ID}, f.indexer.deleted)

	for _, model := range []any{&entity.Note{}, &entity.Comment{}, &entity.Reaction{}, &entity.NoteAttachment{}} {
		var count int64
		require.NoError(t, f.db.Model(model).Count(&count).Error)
		assert.Zero(t, count)
	}
	var joins int64
	require.NoError(t, f.db.Table("note_tags").Count(&joins).Error)
	assert.Zero(t, joins)

	assert.ErrorIs(t, f.svc.DeleteNote(ctx, f.alice.ID, n.ID), apperror.ErrNotFound)
}

func TestAddComment(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	public := f.note(t, f.alice, "open", true)
	other := f.note(t, f.alice, "other", true)
	private := f.note(t, f.alice, "closed", false)

	root, err := f.svc.AddComment(ctx, f.bob.ID, public.ID, dto.CreateCommentRequest{Content: "nice"})
	require.NoError(t, err)
	assert.Equal(t, "Bob", root.Author)

	reply, err := f.svc.AddComment(ctx, f.alice.ID, public.ID, dto.CreateCommentRequest{Content: "thanks", ParentID: &root.ID})
	require.NoError(t, err)
	_, err = f.svc.AddComment(ctx, f.bob.ID, public.ID, dto.CreateCommentRequest{Content: "welcome", ParentID: &reply.ID})
	require.NoError(t, err)

	_, err = f.svc.AddComment(ctx, f.bob.ID, other.ID, dto.CreateCommentRequest{Content: "wrong thread", ParentID: &root.ID})
	assert.ErrorIs(t, err, apperror.ErrInvalidParent)

	missing := uint(9999)
	_, err = f.svc.AddComment(ctx, f.bob.ID, public.ID, dto.CreateCommentRequest{Content: "ghost", ParentID: &missing})
	assert.ErrorIs(t, err, apperror.ErrInvalidParent)

	_, err = f.svc.AddComment(ctx, f.bob.ID, public.ID, dto.CreateCommentRequest{Content: "  "})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = f.svc.AddComment(ctx, f.bob.ID, private.ID, dto.CreateCommentRequest{Content: "let me in"})
	assert.ErrorIs(t, err, apperror.ErrAccessDenied)

	detail, err := f.svc.GetNote(ctx, f.bob.ID, public.ID)
	require.NoError(t, err)
	require.Len(t, detail.Comments, 1)
	require.Len(t, detail.Comments[0].Replies, 1)
	require.Len(t, detail.Comments[0].Replies[0].Replies, 1)
	assert.Equal(t, "welcome", detail.Comments[0].Replies[0].Replies[0].Content)
}

func TestBuildCommentTree(t *testing.T) {
	id := func(v uint) *uint { return &v }
	comments := []entity.Comment{
		{ID: 1, Content: "a"},
		{ID: 2, Content: "b", ParentID: id(1)},
		{ID: 3, Content: "c"},
		{ID: 4, Content: "d", ParentID: id(1)},
		{ID: 5, Content: "e", ParentID: id(42)},
	}

	tree := BuildCommentTree(comments)
	require.Len(t, tree, 3)
	assert.Equal(t, "a", tree[0].Content)
	require.Len(t, tree[0].Replies, 2)
	assert.Equal(t, "b", tree[0].Replies[0].Content)
	assert.Equal(t, "d", tree[0].Replies[1].Content)
	assert.Equal(t, "c", tree[1].Content)
	assert.Equal(t, "e", tree[2].Content, "unknown parent is shown at the top level")

	assert.Empty(t, BuildCommentTree(nil))
}

func TestReactLastCallWins(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	n := f.note(t, f.alice, "react to me", true)

	counts, err := f.svc.React(ctx, f.bob.ID, n.ID, entity.ReactionLike)
	require.NoError(t, err)
	assert.Equal(t, dto.ReactionCounts{Likes: 1}, *counts)

	counts, err = f.svc.React(ctx, f.bob.ID, n.ID, entity.ReactionDislike)
	require.NoError(t, err)
	assert.Equal(t, dto.ReactionCounts{Dislikes: 1}, *counts)

	counts, err = f.svc.React(ctx, f.alice.ID, n.ID, entity.ReactionLike)
	require.NoError(t, err)
	assert.Equal(t, dto.ReactionCounts{Likes: 1, Dislikes: 1}, *counts)

	var rows int64
	require.NoError(t, f.db.Model(&entity.Reaction{}).Where("user_id = ?", f.bob.ID).Count(&rows).Error)
	assert.EqualValues(t, 1, rows)

	_, err = f.svc.React(ctx, f.bob.ID, n.ID, "love")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	private := f.note(t, f.alice, "hidden", false)
	_, err = f.svc.React(ctx, f.bob.ID, private.ID, entity.ReactionLike)
	assert.ErrorIs(t, err, apperror.ErrAccessDenied)
}

func TestSearchNotes(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	own := f.note(t, f.bob, "Cell biology summary", false)
	shared := f.note(t, f.alice, "Biology exam tips", true)
	hidden := f.note(t, f.alice, "Biology answers", false)

	t.Run("index hits are re-checked", func(t *testing.T) {
		f.indexer.hits = []uuid.UUID{hidden.ID, shared.ID, own.ID}
		notes, err := f.svc.SearchNotes(ctx, f.bob.ID, "biology")
		require.NoError(t, err)
		require.Len(t, notes, 2)
		assert.Equal(t, shared.ID, notes[0].ID)
		assert.Equal(t, own.ID, notes[1].ID)
	})

	t.Run("falls back to the database", func(t *testing.T) {
		f.indexer.searchErr = errors.New("connection refused")
		notes, err := f.svc.SearchNotes(ctx, f.bob.ID, "BIOLOGY")
		require.NoError(t, err)
		ids := []uuid.UUID{}
		for _, n := range notes {
			ids = append(ids, n.ID)
		}
		assert.ElementsMatch(t, []uuid.UUID{own.ID, shared.ID}, ids)
	})

	t.Run("blank query", func(t *testing.T) {
		notes, err := f.svc.SearchNotes(ctx, f.bob.ID, "  ")
		require.NoError(t, err)
		assert.Empty(t, notes)
	})
}

func TestNoteRateLimits(t *testing.T) {
	db := testutil.NewTestDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	svc := NewService(noteRepo.NewNoteRepository(db), userRepo.NewUserRepository(db), &fakeStorage{}, nil,
		ratelimiter.New(rdb), RateLimits{Note: time.Minute, Comment: time.Minute})
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "Alice", entity.RoleStudent)

	n, err := svc.CreateNote(ctx, alice.ID, dto.CreateNoteRequest{Content: "one"})
	require.NoError(t, err)

	_, err = svc.CreateNote(ctx, alice.ID, dto.CreateNoteRequest{Content: "two"})
	assert.ErrorIs(t, err, apperror.ErrRateLimitExceeded)

	// a rejected comment does not start the cooldown
	_, err = svc.AddComment(ctx, alice.ID, n.ID, dto.CreateCommentRequest{Content: " "})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = svc.AddComment(ctx, alice.ID, n.ID, dto.CreateCommentRequest{Content: "first"})
	require.NoError(t, err)
	_, err = svc.AddComment(ctx, alice.ID, n.ID, dto.CreateCommentRequest{Content: "second"})
	assert.ErrorIs(t, err, apperror.ErrRateLimitExceeded)

	mr.FastForward(2 * time.Minute)
	_, err = svc.CreateNote(ctx, alice.ID, dto.CreateNoteRequest{Content: "two"})
	require.NoError(t, err)
}
