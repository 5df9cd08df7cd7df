package admin

import (
	"context"
	"testing"

	"anoa.com/classhub/internal/entity"
	noteRepo "anoa.com/classhub/internal/modules/note/repository"
	userRepo "anoa.com/classhub/internal/modules/user/repository"
	"anoa.com/classhub/internal/testutil"
	"anoa.com/classhub/pkg/apperror"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboard(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewAdminService(userRepo.NewUserRepository(db), noteRepo.NewNoteRepository(db), nil)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "Alice", entity.RoleStudent)
	testutil.CreateUser(t, db, "Root", entity.RoleAdmin)
	notes := noteRepo.NewNoteRepository(db)
	require.NoError(t, notes.Create(ctx, &entity.Note{UserID: alice.ID, Title: "a", Content: "a", ShareLink: "dash0001"}, nil, nil))
	require.NoError(t, notes.Create(ctx, &entity.Note{UserID: alice.ID, Title: "b", Content: "b", ShareLink: "dash0002"}, nil, nil))

	res, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalUsers)
	assert.Len(t, res.Users, 2)
	assert.EqualValues(t, 2, res.TotalNotes)
}

func TestDeleteUser(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewAdminService(userRepo.NewUserRepository(db), noteRepo.NewNoteRepository(db), nil)
	ctx := context.Background()

	root := testutil.CreateUser(t, db, "Root", entity.RoleAdmin)
	other := testutil.CreateUser(t, db, "Ops", entity.RoleAdmin)
	teacher := testutil.CreateUser(t, db, "Tina", entity.RoleTeacher)
	student := testutil.CreateUser(t, db, "Sam", entity.RoleStudent)
	room := testutil.CreateClassRoom(t, db, teacher, student)

	require.NoError(t, db.Create(&entity.ClassChatMessage{ClassRoomID: room.ID, UserID: student.ID, Content: "hi"}).Error)
	require.NoError(t, db.Create(&entity.Message{SenderID: student.ID, ReceiverID: teacher.ID, Content: "question"}).Error)

	assert.ErrorIs(t, svc.DeleteUser(ctx, root.ID, other.ID), apperror.ErrAccessDenied)
	assert.ErrorIs(t, svc.DeleteUser(ctx, root.ID, root.ID), apperror.ErrAccessDenied)
	assert.ErrorIs(t, svc.DeleteUser(ctx, student.ID, teacher.ID), apperror.ErrAccessDenied)
	assert.ErrorIs(t, svc.DeleteUser(ctx, root.ID, uuid.New()), apperror.ErrNotFound)

	require.NoError(t, svc.DeleteUser(ctx, root.ID, teacher.ID))

	var rooms, messages, chat, users int64
	require.NoError(t, db.Model(&entity.ClassRoom{}).Count(&rooms).Error)
	require.NoError(t, db.Model(&entity.Message{}).Count(&messages).Error)
	require.NoError(t, db.Model(&entity.ClassChatMessage{}).Count(&chat).Error)
	require.NoError(t, db.Model(&entity.User{}).Count(&users).Error)
	assert.Zero(t, rooms)
	assert.Zero(t, messages)
	assert.Zero(t, chat)
	assert.EqualValues(t, 3, users, "students of a deleted teacher are kept")
}

type fakeRunner struct {
	ran []string
}

func (r *fakeRunner) Names() []string { return []string{"orphan-cleanup"} }

func (r *fakeRunner) RunByName(ctx context.Context, name string) error {
	if name != "orphan-cleanup" {
		return apperror.ErrNotFound
	}
	r.ran = append(r.ran, name)
	return nil
}

func TestRunJob(t *testing.T) {
	db := testutil.NewTestDB(t)
	runner := &fakeRunner{}
	svc := NewAdminService(userRepo.NewUserRepository(db), noteRepo.NewNoteRepository(db), runner)
	ctx := context.Background()

	assert.Equal(t, []string{"orphan-cleanup"}, svc.ListJobs(ctx))

	require.NoError(t, svc.RunJob(ctx, "orphan-cleanup"))
	assert.Equal(t, []string{"orphan-cleanup"}, runner.ran)

	assert.ErrorIs(t, svc.RunJob(ctx, "reindex"), apperror.ErrNotFound)

	noJobs := NewAdminService(userRepo.NewUserRepository(db), noteRepo.NewNoteRepository(db), nil)
	assert.Empty(t, noJobs.ListJobs(ctx))
	assert.ErrorIs(t, noJobs.RunJob(ctx, "orphan-cleanup"), apperror.ErrNotFound)
}
