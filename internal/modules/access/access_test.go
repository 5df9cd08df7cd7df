package access

import (
	"testing"

	"anoa.com/classhub/internal/entity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func newUser(role entity.Role) *entity.User {
	return &entity.User{ID: uuid.New(), Role: role}
}

func TestNotePredicates(t *testing.T) {
	owner := newUser(entity.RoleStudent)
	other := newUser(entity.RoleStudent)
	admin := newUser(entity.RoleAdmin)

	private := &entity.Note{ID: uuid.New(), UserID: owner.ID}
	public := &entity.Note{ID: uuid.New(), UserID: owner.ID, IsPublic: true}

	assert.True(t, CanViewNote(private, owner))
	assert.False(t, CanViewNote(private, other))
	assert.False(t, CanViewNote(private, admin))
	assert.True(t, CanViewNote(public, other))

	assert.False(t, CanComment(private, other))
	assert.True(t, CanComment(public, other))

	assert.True(t, CanEditNote(public, owner))
	assert.False(t, CanEditNote(public, other))
	assert.False(t, CanEditNote(public, admin))

	assert.True(t, CanDeleteNote(private, admin))
	assert.False(t, CanDeleteNote(private, other))

	assert.False(t, CanViewNote(nil, owner))
	assert.False(t, CanViewNote(public, nil))
}

func TestClassroomPredicates(t *testing.T) {
	teacher := newUser(entity.RoleTeacher)
	student := newUser(entity.RoleStudent)
	outsider := newUser(entity.RoleStudent)
	otherTeacher := newUser(entity.RoleTeacher)
	admin := newUser(entity.RoleAdmin)

	room := &entity.ClassRoom{ID: uuid.New(), TeacherID: teacher.ID, Students: []entity.User{*student}}

	tests := []struct {
		name   string
		user   *entity.User
		access bool
		manage bool
	}{
		{"teacher", teacher, true, true},
		{"student", student, true, false},
		{"outsider", outsider, false, false},
		{"teacher of another class", otherTeacher, false, false},
		{"admin", admin, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.access, CanAccessClassroom(room, tt.user))
			assert.Equal(t, tt.manage, CanPostToClassroom(room, tt.user))
			assert.Equal(t, tt.manage, CanManageClassroom(room, tt.user))
		})
	}
}

func TestCanDeleteUser(t *testing.T) {
	admin := newUser(entity.RoleAdmin)
	otherAdmin := newUser(entity.RoleAdmin)
	student := newUser(entity.RoleStudent)

	assert.True(t, CanDeleteUser(admin, student))
	assert.False(t, CanDeleteUser(admin, otherAdmin))
	assert.False(t, CanDeleteUser(admin, admin))
	assert.False(t, CanDeleteUser(student, newUser(entity.RoleStudent)))
}
