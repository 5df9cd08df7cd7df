// Package access holds the authorization predicates shared by every module. The predicates
// never touch storage; callers load the entities and turn a false result into
// apperror.ErrAccessDenied.
package access

import (
	"anoa.com/classhub/internal/entity"
)

// CanViewNote: owner, or anyone when the note is public.
func CanViewNote(note *entity.Note, user *entity.User) bool {
	if note == nil || user == nil {
		return false
	}
	return note.IsPublic || note.UserID == user.ID
}

func CanComment(note *entity.Note, user *entity.User) bool {
	return CanViewNote(note, user)
}

// CanEditNote is owner only. Admins may delete but not edit.
func CanEditNote(note *entity.Note, user *entity.User) bool {
	if note == nil || user == nil {
		return false
	}
	return note.UserID == user.ID
}

func CanDeleteNote(note *entity.Note, user *entity.User) bool {
	if note == nil || user == nil {
		return false
	}
	return note.UserID == user.ID || user.Role.IsAdmin()
}

// CanAccessClassroom expects room.Students to be loaded.
func CanAccessClassroom(room *entity.ClassRoom, user *entity.User) bool {
	if room == nil || user == nil {
		return false
	}
	return isTeacherOrAdmin(room, user) || room.HasStudent(user.ID)
}

func CanPostToClassroom(room *entity.ClassRoom, user *entity.User) bool {
	return isTeacherOrAdmin(room, user)
}

// CanManageClassroom covers poll creation, student removal and deletion.
func CanManageClassroom(room *entity.ClassRoom, user *entity.User) bool {
	return isTeacherOrAdmin(room, user)
}

// CanDeleteUser: only admins, and never another admin or themselves.
func CanDeleteUser(actor, target *entity.User) bool {
	if actor == nil || target == nil {
		return false
	}
	return actor.Role.IsAdmin() && !target.Role.IsAdmin() && actor.ID != target.ID
}

func isTeacherOrAdmin(room *entity.ClassRoom, user *entity.User) bool {
	if room == nil || user == nil {
		return false
	}
	return room.TeacherID == user.ID || user.Role.IsAdmin()
}

