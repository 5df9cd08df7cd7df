package dto

import (
	"time"

	"anoa.com/classhub/internal/entity"
	"github.com/google/uuid"
)

const TimestampLayout = "2006-01-02 15:04:05"

type CreateClassroomRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

type JoinClassroomRequest struct {
	Code string `json:"code" binding:"required,max=8"`
}

type CreatePostRequest struct {
	Title   string `json:"title" binding:"max=200"`
	Content string `json:"content" binding:"required"`
}

type MemberResponse struct {
	ID        uuid.UUID   `json:"id"`
	FirstName string      `json:"first_name"`
	Email     string      `json:"email"`
	Role      entity.Role `json:"role"`
}

type ClassroomResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code,omitempty"`
	TeacherID uuid.UUID `json:"teacher_id"`
	Teacher   string    `json:"teacher"`
	CreatedAt string    `json:"created_at"`
}

type ClassroomDetailResponse struct {
	ClassroomResponse
	Students  []MemberResponse `json:"students"`
	CanManage bool             `json:"can_manage"`
	Posts     []PostResponse   `json:"posts"`
}

type MyClassroomsResponse struct {
	Joined   []ClassroomResponse `json:"joined"`
	Teaching []ClassroomResponse `json:"teaching"`
}

type PostResponse struct {
	ID          uuid.UUID `json:"id"`
	ClassRoomID uuid.UUID `json:"class_room_id"`
	UserID      uuid.UUID `json:"user_id"`
	Author      string    `json:"author"`
	Title       *string   `json:"title,omitempty"`
	Content     string    `json:"content"`
	Timestamp   string    `json:"timestamp"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// DisplayName falls back to the email when the first name is blank.
func DisplayName(u *entity.User) string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.Email
}

// ToClassroomResponse hides the join code from viewers who cannot manage the room.
func ToClassroomResponse(c *entity.ClassRoom, showCode bool) ClassroomResponse {
	resp := ClassroomResponse{
		ID:        c.ID,
		Name:      c.Name,
		TeacherID: c.TeacherID,
		Teacher:   DisplayName(&c.Teacher),
		CreatedAt: formatTime(c.CreatedAt),
	}
	if showCode {
		resp.Code = c.Code
	}
	return resp
}

func ToPostResponse(p *entity.ClassPost) PostResponse {
	return PostResponse{
		ID:          p.ID,
		ClassRoomID: p.ClassRoomID,
		UserID:      p.UserID,
		Author:      DisplayName(&p.User),
		Title:       p.Title,
		Content:     p.Content,
		Timestamp:   formatTime(p.CreatedAt),
	}
}

func ToPostResponses(posts []entity.ClassPost) []PostResponse {
	result := make([]PostResponse, 0, len(posts))
	for i := range posts {
		result = append(result, ToPostResponse(&posts[i]))
	}
	return result
}
