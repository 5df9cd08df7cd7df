package dto

import (
	"anoa.com/classhub/internal/entity"
	"github.com/google/uuid"
)

type SignupRequest struct {
	Email           string `json:"email" binding:"required,email,max=120"`
	FirstName       string `json:"first_name" binding:"required,max=150"`
	Password        string `json:"password" binding:"required,min=6"`
	PasswordConfirm string `json:"password_confirm" binding:"required,eqfield=Password"`
	Role            string `json:"role" binding:"required,oneof=student teacher"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UserResponse struct {
	ID        uuid.UUID   `json:"id"`
	Email     string      `json:"email"`
	FirstName string      `json:"first_name"`
	Role      entity.Role `json:"role"`
	IsAdmin   bool        `json:"is_admin"`
}

type AuthResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int64        `json:"expires_in"`
	User        UserResponse `json:"user"`
}

type SearchUsersQuery struct {
	Q string `form:"q"`
}

func ToUserResponse(u *entity.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		Role:      u.Role,
		IsAdmin:   u.Role.IsAdmin(),
	}
}
