package dto

import "github.com/martijn/parkapi/internal/core/domain"

// CreateUserRequest represents the user creation request
type CreateUserRequest struct {
	Username string `json:"username" binding:"required,email,max=100" example:"ana@email.com"`
	Password string `json:"password" binding:"required,len=6" example:"123456"`
}

// UpdatePasswordRequest represents the password change request
type UpdatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required,len=6" example:"123456"`
	NewPassword     string `json:"newPassword" binding:"required,len=6" example:"654321"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,len=6" example:"654321"`
}

// UserResponse is the public view of a user. The password is never exposed.
type UserResponse struct {
	ID       int64  `json:"id" example:"1"`
	Username string `json:"username" example:"ana@email.com"`
	Role     string `json:"role" example:"CUSTOMER"`
}

func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:       u.ID,
		Username: u.Username,
		Role:     u.Role.Name(),
	}
}

func NewUserListResponse(users []*domain.User) []UserResponse {
	resp := make([]UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, NewUserResponse(u))
	}
	return resp
}
