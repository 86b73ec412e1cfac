package dto

// LoginRequest is the JSON body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest is the JSON body for POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	Name     string `json:"name" binding:"max=120"`
	Password string `json:"password" binding:"required,min=8"`
}

// UserResponse is returned when user info is needed (e.g. after login).
type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// ProfileResponse is the settings view of a profile.
type ProfileResponse struct {
	LineUserID string `json:"line_user_id"`
}

// UpsertProfileRequest is the JSON body for PUT /profile.
type UpsertProfileRequest struct {
	LineUserID string `json:"line_user_id" binding:"max=64"`
}
