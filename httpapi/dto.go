package httpapi

import "time"

type registerRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,notblank,min=8,max=256"`
	DisplayName string `json:"display_name" binding:"max=128"`
	AvatarRef   string `json:"avatar_ref" binding:"omitempty,url"`
}

type registerResponse struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type federatedLoginRequest struct {
	Credential string `json:"credential" binding:"required"`
}

// tokenResponse is shared by login, refresh, and federated login. The
// refresh token is duplicated into the body for clients that do not
// keep cookies.
type tokenResponse struct {
	UserID       string `json:"user_id"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type profileResponse struct {
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name,omitempty"`
	AvatarRef   string    `json:"avatar_ref,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}
