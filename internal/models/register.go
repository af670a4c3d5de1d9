package models

// RegisterRequest represents the JSON body for user registration
// swagger:model RegisterRequest
type RegisterRequest struct {
	Username string `json:"username" validate:"required,notblank,max=64" example:"Jane"`
	Email    string `json:"email" validate:"required,email,max=254" example:"jane@example.com"`
	// At most 72 bytes once UTF-8 encoded
	Password string `json:"password" validate:"required,min=6,maxbytes=72" example:"secret1"`
}

// RegisterResponse represents a successful registration response
// swagger:model RegisterResponse
type RegisterResponse struct {
	Message string `json:"message" example:"User created successfully"`
}
