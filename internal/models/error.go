package models

// ErrorResponse is the body of every failed request.
// swagger:model ErrorResponse
type ErrorResponse struct {
	Message string `json:"message" example:"invalid credentials"`

	// Per-field validation messages, only set on invalid registration data
	Errors map[string]string `json:"errors,omitempty"`
}

// MeResponse holds the identity carried by a bearer token.
// swagger:model MeResponse
type MeResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// HealthResponse reports store connectivity.
// swagger:model HealthResponse
type HealthResponse struct {
	Connected bool `json:"connected"`
}
