package models

// Error describes a single API error
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the standard error envelope
type ErrorResponse struct {
	Success bool  `json:"success"`
	Error   Error `json:"error"`
}

// NewErrorResponse builds the standard error envelope
func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{Success: false, Error: Error{Code: code, Message: message}}
}
