package dtos

// Response is the uniform success envelope every HTTP handler answers with:
// a human-readable message, the typed payload, and the request's
// correlation id. Errors travel in the same shape with Data nil.
type Response[T any] struct {
	Message   string         `json:"message"`
	Data      T              `json:"data"`
	RequestID string         `json:"request_id,omitempty"`
	Errors    *ErrorResponse `json:"errors,omitempty"`
}

// ErrorResponse mirrors the fields of an AppError for the wire.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}
