package models

// Envelope codes returned in the JSON response body. The HTTP status stays 200
// for application-level failures; clients switch on Code.
const (
	CodeOK             = 200
	CodeBadRequest     = 400
	CodeUnauthorized   = 403
	CodeNotFound       = 404
	CodeInternalError  = 500
	CodeConfigRequired = 1001
)

// APIResponse is the uniform JSON envelope.
type APIResponse[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    *T     `json:"data"`
}

func OK[T any](data T) APIResponse[T] {
	return APIResponse[T]{
		Code:    CodeOK,
		Message: "Rock and stone!",
		Data:    &data,
	}
}

func Unauthorized[T any]() APIResponse[T] {
	return APIResponse[T]{
		Code:    CodeUnauthorized,
		Message: "Sorry, but this was meant to be a private game: invalid access token",
	}
}

func BadRequest[T any](message string) APIResponse[T] {
	return APIResponse[T]{
		Code:    CodeBadRequest,
		Message: message,
	}
}

func NotFound[T any]() APIResponse[T] {
	return APIResponse[T]{
		Code:    CodeNotFound,
		Message: "Sorry, but this was meant to be a private game: the requested resource was not found",
	}
}

func InternalError[T any]() APIResponse[T] {
	return APIResponse[T]{
		Code:    CodeInternalError,
		Message: "Multiplayer Session Ended: an internal server error has occured",
	}
}

func ConfigRequired[T any](forWhat string) APIResponse[T] {
	return APIResponse[T]{
		Code:    CodeConfigRequired,
		Message: "Multiplayer Session Ended: the server requires configuration for " + forWhat,
	}
}
