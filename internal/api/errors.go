package api

import (
	"fmt"
	"net/http"
	"strings"
)

// ApiError is written as the JSON body of every failed request.
type ApiError struct {
	StatusCode int    `json:"-"`
	Title      string `json:"error"`
	Message    string `json:"message,omitempty"`
	SetupUrl   string `json:"setupUrl,omitempty"`
	Err        error  `json:"-"`
}

func (e *ApiError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Title, e.Err.Error())
	}

	return e.Title
}

func (e *ApiError) Unwrap() error {
	return e.Err
}

func lower(s string) string {
	return strings.ToLower(s)
}

func NewBadRequestError(msg string) *ApiError {
	return &ApiError{
		StatusCode: http.StatusBadRequest,
		Title:      lower(http.StatusText(http.StatusBadRequest)),
		Message:    msg,
	}
}

func NewInternalServerError(err error) *ApiError {
	return &ApiError{
		StatusCode: http.StatusInternalServerError,
		Title:      lower(http.StatusText(http.StatusInternalServerError)),
		Err:        err,
	}
}

func NewServiceUnavailableError(err error) *ApiError {
	return &ApiError{
		StatusCode: http.StatusServiceUnavailable,
		Title:      lower(http.StatusText(http.StatusServiceUnavailable)),
		Err:        err,
	}
}

// NewVideoUnavailableError tells the caller to fall back to chat and
// presence only.
func NewVideoUnavailableError(setupUrl string) *ApiError {
	return &ApiError{
		StatusCode: http.StatusServiceUnavailable,
		Title:      "Video calling unavailable",
		Message:    "DAILY_API_KEY environment variable not set. Chat and participant features are still available.",
		SetupUrl:   setupUrl,
	}
}

func NewVideoRoomError(err error) *ApiError {
	return &ApiError{
		StatusCode: http.StatusInternalServerError,
		Title:      "Failed to create video room",
		Message:    err.Error(),
		Err:        err,
	}
}
