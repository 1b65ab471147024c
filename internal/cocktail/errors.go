package cocktail

import (
	"context"
	"errors"
)

var (
	ErrRemoteUnavailable = errors.New("remote unavailable")
	ErrLocalStorage      = errors.New("local storage fault")
	ErrMalformedRecord   = errors.New("malformed record")
)

type ErrorCode string

const (
	CodeNone              ErrorCode = ""
	CodeRemoteUnavailable ErrorCode = "remote_unavailable"
	CodeLocalStorage      ErrorCode = "local_storage"
	CodeMalformedRecord   ErrorCode = "malformed_record"
	CodeCanceled          ErrorCode = "canceled"
	CodeUnknown           ErrorCode = "unknown"

	// Per-action codes shown by the screen models.
	CodeTodayFailed     ErrorCode = "today_failed"
	CodeFavoritesFailed ErrorCode = "favorites_failed"
	CodeSelectFailed    ErrorCode = "select_failed"
	CodeSearchFailed    ErrorCode = "search_failed"
	CodeFavoriteFailed  ErrorCode = "favorite_failed"
)

// Code maps err onto the taxonomy surfaced to callers.
func Code(err error) ErrorCode {
	switch {
	case err == nil:
		return CodeNone
	case errors.Is(err, ErrMalformedRecord):
		return CodeMalformedRecord
	case errors.Is(err, ErrLocalStorage):
		return CodeLocalStorage
	case errors.Is(err, ErrRemoteUnavailable):
		return CodeRemoteUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return CodeCanceled
	default:
		return CodeUnknown
	}
}
