package internal

import (
	"encoding/json"
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeMissingField     ErrorCode = "MISSING_FIELD"
	ErrCodeInvalidID        ErrorCode = "INVALID_ID"

	ErrCodeChannelNotFound     ErrorCode = "CHANNEL_NOT_FOUND"
	ErrCodeNewsChannelMissing  ErrorCode = "NEWS_CHANNEL_MISSING"
	ErrCodePostNotFound        ErrorCode = "POST_NOT_FOUND"
	ErrCodeCommentNotFound     ErrorCode = "COMMENT_NOT_FOUND"
	ErrCodeGroupNotFound       ErrorCode = "GROUP_NOT_FOUND"
	ErrCodeTagNotFound         ErrorCode = "TAG_NOT_FOUND"
	ErrCodeEventNotFound       ErrorCode = "EVENT_NOT_FOUND"
	ErrCodeUserNotFound        ErrorCode = "USER_NOT_FOUND"
	ErrCodeApplicantNotFound   ErrorCode = "APPLICANT_NOT_FOUND"
	ErrCodeSlugTaken           ErrorCode = "SLUG_TAKEN"
	ErrCodeRestrictedChannel   ErrorCode = "RESTRICTED_CHANNEL"
	ErrCodeNotInPostingGroup   ErrorCode = "NOT_IN_POSTING_GROUP"
	ErrCodeNotChannelMember    ErrorCode = "NOT_CHANNEL_MEMBER"
	ErrCodeWrongRole           ErrorCode = "WRONG_ROLE"
	ErrCodeSelfActionForbidden ErrorCode = "SELF_ACTION_FORBIDDEN"
	ErrCodeAlreadyModerator    ErrorCode = "ALREADY_MODERATOR"
	ErrCodeTagChannelMismatch  ErrorCode = "TAG_CHANNEL_MISMATCH"
	ErrCodePasskeyRequired     ErrorCode = "PASSKEY_REQUIRED"
	ErrCodeInvalidPasskey      ErrorCode = "INVALID_PASSKEY"
	ErrCodeProtectedChannel    ErrorCode = "PROTECTED_CHANNEL"

	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"
	ErrCodeEmailTaken         ErrorCode = "EMAIL_TAKEN"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// Deny reasons are user-visible: the apply/approve/reject and post-submission
// UIs render these messages directly, so the wording is part of the contract.
var (
	ErrUnauthorized      = NewUnauthorizedError("authentication required", "UNAUTHENTICATED")
	ErrChannelNotFound   = NewNotFoundError("channel not found", ErrCodeChannelNotFound)
	ErrNewsChannelGone   = NewNotFoundError("news channel not found; it must exist in the database to post without specifying a channel", ErrCodeNewsChannelMissing)
	ErrRestrictedChannel = NewForbiddenError("only administrators and moderators can post to this channel", ErrCodeRestrictedChannel)
	ErrNotInPostingGroup = NewForbiddenError("you are not in a group allowed to post in this channel", ErrCodeNotInPostingGroup)
	ErrMustJoinChannel   = NewForbiddenError("you must join this channel before posting", ErrCodeNotChannelMember)
	ErrWrongRole         = NewForbiddenError("your role does not permit this action", ErrCodeWrongRole)
	ErrSelfAction        = NewConflictError("you cannot approve or reject your own application", ErrCodeSelfActionForbidden)
	ErrAlreadyModerator  = NewConflictError("already a moderator of this channel", ErrCodeAlreadyModerator)
	ErrTagNotFound       = NewNotFoundError("tag not found", ErrCodeTagNotFound)
	ErrTagWrongChannel   = NewValidationError("selected tag is not valid for this channel", ErrCodeTagChannelMismatch)
	ErrPasskeyRequired   = NewValidationError("passkey required for private channel", ErrCodePasskeyRequired)
	ErrInvalidPasskey    = NewForbiddenError("invalid passkey", ErrCodeInvalidPasskey)

	ErrInvalidCredentials = NewUnauthorizedError("invalid email or password", ErrCodeInvalidCredentials)
	ErrInvalidToken       = NewUnauthorizedError("invalid token", ErrCodeInvalidToken)
	ErrTokenExpired       = NewUnauthorizedError("token has expired", ErrCodeTokenExpired)
)

func IsAppError(err error) (*AppError, bool) {
	if appErr, ok := err.(*AppError); ok {
		return appErr, true
	}
	return nil, false
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
