package errx

import (
	"errors"
	"fmt"

	"phishguard/pkg/domain"
)

type Code string

type Error struct {
	Code Code
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func New(code Code, msg string) *Error { return &Error{Code: code, Msg: msg} }

func Wrap(code Code, err error, msg string) *Error { return &Error{Code: code, Msg: msg, Err: err} }

func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

const (
	CodeInvalidRequest     Code = "INVALID_REQUEST"
	CodeNoActiveTab        Code = "NO_ACTIVE_TAB"
	CodeTabNotFound        Code = "TAB_NOT_FOUND"
	CodeDetectorError      Code = "DETECTOR_ERROR"
	CodeInvalidDomain      Code = "INVALID_DOMAIN"
	CodeAlreadyBlacklisted Code = "ALREADY_BLACKLISTED"
	CodeNotBlacklisted     Code = "NOT_BLACKLISTED"
	CodeIncompletePayload  Code = "INCOMPLETE_PAYLOAD"
	CodeInvalidTheme       Code = "INVALID_THEME"
	CodeNotFound           Code = "NOT_FOUND"
	CodeStorage            Code = "STORAGE_ERROR"
	CodeUnknown            Code = "UNKNOWN_ERROR"
)

// 领域错误到错误码的映射
var codeMappings = []struct {
	err  error
	code Code
}{
	{domain.ErrNoActiveTab, CodeNoActiveTab},
	{domain.ErrTabNotFound, CodeTabNotFound},
	{domain.ErrDetectorUnreachable, CodeDetectorError},
	{domain.ErrDetectorStatus, CodeDetectorError},
	{domain.ErrDetectorReported, CodeDetectorError},
	{domain.ErrMalformedResponse, CodeDetectorError},
	{domain.ErrInvalidDomain, CodeInvalidDomain},
	{domain.ErrAlreadyBlacklisted, CodeAlreadyBlacklisted},
	{domain.ErrNotBlacklisted, CodeNotBlacklisted},
	{domain.ErrIncompleteIntercept, CodeIncompletePayload},
	{domain.ErrInvalidTheme, CodeInvalidTheme},
	{domain.ErrRecordNotFound, CodeNotFound},
	{domain.ErrDatabaseNotInitialized, CodeStorage},
}

// CodeOf 返回错误对应的错误码，已编码的错误优先
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	for _, m := range codeMappings {
		if errors.Is(err, m.err) {
			return m.code
		}
	}
	return CodeUnknown
}
