package errs

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Error codes for the client sync core. Grouped by concern so that
// callers can match on families with Is.
const (
	CodeConnection   = 1100 // transport handshake / network failure
	CodeSubscription = 1101 // subscribe attempted while disconnected
	CodeRequest      = 1200 // REST call failed
	CodeParse        = 1300 // malformed inbound event payload
)

var (
	ErrConnection   = NewCodeError(CodeConnection, "connection failed")
	ErrSubscription = NewCodeError(CodeSubscription, "subscribe while disconnected")
	ErrRequest      = NewCodeError(CodeRequest, "request failed")
	ErrParse        = NewCodeError(CodeParse, "parse event failed")
)

type CodeError struct {
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
	Detail string `json:"detail,omitempty"`
}

func NewCodeError(code int, msg string) *CodeError {
	return &CodeError{Code: code, Msg: msg}
}

func (e *CodeError) clone() *CodeError {
	return &CodeError{Code: e.Code, Msg: e.Msg, Detail: e.Detail}
}

// WithDetail returns a copy carrying extra detail text.
func (e *CodeError) WithDetail(detail string) *CodeError {
	out := e.clone()
	if out.Detail == "" {
		out.Detail = detail
	} else {
		out.Detail += ", " + detail
	}
	return out
}

// Wrap attaches a stack to the coded error.
func (e *CodeError) Wrap() error {
	return errors.WithStack(e.clone())
}

// WrapMsg attaches formatted detail plus a stack.
func (e *CodeError) WrapMsg(format string, args ...any) error {
	return errors.WithStack(e.WithDetail(fmt.Sprintf(format, args...)))
}

// WrapErr folds an underlying error into the detail and attaches a stack.
func (e *CodeError) WrapErr(err error) error {
	if err == nil {
		return nil
	}
	return errors.WithStack(e.WithDetail(err.Error()))
}

func (e *CodeError) Error() string {
	v := make([]string, 0, 3)
	v = append(v, strconv.Itoa(e.Code), e.Msg)
	if e.Detail != "" {
		v = append(v, e.Detail)
	}
	return strings.Join(v, " ")
}

// Is matches any error in the chain carrying the same code, so that
// errors.Is(err, ErrRequest) works regardless of added detail.
func (e *CodeError) Is(target error) bool {
	var ce *CodeError
	if !errors.As(target, &ce) {
		return false
	}
	return e.Code == ce.Code
}

// CodeOf extracts the code from an error chain, 0 if none.
func CodeOf(err error) int {
	var ce *CodeError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return 0
}
