package errs

import (
	"errors"
	"strconv"
	"strings"
)

func NewCodeError(code int, msg string) CodeError {
	return CodeError{
		Code: code,
		Msg:  msg,
	}
}

// CodeError is the typed error carried across the store/service boundary.
// Code is a business code (see predefine.go), not an HTTP status; the REST
// layer owns the mapping.
type CodeError struct {
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
	Detail string `json:"detail,omitempty"`
}

func (e CodeError) Error() string {
	v := make([]string, 0, 3)
	v = append(v, strconv.Itoa(e.Code), e.Msg)
	if e.Detail != "" {
		v = append(v, e.Detail)
	}
	return strings.Join(v, " ")
}

// WithDetail returns a copy carrying extra context, keeping the code so
// errors.Is/IsCode still match the sentinel.
func (e CodeError) WithDetail(detail string) CodeError {
	d := detail
	if e.Detail != "" {
		d = e.Detail + ", " + detail
	}
	return CodeError{Code: e.Code, Msg: e.Msg, Detail: d}
}

// WrapMsg appends a formatted kv detail: "msg k1=v1 k2=v2".
func (e CodeError) WrapMsg(msg string, kv ...any) error {
	return e.WithDetail(toString(msg, kv))
}

func (e CodeError) Is(target error) bool {
	var ce CodeError
	if !errors.As(target, &ce) {
		return false
	}
	return e.Code == ce.Code
}

// IsCode reports whether err carries the same code as the given sentinel.
func IsCode(err error, sentinel CodeError) bool {
	var ce CodeError
	if !errors.As(err, &ce) {
		return false
	}
	return ce.Code == sentinel.Code
}

func toString(msg string, kv []any) string {
	var sb strings.Builder
	sb.WriteString(msg)
	for i := 0; i < len(kv); i += 2 {
		sb.WriteString(" ")
		sb.WriteString(toStr(kv[i]))
		sb.WriteString("=")
		if i+1 < len(kv) {
			sb.WriteString(toStr(kv[i+1]))
		}
	}
	return sb.String()
}

func toStr(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case error:
		return s.Error()
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	default:
		return "?"
	}
}
