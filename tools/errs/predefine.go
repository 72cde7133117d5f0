package errs

import "net/http"

// Business codes. Grouped the way the REST layer maps them; the gateway only
// ever sees AuthCode (handshake reject).
const (
	ArgsCode         = 1001 // malformed input
	NotFoundCode     = 1002 // record does not resolve
	NoPermissionCode = 1003 // authenticated but not authorized
	AuthCode         = 1101 // missing/invalid credential
	InternalCode     = 1500 // everything else
)

var (
	ErrArgs         = NewCodeError(ArgsCode, "invalid argument")
	ErrNotFound     = NewCodeError(NotFoundCode, "record not found")
	ErrNoPermission = NewCodeError(NoPermissionCode, "no permission")
	ErrTokenInvalid = NewCodeError(AuthCode, "token invalid or expired")
	ErrInternal     = NewCodeError(InternalCode, "internal error")
)

// HTTPStatus maps a business code to the status the REST surface answers
// with. Unknown codes collapse to 500 so storage internals never leak.
func HTTPStatus(code int) int {
	switch code {
	case ArgsCode:
		return http.StatusBadRequest
	case NotFoundCode:
		return http.StatusNotFound
	case NoPermissionCode:
		return http.StatusForbidden
	case AuthCode:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
