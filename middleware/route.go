package middleware

import (
	"github.com/gin-gonic/gin"

	midsec "EduChat/middleware/security"
)

type RouteOpt struct {
	IsAuth bool
}

var authMW gin.HandlerFunc

// Config wires the auth middleware once at boot, before any route
// registration.
func Config(resolver midsec.PrincipalResolver) {
	authMW = midsec.Middleware(resolver)
}

func handlers(h gin.HandlerFunc, opt RouteOpt) []gin.HandlerFunc {
	if opt.IsAuth {
		return []gin.HandlerFunc{authMW, h}
	}
	return []gin.HandlerFunc{h}
}

func GET(r gin.IRoutes, path string, h gin.HandlerFunc, opt RouteOpt) {
	r.GET(path, handlers(h, opt)...)
}

func POST(r gin.IRoutes, path string, h gin.HandlerFunc, opt RouteOpt) {
	r.POST(path, handlers(h, opt)...)
}

func PATCH(r gin.IRoutes, path string, h gin.HandlerFunc, opt RouteOpt) {
	r.PATCH(path, handlers(h, opt)...)
}

func DELETE(r gin.IRoutes, path string, h gin.HandlerFunc, opt RouteOpt) {
	r.DELETE(path, handlers(h, opt)...)
}
