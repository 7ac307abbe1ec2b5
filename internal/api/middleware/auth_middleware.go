package middleware

import (
	"net/http"

	"github.com/RoyceAzure/lab/storefront/internal/pkg/api"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/RoyceAzure/lab/storefront/internal/util"
)

// 驗證ctx是否有使用者
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if util.GetUserFromContext(r.Context()) == nil {
			api.ErrorJSON(w, apperr.UnauthenticatedCode, nil, "")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AdminMiddleware 需放在 AuthPayloadMiddleware 之後
func AdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := util.GetUserFromContext(r.Context())
		if user == nil {
			api.ErrorJSON(w, apperr.UnauthenticatedCode, nil, "")
			return
		}
		if !user.IsAdmin {
			api.ErrorJSON(w, apperr.UnauthorizedCode, nil, "")
			return
		}
		next.ServeHTTP(w, r)
	})
}
