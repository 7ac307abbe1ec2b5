package middleware

import (
	"net/http"

	"github.com/RoyceAzure/lab/storefront/internal/constants"
	"github.com/RoyceAzure/lab/storefront/internal/util"
	"github.com/google/uuid"
)

// SessionMiddleware 購物車 session
// header 沒有或格式不對時發一個新的，並放回 response header 讓 client 保存
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.Header.Get(constants.SessionHeaderKey)
		if _, err := uuid.Parse(sessionID); err != nil {
			sessionID = uuid.NewString()
		}
		w.Header().Set(constants.SessionHeaderKey, sessionID)
		next.ServeHTTP(w, r.WithContext(util.WithSessionID(r.Context(), sessionID)))
	})
}
