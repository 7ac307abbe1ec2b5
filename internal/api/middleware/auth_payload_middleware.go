package middleware

import (
	"net/http"
	"strings"

	"github.com/RoyceAzure/lab/storefront/internal/constants"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/util"
)

type TokenVerifier interface {
	VerifyToken(token string) (*model.User, error)
}

// 驗證token 但若token有任何錯誤都不會中斷，這裡僅做解析, 解析失敗則不會設置context
func AuthPayloadMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := checkAuthPayload(verifier, r)
			if ok {
				next.ServeHTTP(w, r.WithContext(util.WithUser(r.Context(), user)))
			} else {
				next.ServeHTTP(w, r)
			}
		})
	}
}

func checkAuthPayload(verifier TokenVerifier, r *http.Request) (*model.User, bool) {
	authorizationHeader := r.Header.Get(constants.AuthorizationHeaderKey)
	if len(authorizationHeader) == 0 {
		return nil, false
	}

	fields := strings.Fields(authorizationHeader)
	if len(fields) < 2 {
		return nil, false
	}

	if strings.ToLower(fields[0]) != constants.AuthorizationTypeBearer {
		return nil, false
	}

	user, err := verifier.VerifyToken(fields[1])
	if err != nil {
		return nil, false
	}
	return user, true
}
