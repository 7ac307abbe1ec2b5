package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/api/dto"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/api"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/RoyceAzure/lab/storefront/internal/util"
)

type AuthHandler struct {
	authService service.IAuthService
}

func NewAuthHandler(authService service.IAuthService) *AuthHandler {
	if authService == nil {
		panic("authService cannot be nil")
	}
	return &AuthHandler{
		authService: authService,
	}
}

// @Summary login
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.LoginRequest true "email and password"
// @Success 200 {object} api.Response{data=dto.LoginResponse} "success"
// @Failure 400 {object} api.ResponseError{data=map[string]string} "BadRequestCode"
// @Failure 401 {object} api.ResponseError "UnauthenticatedCode"
// @Router /auth/login [post]
func (a *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.ErrorJSON(w, apperr.BadRequestCode, nil, "invalid request body")
		return
	}

	res, err := a.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		api.WriteError(w, err)
		return
	}

	api.SuccessJSON(w, dto.LoginResponse{
		AccessToken: dto.TokenInfo{
			Value:     res.AccessToken,
			ExpiresAt: res.ExpiresAt,
			ExpiresIn: int(time.Until(res.ExpiresAt).Seconds()),
		},
		User: res.User,
	})
}

func (a *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := util.GetUserFromContext(r.Context())
	if user == nil {
		api.ErrorJSON(w, apperr.UnauthenticatedCode, nil, "")
		return
	}
	api.SuccessJSON(w, user)
}
