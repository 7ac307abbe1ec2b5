package api

import (
	"encoding/json"
	"net/http"

	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
)

type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type ResponseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func SuccessJSON(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, Response{Code: 0, Message: "success", Data: data})
}

func CreatedJSON(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusCreated, Response{Code: 0, Message: "success", Data: data})
}

// ErrorJSON data 只放可公開的細節，internal error 不回傳原因
func ErrorJSON(w http.ResponseWriter, code apperr.ErrorCode, data any, msg string) {
	if msg == "" {
		msg = apperr.ErrStrMap[code]
	}
	writeJSON(w, int(code), ResponseError{Code: int(code), Message: msg, Data: data})
}

// WriteError 將 service 回傳的錯誤轉成 response
func WriteError(w http.ResponseWriter, err error) {
	appErr := apperr.From(err)
	if appErr.Code == apperr.InternalErrorCode {
		ErrorJSON(w, appErr.Code, nil, apperr.ErrStrMap[apperr.InternalErrorCode])
		return
	}
	var data any
	if len(appErr.Fields) > 0 {
		data = appErr.Fields
	}
	ErrorJSON(w, appErr.Code, data, appErr.Message)
}
