package constants

import "time"

// for api auth
type ContextKey string

const (
	AuthorizationHeaderKey  = "Authorization"
	AuthorizationTypeBearer = "bearer"
	SessionHeaderKey        = "X-Session-ID"
	RequestIDHeaderKey      = "X-Request-ID"

	AuthorizationPayloadKey ContextKey = "authorization_payload"
	SessionIDKey            ContextKey = "session_id"
)

type RequestID string

const (
	RequestIDKey RequestID = "request_id"
)

const (
	// 分頁
	DefaultOrderPageSize = 50
	MaxOrderPageSize     = 500

	// 上傳圖片大小上限
	MaxImageUploadBytes int64 = 5 << 20

	ShutdownTimeout = 30 * time.Second
)
