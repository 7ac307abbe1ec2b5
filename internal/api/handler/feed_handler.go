package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/api/dto"
	evt_model "github.com/RoyceAzure/lab/storefront/internal/domain/model/event"
	"github.com/RoyceAzure/lab/storefront/internal/feed"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/api"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/RoyceAzure/lab/storefront/internal/util"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	feedWriteWait  = 10 * time.Second
	feedPongWait   = 60 * time.Second
	feedPingPeriod = feedPongWait * 9 / 10
)

var knownTables = map[evt_model.Table]struct{}{
	evt_model.TableProducts: {},
	evt_model.TableOrders:   {},
	evt_model.TableSettings: {},
}

// FeedHandler 將 hub 的訊號推給瀏覽器
// 訊號只代表「請重新讀取」，非 admin 收不到 key
type FeedHandler struct {
	hub      *feed.Hub
	upgrader websocket.Upgrader
}

func NewFeedHandler(hub *feed.Hub) *FeedHandler {
	if hub == nil {
		panic("feed hub cannot be nil")
	}
	return &FeedHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// parseTables tables=orders,products；空白代表全部
func parseTables(raw string) ([]evt_model.Table, bool) {
	if strings.TrimSpace(raw) == "" {
		return nil, true
	}
	var tables []evt_model.Table
	for _, part := range strings.Split(raw, ",") {
		t := evt_model.Table(strings.ToLower(strings.TrimSpace(part)))
		if _, ok := knownTables[t]; !ok {
			return nil, false
		}
		tables = append(tables, t)
	}
	return tables, true
}

func (h *FeedHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	tables, ok := parseTables(r.URL.Query().Get("tables"))
	if !ok {
		api.WriteError(w, apperr.Validation(map[string]string{"tables": "unknown table"}))
		return
	}
	user := util.GetUserFromContext(r.Context())
	isAdmin := user != nil && user.IsAdmin

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade 已回應錯誤
		log.Warn().Err(err).Msg("feed websocket upgrade failed")
		return
	}
	defer conn.Close()

	sub := h.hub.Subscribe(tables...)
	defer h.hub.Unsubscribe(sub)

	// 讀取端只處理 pong 與關閉
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(feedPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(feedPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(feedPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case e, ok := <-sub.C():
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(feedWriteWait))
				return
			}
			msg := dto.FeedMessage{Table: string(e.Table), Op: string(e.Op), At: e.CreatedAt}
			if isAdmin {
				msg.Key = e.Key
			}
			_ = conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
