package feed

import (
	"context"
	"sync"

	evt_model "github.com/RoyceAzure/lab/storefront/internal/domain/model/event"
	"github.com/rs/zerolog/log"
)

const defaultBufferSize = 16

// Publisher 任何寫入成功後發出「請重新讀取」訊號
type Publisher interface {
	Publish(ctx context.Context, e *evt_model.ChangeEvent) error
}

type Subscription struct {
	c      chan *evt_model.ChangeEvent
	tables map[evt_model.Table]struct{}
	once   sync.Once
}

func (s *Subscription) C() <-chan *evt_model.ChangeEvent {
	return s.c
}

func (s *Subscription) wants(t evt_model.Table) bool {
	if len(s.tables) == 0 {
		return true
	}
	_, ok := s.tables[t]
	return ok
}

// Hub 行程內的 fan-out
// 訂閱者太慢時直接丟掉訊號，下一個訊號會觸發同樣的重新讀取
type Hub struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	closed bool
}

func NewHub() *Hub {
	return &Hub{subs: make(map[*Subscription]struct{})}
}

var _ Publisher = (*Hub)(nil)

// Subscribe tables 為空代表全部
func (h *Hub) Subscribe(tables ...evt_model.Table) *Subscription {
	sub := &Subscription{
		c:      make(chan *evt_model.ChangeEvent, defaultBufferSize),
		tables: make(map[evt_model.Table]struct{}, len(tables)),
	}
	for _, t := range tables {
		sub.tables[t] = struct{}{}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(sub.c)
		return sub
	}
	h.subs[sub] = struct{}{}
	return sub
}

func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub]; !ok {
		return
	}
	delete(h.subs, sub)
	sub.once.Do(func() { close(sub.c) })
}

func (h *Hub) Publish(ctx context.Context, e *evt_model.ChangeEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return nil
	}
	for sub := range h.subs {
		if !sub.wants(e.Table) {
			continue
		}
		select {
		case sub.c <- e:
		default:
			log.Debug().Str("table", string(e.Table)).Msg("feed subscriber slow, signal dropped")
		}
	}
	return nil
}

func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close 關閉所有訂閱的 channel
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for sub := range h.subs {
		sub.once.Do(func() { close(sub.c) })
		delete(h.subs, sub)
	}
}

// Watch 每收到一個訊號就呼叫 fn，直到 ctx 結束或 hub 關閉
// 累積在 buffer 內的訊號會合併成一次呼叫
func (h *Hub) Watch(ctx context.Context, fn func(ctx context.Context, e *evt_model.ChangeEvent), tables ...evt_model.Table) {
	sub := h.Subscribe(tables...)
	defer h.Unsubscribe(sub)

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-sub.C():
			if !ok {
				return
			}
		drain:
			for {
				select {
				case next, ok := <-sub.C():
					if !ok {
						break drain
					}
					e = next
				default:
					break drain
				}
			}
			fn(ctx, e)
		}
	}
}
