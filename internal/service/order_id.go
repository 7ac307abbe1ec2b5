package service

import (
	"strconv"
	"sync"
	"time"
)

const orderIDPrefix = "ORD"

// OrderIDGenerator ORD + unix 毫秒
// 同一毫秒內的第二筆往後遞增，行程內不重複；跨 instance 由 DB primary key 擋下
type OrderIDGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func NewOrderIDGenerator() *OrderIDGenerator {
	return &OrderIDGenerator{now: time.Now}
}

func (g *OrderIDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return orderIDPrefix + strconv.FormatInt(ms, 10)
}
