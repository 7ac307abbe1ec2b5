package model

type Table string

const (
	TableProducts Table = "products"
	TableOrders   Table = "orders"
	TableSettings Table = "settings"
)

type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// ChangeEvent 只代表「有東西變了，請重新讀取」，不帶 diff
// Key 為被異動的主鍵，只供記錄用
type ChangeEvent struct {
	BaseEvent
	Table  Table  `json:"table"`
	Op     Op     `json:"op"`
	Key    string `json:"key,omitempty"`
	Origin string `json:"origin,omitempty"`
}

func NewChangeEvent(table Table, op Op, key string) *ChangeEvent {
	return &ChangeEvent{
		BaseEvent: *NewBaseEvent(TableChangedEventName),
		Table:     table,
		Op:        op,
		Key:       key,
	}
}

func (e *ChangeEvent) Type() EventType {
	return TableChangedEventName
}
