package model

import (
	"time"

	"github.com/google/uuid"
)

type BaseEvent struct {
	EventID   string    `json:"eventId"`
	CreatedAt time.Time `json:"createdAt"`
	EventType EventType `json:"eventType"`
}

func NewBaseEvent(eventType EventType) *BaseEvent {
	return &BaseEvent{
		EventID:   uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		EventType: eventType,
	}
}

func (e *BaseEvent) GetID() string {
	return e.EventID
}

type EventType string

const (
	TableChangedEventName EventType = "TableChanged"
)

type Event interface {
	Type() EventType
	GetID() string
}
