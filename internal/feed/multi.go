package feed

import (
	"context"
	"errors"

	evt_model "github.com/RoyceAzure/lab/storefront/internal/domain/model/event"
)

// MultiPublisher 同時送到本地 hub 與跨 instance 的 relay
// 標記 origin，relay 回來的自己的訊號可以略過
type MultiPublisher struct {
	origin     string
	publishers []Publisher
}

func NewMultiPublisher(origin string, publishers ...Publisher) *MultiPublisher {
	return &MultiPublisher{origin: origin, publishers: publishers}
}

func (m *MultiPublisher) Origin() string {
	return m.origin
}

func (m *MultiPublisher) Publish(ctx context.Context, e *evt_model.ChangeEvent) error {
	if e.Origin == "" {
		e.Origin = m.origin
	}
	var errs []error
	for _, p := range m.publishers {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
