package service

import (
	"context"
	"time"

	evt_model "github.com/RoyceAzure/lab/storefront/internal/domain/model/event"
	"github.com/RoyceAzure/lab/storefront/internal/feed"
	"github.com/rs/zerolog/log"
)

type BackGroundService interface {
	Start() error
	Stop(timeout time.Duration) error
}

// 寫入已成功，通知失敗只記錄
func publishChange(ctx context.Context, p feed.Publisher, table evt_model.Table, op evt_model.Op, key string) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, evt_model.NewChangeEvent(table, op, key)); err != nil {
		log.Warn().Err(err).
			Str("table", string(table)).
			Str("op", string(op)).
			Str("key", key).
			Msg("publish change signal failed")
	}
}
