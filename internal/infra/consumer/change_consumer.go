package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	evt_model "github.com/RoyceAzure/lab/storefront/internal/domain/model/event"
	"github.com/RoyceAzure/lab/storefront/internal/feed"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

var (
	ErrConsumerClosed     = errors.New("consumer closed")
	ErrUnknownEventFormat = errors.New("unknown event format")
)

type Reader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// NewKafkaReader 每個 instance 必須是獨立的 group，才能收到全部訊號
func NewKafkaReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		StartOffset:    kafka.LastOffset,
		MinBytes:       1,
		MaxBytes:       1e6,
		MaxWait:        500 * time.Millisecond,
		CommitInterval: time.Second,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			log.Error().Msgf("kafka consumer error: "+msg, args...)
		}),
	})
}

// ChangeConsumer 將其他 instance 的 change signal 轉發到本地 hub
type ChangeConsumer struct {
	reader    Reader
	publisher feed.Publisher
	origin    string
	backoff   time.Duration
	closeOnce sync.Once
	closeChan chan struct{}
}

func NewChangeConsumer(reader Reader, publisher feed.Publisher, origin string) *ChangeConsumer {
	if reader == nil {
		panic("kafka reader cannot be nil")
	}
	if publisher == nil {
		panic("publisher cannot be nil")
	}
	return &ChangeConsumer{
		reader:    reader,
		publisher: publisher,
		origin:    origin,
		backoff:   time.Second,
		closeChan: make(chan struct{}),
	}
}

func (c *ChangeConsumer) checkIsClosed() bool {
	select {
	case <-c.closeChan:
		return true
	default:
		return false
	}
}

// Run 阻塞直到 ctx 結束或 Stop
func (c *ChangeConsumer) Run(ctx context.Context) error {
	if c.checkIsClosed() {
		return ErrConsumerClosed
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-c.closeChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			log.Error().Err(err).Msg("read change message failed")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.backoff):
			}
			continue
		}

		e, err := transformData(msg)
		if err != nil {
			log.Warn().Err(err).Int64("offset", msg.Offset).Msg("skip change message")
			continue
		}
		if e.Origin != "" && e.Origin == c.origin {
			continue
		}
		if err := c.publisher.Publish(ctx, e); err != nil {
			log.Error().Err(err).Str("table", string(e.Table)).Msg("relay change signal failed")
		}
	}
}

func (c *ChangeConsumer) Stop() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeChan)
		err = c.reader.Close()
	})
	return err
}

func transformData(msg kafka.Message) (*evt_model.ChangeEvent, error) {
	var e evt_model.ChangeEvent
	if err := json.Unmarshal(msg.Value, &e); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownEventFormat, err)
	}
	if e.EventType != evt_model.TableChangedEventName || e.Table == "" {
		return nil, ErrUnknownEventFormat
	}
	return &e, nil
}
