package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	evt_model "github.com/RoyceAzure/lab/storefront/internal/domain/model/event"
	"github.com/RoyceAzure/lab/storefront/internal/feed"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/rs/zerolog/log"
)

const maxSettingKeyLen = 128

type ISettingsStore interface {
	Load(ctx context.Context, seed map[string]string) error
	Reload(ctx context.Context) error
	Run(ctx context.Context)
	Get(key string) (string, bool)
	All() map[string]string
	Bool(key string, def bool) bool
	PaymentEnabled(method string) bool
	UpdateSettings(ctx context.Context, partial map[string]string) (map[string]string, error)
}

// SettingsStore 設定值常駐記憶體
// 寫入先更新記憶體(optimistic)，再逐 key 寫入 DB
// 記憶體的值 = 比最後確認更新、仍在寫入中的值；沒有時回到最後確認(DB)的值
type SettingsStore struct {
	repo      db.ISettingsRepository
	publisher feed.Publisher
	hub       *feed.Hub

	mu           sync.RWMutex
	values       map[string]string
	confirmed    map[string]string
	confirmToken map[string]uint64
	// 寫入中的 token -> value
	pending map[string]map[uint64]string
	seq     uint64
}

var _ ISettingsStore = (*SettingsStore)(nil)

func NewSettingsStore(repo db.ISettingsRepository, publisher feed.Publisher, hub *feed.Hub) *SettingsStore {
	if repo == nil {
		panic("settings store dependency settings repo is nil")
	}
	return &SettingsStore{
		repo:         repo,
		publisher:    publisher,
		hub:          hub,
		values:       map[string]string{},
		confirmed:    map[string]string{},
		confirmToken: map[string]uint64{},
		pending:      map[string]map[uint64]string{},
	}
}

// Load 啟動時呼叫一次，seed 只補不存在的 key
func (s *SettingsStore) Load(ctx context.Context, seed map[string]string) error {
	if err := s.repo.CreateSettingsIfNotExist(ctx, seed); err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}
	return s.Reload(ctx)
}

// Reload 重新讀取全部設定，寫入中的 key 保留記憶體內的值
func (s *SettingsStore) Reload(ctx context.Context) error {
	settings, err := s.repo.GetAllSettings(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	values := make(map[string]string, len(settings))
	confirmed := make(map[string]string, len(settings))
	for _, st := range settings {
		values[st.Key] = st.Value
		confirmed[st.Key] = st.Value
	}
	for k, inflight := range s.pending {
		if len(inflight) == 0 {
			continue
		}
		if v, ok := s.values[k]; ok {
			values[k] = v
		}
	}
	s.values = values
	s.confirmed = confirmed
	return nil
}

func (s *SettingsStore) Run(ctx context.Context) {
	if s.hub == nil {
		<-ctx.Done()
		return
	}
	s.hub.Watch(ctx, func(ctx context.Context, e *evt_model.ChangeEvent) {
		if err := s.Reload(ctx); err != nil {
			log.Error().Err(err).Msg("settings reload on signal failed")
		}
	}, evt_model.TableSettings)
}

func (s *SettingsStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *SettingsStore) All() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Bool 無法解析或不存在時回傳 def
func (s *SettingsStore) Bool(key string, def bool) bool {
	v, ok := s.Get(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return b
}

// PaymentEnabled 未設定視為啟用
func (s *SettingsStore) PaymentEnabled(method string) bool {
	return s.Bool(model.PaymentEnabledKey(method), true)
}

func validateSettingKeys(partial map[string]string) error {
	if len(partial) == 0 {
		return apperr.Validation(map[string]string{"settings": "at least one setting is required"})
	}
	fields := map[string]string{}
	for k := range partial {
		if strings.TrimSpace(k) == "" {
			fields["key"] = "setting key must not be empty"
		} else if len(k) > maxSettingKeyLen {
			fields[k] = "setting key is too long"
		}
	}
	if len(fields) > 0 {
		return apperr.Validation(fields)
	}
	return nil
}

// UpdateSettings 回傳寫入後的完整設定
// 部分 key 失敗時，成功的 key 保留，失敗的 key rollback 並回傳錯誤
func (s *SettingsStore) UpdateSettings(ctx context.Context, partial map[string]string) (map[string]string, error) {
	if err := validateSettingKeys(partial); err != nil {
		return nil, err
	}

	tokens := make(map[string]uint64, len(partial))
	s.mu.Lock()
	for k, v := range partial {
		s.seq++
		tokens[k] = s.seq
		if s.pending[k] == nil {
			s.pending[k] = map[uint64]string{}
		}
		s.pending[k][s.seq] = v
		s.values[k] = v
	}
	s.mu.Unlock()

	var errs []error
	succeeded := 0
	for k, v := range partial {
		err := s.repo.UpsertSetting(ctx, k, v)
		s.settle(k, v, tokens[k], err)
		if err != nil {
			log.Error().Err(err).Str("key", k).Msg("update setting failed, rolled back")
			errs = append(errs, fmt.Errorf("setting %s: %w", k, err))
			continue
		}
		succeeded++
	}

	if succeeded > 0 {
		publishChange(ctx, s.publisher, evt_model.TableSettings, evt_model.OpUpdate, "")
	}
	if len(errs) > 0 {
		return s.All(), errors.Join(errs...)
	}
	return s.All(), nil
}

func (s *SettingsStore) settle(key, value string, token uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inflight := s.pending[key]
	delete(inflight, token)
	if len(inflight) == 0 {
		delete(s.pending, key)
	}

	// DB 的值是最後完成的寫入，不論 token 大小
	if err == nil {
		s.confirmToken[key] = token
		s.confirmed[key] = value
	}

	// 還有更新的寫入在進行中，交給它決定最後的值
	var newest uint64
	for tok := range inflight {
		if tok > newest {
			newest = tok
		}
	}
	if newest > s.confirmToken[key] {
		s.values[key] = inflight[newest]
		return
	}
	if prev, ok := s.confirmed[key]; ok {
		s.values[key] = prev
	} else {
		delete(s.values, key)
	}
}
