package service

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/boddenberg/payments-backoffice-go/internal/access"
	"github.com/boddenberg/payments-backoffice-go/internal/domain"
	"github.com/boddenberg/payments-backoffice-go/internal/port"
)

// MaxSearchHistory is the number of past searches kept per user.
const MaxSearchHistory = 10

// SettingsService persists per-user backoffice state: display settings,
// the last search, the search history and field-visibility overrides.
type SettingsService struct {
	store    port.PreferencesStore
	defaults domain.BackofficeSettings
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time

	// historyLocks serializes history updates per user (userID -> *sync.Mutex).
	historyLocks sync.Map
}

// NewSettingsService creates a settings service. defaults is returned for
// users who never saved settings.
func NewSettingsService(store port.PreferencesStore, defaults domain.BackofficeSettings, logger *zap.Logger) *SettingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{
		store:    store,
		defaults: defaults,
		validate: newValidator(),
		logger:   logger,
		now:      time.Now,
	}
}

// DefaultSettings are used when no defaults are configured.
func DefaultSettings(language string) domain.BackofficeSettings {
	if language == "" {
		language = "en"
	}
	return domain.BackofficeSettings{
		Language: language,
		Timezone: "UTC",
		Theme:    "system",
		PageSize: 10,
	}
}

func settingsKey(userID string) string { return "settings:" + userID }
func lastSearchKey(userID string) string { return "search:last:" + userID }
func historyKey(userID string) string { return "search:history:" + userID }
func overridesKey(userID string) string { return "fields:overrides:" + userID }

// ============================================================
// Display settings
// ============================================================

// Load returns the saved settings of userID, or the defaults.
func (s *SettingsService) Load(ctx context.Context, userID string) (domain.BackofficeSettings, error) {
	ctx, span := tracer.Start(ctx, "SettingsService.Load")
	defer span.End()

	var out domain.BackofficeSettings
	ok, err := s.store.Get(ctx, settingsKey(userID), &out)
	if err != nil {
		return s.defaults, fmt.Errorf("load settings: %w", err)
	}
	if !ok {
		return s.defaults, nil
	}
	return out, nil
}

// Save validates and stores the settings of userID. A zero page size takes
// the default.
func (s *SettingsService) Save(ctx context.Context, userID string, in domain.BackofficeSettings) (domain.BackofficeSettings, error) {
	ctx, span := tracer.Start(ctx, "SettingsService.Save")
	defer span.End()

	if in.PageSize == 0 {
		in.PageSize = s.defaults.PageSize
	}
	if err := validateStruct(s.validate, in); err != nil {
		return domain.BackofficeSettings{}, err
	}
	if err := s.store.Put(ctx, settingsKey(userID), in, 0); err != nil {
		return domain.BackofficeSettings{}, fmt.Errorf("save settings: %w", err)
	}

	s.logger.Info("settings saved", zap.String("user_id", userID), zap.String("language", in.Language))
	return in, nil
}

// ============================================================
// Search history
// ============================================================

// LastSearch returns the last user search, or nil.
func (s *SettingsService) LastSearch(ctx context.Context, userID string) (domain.UserSearchParams, error) {
	var out domain.UserSearchParams
	if _, err := s.store.Get(ctx, lastSearchKey(userID), &out); err != nil {
		return nil, fmt.Errorf("load last search: %w", err)
	}
	return out, nil
}

// SearchHistory returns past searches, most recent first.
func (s *SettingsService) SearchHistory(ctx context.Context, userID string) ([]domain.SearchHistoryEntry, error) {
	out := []domain.SearchHistoryEntry{}
	if _, err := s.store.Get(ctx, historyKey(userID), &out); err != nil {
		return nil, fmt.Errorf("load search history: %w", err)
	}
	return out, nil
}

// RecordSearch stores params as the last search and moves it to the top of
// the history. An identical earlier search is dropped, and the history is
// capped at MaxSearchHistory entries. Concurrent searches of one user are
// applied one at a time within this process.
func (s *SettingsService) RecordSearch(ctx context.Context, userID string, params domain.UserSearchParams) error {
	ctx, span := tracer.Start(ctx, "SettingsService.RecordSearch")
	defer span.End()

	if len(params) == 0 {
		return nil
	}
	unlock := s.lockHistory(userID)
	defer unlock()

	if err := s.store.Put(ctx, lastSearchKey(userID), params, 0); err != nil {
		return fmt.Errorf("save last search: %w", err)
	}

	history, err := s.SearchHistory(ctx, userID)
	if err != nil {
		return err
	}
	next := make([]domain.SearchHistoryEntry, 0, MaxSearchHistory)
	next = append(next, domain.SearchHistoryEntry{Params: maps.Clone(params), SearchedAt: s.now().UTC()})
	for _, h := range history {
		if len(next) == MaxSearchHistory {
			break
		}
		if maps.Equal(h.Params, params) {
			continue
		}
		next = append(next, h)
	}
	if err := s.store.Put(ctx, historyKey(userID), next, 0); err != nil {
		return fmt.Errorf("save search history: %w", err)
	}
	return nil
}

// ClearSearchHistory forgets the history and the last search.
func (s *SettingsService) ClearSearchHistory(ctx context.Context, userID string) error {
	unlock := s.lockHistory(userID)
	defer unlock()

	if err := s.store.Delete(ctx, historyKey(userID)); err != nil {
		return fmt.Errorf("clear search history: %w", err)
	}
	if err := s.store.Delete(ctx, lastSearchKey(userID)); err != nil {
		return fmt.Errorf("clear last search: %w", err)
	}
	return nil
}

func (s *SettingsService) lockHistory(userID string) func() {
	v, _ := s.historyLocks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// ============================================================
// Field visibility overrides
// ============================================================

// FieldOverrides returns the field-visibility overrides of userID.
func (s *SettingsService) FieldOverrides(ctx context.Context, userID string) (domain.FieldOverrides, error) {
	out := domain.FieldOverrides{}
	if _, err := s.store.Get(ctx, overridesKey(userID), &out); err != nil {
		return nil, fmt.Errorf("load field overrides: %w", err)
	}
	return out, nil
}

// SaveFieldOverrides replaces the overrides. Only catalog fields are accepted.
func (s *SettingsService) SaveFieldOverrides(ctx context.Context, userID string, o domain.FieldOverrides) (domain.FieldOverrides, error) {
	for name := range o {
		if !access.IsCatalogField(name) {
			return nil, &domain.ErrValidation{Field: name, Message: "unknown field"}
		}
	}
	if o == nil {
		o = domain.FieldOverrides{}
	}
	if err := s.store.Put(ctx, overridesKey(userID), o, 0); err != nil {
		return nil, fmt.Errorf("save field overrides: %w", err)
	}
	return o, nil
}
