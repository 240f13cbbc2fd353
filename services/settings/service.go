package settings

import (
	"context"
	"errors"
	"time"

	"github.com/psops/provisioning-dashboard/models"
	"github.com/psops/provisioning-dashboard/repositories"
	"github.com/psops/provisioning-dashboard/services"
	"github.com/psops/provisioning-dashboard/services/validation"
	"go.uber.org/zap"
)

// RuleView is one catalog rule merged with its stored enablement state for
// display in the settings panel.
type RuleView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Enabled   bool      `json:"enabled"`
	UpdatedBy string    `json:"updated_by,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Service manages rule enablement. The catalog is the source of truth for
// which rules exist; the settings table only stores overrides. A rule with no
// stored setting is enabled.
type Service struct {
	settings repositories.RuleSettingRepository
	tx       repositories.TransactionManager
	auditor  Auditor
	cache    *SettingsCache
	logger   *zap.Logger
}

// Auditor records rule toggles on the audit trail. Audit failures must not
// block the toggle itself.
type Auditor interface {
	RecordRuleToggle(ctx context.Context, ruleID string, enabled bool, actor string)
}

// NewService creates a new settings Service instance
func NewService(settings repositories.RuleSettingRepository, tx repositories.TransactionManager, auditor Auditor, cacheTTL time.Duration, logger *zap.Logger) *Service {
	return &Service{
		settings: settings,
		tx:       tx,
		auditor:  auditor,
		cache:    NewSettingsCache(cacheTTL),
		logger:   logger,
	}
}

// EnabledRuleIDs returns the ids of the currently enabled rules in catalog
// display order. Stored settings only ever subtract from the catalog: a
// setting for a rule that no longer exists is ignored.
func (s *Service) EnabledRuleIDs(ctx context.Context) ([]string, error) {
	if ids, ok := s.cache.Get(); ok {
		return ids, nil
	}

	stored, err := s.settings.GetAll(ctx)
	if err != nil {
		return nil, services.WrapInternal("failed to load rule settings", err)
	}

	disabled := make(map[string]bool, len(stored))
	for _, setting := range stored {
		if !setting.Enabled {
			disabled[setting.RuleID] = true
		}
	}

	var ids []string
	for _, desc := range validation.Catalog() {
		if !disabled[desc.ID] {
			ids = append(ids, desc.ID)
		}
	}

	s.cache.Set(ids)
	return ids, nil
}

// ListRules returns every catalog rule with its effective enablement state.
func (s *Service) ListRules(ctx context.Context) ([]RuleView, error) {
	stored, err := s.settings.GetAll(ctx)
	if err != nil {
		return nil, services.WrapInternal("failed to load rule settings", err)
	}

	byRuleID := make(map[string]*models.RuleSetting, len(stored))
	for _, setting := range stored {
		byRuleID[setting.RuleID] = setting
	}

	views := make([]RuleView, 0, len(validation.Catalog()))
	for _, desc := range validation.Catalog() {
		view := RuleView{
			ID:       desc.ID,
			Name:     desc.Name,
			Category: desc.Category,
			Enabled:  true,
		}
		if setting, ok := byRuleID[desc.ID]; ok {
			view.Enabled = setting.Enabled
			view.UpdatedBy = setting.UpdatedBy
			view.UpdatedAt = setting.UpdatedAt
		}
		views = append(views, view)
	}

	return views, nil
}

// SetRuleEnabled toggles one rule and invalidates the cache. Unknown rule ids
// are rejected; they would otherwise accumulate as dead settings rows.
func (s *Service) SetRuleEnabled(ctx context.Context, ruleID string, enabled bool, actor string) (RuleView, error) {
	desc, ok := validation.LookupRule(ruleID)
	if !ok {
		return RuleView{}, services.ErrRuleNotFound
	}

	// Read-modify-write on the settings row, so the lookup and the upsert
	// share one transaction.
	setting, err := services.WithTransactionResult(ctx, s.tx, func(txCtx context.Context) (*models.RuleSetting, error) {
		setting := models.NewRuleSetting(ruleID, enabled, actor)
		if existing, err := s.settings.GetByRuleID(txCtx, ruleID); err == nil {
			setting.ID = existing.ID
			setting.CreatedAt = existing.CreatedAt
		} else if !errors.Is(err, repositories.ErrNotFound) {
			return nil, services.WrapInternal("failed to load rule setting", err)
		}

		if err := s.settings.Upsert(txCtx, setting); err != nil {
			return nil, services.WrapInternal("failed to store rule setting", err)
		}
		return setting, nil
	})
	if err != nil {
		return RuleView{}, err
	}

	s.cache.Invalidate()

	s.logger.Info("rule enablement changed",
		zap.String("rule_id", ruleID),
		zap.Bool("enabled", enabled),
		zap.String("actor", actor))

	if s.auditor != nil {
		s.auditor.RecordRuleToggle(ctx, ruleID, enabled, actor)
	}

	return RuleView{
		ID:        desc.ID,
		Name:      desc.Name,
		Category:  desc.Category,
		Enabled:   enabled,
		UpdatedBy: actor,
		UpdatedAt: setting.UpdatedAt,
	}, nil
}

// CacheStats exposes cache hit/miss counters for diagnostics.
func (s *Service) CacheStats() CacheStats {
	return s.cache.Stats()
}
