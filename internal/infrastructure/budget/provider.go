package budget

import (
	"context"
	"fmt"
	"strings"
	"time"

	application "github.com/erp/procurement/internal/application/procurement"
	"github.com/erp/procurement/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ConfigBudgetProvider resolves available budget from statically configured
// limits. Keys are "<department-uuid>" for a department-wide limit or
// "<department-uuid>:<category>" for a per-category one; the category-scoped
// key wins when both exist.
type ConfigBudgetProvider struct {
	limits map[string]decimal.Decimal
}

// NewConfigBudgetProvider parses the configured limit map. Entries with an
// unparsable amount are skipped and logged.
func NewConfigBudgetProvider(cfg config.BudgetConfig, logger *zap.Logger) *ConfigBudgetProvider {
	limits := make(map[string]decimal.Decimal, len(cfg.Limits))
	for key, raw := range cfg.Limits {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			logger.Warn("skipping unparsable budget limit",
				zap.String("key", key),
				zap.String("value", raw),
				zap.Error(err))
			continue
		}
		limits[strings.ToLower(key)] = amount
	}
	return &ConfigBudgetProvider{limits: limits}
}

// GetAvailable returns the configured budget for the department and category
func (p *ConfigBudgetProvider) GetAvailable(ctx context.Context, departmentID uuid.UUID, category string) (decimal.Decimal, error) {
	dept := strings.ToLower(departmentID.String())
	if category != "" {
		if amount, ok := p.limits[dept+":"+strings.ToLower(category)]; ok {
			return amount, nil
		}
	}
	if amount, ok := p.limits[dept]; ok {
		return amount, nil
	}
	return decimal.Zero, fmt.Errorf("no budget configured for department %s", departmentID)
}

// CachedBudgetProvider is a Redis read-through cache in front of another
// provider. Cache failures fall back to the inner provider; only a cache
// write failure is logged, never surfaced.
type CachedBudgetProvider struct {
	inner  application.BudgetProvider
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedBudgetProvider creates a new CachedBudgetProvider
func NewCachedBudgetProvider(inner application.BudgetProvider, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedBudgetProvider {
	return &CachedBudgetProvider{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func cacheKey(departmentID uuid.UUID, category string) string {
	return fmt.Sprintf("budget:%s:%s", departmentID, strings.ToLower(category))
}

// GetAvailable returns the cached budget, falling back to the inner provider
func (p *CachedBudgetProvider) GetAvailable(ctx context.Context, departmentID uuid.UUID, category string) (decimal.Decimal, error) {
	key := cacheKey(departmentID, category)

	cached, err := p.client.Get(ctx, key).Result()
	if err == nil {
		if amount, parseErr := decimal.NewFromString(cached); parseErr == nil {
			return amount, nil
		}
		// Corrupt cache entry; drop it and fall through to the inner provider.
		p.client.Del(ctx, key)
	} else if err != redis.Nil {
		p.logger.Warn("budget cache read failed", zap.String("key", key), zap.Error(err))
	}

	amount, err := p.inner.GetAvailable(ctx, departmentID, category)
	if err != nil {
		return decimal.Zero, err
	}

	if setErr := p.client.Set(ctx, key, amount.String(), p.ttl).Err(); setErr != nil {
		p.logger.Warn("budget cache write failed", zap.String("key", key), zap.Error(setErr))
	}

	return amount, nil
}

// Ensure both providers implement BudgetProvider
var (
	_ application.BudgetProvider = (*ConfigBudgetProvider)(nil)
	_ application.BudgetProvider = (*CachedBudgetProvider)(nil)
)
