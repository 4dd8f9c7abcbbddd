package production

import (
	"time"

	"github.com/Oscarts/backery2-app-sub003/internal/domain/inventory"
	"github.com/Oscarts/backery2-app-sub003/internal/domain/production"
	"github.com/shopspring/decimal"
)

// Settings holds the tunable defaults of the production services
type Settings struct {
	DefaultOverheadPercentage decimal.Decimal
	DefaultMarkupPercentage   decimal.Decimal
	DefaultShelfLifeDays      int
	DefaultMaterialCost       decimal.Decimal
	DefaultWarehouseName      string
	CompletionGuardTTL        time.Duration
}

// DefaultSettings returns the built-in production defaults
func DefaultSettings() Settings {
	return Settings{
		DefaultOverheadPercentage: production.DefaultOverheadPercentage,
		DefaultMarkupPercentage:   production.DefaultMarkupPercentage,
		DefaultShelfLifeDays:      7,
		DefaultMaterialCost:       decimal.NewFromInt(10),
		DefaultWarehouseName:      inventory.DefaultWarehouseName,
		CompletionGuardTTL:        30 * time.Second,
	}
}

// withDefaults replaces unusable values with the built-in defaults. A zero
// overhead or markup is a legal setting and is kept.
func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.DefaultOverheadPercentage.IsNegative() {
		s.DefaultOverheadPercentage = d.DefaultOverheadPercentage
	}
	if s.DefaultMarkupPercentage.IsNegative() {
		s.DefaultMarkupPercentage = d.DefaultMarkupPercentage
	}
	if s.DefaultShelfLifeDays <= 0 {
		s.DefaultShelfLifeDays = d.DefaultShelfLifeDays
	}
	if !s.DefaultMaterialCost.IsPositive() {
		s.DefaultMaterialCost = d.DefaultMaterialCost
	}
	if s.DefaultWarehouseName == "" {
		s.DefaultWarehouseName = d.DefaultWarehouseName
	}
	if s.CompletionGuardTTL <= 0 {
		s.CompletionGuardTTL = d.CompletionGuardTTL
	}
	return s
}
