package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/servicelane/servicelane-backend/pkg/db/models"
	"github.com/servicelane/servicelane-backend/pkg/enums"
	pkgerrors "github.com/servicelane/servicelane-backend/pkg/errors"
	"github.com/servicelane/servicelane-backend/pkg/logger"
)

type catalogFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.CatalogItem, error)
}

// Resolution is the effective price of one catalog item at one branch. Labor
// and packaging stay nil when no active rule exists, which callers must
// preserve: a missing rule and a rule priced at zero are different facts.
type Resolution struct {
	Item           *models.CatalogItem
	BasePrice      decimal.Decimal
	LaborPrice     *decimal.Decimal
	PackagingPrice *decimal.Decimal
	LaborRule      *models.PricingRule
	PackagingRule  *models.PricingRule
}

// LineTotal computes (base + labor + packaging) * quantity, treating missing
// components as zero.
func (r Resolution) LineTotal(quantity int) decimal.Decimal {
	unit := r.BasePrice
	if r.LaborPrice != nil {
		unit = unit.Add(*r.LaborPrice)
	}
	if r.PackagingPrice != nil {
		unit = unit.Add(*r.PackagingPrice)
	}
	return unit.Mul(decimal.NewFromInt(int64(quantity)))
}

// Resolver computes effective prices from the catalog and active rules.
type Resolver interface {
	Resolve(ctx context.Context, catalogItemID, branchID uuid.UUID) (*Resolution, error)
}

type resolver struct {
	rules   Repository
	catalog catalogFinder
	logg    *logger.Logger
}

// NewResolver builds a price resolver with the provided dependencies.
func NewResolver(rules Repository, catalog catalogFinder, logg *logger.Logger) (Resolver, error) {
	if rules == nil {
		return nil, fmt.Errorf("pricing repository required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog finder required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &resolver{rules: rules, catalog: catalog, logg: logg}, nil
}

// Resolve loads the item, applies the branch's active rules, and returns the
// effective price. The item must be active and either global or belong to the
// branch; anything else is NotFound so callers cannot probe other branches'
// catalogs.
func (r *resolver) Resolve(ctx context.Context, catalogItemID, branchID uuid.UUID) (*Resolution, error) {
	item, err := r.catalog.FindByID(ctx, catalogItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "catalog item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load catalog item")
	}
	if item.Status != enums.ActivationStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "catalog item not found")
	}
	if !item.IsGlobal && (item.BranchID == nil || *item.BranchID != branchID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "catalog item not found")
	}

	rules, err := r.rules.ListActive(ctx, catalogItemID, branchID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list pricing rules")
	}

	resolution := &Resolution{Item: item, BasePrice: item.BasePrice}
	for i := range rules {
		rule := &rules[i]
		switch rule.PricingType {
		case enums.PricingTypeLabor:
			if resolution.LaborRule != nil {
				r.warnDuplicate(ctx, rule, resolution.LaborRule)
				continue
			}
			p := rule.Price
			resolution.LaborPrice = &p
			resolution.LaborRule = rule
		case enums.PricingTypePackaging:
			if resolution.PackagingRule != nil {
				r.warnDuplicate(ctx, rule, resolution.PackagingRule)
				continue
			}
			p := rule.Price
			resolution.PackagingPrice = &p
			resolution.PackagingRule = rule
		}
	}
	return resolution, nil
}

// warnDuplicate fires when more than one active rule exists for a pricing
// type despite the partial unique index. Rules arrive newest first, so the
// most recently created one already won.
func (r *resolver) warnDuplicate(ctx context.Context, loser, winner *models.PricingRule) {
	ctx = r.logg.WithFields(ctx, map[string]any{
		"catalog_item_id": loser.CatalogItemID.String(),
		"branch_id":       loser.BranchID.String(),
		"pricing_type":    loser.PricingType.String(),
		"winning_rule_id": winner.ID.String(),
		"ignored_rule_id": loser.ID.String(),
	})
	r.logg.Warn(ctx, "multiple active pricing rules for one type; most recent wins")
}
