package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ironquote/ironquote-backend/internal/types"
)

// ItemChange describes one line whose pricing differs between two versions.
// A line is modified when its unit price or its price source changed;
// cost-side drift that does not move the quoted price is not reported.
type ItemChange struct {
	QuoteItemID       uuid.UUID       `json:"quote_item_id"`
	MaterialCode      string          `json:"material_code"`
	UnitPriceBefore   decimal.Decimal `json:"unit_price_before"`
	UnitPriceAfter    decimal.Decimal `json:"unit_price_after"`
	UnitPriceDelta    decimal.Decimal `json:"unit_price_delta"`
	PriceSourceBefore string          `json:"price_source_before"`
	PriceSourceAfter  string          `json:"price_source_after"`
}

type ItemRef struct {
	QuoteItemID  uuid.UUID       `json:"quote_item_id"`
	MaterialCode string          `json:"material_code"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
}

type VersionDiff struct {
	LineageID   uuid.UUID `json:"lineage_id"`
	FromVersion int       `json:"from_version"`
	ToVersion   int       `json:"to_version"`

	TotalBefore decimal.Decimal  `json:"total_before"`
	TotalAfter  decimal.Decimal  `json:"total_after"`
	TotalDelta  decimal.Decimal  `json:"total_delta"`
	PercentDiff *decimal.Decimal `json:"percent_diff,omitempty"` // nil when the base total is zero

	Added    []ItemRef    `json:"added"`
	Removed  []ItemRef    `json:"removed"`
	Modified []ItemChange `json:"modified"`
}

// CompareVersions diffs version v1 of the run's lineage against v2, or
// against the lineage's current version when v2 is nil.
func (s *pricingRunService) CompareVersions(ctx context.Context, tx *gorm.DB, tenantID, runID uuid.UUID, v1 int, v2 *int) (*VersionDiff, error) {
	run, err := s.GetPricingRun(ctx, tx, tenantID, runID)
	if err != nil {
		return nil, err
	}
	lineageID := run.LineageID

	from, err := s.runRepo.GetByLineageAndVersion(ctx, tx, tenantID, lineageID, v1)
	if err != nil {
		return nil, fmt.Errorf("get version %d: %w", v1, err)
	}
	if from == nil {
		return nil, &ValidationError{Field: "v1", Message: fmt.Sprintf("version %d does not exist in this lineage", v1)}
	}

	var to *types.PricingRun
	if v2 != nil {
		to, err = s.runRepo.GetByLineageAndVersion(ctx, tx, tenantID, lineageID, *v2)
		if err != nil {
			return nil, fmt.Errorf("get version %d: %w", *v2, err)
		}
		if to == nil {
			return nil, &ValidationError{Field: "v2", Message: fmt.Sprintf("version %d does not exist in this lineage", *v2)}
		}
	} else {
		to, err = s.runRepo.GetCurrentByRequestID(ctx, tx, tenantID, run.RequestID)
		if err != nil {
			return nil, fmt.Errorf("get current version: %w", err)
		}
		if to == nil {
			return nil, &ValidationError{Field: "v2", Message: "lineage has no current version"}
		}
	}

	fromItems, err := s.runItemRepo.GetByRunID(ctx, tx, tenantID, from.ID)
	if err != nil {
		return nil, fmt.Errorf("get items for version %d: %w", from.VersionNumber, err)
	}
	toItems, err := s.runItemRepo.GetByRunID(ctx, tx, tenantID, to.ID)
	if err != nil {
		return nil, fmt.Errorf("get items for version %d: %w", to.VersionNumber, err)
	}

	diff := &VersionDiff{
		LineageID:   lineageID,
		FromVersion: from.VersionNumber,
		ToVersion:   to.VersionNumber,
		TotalBefore: from.TotalLandedCost,
		TotalAfter:  to.TotalLandedCost,
		TotalDelta:  to.TotalLandedCost.Sub(from.TotalLandedCost),
		Added:       []ItemRef{},
		Removed:     []ItemRef{},
		Modified:    []ItemChange{},
	}
	if !from.TotalLandedCost.IsZero() {
		pct := diff.TotalDelta.Div(from.TotalLandedCost).Mul(decimal.NewFromInt(100)).Round(2)
		diff.PercentDiff = &pct
	}

	// Lines pair up by the underlying quote item, not by run-item id.
	fromByQuoteItem := make(map[uuid.UUID]*types.PricingRunItem, len(fromItems))
	for _, item := range fromItems {
		fromByQuoteItem[item.QuoteItemID] = item
	}
	for _, after := range toItems {
		before, ok := fromByQuoteItem[after.QuoteItemID]
		if !ok {
			diff.Added = append(diff.Added, ItemRef{
				QuoteItemID:  after.QuoteItemID,
				MaterialCode: after.MaterialCode,
				UnitPrice:    after.UnitPrice,
			})
			continue
		}
		delete(fromByQuoteItem, after.QuoteItemID)
		if before.UnitPrice.Equal(after.UnitPrice) && before.PriceSource == after.PriceSource {
			continue
		}
		diff.Modified = append(diff.Modified, ItemChange{
			QuoteItemID:       after.QuoteItemID,
			MaterialCode:      after.MaterialCode,
			UnitPriceBefore:   before.UnitPrice,
			UnitPriceAfter:    after.UnitPrice,
			UnitPriceDelta:    after.UnitPrice.Sub(before.UnitPrice),
			PriceSourceBefore: before.PriceSource,
			PriceSourceAfter:  after.PriceSource,
		})
	}
	for _, before := range fromItems {
		if _, stillUnmatched := fromByQuoteItem[before.QuoteItemID]; stillUnmatched {
			diff.Removed = append(diff.Removed, ItemRef{
				QuoteItemID:  before.QuoteItemID,
				MaterialCode: before.MaterialCode,
				UnitPrice:    before.UnitPrice,
			})
		}
	}
	return diff, nil
}
