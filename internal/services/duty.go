package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ironquote/ironquote-backend/internal/logger"
	"github.com/ironquote/ironquote-backend/internal/repos"
)

// DutyFinding is an advisory duty assessment for one line.
type DutyFinding struct {
	DutyAmount  decimal.Decimal
	DutyRatePct decimal.Decimal
	Source      string
}

type DutyService interface {
	// FindRateForItem resolves a duty rate by HS code first, falling back
	// to category. A nil finding means no rate applies; the caller records
	// a note and keeps pricing. Lookup errors are logged and reported as a
	// miss; duty is advisory and never blocks a run.
	FindRateForItem(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, hsCode, category, origin, destination string, customsValue decimal.Decimal) *DutyFinding
}

type dutyService struct {
	db           *gorm.DB
	log          *logger.Logger
	dutyRateRepo repos.DutyRateRepo
}

func NewDutyService(db *gorm.DB, baseLog *logger.Logger, dutyRateRepo repos.DutyRateRepo) DutyService {
	serviceLog := baseLog.With("service", "DutyService")
	return &dutyService{db: db, log: serviceLog, dutyRateRepo: dutyRateRepo}
}

func (s *dutyService) FindRateForItem(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, hsCode, category, origin, destination string, customsValue decimal.Decimal) *DutyFinding {
	if origin == "" || destination == "" {
		return nil
	}

	rate, err := s.dutyRateRepo.FindByHSPrefix(ctx, tx, tenantID, hsCode, origin, destination)
	if err != nil {
		s.log.Warn("Duty lookup by HS code failed; treating as miss", "error", err, "hs_code", hsCode)
		rate = nil
	}
	if rate == nil {
		rate, err = s.dutyRateRepo.FindByCategory(ctx, tx, tenantID, category, origin, destination)
		if err != nil {
			s.log.Warn("Duty lookup by category failed; treating as miss", "error", err, "category", category)
			return nil
		}
	}
	if rate == nil {
		return nil
	}

	return &DutyFinding{
		DutyAmount:  customsValue.Mul(rate.DutyPct).Div(hundred),
		DutyRatePct: rate.DutyPct,
		Source:      rate.Source,
	}
}
