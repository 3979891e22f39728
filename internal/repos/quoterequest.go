package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ironquote/ironquote-backend/internal/logger"
	"github.com/ironquote/ironquote-backend/internal/types"
)

type QuoteRequestRepo interface {
	GetByID(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID) (*types.QuoteRequest, error)
	// GetByIDForUpdate takes a row lock on the request. Run creation uses it
	// as the serialization point for concurrent creators of the same request.
	GetByIDForUpdate(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID) (*types.QuoteRequest, error)
}

type quoteRequestRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuoteRequestRepo(db *gorm.DB, baseLog *logger.Logger) QuoteRequestRepo {
	repoLog := baseLog.With("repo", "QuoteRequestRepo")
	return &quoteRequestRepo{db: db, log: repoLog}
}

func (r *quoteRequestRepo) GetByID(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID) (*types.QuoteRequest, error) {
	return r.get(ctx, tx, tenantID, id, false)
}

func (r *quoteRequestRepo) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID) (*types.QuoteRequest, error) {
	return r.get(ctx, tx, tenantID, id, true)
}

func (r *quoteRequestRepo) get(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID, forUpdate bool) (*types.QuoteRequest, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	q := transaction.WithContext(ctx)
	if forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var request types.QuoteRequest
	err := q.Where("id = ? AND tenant_id = ?", id, tenantID).First(&request).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &request, nil
}

type QuoteItemRepo interface {
	GetByRequestID(ctx context.Context, tx *gorm.DB, tenantID, requestID uuid.UUID) ([]*types.QuoteItem, error)
	UpdateDutyAmount(ctx context.Context, tx *gorm.DB, id uuid.UUID, dutyAmount decimal.Decimal) error
}

type quoteItemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuoteItemRepo(db *gorm.DB, baseLog *logger.Logger) QuoteItemRepo {
	repoLog := baseLog.With("repo", "QuoteItemRepo")
	return &quoteItemRepo{db: db, log: repoLog}
}

func (r *quoteItemRepo) GetByRequestID(ctx context.Context, tx *gorm.DB, tenantID, requestID uuid.UUID) ([]*types.QuoteItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var items []*types.QuoteItem
	if requestID == uuid.Nil {
		return items, nil
	}
	if err := transaction.WithContext(ctx).
		Where("request_id = ? AND tenant_id = ?", requestID, tenantID).
		Order("position ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *quoteItemRepo) UpdateDutyAmount(ctx context.Context, tx *gorm.DB, id uuid.UUID, dutyAmount decimal.Decimal) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.QuoteItem{}).
		Where("id = ?", id).
		Update("duty_amount", dutyAmount).Error
}
