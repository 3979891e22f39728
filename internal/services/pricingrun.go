package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ironquote/ironquote-backend/internal/logger"
	"github.com/ironquote/ironquote-backend/internal/policy"
	"github.com/ironquote/ironquote-backend/internal/repos"
	"github.com/ironquote/ironquote-backend/internal/types"
)

type CreateRunOptions struct {
	SupersededReason     string
	HasRepricePermission bool
	CreatedBy            string
}

// PricingRunService is the versioning/locking state machine around pricing
// runs: run creation, supersession, locking, revisions, outcomes and
// version comparison. Run creation is all-or-nothing: every step from the
// current-run lock to the final totals update happens in one transaction.
type PricingRunService interface {
	CreatePricingRun(ctx context.Context, tenantID, requestID uuid.UUID, opts CreateRunOptions) (*types.PricingRun, error)
	GetPricingRun(ctx context.Context, tx *gorm.DB, tenantID, runID uuid.UUID) (*types.PricingRun, error)
	GetPricingRunsForRequest(ctx context.Context, tx *gorm.DB, tenantID, requestID uuid.UUID) ([]*types.PricingRun, error)
	GetRunItems(ctx context.Context, tx *gorm.DB, tenantID, runID uuid.UUID) ([]*types.PricingRunItem, error)
	GetVersions(ctx context.Context, tx *gorm.DB, tenantID, runID uuid.UUID) ([]*types.PricingRun, error)
	GetSnapshots(ctx context.Context, tx *gorm.DB, tenantID, runID uuid.UUID) ([]*types.PricingRunSnapshot, error)
	UpdateOutcome(ctx context.Context, tenantID, runID uuid.UUID, outcome string, date *time.Time, reason string) (*types.PricingRun, error)
	CreateRevision(ctx context.Context, tenantID, runID uuid.UUID, reason, createdBy string) (*types.PricingRun, error)
	LockPricingRun(ctx context.Context, tenantID, runID uuid.UUID, lockedBy string) (*types.PricingRun, error)
	AssertNotLocked(ctx context.Context, tx *gorm.DB, tenantID, requestID uuid.UUID) error
	CompareVersions(ctx context.Context, tx *gorm.DB, tenantID, runID uuid.UUID, v1 int, v2 *int) (*VersionDiff, error)
}

type pricingRunService struct {
	db           *gorm.DB
	log          *logger.Logger
	tenantRepo   repos.TenantRepo
	requestRepo  repos.QuoteRequestRepo
	itemRepo     repos.QuoteItemRepo
	clientRepo   repos.ClientRepo
	runRepo      repos.PricingRunRepo
	runItemRepo  repos.PricingRunItemRepo
	snapshotRepo repos.PricingRunSnapshotRepo
	rateService  RateService
	taxService   TaxService
	itemPricer   ItemPricerService
}

func NewPricingRunService(
	db *gorm.DB,
	baseLog *logger.Logger,
	tenantRepo repos.TenantRepo,
	requestRepo repos.QuoteRequestRepo,
	itemRepo repos.QuoteItemRepo,
	clientRepo repos.ClientRepo,
	runRepo repos.PricingRunRepo,
	runItemRepo repos.PricingRunItemRepo,
	snapshotRepo repos.PricingRunSnapshotRepo,
	rateService RateService,
	taxService TaxService,
	itemPricer ItemPricerService,
) PricingRunService {
	serviceLog := baseLog.With("service", "PricingRunService")
	return &pricingRunService{
		db:           db,
		log:          serviceLog,
		tenantRepo:   tenantRepo,
		requestRepo:  requestRepo,
		itemRepo:     itemRepo,
		clientRepo:   clientRepo,
		runRepo:      runRepo,
		runItemRepo:  runItemRepo,
		snapshotRepo: snapshotRepo,
		rateService:  rateService,
		taxService:   taxService,
		itemPricer:   itemPricer,
	}
}

type preflightState struct {
	tenant   *types.Tenant
	defaults *types.TenantPricingDefaults
	request  *types.QuoteRequest
	items    []*types.QuoteItem
	client   *types.Client
}

// preflight validates every run-creation precondition outside any lock and
// reports all failures at once. Nothing is written here.
func (s *pricingRunService) preflight(ctx context.Context, tenantID, requestID uuid.UUID) (*preflightState, error) {
	if tenantID == uuid.Nil {
		return nil, &ValidationError{Field: "tenant_id", Message: "must be a valid identifier"}
	}
	if requestID == uuid.Nil {
		return nil, &ValidationError{Field: "request_id", Message: "must be a valid identifier"}
	}

	pf := &PreflightError{}
	state := &preflightState{}

	tenant, err := s.tenantRepo.GetByID(ctx, nil, tenantID)
	if err != nil {
		return nil, fmt.Errorf("load tenant: %w", err)
	}
	if tenant == nil {
		pf.Missing = append(pf.Missing, "tenant")
	} else {
		state.tenant = tenant
		if !tenant.Active {
			pf.ValidationErrors = append(pf.ValidationErrors, "tenant is inactive")
		}
	}

	defaults, err := s.tenantRepo.GetPricingDefaults(ctx, nil, tenantID)
	if err != nil {
		return nil, fmt.Errorf("load pricing defaults: %w", err)
	}
	if defaults == nil {
		pf.Missing = append(pf.Missing, "tenant pricing defaults")
	}
	state.defaults = defaults

	request, err := s.requestRepo.GetByID(ctx, nil, tenantID, requestID)
	if err != nil {
		return nil, fmt.Errorf("load quote request: %w", err)
	}
	if request == nil {
		pf.Missing = append(pf.Missing, "quote request")
	}
	state.request = request

	if request != nil {
		items, err := s.itemRepo.GetByRequestID(ctx, nil, tenantID, requestID)
		if err != nil {
			return nil, fmt.Errorf("load quote items: %w", err)
		}
		if len(items) == 0 {
			pf.Missing = append(pf.Missing, "line items")
		}
		for _, item := range items {
			if item.NeedsReview {
				pf.ValidationErrors = append(pf.ValidationErrors, fmt.Sprintf("item %d needs review", item.Position))
			}
			if !item.SupplierSelected {
				pf.ValidationErrors = append(pf.ValidationErrors, fmt.Sprintf("item %d has no supplier selection", item.Position))
			}
			if !item.Quantity.IsPositive() {
				pf.ValidationErrors = append(pf.ValidationErrors, fmt.Sprintf("item %d quantity must be positive", item.Position))
			}
		}
		state.items = items

		client, err := s.clientRepo.GetByID(ctx, nil, tenantID, request.ClientID)
		if err != nil {
			return nil, fmt.Errorf("load client: %w", err)
		}
		if client == nil {
			pf.Missing = append(pf.Missing, "client")
		}
		state.client = client
	}

	if len(pf.Missing) > 0 || len(pf.ValidationErrors) > 0 {
		return nil, pf
	}
	return state, nil
}

func (s *pricingRunService) policyConfig(defaults *types.TenantPricingDefaults, client *types.Client) policy.Config {
	cfg := policy.DefaultConfig()
	if defaults.MarginAlertPct.IsPositive() {
		cfg.MarginAlertPct = defaults.MarginAlertPct
	}
	if defaults.DiscountAlertPct.IsPositive() {
		cfg.DiscountAlertPct = defaults.DiscountAlertPct
	}
	if client != nil && client.FixedMargin {
		cfg.FixedMarginClients[client.Name] = true
	}
	return cfg
}

func (s *pricingRunService) CreatePricingRun(ctx context.Context, tenantID, requestID uuid.UUID, opts CreateRunOptions) (*types.PricingRun, error) {
	state, err := s.preflight(ctx, tenantID, requestID)
	if err != nil {
		return nil, err
	}
	cfg := s.policyConfig(state.defaults, state.client)
	now := time.Now()

	var created *types.PricingRun
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The request row is the serialization point: concurrent creators
		// for the same request queue up here.
		lockedRequest, err := s.requestRepo.GetByIDForUpdate(ctx, tx, tenantID, requestID)
		if err != nil {
			return fmt.Errorf("lock quote request: %w", err)
		}
		if lockedRequest == nil {
			return &PreflightError{Missing: []string{"quote request"}}
		}

		currents, err := s.runRepo.GetCurrentForUpdate(ctx, tx, tenantID, requestID)
		if err != nil {
			return fmt.Errorf("load current runs: %w", err)
		}
		if len(currents) > 1 {
			return &WorkflowViolationError{
				Reason:       fmt.Sprintf("%d pricing runs are flagged current for this request; manual repair required", len(currents)),
				CurrentRunID: currents[0].ID,
			}
		}

		var prior *types.PricingRun
		if len(currents) == 1 {
			prior = currents[0]
		}
		if prior != nil && prior.ApprovalStatus == types.ApprovalStatusApproved {
			if !opts.HasRepricePermission || opts.SupersededReason == "" {
				return &WorkflowViolationError{
					Reason:       "current run is approved; re-pricing requires explicit permission and a supersede reason",
					CurrentRunID: prior.ID,
				}
			}
		}

		lineageID := requestID
		if prior != nil {
			lineageID = prior.LineageID
		}
		maxVersion, err := s.runRepo.MaxVersionForLineage(ctx, tx, tenantID, lineageID)
		if err != nil {
			return fmt.Errorf("compute next version: %w", err)
		}
		nextVersion := maxVersion + 1
		newRunID := uuid.New()

		// Demote the prior current before inserting the new one so the
		// single-current index stays satisfied at every statement.
		if prior != nil {
			if err := s.runRepo.UpdateFields(ctx, tx, prior.ID, map[string]interface{}{
				"is_current":        false,
				"superseded_by":     newRunID,
				"superseded_reason": opts.SupersededReason,
			}); err != nil {
				return fmt.Errorf("supersede prior run: %w", err)
			}
		}

		run := &types.PricingRun{
			ID:             newRunID,
			TenantID:       tenantID,
			RequestID:      requestID,
			LineageID:      lineageID,
			VersionNumber:  nextVersion,
			IsCurrent:      true,
			ApprovalStatus: types.ApprovalStatusDraft,
			Outcome:        types.OutcomePending,
			CreatedBy:      opts.CreatedBy,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if _, err := s.runRepo.Create(ctx, tx, []*types.PricingRun{run}); err != nil {
			return fmt.Errorf("create pricing run: %w", err)
		}

		codes := make([]string, 0, len(state.items))
		for _, item := range state.items {
			if item.MaterialCode != "" {
				codes = append(codes, item.MaterialCode)
			}
		}
		materials, err := s.rateService.LookupMaterials(ctx, tx, tenantID, codes)
		if err != nil {
			return err
		}

		runItems := make([]*types.PricingRunItem, 0, len(state.items))
		totalDuty := decimal.Zero
		totalLogistics := decimal.Zero
		for _, item := range state.items {
			priced, err := s.itemPricer.PriceItem(ctx, tx, tenantID, PriceItemInput{
				Item:           item,
				Material:       materials[item.MaterialCode],
				Client:         state.client,
				Defaults:       state.defaults,
				Policy:         cfg,
				TotalItemCount: len(state.items),
				Destination:    state.defaults.TaxJurisdiction,
				AsOf:           now,
			})
			if err != nil {
				return fmt.Errorf("price item %d: %w", item.Position, err)
			}
			priced.RunID = run.ID
			runItems = append(runItems, priced)
			totalDuty = totalDuty.Add(priced.DutyAmount)
			totalLogistics = totalLogistics.Add(priced.FreightCost).Add(priced.InsuranceCost).Add(priced.HandlingCost).Add(priced.LocalCharges)

			// Duty annotation is the one write-back the core does on items.
			if err := s.itemRepo.UpdateDutyAmount(ctx, tx, item.ID, priced.DutyAmount); err != nil {
				return fmt.Errorf("annotate item duty: %w", err)
			}
		}

		taxRate := decimal.Zero
		taxRule, err := s.taxService.GetActiveRule(ctx, tx, tenantID, state.defaults.TaxJurisdiction, now)
		if err != nil {
			return err
		}
		if taxRule != nil {
			taxRate = taxRule.RatePct
		} else {
			s.log.Warn("No active tax rule for jurisdiction; run priced without tax",
				"jurisdiction", state.defaults.TaxJurisdiction, "request_id", requestID)
		}
		taxComp := s.taxService.ComputeForRun(runItems, taxRate)
		for i := range runItems {
			runItems[i].TaxAmount = taxComp.PerItem[i]
		}

		if _, err := s.runItemRepo.Create(ctx, tx, runItems); err != nil {
			return fmt.Errorf("create run items: %w", err)
		}

		landed := taxComp.Subtotal.Add(totalDuty).Add(totalLogistics)
		if err := s.runRepo.UpdateFields(ctx, tx, run.ID, map[string]interface{}{
			"subtotal":             taxComp.Subtotal,
			"total_tax":            taxComp.TaxAmount,
			"total_duty":           totalDuty,
			"total_logistics_cost": totalLogistics,
			"total_landed_cost":    landed,
			"approval_status":      types.ApprovalStatusPendingApproval,
		}); err != nil {
			return fmt.Errorf("finalize run totals: %w", err)
		}

		run.Subtotal = taxComp.Subtotal
		run.TotalTax = taxComp.TaxAmount
		run.TotalDuty = totalDuty
		run.TotalLogisticsCost = totalLogistics
		run.TotalLandedCost = landed
		run.ApprovalStatus = types.ApprovalStatusPendingApproval
		created = run
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Pricing run created",
		"run_id", created.ID, "request_id", requestID, "version", created.VersionNumber, "subtotal", created.Subtotal)
	return created, nil
}

func (s *pricingRunService) GetPricingRun(ctx context.Context, tx *gorm.DB, tenantID, runID uuid.UUID) (*types.PricingRun, error) {
	run, err := s.runRepo.GetByID(ctx, tx, tenantID, runID)
	if err != nil {
		return nil, fmt.Errorf("get pricing run: %w", err)
	}
	if run == nil {
		return nil, ErrNotFound
	}
	return run, nil
}

func (s *pricingRunService) GetPricingRunsForRequest(ctx context.Context, tx *gorm.DB, tenantID, requestID uuid.UUID) ([]*types.PricingRun, error) {
	runs, err := s.runRepo.GetByRequestID(ctx, tx, tenantID, requestID)
	if err != nil {
		return nil, fmt.Errorf("get pricing runs: %w", err)
	}
	return runs, nil
}

func (s *pricingRunService) GetRunItems(ctx context.Context, tx *gorm.DB, tenantID, runID uuid.UUID) ([]*types.PricingRunItem, error) {
	items, err := s.runItemRepo.GetByRunID(ctx, tx, tenantID, runID)
	if err != nil {
		return nil, fmt.Errorf("get run items: %w", err)
	}
	return items, nil
}

func (s *pricingRunService) GetVersions(ctx context.Context, tx *gorm.DB, tenantID, runID uuid.UUID) ([]*types.PricingRun, error) {
	run, err := s.GetPricingRun(ctx, tx, tenantID, runID)
	if err != nil {
		return nil, err
	}
	versions, err := s.runRepo.GetByLineage(ctx, tx, tenantID, run.LineageID)
	if err != nil {
		return nil, fmt.Errorf("get lineage versions: %w", err)
	}
	return versions, nil
}

func (s *pricingRunService) GetSnapshots(ctx context.Context, tx *gorm.DB, tenantID, runID uuid.UUID) ([]*types.PricingRunSnapshot, error) {
	run, err := s.GetPricingRun(ctx, tx, tenantID, runID)
	if err != nil {
		return nil, err
	}
	snapshots, err := s.snapshotRepo.GetByLineage(ctx, tx, tenantID, run.LineageID)
	if err != nil {
		return nil, fmt.Errorf("get snapshots: %w", err)
	}
	return snapshots, nil
}

func validOutcome(outcome string) bool {
	switch outcome {
	case types.OutcomePending, types.OutcomeWon, types.OutcomeLost, types.OutcomeCancelled:
		return true
	}
	return false
}

func (s *pricingRunService) UpdateOutcome(ctx context.Context, tenantID, runID uuid.UUID, outcome string, date *time.Time, reason string) (*types.PricingRun, error) {
	if !validOutcome(outcome) {
		return nil, &ValidationError{Field: "outcome", Message: fmt.Sprintf("unknown outcome %q", outcome)}
	}
	var run *types.PricingRun
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := s.runRepo.GetByIDForUpdate(ctx, tx, tenantID, runID)
		if err != nil {
			return fmt.Errorf("lock pricing run: %w", err)
		}
		if locked == nil {
			return ErrNotFound
		}
		if date == nil {
			now := time.Now()
			date = &now
		}
		if err := s.runRepo.UpdateFields(ctx, tx, locked.ID, map[string]interface{}{
			"outcome":        outcome,
			"outcome_date":   *date,
			"outcome_reason": reason,
		}); err != nil {
			return fmt.Errorf("update outcome: %w", err)
		}
		locked.Outcome = outcome
		locked.OutcomeDate = date
		locked.OutcomeReason = reason
		run = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	return run, nil
}

// LockPricingRun is idempotent: locking an already locked run returns it
// unchanged, keeping the original locked_at/locked_by. The row lock makes
// concurrent lock calls serialize, so only the first writer stamps the run.
func (s *pricingRunService) LockPricingRun(ctx context.Context, tenantID, runID uuid.UUID, lockedBy string) (*types.PricingRun, error) {
	var run *types.PricingRun
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := s.runRepo.GetByIDForUpdate(ctx, tx, tenantID, runID)
		if err != nil {
			return fmt.Errorf("lock pricing run: %w", err)
		}
		if locked == nil {
			return ErrNotFound
		}
		if locked.IsLocked {
			run = locked
			return nil
		}
		now := time.Now()
		if err := s.runRepo.UpdateFields(ctx, tx, locked.ID, map[string]interface{}{
			"is_locked": true,
			"locked_at": now,
			"locked_by": lockedBy,
		}); err != nil {
			return fmt.Errorf("lock pricing run: %w", err)
		}
		locked.IsLocked = true
		locked.LockedAt = &now
		locked.LockedBy = lockedBy
		run = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Pricing run locked", "run_id", run.ID, "locked_by", run.LockedBy)
	return run, nil
}

// AssertNotLocked is the guard the item-edit path calls before mutating a
// request's line items.
func (s *pricingRunService) AssertNotLocked(ctx context.Context, tx *gorm.DB, tenantID, requestID uuid.UUID) error {
	current, err := s.runRepo.GetCurrentByRequestID(ctx, tx, tenantID, requestID)
	if err != nil {
		return fmt.Errorf("get current run: %w", err)
	}
	if current != nil && current.IsLocked {
		return &RunLockedError{RunID: current.ID, LockedAt: current.LockedAt, LockedBy: current.LockedBy}
	}
	return nil
}

// CreateRevision snapshots the run and its items, then opens a new draft
// version copying the pricing verbatim. The current flag moves to the new
// draft within the same transaction.
func (s *pricingRunService) CreateRevision(ctx context.Context, tenantID, runID uuid.UUID, reason, createdBy string) (*types.PricingRun, error) {
	if reason == "" {
		return nil, &ValidationError{Field: "reason", Message: "a revision reason is required"}
	}

	var revision *types.PricingRun
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		source, err := s.runRepo.GetByID(ctx, tx, tenantID, runID)
		if err != nil {
			return fmt.Errorf("get pricing run: %w", err)
		}
		if source == nil {
			return ErrNotFound
		}
		if _, err := s.requestRepo.GetByIDForUpdate(ctx, tx, tenantID, source.RequestID); err != nil {
			return fmt.Errorf("lock quote request: %w", err)
		}

		items, err := s.runItemRepo.GetByRunID(ctx, tx, tenantID, source.ID)
		if err != nil {
			return fmt.Errorf("get run items: %w", err)
		}

		runData, err := json.Marshal(source)
		if err != nil {
			return fmt.Errorf("marshal run snapshot: %w", err)
		}
		itemData, err := json.Marshal(items)
		if err != nil {
			return fmt.Errorf("marshal item snapshot: %w", err)
		}
		snapshot := &types.PricingRunSnapshot{
			ID:            uuid.New(),
			TenantID:      tenantID,
			RunID:         source.ID,
			LineageID:     source.LineageID,
			VersionNumber: source.VersionNumber,
			Reason:        reason,
			RunData:       runData,
			ItemData:      itemData,
			CreatedBy:     createdBy,
		}
		if _, err := s.snapshotRepo.Create(ctx, tx, []*types.PricingRunSnapshot{snapshot}); err != nil {
			return fmt.Errorf("create snapshot: %w", err)
		}

		currents, err := s.runRepo.GetCurrentForUpdate(ctx, tx, tenantID, source.RequestID)
		if err != nil {
			return fmt.Errorf("load current runs: %w", err)
		}
		if len(currents) > 1 {
			return &WorkflowViolationError{
				Reason:       fmt.Sprintf("%d pricing runs are flagged current for this request; manual repair required", len(currents)),
				CurrentRunID: currents[0].ID,
			}
		}

		maxVersion, err := s.runRepo.MaxVersionForLineage(ctx, tx, tenantID, source.LineageID)
		if err != nil {
			return fmt.Errorf("compute next version: %w", err)
		}
		newRunID := uuid.New()

		if len(currents) == 1 {
			if err := s.runRepo.UpdateFields(ctx, tx, currents[0].ID, map[string]interface{}{
				"is_current":        false,
				"superseded_by":     newRunID,
				"superseded_reason": reason,
			}); err != nil {
				return fmt.Errorf("supersede current run: %w", err)
			}
		}

		now := time.Now()
		newRun := &types.PricingRun{
			ID:                 newRunID,
			TenantID:           tenantID,
			RequestID:          source.RequestID,
			LineageID:          source.LineageID,
			VersionNumber:      maxVersion + 1,
			IsCurrent:          true,
			ApprovalStatus:     types.ApprovalStatusDraft,
			Subtotal:           source.Subtotal,
			TotalTax:           source.TotalTax,
			TotalDuty:          source.TotalDuty,
			TotalLogisticsCost: source.TotalLogisticsCost,
			TotalLandedCost:    source.TotalLandedCost,
			Outcome:            types.OutcomePending,
			CreatedBy:          createdBy,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if _, err := s.runRepo.Create(ctx, tx, []*types.PricingRun{newRun}); err != nil {
			return fmt.Errorf("create revision run: %w", err)
		}

		copies := make([]*types.PricingRunItem, 0, len(items))
		for _, item := range items {
			dup := *item
			dup.ID = uuid.New()
			dup.RunID = newRun.ID
			dup.CreatedAt = now
			dup.UpdatedAt = now
			copies = append(copies, &dup)
		}
		if _, err := s.runItemRepo.Create(ctx, tx, copies); err != nil {
			return fmt.Errorf("copy run items: %w", err)
		}

		revision = newRun
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Revision created", "source_run_id", runID, "revision_run_id", revision.ID, "version", revision.VersionNumber)
	return revision, nil
}
