package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ironquote/ironquote-backend/internal/types"
)

// fakeStore is an in-memory stand-in for the repo layer. The sqlite handle
// only drives the transaction wrapper; row locking itself is exercised
// against postgres.
type fakeStore struct {
	tenants   map[uuid.UUID]*types.Tenant
	defaults  map[uuid.UUID]*types.TenantPricingDefaults
	requests  map[uuid.UUID]*types.QuoteRequest
	items     map[uuid.UUID][]*types.QuoteItem // keyed by request id
	clients   map[uuid.UUID]*types.Client
	runs      map[uuid.UUID]*types.PricingRun
	runItems  map[uuid.UUID][]*types.PricingRunItem // keyed by run id
	snapshots []*types.PricingRunSnapshot

	failRunItemCreate bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tenants:  map[uuid.UUID]*types.Tenant{},
		defaults: map[uuid.UUID]*types.TenantPricingDefaults{},
		requests: map[uuid.UUID]*types.QuoteRequest{},
		items:    map[uuid.UUID][]*types.QuoteItem{},
		clients:  map[uuid.UUID]*types.Client{},
		runs:     map[uuid.UUID]*types.PricingRun{},
		runItems: map[uuid.UUID][]*types.PricingRunItem{},
	}
}

func (f *fakeStore) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Tenant, error) {
	return f.tenants[id], nil
}

func (f *fakeStore) GetPricingDefaults(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) (*types.TenantPricingDefaults, error) {
	return f.defaults[tenantID], nil
}

type fakeRequestRepo struct{ store *fakeStore }

func (f *fakeRequestRepo) GetByID(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID) (*types.QuoteRequest, error) {
	return f.store.requests[id], nil
}

func (f *fakeRequestRepo) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID) (*types.QuoteRequest, error) {
	return f.store.requests[id], nil
}

type fakeItemRepo struct{ store *fakeStore }

func (f *fakeItemRepo) GetByRequestID(ctx context.Context, tx *gorm.DB, tenantID, requestID uuid.UUID) ([]*types.QuoteItem, error) {
	return f.store.items[requestID], nil
}

func (f *fakeItemRepo) UpdateDutyAmount(ctx context.Context, tx *gorm.DB, id uuid.UUID, dutyAmount decimal.Decimal) error {
	for _, items := range f.store.items {
		for _, item := range items {
			if item.ID == id {
				d := dutyAmount
				item.DutyAmount = &d
				return nil
			}
		}
	}
	return fmt.Errorf("quote item %s not found", id)
}

type fakeClientRepo struct{ store *fakeStore }

func (f *fakeClientRepo) GetByID(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID) (*types.Client, error) {
	return f.store.clients[id], nil
}

type fakeRunRepo struct{ store *fakeStore }

func (f *fakeRunRepo) Create(ctx context.Context, tx *gorm.DB, runs []*types.PricingRun) ([]*types.PricingRun, error) {
	for _, run := range runs {
		f.store.runs[run.ID] = run
	}
	return runs, nil
}

func (f *fakeRunRepo) GetByID(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID) (*types.PricingRun, error) {
	return f.store.runs[id], nil
}

func (f *fakeRunRepo) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID) (*types.PricingRun, error) {
	return f.store.runs[id], nil
}

func (f *fakeRunRepo) GetByRequestID(ctx context.Context, tx *gorm.DB, tenantID, requestID uuid.UUID) ([]*types.PricingRun, error) {
	var out []*types.PricingRun
	for _, run := range f.store.runs {
		if run.RequestID == requestID {
			out = append(out, run)
		}
	}
	return out, nil
}

func (f *fakeRunRepo) GetByLineage(ctx context.Context, tx *gorm.DB, tenantID, lineageID uuid.UUID) ([]*types.PricingRun, error) {
	var out []*types.PricingRun
	for _, run := range f.store.runs {
		if run.LineageID == lineageID {
			out = append(out, run)
		}
	}
	return out, nil
}

func (f *fakeRunRepo) GetByLineageAndVersion(ctx context.Context, tx *gorm.DB, tenantID, lineageID uuid.UUID, version int) (*types.PricingRun, error) {
	for _, run := range f.store.runs {
		if run.LineageID == lineageID && run.VersionNumber == version {
			return run, nil
		}
	}
	return nil, nil
}

func (f *fakeRunRepo) GetCurrentForUpdate(ctx context.Context, tx *gorm.DB, tenantID, requestID uuid.UUID) ([]*types.PricingRun, error) {
	var out []*types.PricingRun
	for _, run := range f.store.runs {
		if run.RequestID == requestID && run.IsCurrent {
			out = append(out, run)
		}
	}
	return out, nil
}

func (f *fakeRunRepo) GetCurrentByRequestID(ctx context.Context, tx *gorm.DB, tenantID, requestID uuid.UUID) (*types.PricingRun, error) {
	for _, run := range f.store.runs {
		if run.RequestID == requestID && run.IsCurrent {
			return run, nil
		}
	}
	return nil, nil
}

func (f *fakeRunRepo) MaxVersionForLineage(ctx context.Context, tx *gorm.DB, tenantID, lineageID uuid.UUID) (int, error) {
	max := 0
	for _, run := range f.store.runs {
		if run.LineageID == lineageID && run.VersionNumber > max {
			max = run.VersionNumber
		}
	}
	return max, nil
}

func (f *fakeRunRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	run, ok := f.store.runs[id]
	if !ok {
		return fmt.Errorf("pricing run %s not found", id)
	}
	for key, value := range updates {
		switch key {
		case "is_current":
			run.IsCurrent = value.(bool)
		case "superseded_by":
			v := value.(uuid.UUID)
			run.SupersededBy = &v
		case "superseded_reason":
			run.SupersededReason = value.(string)
		case "approval_status":
			run.ApprovalStatus = value.(string)
		case "subtotal":
			run.Subtotal = value.(decimal.Decimal)
		case "total_tax":
			run.TotalTax = value.(decimal.Decimal)
		case "total_duty":
			run.TotalDuty = value.(decimal.Decimal)
		case "total_logistics_cost":
			run.TotalLogisticsCost = value.(decimal.Decimal)
		case "total_landed_cost":
			run.TotalLandedCost = value.(decimal.Decimal)
		case "is_locked":
			run.IsLocked = value.(bool)
		case "locked_at":
			v := value.(time.Time)
			run.LockedAt = &v
		case "locked_by":
			run.LockedBy = value.(string)
		case "outcome":
			run.Outcome = value.(string)
		case "outcome_date":
			v := value.(time.Time)
			run.OutcomeDate = &v
		case "outcome_reason":
			run.OutcomeReason = value.(string)
		}
	}
	return nil
}

type fakeRunItemRepo struct{ store *fakeStore }

func (f *fakeRunItemRepo) Create(ctx context.Context, tx *gorm.DB, items []*types.PricingRunItem) ([]*types.PricingRunItem, error) {
	if f.store.failRunItemCreate {
		return nil, errors.New("induced item insert failure")
	}
	for _, item := range items {
		f.store.runItems[item.RunID] = append(f.store.runItems[item.RunID], item)
	}
	return items, nil
}

func (f *fakeRunItemRepo) GetByRunID(ctx context.Context, tx *gorm.DB, tenantID, runID uuid.UUID) ([]*types.PricingRunItem, error) {
	return f.store.runItems[runID], nil
}

type fakeSnapshotRepo struct{ store *fakeStore }

func (f *fakeSnapshotRepo) Create(ctx context.Context, tx *gorm.DB, snapshots []*types.PricingRunSnapshot) ([]*types.PricingRunSnapshot, error) {
	f.store.snapshots = append(f.store.snapshots, snapshots...)
	return snapshots, nil
}

func (f *fakeSnapshotRepo) GetByLineage(ctx context.Context, tx *gorm.DB, tenantID, lineageID uuid.UUID) ([]*types.PricingRunSnapshot, error) {
	var out []*types.PricingRunSnapshot
	for _, snap := range f.store.snapshots {
		if snap.LineageID == lineageID {
			out = append(out, snap)
		}
	}
	return out, nil
}

type fakeTaxRuleRepo struct{ rule *types.TaxRule }

func (f *fakeTaxRuleRepo) GetActive(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, jurisdiction string, asOf time.Time) (*types.TaxRule, error) {
	return f.rule, nil
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

type orchestratorFixture struct {
	store     *fakeStore
	service   PricingRunService
	tenantID  uuid.UUID
	requestID uuid.UUID
	clientID  uuid.UUID
}

func newOrchestratorFixture(t *testing.T) *orchestratorFixture {
	t.Helper()
	store := newFakeStore()
	log := testLogger(t)
	db := testDB(t)

	tenantID := uuid.New()
	clientID := uuid.New()
	requestID := uuid.New()

	store.tenants[tenantID] = &types.Tenant{ID: tenantID, Name: "Gulf Metals", Active: true}
	store.defaults[tenantID] = &types.TenantPricingDefaults{
		ID:                  uuid.New(),
		TenantID:            tenantID,
		DefaultMarkupPct:    decimal.RequireFromString("20"),
		DefaultLogisticsPct: decimal.RequireFromString("5"),
		DefaultRiskPct:      decimal.RequireFromString("2"),
		TaxJurisdiction:     "US-TX",
		MarginAlertPct:      decimal.RequireFromString("18"),
		DiscountAlertPct:    decimal.RequireFromString("2"),
	}
	store.clients[clientID] = &types.Client{ID: clientID, TenantID: tenantID, Name: "Acme Pipe", Segment: "strategic"}
	store.requests[requestID] = &types.QuoteRequest{ID: requestID, TenantID: tenantID, ClientID: clientID, Status: "submitted"}
	store.items[requestID] = []*types.QuoteItem{
		{
			ID: uuid.New(), TenantID: tenantID, RequestID: requestID, Position: 1,
			MaterialCode: "CS-BEAM-200", Quantity: decimal.RequireFromString("50"),
			SupplierSelected: true,
		},
		{
			ID: uuid.New(), TenantID: tenantID, RequestID: requestID, Position: 2,
			MaterialCode: "CS-PLATE-10", Quantity: decimal.RequireFromString("10"),
			SupplierSelected: true, TaxExempt: true,
		},
	}

	rates := &stubRates{materials: map[string]*types.Material{
		"CS-BEAM-200": {ID: uuid.New(), TenantID: tenantID, Code: "CS-BEAM-200", Category: "carbon_steel", BaseCost: decimal.RequireFromString("100")},
		"CS-PLATE-10": {ID: uuid.New(), TenantID: tenantID, Code: "CS-PLATE-10", Category: "carbon_steel", BaseCost: decimal.RequireFromString("40")},
	}}
	taxService := NewTaxService(db, log, &fakeTaxRuleRepo{rule: &types.TaxRule{
		ID: uuid.New(), TenantID: tenantID, Jurisdiction: "US-TX", RatePct: decimal.RequireFromString("8"),
	}})
	pricer := NewItemPricerService(db, log, rates, &stubDuty{}, &stubLogistics{})

	service := NewPricingRunService(
		db, log,
		store,
		&fakeRequestRepo{store: store},
		&fakeItemRepo{store: store},
		&fakeClientRepo{store: store},
		&fakeRunRepo{store: store},
		&fakeRunItemRepo{store: store},
		&fakeSnapshotRepo{store: store},
		rates,
		taxService,
		pricer,
	)
	return &orchestratorFixture{
		store:     store,
		service:   service,
		tenantID:  tenantID,
		requestID: requestID,
		clientID:  clientID,
	}
}

func TestCreatePricingRunFirstVersion(t *testing.T) {
	fx := newOrchestratorFixture(t)
	ctx := context.Background()

	run, err := fx.service.CreatePricingRun(ctx, fx.tenantID, fx.requestID, CreateRunOptions{CreatedBy: "pricer@gulfmetals.test"})
	if err != nil {
		t.Fatalf("CreatePricingRun: %v", err)
	}
	if run.VersionNumber != 1 {
		t.Fatalf("version = %d, want 1", run.VersionNumber)
	}
	if !run.IsCurrent {
		t.Fatalf("new run should be current")
	}
	if run.LineageID != fx.requestID {
		t.Fatalf("first version lineage should be seeded from the request id")
	}
	if run.ApprovalStatus != types.ApprovalStatusPendingApproval {
		t.Fatalf("approval status = %s, want pending_approval", run.ApprovalStatus)
	}

	items := fx.store.runItems[run.ID]
	if len(items) != 2 {
		t.Fatalf("run items = %d, want 2", len(items))
	}
	subtotal := items[0].ExtendedPrice.Add(items[1].ExtendedPrice)
	if !run.Subtotal.Equal(subtotal) {
		t.Fatalf("subtotal %s != sum of extended prices %s", run.Subtotal, subtotal)
	}
	// Second line is tax exempt; only the first contributes tax.
	wantTax := items[0].ExtendedPrice.Mul(decimal.RequireFromString("8")).Div(decimal.RequireFromString("100"))
	if !run.TotalTax.Equal(wantTax) {
		t.Fatalf("total tax %s, want %s", run.TotalTax, wantTax)
	}
	if !run.TotalLandedCost.Equal(run.Subtotal.Add(run.TotalDuty).Add(run.TotalLogisticsCost)) {
		t.Fatalf("landed cost is not subtotal + duty + logistics")
	}
}

func TestCreatePricingRunSupersedesPrior(t *testing.T) {
	fx := newOrchestratorFixture(t)
	ctx := context.Background()

	first, err := fx.service.CreatePricingRun(ctx, fx.tenantID, fx.requestID, CreateRunOptions{})
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := fx.service.CreatePricingRun(ctx, fx.tenantID, fx.requestID, CreateRunOptions{SupersededReason: "cost update"})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if second.VersionNumber != 2 {
		t.Fatalf("second version = %d, want 2", second.VersionNumber)
	}
	if second.LineageID != first.LineageID {
		t.Fatalf("lineage must be shared across versions")
	}

	prior := fx.store.runs[first.ID]
	if prior.IsCurrent {
		t.Fatalf("prior run should be demoted")
	}
	if prior.SupersededBy == nil || *prior.SupersededBy != second.ID {
		t.Fatalf("prior run should point at its successor")
	}
	if prior.SupersededReason != "cost update" {
		t.Fatalf("superseded reason = %q", prior.SupersededReason)
	}

	currents := 0
	for _, run := range fx.store.runs {
		if run.IsCurrent {
			currents++
		}
	}
	if currents != 1 {
		t.Fatalf("%d current runs, want exactly 1", currents)
	}
}

func TestCreatePricingRunApprovedGuard(t *testing.T) {
	fx := newOrchestratorFixture(t)
	ctx := context.Background()

	first, err := fx.service.CreatePricingRun(ctx, fx.tenantID, fx.requestID, CreateRunOptions{})
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	fx.store.runs[first.ID].ApprovalStatus = types.ApprovalStatusApproved

	_, err = fx.service.CreatePricingRun(ctx, fx.tenantID, fx.requestID, CreateRunOptions{})
	var wv *WorkflowViolationError
	if !errors.As(err, &wv) {
		t.Fatalf("got %v, want WorkflowViolationError", err)
	}
	if wv.CurrentRunID != first.ID {
		t.Fatalf("violation should name the blocking run")
	}

	// Permission without a reason is still refused.
	_, err = fx.service.CreatePricingRun(ctx, fx.tenantID, fx.requestID, CreateRunOptions{HasRepricePermission: true})
	if !errors.As(err, &wv) {
		t.Fatalf("permission without reason: got %v, want WorkflowViolationError", err)
	}

	second, err := fx.service.CreatePricingRun(ctx, fx.tenantID, fx.requestID, CreateRunOptions{
		HasRepricePermission: true,
		SupersededReason:     "renegotiated after award",
	})
	if err != nil {
		t.Fatalf("authorized reprice: %v", err)
	}
	if second.VersionNumber != 2 {
		t.Fatalf("authorized reprice version = %d, want 2", second.VersionNumber)
	}
}

func TestCreatePricingRunPreflightReportsEverything(t *testing.T) {
	fx := newOrchestratorFixture(t)
	ctx := context.Background()

	fx.store.items[fx.requestID][0].SupplierSelected = false
	fx.store.items[fx.requestID][1].NeedsReview = true

	_, err := fx.service.CreatePricingRun(ctx, fx.tenantID, fx.requestID, CreateRunOptions{})
	var pf *PreflightError
	if !errors.As(err, &pf) {
		t.Fatalf("got %v, want PreflightError", err)
	}
	if len(pf.ValidationErrors) != 2 {
		t.Fatalf("validation errors = %v, want both failures reported", pf.ValidationErrors)
	}
	msg := err.Error()
	if !strings.Contains(msg, "supplier") || !strings.Contains(msg, "review") {
		t.Fatalf("preflight message should name both failures: %s", msg)
	}
	if len(fx.store.runs) != 0 {
		t.Fatalf("no run may be created on preflight failure")
	}
}

func TestCreatePricingRunUnknownTenant(t *testing.T) {
	fx := newOrchestratorFixture(t)

	_, err := fx.service.CreatePricingRun(context.Background(), uuid.New(), fx.requestID, CreateRunOptions{})
	var pf *PreflightError
	if !errors.As(err, &pf) {
		t.Fatalf("got %v, want PreflightError", err)
	}
}

func TestCreatePricingRunDetectsMultipleCurrent(t *testing.T) {
	fx := newOrchestratorFixture(t)
	ctx := context.Background()

	lineage := uuid.New()
	for version := 1; version <= 2; version++ {
		id := uuid.New()
		fx.store.runs[id] = &types.PricingRun{
			ID: id, TenantID: fx.tenantID, RequestID: fx.requestID,
			LineageID: lineage, VersionNumber: version, IsCurrent: true,
		}
	}

	_, err := fx.service.CreatePricingRun(ctx, fx.tenantID, fx.requestID, CreateRunOptions{})
	var wv *WorkflowViolationError
	if !errors.As(err, &wv) {
		t.Fatalf("got %v, want WorkflowViolationError on corrupted current flags", err)
	}
}

func TestCreatePricingRunFailsClosedOnItemInsert(t *testing.T) {
	fx := newOrchestratorFixture(t)
	fx.store.failRunItemCreate = true

	run, err := fx.service.CreatePricingRun(context.Background(), fx.tenantID, fx.requestID, CreateRunOptions{})
	if err == nil {
		t.Fatalf("expected item insert failure to fail the run")
	}
	if run != nil {
		t.Fatalf("no run may be returned on failure")
	}
}

func TestLockPricingRunIdempotent(t *testing.T) {
	fx := newOrchestratorFixture(t)
	ctx := context.Background()

	run, err := fx.service.CreatePricingRun(ctx, fx.tenantID, fx.requestID, CreateRunOptions{})
	if err != nil {
		t.Fatalf("CreatePricingRun: %v", err)
	}

	locked, err := fx.service.LockPricingRun(ctx, fx.tenantID, run.ID, "ops@gulfmetals.test")
	if err != nil {
		t.Fatalf("LockPricingRun: %v", err)
	}
	if !locked.IsLocked || locked.LockedAt == nil {
		t.Fatalf("run should be locked with a timestamp")
	}
	firstLockedAt := *locked.LockedAt

	again, err := fx.service.LockPricingRun(ctx, fx.tenantID, run.ID, "someone-else")
	if err != nil {
		t.Fatalf("second lock: %v", err)
	}
	if !again.LockedAt.Equal(firstLockedAt) || again.LockedBy != "ops@gulfmetals.test" {
		t.Fatalf("re-lock must not overwrite the original lock")
	}

	if err := fx.service.AssertNotLocked(ctx, nil, fx.tenantID, fx.requestID); err == nil {
		t.Fatalf("edit guard should refuse a locked current run")
	} else {
		var rl *RunLockedError
		if !errors.As(err, &rl) {
			t.Fatalf("got %v, want RunLockedError", err)
		}
	}
}

func TestAssertNotLockedPassesWhenUnlocked(t *testing.T) {
	fx := newOrchestratorFixture(t)
	ctx := context.Background()

	if err := fx.service.AssertNotLocked(ctx, nil, fx.tenantID, fx.requestID); err != nil {
		t.Fatalf("no current run: %v", err)
	}
	if _, err := fx.service.CreatePricingRun(ctx, fx.tenantID, fx.requestID, CreateRunOptions{}); err != nil {
		t.Fatalf("CreatePricingRun: %v", err)
	}
	if err := fx.service.AssertNotLocked(ctx, nil, fx.tenantID, fx.requestID); err != nil {
		t.Fatalf("unlocked current run: %v", err)
	}
}

func TestUpdateOutcome(t *testing.T) {
	fx := newOrchestratorFixture(t)
	ctx := context.Background()

	run, err := fx.service.CreatePricingRun(ctx, fx.tenantID, fx.requestID, CreateRunOptions{})
	if err != nil {
		t.Fatalf("CreatePricingRun: %v", err)
	}

	_, err = fx.service.UpdateOutcome(ctx, fx.tenantID, run.ID, "maybe", nil, "")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("got %v, want ValidationError for unknown outcome", err)
	}

	when := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	updated, err := fx.service.UpdateOutcome(ctx, fx.tenantID, run.ID, types.OutcomeWon, &when, "lowest conforming bid")
	if err != nil {
		t.Fatalf("UpdateOutcome: %v", err)
	}
	if updated.Outcome != types.OutcomeWon || updated.OutcomeDate == nil || !updated.OutcomeDate.Equal(when) {
		t.Fatalf("outcome not recorded: %+v", updated)
	}
	if fx.store.runs[run.ID].OutcomeReason != "lowest conforming bid" {
		t.Fatalf("outcome reason not persisted")
	}
}

func TestCreateRevision(t *testing.T) {
	fx := newOrchestratorFixture(t)
	ctx := context.Background()

	source, err := fx.service.CreatePricingRun(ctx, fx.tenantID, fx.requestID, CreateRunOptions{})
	if err != nil {
		t.Fatalf("CreatePricingRun: %v", err)
	}

	if _, err := fx.service.CreateRevision(ctx, fx.tenantID, source.ID, "", "estimator"); err == nil {
		t.Fatalf("revision without a reason must be refused")
	}

	revision, err := fx.service.CreateRevision(ctx, fx.tenantID, source.ID, "client asked for resend", "estimator")
	if err != nil {
		t.Fatalf("CreateRevision: %v", err)
	}
	if revision.VersionNumber != source.VersionNumber+1 {
		t.Fatalf("revision version = %d, want %d", revision.VersionNumber, source.VersionNumber+1)
	}
	if revision.LineageID != source.LineageID {
		t.Fatalf("revision must share the source lineage")
	}
	if revision.ApprovalStatus != types.ApprovalStatusDraft {
		t.Fatalf("revision starts as draft, got %s", revision.ApprovalStatus)
	}
	if !revision.Subtotal.Equal(source.Subtotal) {
		t.Fatalf("revision must copy totals verbatim")
	}
	if fx.store.runs[source.ID].IsCurrent {
		t.Fatalf("source run should be demoted")
	}
	if !fx.store.runs[revision.ID].IsCurrent {
		t.Fatalf("revision should be current")
	}

	sourceItems := fx.store.runItems[source.ID]
	revisionItems := fx.store.runItems[revision.ID]
	if len(revisionItems) != len(sourceItems) {
		t.Fatalf("revision items = %d, want %d", len(revisionItems), len(sourceItems))
	}
	for i := range revisionItems {
		if revisionItems[i].ID == sourceItems[i].ID {
			t.Fatalf("revision items must get fresh ids")
		}
		if !revisionItems[i].UnitPrice.Equal(sourceItems[i].UnitPrice) {
			t.Fatalf("revision item %d price drifted", i)
		}
	}

	snapshots, err := fx.service.GetSnapshots(ctx, nil, fx.tenantID, revision.ID)
	if err != nil {
		t.Fatalf("GetSnapshots: %v", err)
	}
	if len(snapshots) != 1 {
		t.Fatalf("snapshots = %d, want 1", len(snapshots))
	}
	if snapshots[0].RunID != source.ID || snapshots[0].VersionNumber != source.VersionNumber {
		t.Fatalf("snapshot should capture the source run")
	}
}

func TestCompareVersions(t *testing.T) {
	fx := newOrchestratorFixture(t)
	ctx := context.Background()

	lineage := uuid.New()
	v1 := &types.PricingRun{
		ID: uuid.New(), TenantID: fx.tenantID, RequestID: fx.requestID,
		LineageID: lineage, VersionNumber: 1,
		TotalLandedCost: decimal.RequireFromString("1000"),
	}
	v2 := &types.PricingRun{
		ID: uuid.New(), TenantID: fx.tenantID, RequestID: fx.requestID,
		LineageID: lineage, VersionNumber: 2, IsCurrent: true,
		TotalLandedCost: decimal.RequireFromString("1100"),
	}
	fx.store.runs[v1.ID] = v1
	fx.store.runs[v2.ID] = v2

	keptID := uuid.New()
	changedID := uuid.New()
	removedID := uuid.New()
	addedID := uuid.New()
	fx.store.runItems[v1.ID] = []*types.PricingRunItem{
		{ID: uuid.New(), RunID: v1.ID, QuoteItemID: keptID, MaterialCode: "CS-BEAM-200", UnitPrice: decimal.RequireFromString("120"), PriceSource: types.PriceSourceCatalog},
		{ID: uuid.New(), RunID: v1.ID, QuoteItemID: changedID, MaterialCode: "CS-PLATE-10", UnitPrice: decimal.RequireFromString("60"), PriceSource: types.PriceSourceCatalog},
		{ID: uuid.New(), RunID: v1.ID, QuoteItemID: removedID, MaterialCode: "AL-BAR-5", UnitPrice: decimal.RequireFromString("30"), PriceSource: types.PriceSourceCatalog},
	}
	fx.store.runItems[v2.ID] = []*types.PricingRunItem{
		{ID: uuid.New(), RunID: v2.ID, QuoteItemID: keptID, MaterialCode: "CS-BEAM-200", UnitPrice: decimal.RequireFromString("120"), PriceSource: types.PriceSourceCatalog},
		{ID: uuid.New(), RunID: v2.ID, QuoteItemID: changedID, MaterialCode: "CS-PLATE-10", UnitPrice: decimal.RequireFromString("70"), PriceSource: types.PriceSourceAgreement},
		{ID: uuid.New(), RunID: v2.ID, QuoteItemID: addedID, MaterialCode: "SS-TUBE-25", UnitPrice: decimal.RequireFromString("90"), PriceSource: types.PriceSourceCatalog},
	}

	diff, err := fx.service.CompareVersions(ctx, nil, fx.tenantID, v1.ID, 1, nil)
	if err != nil {
		t.Fatalf("CompareVersions: %v", err)
	}
	if diff.FromVersion != 1 || diff.ToVersion != 2 {
		t.Fatalf("compared %d..%d, want 1..2 (nil resolves to current)", diff.FromVersion, diff.ToVersion)
	}
	if !diff.TotalDelta.Equal(decimal.RequireFromString("100")) {
		t.Fatalf("total delta = %s, want 100", diff.TotalDelta)
	}
	if diff.PercentDiff == nil || !diff.PercentDiff.Equal(decimal.RequireFromString("10")) {
		t.Fatalf("percent diff = %v, want 10", diff.PercentDiff)
	}
	if len(diff.Added) != 1 || diff.Added[0].QuoteItemID != addedID {
		t.Fatalf("added = %+v", diff.Added)
	}
	if len(diff.Removed) != 1 || diff.Removed[0].QuoteItemID != removedID {
		t.Fatalf("removed = %+v", diff.Removed)
	}
	if len(diff.Modified) != 1 {
		t.Fatalf("modified = %+v, unchanged lines must not be reported", diff.Modified)
	}
	change := diff.Modified[0]
	if change.QuoteItemID != changedID || !change.UnitPriceDelta.Equal(decimal.RequireFromString("10")) {
		t.Fatalf("change = %+v", change)
	}
	if change.PriceSourceBefore != types.PriceSourceCatalog || change.PriceSourceAfter != types.PriceSourceAgreement {
		t.Fatalf("price source transition lost: %+v", change)
	}

	if _, err := fx.service.CompareVersions(ctx, nil, fx.tenantID, v1.ID, 7, nil); err == nil {
		t.Fatalf("unknown version must be rejected")
	}
}
