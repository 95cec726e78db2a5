package report_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/market-moderation/internal/domain/entity"
	"github.com/ignatzorin/market-moderation/internal/domain/valueobject"
	"github.com/ignatzorin/market-moderation/internal/infrastructure/events"
	"github.com/ignatzorin/market-moderation/internal/infrastructure/memory"
	"github.com/ignatzorin/market-moderation/internal/metrics"
	"github.com/ignatzorin/market-moderation/internal/pkg/apperror"
	"github.com/ignatzorin/market-moderation/internal/pkg/keylock"
	"github.com/ignatzorin/market-moderation/internal/pkg/pagination"
	"github.com/ignatzorin/market-moderation/internal/usecase/listing"
	"github.com/ignatzorin/market-moderation/internal/usecase/report"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	listings  *memory.ListingStore
	reports   *memory.ReportStore
	publisher *recordingPublisher
	create    *report.CreateReportUseCase
	list      *report.ListReportsUseCase
	stats     *report.GetReportStatsUseCase
	decide    *report.DecideReportUseCase
	mod       valueobject.Actor
	user      valueobject.Actor
	seller    valueobject.Actor
}

func newFixture() *fixture {
	listings := memory.NewListingStore()
	reports := memory.NewReportStore()
	pub := &recordingPublisher{}
	engine := listing.NewEngine(listings, keylock.New())
	return &fixture{
		listings:  listings,
		reports:   reports,
		publisher: pub,
		create:    report.NewCreateReportUseCase(reports, listings, pub),
		list:      report.NewListReportsUseCase(reports, pagination.DefaultPolicy()),
		stats:     report.NewGetReportStatsUseCase(reports),
		decide:    report.NewDecideReportUseCase(reports, engine, keylock.New(), pub, metrics.New()),
		mod:       valueobject.Actor{ID: uuid.New(), Role: valueobject.RoleModerator},
		user:      valueobject.Actor{ID: uuid.New(), Role: valueobject.RoleUser},
		seller:    valueobject.Actor{ID: uuid.New(), Role: valueobject.RoleSeller},
	}
}

func (f *fixture) newListing(t *testing.T) *entity.Listing {
	t.Helper()
	price, err := valueobject.ParsePrice("99.90", "kg")
	require.NoError(t, err)
	l, err := entity.NewListing(f.seller.ID, entity.ListingFields{
		Title:       "Песок речной",
		Description: "Мытый речной песок, мешки по 50 кг",
		Price:       price,
		Quantity:    10,
		CategoryID:  uuid.New(),
		Type:        valueobject.ListingTypeMaterial,
	}, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, f.listings.Create(context.Background(), l))
	return l
}

func (f *fixture) reportListing(t *testing.T, l *entity.Listing) *entity.Report {
	t.Helper()
	r, err := f.create.Execute(context.Background(), f.user, report.CreateReportInput{
		EntityType: "listing",
		EntityID:   l.ID,
		Reason:     "Подозрение на мошенничество",
	})
	require.NoError(t, err)
	return r
}

func TestCreateReport(t *testing.T) {
	f := newFixture()
	l := f.newListing(t)

	r := f.reportListing(t, l)
	assert.Equal(t, valueobject.ReportStatusPending, r.Status)
	assert.Equal(t, f.user.ID, r.ReporterID)
	assert.Nil(t, r.ResolvedAt)
	assert.Equal(t, []string{events.ReportCreated}, f.publisher.types())

	t.Run("missing listing", func(t *testing.T) {
		_, err := f.create.Execute(context.Background(), f.user, report.CreateReportInput{EntityType: "LISTING", EntityID: uuid.New(), Reason: "спам"})
		assert.True(t, apperror.IsNotFound(err))
	})

	t.Run("user target is not checked locally", func(t *testing.T) {
		_, err := f.create.Execute(context.Background(), f.user, report.CreateReportInput{EntityType: "user", EntityID: uuid.New(), Reason: "оскорбления"})
		assert.NoError(t, err)
	})

	t.Run("reason required", func(t *testing.T) {
		_, err := f.create.Execute(context.Background(), f.user, report.CreateReportInput{EntityType: "listing", EntityID: l.ID, Reason: "  "})
		assert.True(t, apperror.IsValidation(err))
	})

	t.Run("unknown entity type", func(t *testing.T) {
		_, err := f.create.Execute(context.Background(), f.user, report.CreateReportInput{EntityType: "order", EntityID: l.ID, Reason: "спам"})
		assert.True(t, apperror.IsValidation(err))
	})
}

func TestResolveThenDismissScenario(t *testing.T) {
	f := newFixture()
	r := f.reportListing(t, f.newListing(t))

	resolved, err := f.decide.Resolve(context.Background(), r.ID, f.mod, report.DecideReportInput{Notes: "fixed"})
	require.NoError(t, err)
	assert.Equal(t, valueobject.ReportStatusResolved, resolved.Status)
	require.NotNil(t, resolved.ResolvedBy)
	assert.Equal(t, f.mod.ID, *resolved.ResolvedBy)
	assert.NotNil(t, resolved.ResolvedAt)
	assert.Equal(t, "fixed", *resolved.ResolutionNotes)

	_, err = f.decide.Dismiss(context.Background(), r.ID, f.mod, report.DecideReportInput{Notes: "передумал"})
	assert.True(t, apperror.IsInvalidTransition(err))

	_, err = f.decide.Resolve(context.Background(), r.ID, f.mod, report.DecideReportInput{})
	assert.True(t, apperror.IsInvalidTransition(err))

	stored, err := f.reports.FindByID(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.ReportStatusResolved, stored.Status)
	assert.Equal(t, []string{events.ReportCreated, events.ReportResolved}, f.publisher.types())
}

func TestDismiss(t *testing.T) {
	f := newFixture()
	r := f.reportListing(t, f.newListing(t))

	dismissed, err := f.decide.Dismiss(context.Background(), r.ID, f.mod, report.DecideReportInput{Notes: "нарушений нет"})
	require.NoError(t, err)
	assert.Equal(t, valueobject.ReportStatusDismissed, dismissed.Status)

	_, err = f.decide.Resolve(context.Background(), r.ID, f.mod, report.DecideReportInput{})
	assert.True(t, apperror.IsInvalidTransition(err))
}

func TestDecide_Authorization(t *testing.T) {
	f := newFixture()
	r := f.reportListing(t, f.newListing(t))

	_, err := f.decide.Resolve(context.Background(), r.ID, f.user, report.DecideReportInput{})
	assert.True(t, apperror.IsForbidden(err))

	_, err = f.decide.Resolve(context.Background(), uuid.New(), f.mod, report.DecideReportInput{})
	assert.True(t, apperror.IsNotFound(err))
}

func TestResolve_CascadeRejectsListing(t *testing.T) {
	f := newFixture()
	l := f.newListing(t)
	r := f.reportListing(t, l)

	resolved, err := f.decide.Resolve(context.Background(), r.ID, f.mod, report.DecideReportInput{
		Notes:   "подтверждено",
		Cascade: &report.CascadeInput{Action: "REJECT", Reason: "мошенничество"},
	})
	require.NoError(t, err)
	assert.Equal(t, valueobject.ReportStatusResolved, resolved.Status)

	current, err := f.listings.FindByID(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.ListingStatusRejected, current.Status)
	assert.Equal(t, "мошенничество", *current.RejectionReason)
}

func TestResolve_CascadeFailureLeavesReportPending(t *testing.T) {
	f := newFixture()
	l := f.newListing(t)
	r := f.reportListing(t, l)

	// причина обязательна для отклонения
	_, err := f.decide.Resolve(context.Background(), r.ID, f.mod, report.DecideReportInput{
		Cascade: &report.CascadeInput{Action: "reject"},
	})
	assert.True(t, apperror.IsValidation(err))

	stored, err := f.reports.FindByID(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.ReportStatusPending, stored.Status)
}

func TestResolve_CascadeValidation(t *testing.T) {
	f := newFixture()
	l := f.newListing(t)
	r := f.reportListing(t, l)

	for _, action := range []string{"suspend_user", "warn_user", "remove_listing", "deactivate", "publish"} {
		_, err := f.decide.Resolve(context.Background(), r.ID, f.mod, report.DecideReportInput{
			Cascade: &report.CascadeInput{Action: action, Reason: "x"},
		})
		assert.True(t, apperror.IsValidation(err), action)
	}

	_, err := f.decide.Dismiss(context.Background(), r.ID, f.mod, report.DecideReportInput{
		Cascade: &report.CascadeInput{Action: "approve"},
	})
	assert.True(t, apperror.IsValidation(err))

	userReport, err := f.create.Execute(context.Background(), f.user, report.CreateReportInput{EntityType: "user", EntityID: uuid.New(), Reason: "спам"})
	require.NoError(t, err)
	_, err = f.decide.Resolve(context.Background(), userReport.ID, f.mod, report.DecideReportInput{
		Cascade: &report.CascadeInput{Action: "approve"},
	})
	assert.True(t, apperror.IsValidation(err))
}

func TestDecide_ConcurrentResolveAndDismiss(t *testing.T) {
	f := newFixture()
	r := f.reportListing(t, f.newListing(t))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = f.decide.Resolve(context.Background(), r.ID, f.mod, report.DecideReportInput{})
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = f.decide.Dismiss(context.Background(), r.ID, f.mod, report.DecideReportInput{})
	}()
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, apperror.IsInvalidTransition(err) || apperror.IsConflict(err), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)
}

func TestListReportsAndStats(t *testing.T) {
	f := newFixture()
	l := f.newListing(t)

	var ids []uuid.UUID
	for i := 0; i < 6; i++ {
		r, err := f.create.Execute(context.Background(), f.user, report.CreateReportInput{
			EntityType: "listing",
			EntityID:   l.ID,
			Reason:     fmt.Sprintf("жалоба %d", i),
		})
		require.NoError(t, err)
		ids = append(ids, r.ID)
	}
	_, err := f.decide.Resolve(context.Background(), ids[0], f.mod, report.DecideReportInput{})
	require.NoError(t, err)
	_, err = f.decide.Dismiss(context.Background(), ids[1], f.mod, report.DecideReportInput{})
	require.NoError(t, err)
	_, err = f.decide.Dismiss(context.Background(), ids[2], f.mod, report.DecideReportInput{})
	require.NoError(t, err)

	stats, err := f.stats.Execute(context.Background(), f.mod)
	require.NoError(t, err)
	assert.Equal(t, report.ReportStats{Pending: 3, Resolved: 1, Dismissed: 2, Total: 6}, *stats)

	all, err := f.list.Execute(context.Background(), f.mod, report.ListReportsInput{})
	require.NoError(t, err)
	assert.Equal(t, stats.Total, all.Total)

	for status, want := range map[string]int{"pending": stats.Pending, "RESOLVED": stats.Resolved, "Dismissed": stats.Dismissed} {
		page, err := f.list.Execute(context.Background(), f.mod, report.ListReportsInput{Status: status})
		require.NoError(t, err)
		assert.Equal(t, want, page.Total, status)
	}

	page, err := f.list.Execute(context.Background(), f.mod, report.ListReportsInput{Status: "pending", Skip: 1000, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 3, page.Total)

	_, err = f.list.Execute(context.Background(), f.user, report.ListReportsInput{})
	assert.True(t, apperror.IsForbidden(err))
	_, err = f.stats.Execute(context.Background(), f.user)
	assert.True(t, apperror.IsForbidden(err))
	_, err = f.list.Execute(context.Background(), f.mod, report.ListReportsInput{Status: "closed"})
	assert.True(t, apperror.IsValidation(err))
}

func TestListReportsForReporter(t *testing.T) {
	f := newFixture()
	l := f.newListing(t)
	f.reportListing(t, l)
	other := valueobject.Actor{ID: uuid.New(), Role: valueobject.RoleUser}
	_, err := f.create.Execute(context.Background(), other, report.CreateReportInput{EntityType: "listing", EntityID: l.ID, Reason: "дубль"})
	require.NoError(t, err)

	page, err := f.list.ExecuteForReporter(context.Background(), f.user, report.ListReportsInput{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, f.user.ID, page.Items[0].ReporterID)
}
