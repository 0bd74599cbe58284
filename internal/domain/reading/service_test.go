package reading

import (
	"context"
	"sort"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gasworld/internal/core/apperror"
	"gasworld/internal/core/id"
	"gasworld/internal/domain/authz"
	"gasworld/internal/domain/product"
	"gasworld/internal/infrastructure/cache"
)

// passTx runs the closure directly; the fakes below need no transaction.
type passTx struct{}

func (passTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeReadingRepo struct {
	byID map[id.ID]*PumpReading
	seq  []*PumpReading // insertion order
}

func newFakeReadingRepo() *fakeReadingRepo {
	return &fakeReadingRepo{byID: map[id.ID]*PumpReading{}}
}

func (r *fakeReadingRepo) Create(ctx context.Context, rd *PumpReading) error {
	cp := *rd
	r.byID[rd.ID] = &cp
	r.seq = append(r.seq, &cp)
	return nil
}

func (r *fakeReadingRepo) Update(ctx context.Context, rd *PumpReading) error {
	stored, ok := r.byID[rd.ID]
	if !ok {
		return apperror.NewNotFound("pump reading", rd.ID)
	}
	*stored = *rd
	return nil
}

func (r *fakeReadingRepo) GetByID(ctx context.Context, readingID id.ID) (*PumpReading, error) {
	rd, ok := r.byID[readingID]
	if !ok {
		return nil, apperror.NewNotFound("pump reading", readingID)
	}
	cp := *rd
	return &cp, nil
}

func (r *fakeReadingRepo) GetForUpdate(ctx context.Context, readingID id.ID) (*PumpReading, error) {
	return r.GetByID(ctx, readingID)
}

func (r *fakeReadingRepo) GetLastByPump(ctx context.Context, pumpID id.ID) (*PumpReading, error) {
	var last *PumpReading
	for _, rd := range r.seq {
		if rd.PumpID == pumpID {
			last = rd
		}
	}
	if last == nil {
		return nil, nil
	}
	cp := *last
	return &cp, nil
}

func (r *fakeReadingRepo) SetStatus(ctx context.Context, readingID id.ID, status Status) error {
	rd, ok := r.byID[readingID]
	if !ok {
		return apperror.NewNotFound("pump reading", readingID)
	}
	rd.Status = status
	return nil
}

func (r *fakeReadingRepo) ListByPump(ctx context.Context, pumpID id.ID) ([]*PumpReading, error) {
	var out []*PumpReading
	for _, rd := range r.seq {
		if rd.PumpID == pumpID {
			cp := *rd
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeReadingRepo) ListByStation(ctx context.Context, stationID id.ID) ([]*PumpReading, error) {
	return nil, nil
}

func (r *fakeReadingRepo) ListByAttendant(ctx context.Context, attendantID id.ID, limit int) ([]*PumpReading, error) {
	var out []*PumpReading
	for _, rd := range r.seq {
		if rd.AttendantID == attendantID {
			cp := *rd
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeReadingRepo) ListIDsByAttendant(ctx context.Context, attendantID id.ID, limit int) ([]id.ID, error) {
	readings, err := r.ListByAttendant(ctx, attendantID, limit)
	if err != nil {
		return nil, err
	}
	ids := make([]id.ID, 0, len(readings))
	for _, rd := range readings {
		ids = append(ids, rd.ID)
	}
	return ids, nil
}

type fakePumpRepo struct {
	byID map[id.ID]*product.Pump
}

func newFakePumpRepo(pumps ...*product.Pump) *fakePumpRepo {
	r := &fakePumpRepo{byID: map[id.ID]*product.Pump{}}
	for _, p := range pumps {
		r.byID[p.ID] = p
	}
	return r
}

func (r *fakePumpRepo) Create(ctx context.Context, p *product.Pump) error {
	r.byID[p.ID] = p
	return nil
}

func (r *fakePumpRepo) GetByID(ctx context.Context, pumpID id.ID) (*product.Pump, error) {
	p, ok := r.byID[pumpID]
	if !ok {
		return nil, apperror.NewNotFound("pump", pumpID)
	}
	return p, nil
}

func (r *fakePumpRepo) GetForUpdate(ctx context.Context, pumpID id.ID) (*product.Pump, error) {
	return r.GetByID(ctx, pumpID)
}

func (r *fakePumpRepo) ListByStation(ctx context.Context, stationID id.ID) ([]*product.Pump, error) {
	return nil, nil
}

func (r *fakePumpRepo) ListByPit(ctx context.Context, pitID id.ID) ([]*product.Pump, error) {
	return nil, nil
}

func (r *fakePumpRepo) ListByProduct(ctx context.Context, productID id.ID) ([]*product.Pump, error) {
	return nil, nil
}

func (r *fakePumpRepo) Delete(ctx context.Context, pumpID id.ID) error {
	delete(r.byID, pumpID)
	return nil
}

type captureBuilder struct {
	name   string
	events []CompletedEvent
	err    error
}

func (b *captureBuilder) Name() string { return b.name }

func (b *captureBuilder) OnReadingCompleted(ctx context.Context, ev CompletedEvent) error {
	if b.err != nil {
		return b.err
	}
	b.events = append(b.events, ev)
	return nil
}

type bindingSource struct {
	roles    map[id.ID]string
	stations map[id.ID]id.ID
	readings *fakeReadingRepo
}

func (s *bindingSource) RoleOf(ctx context.Context, userID id.ID) (string, error) {
	return s.roles[userID], nil
}

func (s *bindingSource) StationOf(ctx context.Context, userID id.ID) (*id.ID, error) {
	st, ok := s.stations[userID]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (s *bindingSource) RecentReadingIDs(ctx context.Context, attendantID id.ID, limit int) ([]id.ID, error) {
	return s.readings.ListIDsByAttendant(ctx, attendantID, limit)
}

func (s *bindingSource) AttendantIDsByStation(ctx context.Context, stationID id.ID) ([]id.ID, error) {
	return nil, nil
}

func (s *bindingSource) ManagerIDsByStation(ctx context.Context, stationID id.ID) ([]id.ID, error) {
	return nil, nil
}

// fixture wires a recorder over in-memory fakes: one station with a manager,
// an attendant and a single pump starting at meter 100.
type fixture struct {
	recorder    *Recorder
	readings    *fakeReadingRepo
	builder     *captureBuilder
	pump        *product.Pump
	managerID   id.ID
	attendantID id.ID
	outsiderID  id.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	stationID := id.New()
	otherStation := id.New()
	managerID := id.New()
	attendantID := id.New()
	outsiderID := id.New()

	pump := product.NewPump(stationID, id.New(), id.New(), "Pump 1", decimal.NewFromInt(100))

	readings := newFakeReadingRepo()
	source := &bindingSource{
		roles: map[id.ID]string{
			managerID:   authz.RoleManager,
			attendantID: authz.RoleAttendant,
			outsiderID:  authz.RoleAttendant,
		},
		stations: map[id.ID]id.ID{
			managerID:   stationID,
			attendantID: stationID,
			outsiderID:  otherStation,
		},
		readings: readings,
	}
	guard := authz.NewGuard(cache.NewMemoryStore(), source)

	builder := &captureBuilder{name: "capture"}
	recorder := NewRecorder(readings, newFakePumpRepo(pump), guard, passTx{}, nil)
	recorder.RegisterBuilder(builder)

	return &fixture{
		recorder:    recorder,
		readings:    readings,
		builder:     builder,
		pump:        pump,
		managerID:   managerID,
		attendantID: attendantID,
		outsiderID:  outsiderID,
	}
}

func TestOpen_FirstReadingStartsAtInitialMeter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rate := decimal.RequireFromString("230.50")
	rd, err := f.recorder.Open(ctx, OpenParams{
		PumpID:      f.pump.ID,
		AttendantID: f.attendantID,
		Rate:        &rate,
		ActorID:     f.managerID,
	})
	require.NoError(t, err)

	assert.True(t, rd.OpeningMeter.Equal(decimal.NewFromInt(100)))
	assert.True(t, rd.Rate.Equal(rate))
	assert.Equal(t, StatusPending, rd.Status)
	assert.Nil(t, rd.ClosingMeter)
	assert.True(t, rd.IsOpen())
}

func TestOpen_InheritsClosingMeterAndRate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rate := decimal.RequireFromString("230")
	first, err := f.recorder.Open(ctx, OpenParams{
		PumpID: f.pump.ID, AttendantID: f.attendantID, Rate: &rate, ActorID: f.managerID,
	})
	require.NoError(t, err)

	_, err = f.recorder.RecordClosing(ctx, first.ID, f.attendantID, decimal.NewFromInt(150))
	require.NoError(t, err)

	// No rate given: the new reading picks up both values from the
	// previous one.
	second, err := f.recorder.Open(ctx, OpenParams{
		PumpID: f.pump.ID, AttendantID: f.attendantID, ActorID: f.managerID,
	})
	require.NoError(t, err)

	assert.True(t, second.OpeningMeter.Equal(decimal.NewFromInt(150)))
	assert.True(t, second.Rate.Equal(rate))
}

func TestOpen_RejectsSecondOpenReading(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.recorder.Open(ctx, OpenParams{
		PumpID: f.pump.ID, AttendantID: f.attendantID, ActorID: f.managerID,
	})
	require.NoError(t, err)

	_, err = f.recorder.Open(ctx, OpenParams{
		PumpID: f.pump.ID, AttendantID: f.attendantID, ActorID: f.managerID,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsConflictingActivity(err))
}

func TestOpen_ForbiddenForForeignAttendant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.recorder.Open(ctx, OpenParams{
		PumpID: f.pump.ID, AttendantID: f.outsiderID, ActorID: f.managerID,
	})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeForbidden))
}

func TestRecordClosing_CompletesAndPublishes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rate := decimal.RequireFromString("230")
	opened, err := f.recorder.Open(ctx, OpenParams{
		PumpID: f.pump.ID, AttendantID: f.attendantID, Rate: &rate, ActorID: f.managerID,
	})
	require.NoError(t, err)

	closed, err := f.recorder.RecordClosing(ctx, opened.ID, f.attendantID, decimal.NewFromInt(150))
	require.NoError(t, err)

	assert.Equal(t, StatusAccepted, closed.Status)
	assert.True(t, closed.LitersSold().Equal(decimal.NewFromInt(50)))
	assert.True(t, closed.Amount().Equal(decimal.NewFromInt(11500)))

	require.Len(t, f.builder.events, 1)
	ev := f.builder.events[0]
	assert.Equal(t, opened.ID, ev.ReadingID)
	assert.Equal(t, f.pump.ID, ev.PumpID)
	assert.Equal(t, f.pump.PitID, ev.PitID)
	assert.Equal(t, f.pump.StationID, ev.StationID)
	assert.Equal(t, f.attendantID, ev.AttendantID)
	assert.True(t, ev.LitersSold.Equal(decimal.NewFromInt(50)))
	assert.True(t, ev.Amount.Equal(decimal.NewFromInt(11500)))
}

func TestRecordClosing_OnlyAssignedAttendant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	opened, err := f.recorder.Open(ctx, OpenParams{
		PumpID: f.pump.ID, AttendantID: f.attendantID, ActorID: f.managerID,
	})
	require.NoError(t, err)

	_, err = f.recorder.RecordClosing(ctx, opened.ID, f.outsiderID, decimal.NewFromInt(150))
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeForbidden))
	assert.Empty(t, f.builder.events)
}

func TestRecordClosing_RejectsMeterRollback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	opened, err := f.recorder.Open(ctx, OpenParams{
		PumpID: f.pump.ID, AttendantID: f.attendantID, ActorID: f.managerID,
	})
	require.NoError(t, err)

	_, err = f.recorder.RecordClosing(ctx, opened.ID, f.attendantID, decimal.NewFromInt(99))
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
	assert.Empty(t, f.builder.events)

	// Equal meters are a legal zero-liter reading.
	closed, err := f.recorder.RecordClosing(ctx, opened.ID, f.attendantID, decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.True(t, closed.LitersSold().IsZero())
}

func TestRecordClosing_SecondAttemptConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	opened, err := f.recorder.Open(ctx, OpenParams{
		PumpID: f.pump.ID, AttendantID: f.attendantID, ActorID: f.managerID,
	})
	require.NoError(t, err)

	_, err = f.recorder.RecordClosing(ctx, opened.ID, f.attendantID, decimal.NewFromInt(150))
	require.NoError(t, err)

	_, err = f.recorder.RecordClosing(ctx, opened.ID, f.attendantID, decimal.NewFromInt(160))
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeConflict))
	assert.Len(t, f.builder.events, 1)
}

func TestRecord_OneShot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rate := decimal.RequireFromString("230")
	rd, err := f.recorder.Record(ctx, RecordParams{
		PumpID:       f.pump.ID,
		AttendantID:  f.attendantID,
		ClosingMeter: decimal.NewFromInt(180),
		Rate:         &rate,
		ActorID:      f.managerID,
	})
	require.NoError(t, err)

	assert.Equal(t, StatusAccepted, rd.Status)
	assert.True(t, rd.OpeningMeter.Equal(decimal.NewFromInt(100)))
	assert.True(t, rd.LitersSold().Equal(decimal.NewFromInt(80)))
	require.Len(t, f.builder.events, 1)

	// The ledger stays gapless after a one-shot record.
	next, err := f.recorder.Open(ctx, OpenParams{
		PumpID: f.pump.ID, AttendantID: f.attendantID, ActorID: f.managerID,
	})
	require.NoError(t, err)
	assert.True(t, next.OpeningMeter.Equal(decimal.NewFromInt(180)))
}

func TestRecordClosing_BuilderFailureAborts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	opened, err := f.recorder.Open(ctx, OpenParams{
		PumpID: f.pump.ID, AttendantID: f.attendantID, ActorID: f.managerID,
	})
	require.NoError(t, err)

	f.builder.err = apperror.NewDuplicateDerived("sales", opened.ID)

	_, err = f.recorder.RecordClosing(ctx, opened.ID, f.attendantID, decimal.NewFromInt(150))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "projection capture")
	assert.True(t, apperror.HasCode(err, apperror.CodeDuplicateDerived))
}
