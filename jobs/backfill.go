/*
Package jobs runs the payroll engine's scheduled background work.

PURPOSE:
  The attendance pipeline only ever sees punches, so an employee who
  never shows up leaves no record at all. The absent backfill closes
  that gap: shortly before midnight it writes an Absent record for every
  active employee with no record on the day, so the monthly aggregate
  counts no-shows instead of silently skipping them.

SCHEDULING:
  robfig/cron with a standard five-field spec, "50 23 * * *" by default.
  Running before midnight keeps the record on the day it describes; a
  late punch the next morning cannot land on the closed day because the
  record already exists.

SEE ALSO:
  - attendance package: Classifies punched days; Absent is the no-punch case
  - config package: ABSENT_BACKFILL_CRON
*/
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/hcm"
)

// =============================================================================
// ABSENT BACKFILL
// =============================================================================

// AbsentBackfill writes Absent records for active employees who never
// clocked in on a given day.
type AbsentBackfill struct {
	store  hcm.Store
	logger *slog.Logger

	// today is swappable for tests.
	today func() hcm.TimePoint
}

func NewAbsentBackfill(store hcm.Store, logger *slog.Logger) *AbsentBackfill {
	return &AbsentBackfill{
		store:  store,
		logger: logger,
		today:  hcm.Today,
	}
}

// Run backfills the current day. Sundays and holidays are non-working
// days, so no-shows on them are not absences.
func (b *AbsentBackfill) Run(ctx context.Context) error {
	date := b.today()
	created, err := b.BackfillDate(ctx, date)
	if err != nil {
		b.logger.Error("absent backfill failed",
			slog.String("date", date.String()),
			slog.String("error", err.Error()))
		return err
	}
	b.logger.Info("absent backfill complete",
		slog.String("date", date.String()),
		slog.Int("records_created", created))
	return nil
}

// BackfillDate writes the missing Absent records for one date and
// returns how many it created. Safe to re-run: days that gained a
// record in the meantime are skipped, and a duplicate insert from a
// concurrent punch is tolerated.
func (b *AbsentBackfill) BackfillDate(ctx context.Context, date hcm.TimePoint) (int, error) {
	if date.IsSunday() {
		return 0, nil
	}
	holidays, err := b.store.ListHolidays(ctx)
	if err != nil {
		return 0, err
	}
	calendar := hcm.ListHolidayCalendar{Holidays: holidays}
	if calendar.IsHoliday(date) {
		return 0, nil
	}

	employees, err := b.store.ListEmployees(ctx)
	if err != nil {
		return 0, err
	}
	recorded, err := b.store.ListAttendanceByDate(ctx, date)
	if err != nil {
		return 0, err
	}
	seen := make(map[hcm.EmployeeID]bool, len(recorded))
	for _, rec := range recorded {
		seen[rec.EmployeeID] = true
	}

	created := 0
	for _, emp := range employees {
		if !emp.IsActive || seen[emp.ID] {
			continue
		}
		err := b.store.CreateAttendance(ctx, hcm.AttendanceRecord{
			ID:            uuid.NewString(),
			EmployeeID:    emp.ID,
			Date:          date,
			Status:        hcm.StatusAbsent,
			WorkedHours:   decimal.Zero,
			OvertimeHours: decimal.Zero,
		})
		if err != nil {
			// A punch that raced the backfill already owns the day.
			if hcm.IsClientError(err) {
				continue
			}
			return created, err
		}
		created++
	}
	return created, nil
}

// =============================================================================
// SCHEDULER
// =============================================================================

// Scheduler owns the cron runner and the jobs registered on it.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

func NewScheduler(logger *slog.Logger) *Scheduler {
	return &Scheduler{cron: cron.New(), logger: logger}
}

// Register adds the absent backfill on the given five-field cron spec.
func (s *Scheduler) Register(spec string, backfill *AbsentBackfill) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		_ = backfill.Run(ctx)
	})
	if err != nil {
		return err
	}
	s.logger.Info("scheduled absent backfill", slog.String("spec", spec))
	return nil
}

// Start launches the cron runner in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
