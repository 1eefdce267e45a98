package recurring

import (
	"log/slog"
	"time"

	"github.com/mpetrov/fieldclock/internal/apperrors"
	"github.com/mpetrov/fieldclock/internal/db"
	"github.com/mpetrov/fieldclock/internal/logging"
)

// Scheduler turns recurring jobs into dated occurrence rows. Generation
// is idempotent: the window always starts strictly after the job's
// watermark, and the occurrence table's (job, date) unique index
// backstops any date that somehow gets recomputed.
type Scheduler struct {
	jobs *db.RecurringJobStore
	log  *slog.Logger
	now  func() time.Time
}

// NewScheduler creates a Scheduler over the recurring-job store.
func NewScheduler(jobs *db.RecurringJobStore) *Scheduler {
	return &Scheduler{
		jobs: jobs,
		log:  logging.Logger,
		now:  time.Now,
	}
}

// GenerateOccurrences computes the due window for every active job and
// inserts one pending occurrence per due date, then advances the job's
// watermark to the last generated date. Jobs fail independently; a bad
// job is logged and skipped. Returns the number of occurrences created.
func (s *Scheduler) GenerateOccurrences() (int, error) {
	jobs, err := s.jobs.GetRecurringJobs(true)
	if err != nil {
		return 0, err
	}

	today := DateOf(s.now())
	created := 0

	for i := range jobs {
		job := &jobs[i]

		var from Date
		if job.LastGeneratedDate != nil {
			watermark, err := ParseDate(*job.LastGeneratedDate)
			if err != nil {
				s.log.Error("recurring job has an unreadable watermark, skipping",
					"job_id", job.ID, "watermark", *job.LastGeneratedDate, "error", err)
				continue
			}
			from = watermark.AddDays(1) // window starts strictly after the watermark
		} else {
			start, err := ParseDate(job.StartDate)
			if err != nil {
				s.log.Error("recurring job has an unreadable start date, skipping",
					"job_id", job.ID, "start_date", job.StartDate, "error", err)
				continue
			}
			from = start
		}

		dates, err := ComputeDueDates(job, from, today)
		if err != nil {
			s.log.Error("failed to compute due dates, skipping job", "job_id", job.ID, "error", err)
			continue
		}
		if len(dates) == 0 {
			continue
		}
		if len(dates) == MaxDatesPerRun {
			s.log.Warn("recurring job hit the per-run generation cap, backlog deferred to next run",
				"job_id", job.ID, "cap", MaxDatesPerRun)
		}

		var last *Date
		for _, date := range dates {
			if _, err := s.jobs.CreateOccurrence(job.ID, date.String()); err != nil {
				if apperrors.IsConflict(err) {
					// already ledgered, nothing to redo
					d := date
					last = &d
					continue
				}
				s.log.Error("failed to insert occurrence", "job_id", job.ID, "date", date.String(), "error", err)
				break
			}
			created++
			d := date
			last = &d
		}

		if last != nil {
			if err := s.jobs.AdvanceWatermark(job.ID, last.String()); err != nil {
				s.log.Error("failed to advance watermark", "job_id", job.ID, "error", err)
			}
		}
	}

	return created, nil
}
