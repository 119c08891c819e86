package workers

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// reconcileSQL rewrites bounties.submission_count from the real number of
// submission rows, touching only bounties that drifted.
const reconcileSQL = `
UPDATE bounties
SET submission_count = (SELECT COUNT(*) FROM submissions WHERE submissions.bounty_id = bounties.id)
WHERE submission_count <> (SELECT COUNT(*) FROM submissions WHERE submissions.bounty_id = bounties.id)`

// SubmissionCountReconciler repairs drift left by best-effort counter increments.
type SubmissionCountReconciler struct {
	db       *gorm.DB
	interval time.Duration
}

func NewSubmissionCountReconciler(db *gorm.DB, interval time.Duration) *SubmissionCountReconciler {
	return &SubmissionCountReconciler{db: db, interval: interval}
}

// Reconcile runs one pass and returns how many bounties were corrected.
func (r *SubmissionCountReconciler) Reconcile(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Exec(reconcileSQL)
	if res.Error != nil {
		return 0, fmt.Errorf("reconcile submission counts: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Start schedules Reconcile every interval until ctx is done.
// A non-positive interval disables the worker.
func (r *SubmissionCountReconciler) Start(ctx context.Context) error {
	if r.interval <= 0 {
		log.Println("⏸️ [RECONCILE] Submission count reconciler disabled")
		return nil
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}
	_, err = sched.NewJob(
		gocron.DurationJob(r.interval),
		gocron.NewTask(func() {
			fixed, err := r.Reconcile(ctx)
			if err != nil {
				log.Printf("❌ [RECONCILE] %v", err)
				return
			}
			if fixed > 0 {
				log.Printf("🔧 [RECONCILE] Corrected submission_count on %d bounties", fixed)
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("schedule reconciler: %w", err)
	}
	sched.Start()
	log.Printf("🔁 [RECONCILE] Submission count reconciler running every %s", r.interval)

	go func() {
		<-ctx.Done()
		if err := sched.Shutdown(); err != nil {
			log.Printf("⚠️ [RECONCILE] scheduler shutdown: %v", err)
		}
		log.Println("⏹️ [RECONCILE] Submission count reconciler stopped")
	}()
	return nil
}
