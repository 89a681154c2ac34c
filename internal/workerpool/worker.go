package workerpool

import (
	"context"
	"time"

	"codepad/internal/logger"
	"codepad/internal/models"

	"go.uber.org/zap"
)

// GradeScheduler arms the delayed grading of one submission.
type GradeScheduler interface {
	ScheduleGrading(job models.GradeJob) error
}

// GradeWorker consumes grade jobs from a queue
type GradeWorker struct {
	id        string
	quit      chan struct{}
	done      chan struct{}
	queue     Queue
	scheduler GradeScheduler
}

func NewGradeWorker(id string, queue Queue, scheduler GradeScheduler) *GradeWorker {
	return &GradeWorker{
		id:        id,
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
		queue:     queue,
		scheduler: scheduler,
	}
}

// Start begins processing jobs from the queue
func (w *GradeWorker) Start(ctx context.Context) {
	go func() {
		defer close(w.done)
		for {
			select {
			case <-w.quit:
				return
			case <-ctx.Done():
				return
			default:
				deliveries, err := w.queue.Read(ctx, w.id)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					logger.Log.Error("Queue read failed",
						zap.String("worker_id", w.id),
						zap.Error(err))
					select {
					case <-time.After(time.Second):
					case <-w.quit:
						return
					case <-ctx.Done():
						return
					}
					continue
				}

				for _, d := range deliveries {
					w.processGradeJob(ctx, d)
				}
			}
		}
	}()
}

// Stop signals the worker and waits for its current read to return.
func (w *GradeWorker) Stop() {
	logger.Log.Info("Closing worker",
		zap.String("worker_id", w.id))
	close(w.quit)
	<-w.done
}

func (w *GradeWorker) processGradeJob(ctx context.Context, d Delivery) {
	logger.Log.Info("Processing grade job",
		zap.String("worker_id", w.id),
		zap.String("job_id", d.ID))

	if err := w.queue.Ack(ctx, d); err != nil {
		logger.Log.Error("Failed to acknowledge job",
			zap.String("worker_id", w.id),
			zap.Error(err))
	}

	if d.Err != nil {
		logger.Log.Error("Invalid grade job in message",
			zap.String("worker_id", w.id),
			zap.String("job_id", d.ID),
			zap.Error(d.Err))
		return
	}

	if err := w.scheduler.ScheduleGrading(d.Job); err != nil {
		logger.Log.Warn("Dropped grade job",
			zap.String("worker_id", w.id),
			zap.String("session_id", d.Job.SessionID),
			zap.Int("submission_id", d.Job.SubmissionID),
			zap.String("problem_id", d.Job.ProblemID),
			zap.Error(err))
		return
	}

	logger.Log.Info("Scheduled grading",
		zap.String("worker_id", w.id),
		zap.String("job_id", d.ID),
		zap.String("session_id", d.Job.SessionID),
		zap.Int("submission_id", d.Job.SubmissionID),
		zap.String("problem_id", d.Job.ProblemID),
		zap.String("language", d.Job.Language))
}
