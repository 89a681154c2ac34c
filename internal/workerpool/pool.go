package workerpool

import (
	"context"
	"fmt"

	"codepad/internal/logger"

	"go.uber.org/zap"
)

type GradeWorkerPool struct {
	workers    []*GradeWorker
	numWorkers int
	queue      Queue
	scheduler  GradeScheduler
}

func NewGradeWorkerPool(numWorkers int, queue Queue, scheduler GradeScheduler) *GradeWorkerPool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &GradeWorkerPool{
		numWorkers: numWorkers,
		queue:      queue,
		scheduler:  scheduler,
	}
}

func (p *GradeWorkerPool) Start(ctx context.Context) error {
	if err := p.queue.Setup(ctx); err != nil {
		return err
	}

	for i := 0; i < p.numWorkers; i++ {
		worker := NewGradeWorker(
			fmt.Sprintf("GradeWorker-%d", i+1),
			p.queue,
			p.scheduler,
		)

		worker.Start(ctx)
		p.workers = append(p.workers, worker)

		logger.Log.Info("Starting grade worker",
			zap.String("worker_id", worker.id))
	}

	logger.Log.Info("Grade worker pool started",
		zap.Int("num_workers", p.numWorkers))

	return nil
}

// Stop terminates all workers in the pool
func (p *GradeWorkerPool) Stop() {
	for _, worker := range p.workers {
		worker.Stop()
	}
	p.workers = nil
}
