package analytics

import (
	"context"
	"fmt"

	"slydes/viewer/internal/domain"
	"slydes/viewer/internal/domain/task"
)

// TaskQueue is the part of the event stream the emitter writes to
type TaskQueue interface {
	AddTask(ctx context.Context, task task.Task) (string, error)
}

// QueueSink hands each batch to the event stream; delivery workers forward
// them to the ingestion endpoint.
type QueueSink struct {
	queue TaskQueue
}

func NewQueueSink(queue TaskQueue) *QueueSink {
	return &QueueSink{queue: queue}
}

func (s *QueueSink) Send(ctx context.Context, batch domain.AnalyticsBatch) error {
	if _, err := s.queue.AddTask(ctx, &task.DeliverEventTask{Batch: batch}); err != nil {
		return fmt.Errorf("failed to enqueue analytics batch: %w", err)
	}
	return nil
}
