package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"slydes/viewer/internal/domain/task"
	"slydes/viewer/internal/queue"
)

const deliveryTimeout = 10 * time.Second

// EventQueue is the consuming side of the analytics stream
type EventQueue interface {
	GetTask(ctx context.Context, consumer, stream string) (*redis.XMessage, error)
	AckTask(ctx context.Context, stream, msgID string) error
}

// RunDeliveryWorkers forwards queued analytics batches to the ingestion
// endpoint until ctx is cancelled. Every message is acked once, whether or
// not delivery succeeded.
func (s *Service) RunDeliveryWorkers(ctx context.Context, numWorkers int) error {
	if s.deps.Queue == nil || s.deps.Ingestion == nil {
		return fmt.Errorf("delivery workers need a queue and an ingestion sink")
	}

	streamName := queue.StreamName(task.DeliverEventTaskType)

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			consumer := fmt.Sprintf("delivery-worker-%d", workerID)
			log.Infof("🚀 Starting delivery worker %d as consumer %s", workerID, consumer)
			for {
				select {
				case <-ctx.Done():
					log.Infof("🛑 Delivery worker %d stopping", workerID)
					return
				default:
					msg, err := s.deps.Queue.GetTask(ctx, consumer, streamName)
					if err != nil {
						if ctx.Err() == nil {
							log.Errorf("❌ Failed to get task from %s: %v", streamName, err)
							time.Sleep(time.Second)
						}
						continue
					}

					if msg != nil {
						if err := s.processMessage(ctx, streamName, msg); err != nil {
							log.Errorf("❌ Failed to process message %s: %v", msg.ID, err)
						}
					}
				}
			}
		}(i + 1)
	}

	wg.Wait()
	return nil
}

func (s *Service) processMessage(ctx context.Context, streamName string, msg *redis.XMessage) error {
	defer func() {
		if err := s.deps.Queue.AckTask(context.WithoutCancel(ctx), streamName, msg.ID); err != nil {
			log.Errorf("❌ Failed to ack message %s: %v", msg.ID, err)
		}
	}()

	taskType, ok := msg.Values["task_type"].(string)
	if !ok {
		return fmt.Errorf("invalid task type in message %s", msg.ID)
	}

	taskData, ok := msg.Values["task_data"].(string)
	if !ok {
		return fmt.Errorf("invalid task data in message %s", msg.ID)
	}

	switch taskType {
	case task.DeliverEventTaskType:
		deliverTask, err := task.UnmarshalTask[*task.DeliverEventTask]([]byte(taskData))
		if err != nil {
			return fmt.Errorf("failed to unmarshal deliver event task data: %w", err)
		}

		batch := deliverTask.Batch
		batch.KeepAlive = true

		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deliveryTimeout)
		defer cancel()

		if err := s.deps.Ingestion.Send(sendCtx, batch); err != nil {
			// Analytics are fire-and-forget: the event is dropped, not retried
			log.Debugf("Dropped analytics batch %s: %v", msg.ID, err)
		}

	default:
		return fmt.Errorf("unknown task type: %s", taskType)
	}

	return nil
}
