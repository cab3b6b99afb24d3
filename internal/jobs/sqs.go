package jobs

import (
	"context"
	"time"

	"github.com/Wayne-Yuw/toolscout-ai/internal/queue"
)

// SQSDispatcher publishes tasks for an out-of-process worker. The job store
// must be shared with the worker, i.e. Redis.
type SQSDispatcher struct {
	client queue.Client
}

func NewSQSDispatcher(client queue.Client) *SQSDispatcher {
	return &SQSDispatcher{client: client}
}

func (d *SQSDispatcher) Dispatch(ctx context.Context, task Task) error {
	enqueued := task.EnqueuedAt
	if enqueued.IsZero() {
		enqueued = time.Now()
	}
	return d.client.Send(ctx, ToMessage(task, enqueued))
}

// ToMessage converts a task to its queue payload.
func ToMessage(task Task, enqueuedAt time.Time) queue.Message {
	return queue.Message{
		JobID:      task.JobID,
		RequestID:  task.RequestID,
		EnqueuedAt: enqueuedAt.UTC().Format(time.RFC3339Nano),
		Version:    queue.MessageVersion,
		Messages:   task.Messages,
		Options:    task.Options,
	}
}

// FromMessage converts a queue payload back into a task. An unparseable
// enqueue time is left zero.
func FromMessage(msg queue.Message) Task {
	task := Task{JobID: msg.JobID, RequestID: msg.RequestID, Messages: msg.Messages, Options: msg.Options}
	if ts, err := time.Parse(time.RFC3339Nano, msg.EnqueuedAt); err == nil {
		task.EnqueuedAt = ts
	}
	return task
}

var _ Dispatcher = (*SQSDispatcher)(nil)
