package jobs

import (
	"context"
	"sync"
)

// MemoryQueue records enqueued jobs for development and tests.
type MemoryQueue struct {
	mu sync.Mutex

	Refreshes     []RefreshMetadataJob
	Associations  []AssociateGroupJob
	Recalcs       []RecalculateUserStatsJob
	Notifications []DeliverNotificationJob

	// Fail makes every enqueue return this error, for failure-path tests.
	Fail error
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{}
}

func (q *MemoryQueue) RefreshMetadata(_ context.Context, job RefreshMetadataJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.Fail != nil {
		return q.Fail
	}
	q.Refreshes = append(q.Refreshes, job)
	return nil
}

func (q *MemoryQueue) AssociateGroup(_ context.Context, job AssociateGroupJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.Fail != nil {
		return q.Fail
	}
	q.Associations = append(q.Associations, job)
	return nil
}

func (q *MemoryQueue) RecalculateUserStats(_ context.Context, job RecalculateUserStatsJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.Fail != nil {
		return q.Fail
	}
	q.Recalcs = append(q.Recalcs, job)
	return nil
}

func (q *MemoryQueue) DeliverNotification(_ context.Context, job DeliverNotificationJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.Fail != nil {
		return q.Fail
	}
	q.Notifications = append(q.Notifications, job)
	return nil
}

// Delivered returns a copy of the recorded notification jobs.
func (q *MemoryQueue) Delivered() []DeliverNotificationJob {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]DeliverNotificationJob, len(q.Notifications))
	copy(out, q.Notifications)
	return out
}
