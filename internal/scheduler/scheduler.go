// Package scheduler runs deferred group deletions: fire once after a
// grace period, re-validating preconditions at execution time.
package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/fanout"
	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/models"
)

// GroupStore is the slice of the group repository the scheduler needs.
type GroupStore interface {
	GetGroup(ctx context.Context, groupID int) (models.Group, error)
	MemberIDs(ctx context.Context, groupID int) ([]int, error)
	DeleteGroup(ctx context.Context, groupID int) error
	RecordScheduledDeletion(ctx context.Context, groupID int, requestedBy int, dueAt time.Time) error
}

// Publisher fans out the deletion notification.
type Publisher interface {
	Publish(ctx context.Context, event fanout.Event)
}

// Scheduler arms one timer per pending group deletion. Execution is
// best-effort: a failed or skipped deletion is logged, never retried.
type Scheduler struct {
	groups    GroupStore
	publisher Publisher

	mu     sync.Mutex
	timers map[int]*time.Timer
}

// New constructs a Scheduler.
func New(groups GroupStore, publisher Publisher) *Scheduler {
	return &Scheduler{
		groups:    groups,
		publisher: publisher,
		timers:    make(map[int]*time.Timer),
	}
}

// ScheduleGroupDeletion records the due time and arms the timer.
// Re-scheduling an already pending deletion replaces its timer.
func (s *Scheduler) ScheduleGroupDeletion(ctx context.Context, group models.Group, delay time.Duration, requestedBy int) error {
	dueAt := time.Now().Add(delay)
	if err := s.groups.RecordScheduledDeletion(ctx, group.ID, requestedBy, dueAt); err != nil {
		return err
	}

	s.mu.Lock()
	if prev, ok := s.timers[group.ID]; ok {
		prev.Stop()
	}
	s.timers[group.ID] = time.AfterFunc(delay, func() {
		s.execute(group.ID, requestedBy)
	})
	s.mu.Unlock()
	return nil
}

// execute re-validates and deletes. The requester must still own the
// group: an ownership change during the grace period cancels the
// deletion silently.
func (s *Scheduler) execute(groupID int, requestedBy int) {
	s.mu.Lock()
	delete(s.timers, groupID)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	group, err := s.groups.GetGroup(ctx, groupID)
	if err != nil {
		log.Printf("scheduled deletion skipped: group %d: %v", groupID, err)
		return
	}
	if group.OwnerID != requestedBy {
		log.Printf("scheduled deletion skipped: group %d owner changed", groupID)
		return
	}

	memberIDs, err := s.groups.MemberIDs(ctx, groupID)
	if err != nil {
		log.Printf("scheduled deletion: member lookup for group %d failed: %v", groupID, err)
	}

	// Notify before the rows disappear so members can still receive on
	// the group's channels.
	s.publisher.Publish(ctx, fanout.GroupChanged{
		Group:       group,
		Change:      fanout.GroupDeleted,
		MemberIDs:   memberIDs,
		InitiatorID: requestedBy,
	})

	if err := s.groups.DeleteGroup(ctx, groupID); err != nil {
		log.Printf("scheduled deletion failed: group %d: %v", groupID, err)
	}
}

// Pending reports whether a deletion timer is armed for the group.
func (s *Scheduler) Pending(groupID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[groupID]
	return ok
}

// Stop disarms all timers. Pending deletions are lost, matching the
// fire-once, no-durable-retry contract.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
}
