// Package intermediary models the plumbers and energy advisors that serve
// houseowners through first-come first-served job queues.
package intermediary

import (
	"fmt"
	"slices"
	"sync"
)

// Kind names a service an intermediary offers.
type Kind string

// Service kinds.
const (
	Consultation Kind = "consultation"
	Installation Kind = "installation"
)

// Job is one queued or running piece of work for a customer.
type Job struct {
	ID       string `json:"id"`
	Customer string `json:"customer"`
	Service  Kind   `json:"service"`
	Duration int    `json:"duration"`
}

// Service is a FIFO job queue. Each customer holds at most one queued job.
type Service struct {
	owner    string
	kind     Kind
	duration int
	counter  int
	queue    []Job
	mu       sync.RWMutex
}

// NewService creates a queue whose jobs take duration steps by default.
func NewService(owner string, kind Kind, duration int) *Service {
	return &Service{owner: owner, kind: kind, duration: duration}
}

// Kind returns the service kind.
func (s *Service) Kind() Kind { return s.kind }

// Duration returns the base job duration.
func (s *Service) Duration() int { return s.duration }

// Queue appends a job for customer lasting the base duration plus extra.
// It returns false when the customer is already waiting.
func (s *Service) Queue(customer string, extra int) (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if slices.ContainsFunc(s.queue, func(j Job) bool { return j.Customer == customer }) {
		return Job{}, false
	}
	s.counter++
	job := Job{
		ID:       fmt.Sprintf("%s-%s-%d", s.owner, s.kind, s.counter),
		Customer: customer,
		Service:  s.kind,
		Duration: s.duration + extra,
	}
	s.queue = append(s.queue, job)
	return job, true
}

// Next removes and returns the head of the queue.
func (s *Service) Next() (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) == 0 {
		return Job{}, false
	}
	job := s.queue[0]
	s.queue = slices.Delete(s.queue, 0, 1)
	return job, true
}

// Len returns the number of waiting jobs.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.queue)
}

// Backlog sums the durations of the waiting jobs.
func (s *Service) Backlog() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int
	for _, j := range s.queue {
		total += j.Duration
	}
	return total
}

// Waiting reports whether customer has a queued job.
func (s *Service) Waiting(customer string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.ContainsFunc(s.queue, func(j Job) bool { return j.Customer == customer })
}

// ServiceSnapshot is the persisted state of a queue.
type ServiceSnapshot struct {
	Kind     Kind  `json:"kind"`
	Duration int   `json:"duration"`
	Counter  int   `json:"counter"`
	Queue    []Job `json:"queue,omitempty"`
}

// Snapshot captures the queue.
func (s *Service) Snapshot() ServiceSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ServiceSnapshot{
		Kind:     s.kind,
		Duration: s.duration,
		Counter:  s.counter,
		Queue:    slices.Clone(s.queue),
	}
}

func (s *Service) restore(snap ServiceSnapshot) error {
	if snap.Kind != s.kind {
		return fmt.Errorf("%w: %s queue restored from %s", ErrInvalidSnapshot, s.kind, snap.Kind)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.duration = snap.Duration
	s.counter = snap.Counter
	s.queue = slices.Clone(snap.Queue)
	return nil
}
