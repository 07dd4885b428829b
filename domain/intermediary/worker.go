package intermediary

import (
	"maps"
	"slices"

	"github.com/felixgeelhaar/heatshift/domain/houseowner"
)

// TrainingInterval is how many working steps pass between trainings.
const TrainingInterval = 52

// worker runs jobs from an intermediary's queues. Active jobs are keyed by
// the step they complete at.
type worker struct {
	id            string
	services      []*Service
	active        map[int][]Job
	completed     int
	maxConcurrent int
	sinceTraining int

	// lag shifts the completion check, so a job of duration d started at
	// step s finishes at s+max(d,lag)-lag. Shorter jobs finish the step
	// they start.
	lag int
}

func newWorker(id string, maxConcurrent, lag int, services ...*Service) worker {
	return worker{
		id:            id,
		services:      services,
		active:        make(map[int][]Job),
		maxConcurrent: max(1, maxConcurrent),
		lag:           lag,
	}
}

// ID returns the intermediary id.
func (w *worker) ID() string { return w.id }

// Running returns the number of active jobs.
func (w *worker) Running() int {
	var n int
	for _, jobs := range w.active {
		n += len(jobs)
	}
	return n
}

// Completed returns the number of finished jobs.
func (w *worker) Completed() int { return w.completed }

// QueueLength returns the waiting jobs of a service.
func (w *worker) QueueLength(k Kind) int {
	if s := w.service(k); s != nil {
		return s.Len()
	}
	return 0
}

func (w *worker) service(k Kind) *Service {
	for _, s := range w.services {
		if s.kind == k {
			return s
		}
	}
	return nil
}

type finisher func(env *houseowner.Env, job Job) error

// step trains when idle and due, and works otherwise.
func (w *worker) step(env *houseowner.Env, train func(*houseowner.Env) error, finish finisher) error {
	if w.sinceTraining > TrainingInterval && len(w.active) == 0 {
		w.sinceTraining = 0
		return train(env)
	}
	w.sinceTraining++
	return w.work(env, finish)
}

// work starts queued jobs up to the concurrency limit and finishes the
// ones due, service by service.
func (w *worker) work(env *houseowner.Env, finish finisher) error {
	// Jobs are scheduled against the step being completed.
	now := env.Step + 1
	for _, s := range w.services {
		w.begin(now, s)
		if err := w.complete(env, now, finish); err != nil {
			return err
		}
	}
	return nil
}

func (w *worker) begin(now int, s *Service) {
	for range w.maxConcurrent - w.Running() {
		job, ok := s.Next()
		if !ok {
			return
		}
		due := now + max(job.Duration, w.lag)
		w.active[due] = append(w.active[due], job)
	}
}

func (w *worker) complete(env *houseowner.Env, now int, finish finisher) error {
	due := now + w.lag
	jobs := w.active[due]
	delete(w.active, due)
	for _, job := range jobs {
		w.completed++
		if err := finish(env, job); err != nil {
			return err
		}
	}
	return nil
}

// estimate returns the steps until the running jobs are done plus the
// backlog of a queue.
func (w *worker) estimate(step int, k Kind) int {
	var wait int
	if len(w.active) > 0 {
		last := slices.Max(slices.Collect(maps.Keys(w.active)))
		wait = max(0, last-step)
	}
	if s := w.service(k); s != nil {
		wait += s.Backlog()
	}
	return wait
}

// WorkerSnapshot is the persisted job state of an intermediary.
type WorkerSnapshot struct {
	Services      []ServiceSnapshot `json:"services"`
	Active        map[int][]Job     `json:"active,omitempty"`
	Completed     int               `json:"completed"`
	SinceTraining int               `json:"since_training"`
}

func (w *worker) snapshot() WorkerSnapshot {
	s := WorkerSnapshot{
		Active:        make(map[int][]Job, len(w.active)),
		Completed:     w.completed,
		SinceTraining: w.sinceTraining,
	}
	for _, svc := range w.services {
		s.Services = append(s.Services, svc.Snapshot())
	}
	for due, jobs := range w.active {
		s.Active[due] = slices.Clone(jobs)
	}
	return s
}

func (w *worker) restore(s WorkerSnapshot) error {
	for _, snap := range s.Services {
		svc := w.service(snap.Kind)
		if svc == nil {
			return ErrInvalidSnapshot
		}
		if err := svc.restore(snap); err != nil {
			return err
		}
	}
	w.active = make(map[int][]Job, len(s.Active))
	for due, jobs := range s.Active {
		w.active[due] = slices.Clone(jobs)
	}
	w.completed = s.Completed
	w.sinceTraining = s.SinceTraining
	return nil
}
