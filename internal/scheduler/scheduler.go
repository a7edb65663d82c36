// Package scheduler runs the periodic background jobs on a cron schedule.
package scheduler

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// ErrUnknownJob is returned by RunByName for names that were never registered.
var ErrUnknownJob = errors.New("unknown job")

// Job represents a scheduled job
type Job interface {
	Run() error
	Name() string
}

// JobRecorder receives the outcome of every run (metrics).
type JobRecorder interface {
	RecordJobRun(job string, err error)
}

// JobStatus is the last known state of a registered job.
type JobStatus struct {
	Name         string     `json:"name"`
	Schedule     string     `json:"schedule"`
	Running      bool       `json:"running"`
	Runs         int        `json:"runs"`
	Failures     int        `json:"failures"`
	LastRun      *time.Time `json:"last_run,omitempty"`
	LastDuration string     `json:"last_duration,omitempty"`
	LastError    string     `json:"last_error,omitempty"`
	NextRun      *time.Time `json:"next_run,omitempty"`
}

type registered struct {
	job     Job
	entryID cron.EntryID
	status  JobStatus
}

// Scheduler manages background jobs
type Scheduler struct {
	cron     *cron.Cron
	recorder JobRecorder
	log      zerolog.Logger

	mu   sync.Mutex
	jobs map[string]*registered
}

// New creates a new scheduler. recorder may be nil.
func New(recorder JobRecorder, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		recorder: recorder,
		log:      log.With().Str("component", "scheduler").Logger(),
		jobs:     make(map[string]*registered),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Int("jobs", len(s.cron.Entries())).Msg("Scheduler started")
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Scheduler stopped")
}

// AddJob registers a new job with cron schedule
// Schedule examples:
//   - "0 */5 * * * *"      - Every 5 minutes
//   - "@every 10m"         - Every 10 minutes
//   - "0 30 3 * * *"       - 03:30 daily
func (s *Scheduler) AddJob(schedule string, job Job) error {
	s.mu.Lock()
	if _, exists := s.jobs[job.Name()]; exists {
		s.mu.Unlock()
		return fmt.Errorf("job %s already registered", job.Name())
	}
	s.mu.Unlock()

	id, err := s.cron.AddFunc(schedule, func() {
		_ = s.execute(job)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule %s: %w", job.Name(), err)
	}

	s.mu.Lock()
	s.jobs[job.Name()] = &registered{
		job:     job,
		entryID: id,
		status:  JobStatus{Name: job.Name(), Schedule: schedule},
	}
	s.mu.Unlock()

	s.log.Info().
		Str("schedule", schedule).
		Str("job", job.Name()).
		Msg("Job registered")

	return nil
}

// RunNow executes a job immediately (outside schedule)
func (s *Scheduler) RunNow(job Job) error {
	s.log.Info().Str("job", job.Name()).Msg("Running job immediately")
	return s.execute(job)
}

// RunByName executes a registered job immediately.
func (s *Scheduler) RunByName(name string) error {
	s.mu.Lock()
	reg, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%s: %w", name, ErrUnknownJob)
	}
	return s.RunNow(reg.job)
}

func (s *Scheduler) execute(job Job) (err error) {
	name := job.Name()
	start := time.Now()
	s.update(name, func(st *JobStatus) { st.Running = true })

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", name, r)
		}

		duration := time.Since(start)
		s.update(name, func(st *JobStatus) {
			st.Running = false
			st.Runs++
			st.LastRun = &start
			st.LastDuration = duration.Round(time.Millisecond).String()
			st.LastError = ""
			if err != nil {
				st.Failures++
				st.LastError = err.Error()
			}
		})
		if s.recorder != nil {
			s.recorder.RecordJobRun(name, err)
		}

		if err != nil {
			s.log.Error().Err(err).Str("job", name).Dur("duration", duration).Msg("Job failed")
		} else {
			s.log.Debug().Str("job", name).Dur("duration", duration).Msg("Job completed")
		}
	}()

	s.log.Debug().Str("job", name).Msg("Running job")
	return job.Run()
}

func (s *Scheduler) update(name string, fn func(*JobStatus)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if reg, ok := s.jobs[name]; ok {
		fn(&reg.status)
	}
}

// Status returns every registered job sorted by name
func (s *Scheduler) Status() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobStatus, 0, len(s.jobs))
	for _, reg := range s.jobs {
		st := reg.status
		if next := s.cron.Entry(reg.entryID).Next; !next.IsZero() {
			st.NextRun = &next
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
