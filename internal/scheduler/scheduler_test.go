package scheduler

import (
	"context"
	"testing"

	"github.com/dmoralesf/valora/pkg/config"
	"github.com/dmoralesf/valora/pkg/logger"
)

type stubJob struct {
	name     string
	schedule string
	runs     int
}

func (j *stubJob) Name() string     { return j.name }
func (j *stubJob) Schedule() string { return j.schedule }
func (j *stubJob) Run(ctx context.Context) error {
	j.runs++
	return nil
}

func newTestScheduler() *Scheduler {
	return New(logger.New(&config.Config{
		Env:       "development",
		LogLevel:  "error",
		LogFormat: "json",
	}))
}

func TestScheduler_AddJob(t *testing.T) {
	s := newTestScheduler()

	job := &stubJob{name: "test_job", schedule: "0 */15 * * * *"}
	if err := s.AddJob(job); err != nil {
		t.Fatalf("AddJob() error = %v", err)
	}

	// Duplicate names are rejected
	if err := s.AddJob(&stubJob{name: "test_job", schedule: "@hourly"}); err == nil {
		t.Error("duplicate job name should be rejected")
	}

	jobs := s.GetAllJobs()
	if len(jobs) != 1 || jobs[0] != "test_job" {
		t.Errorf("GetAllJobs() = %v, want [test_job]", jobs)
	}
}

func TestScheduler_AddJobInvalidSchedule(t *testing.T) {
	s := newTestScheduler()

	if err := s.AddJob(&stubJob{name: "bad", schedule: "not a cron expr"}); err == nil {
		t.Error("invalid cron expression should be rejected")
	}
}

func TestScheduler_RunJobMissing(t *testing.T) {
	s := newTestScheduler()

	if err := s.RunJob("nope"); err == nil {
		t.Error("running an unregistered job should fail")
	}
}

func TestJobHistory(t *testing.T) {
	h := &JobHistory{}

	h.AddResult(JobResult{JobName: "j", Success: true})
	h.AddResult(JobResult{JobName: "j", Success: false, Error: "boom"})
	h.AddResult(JobResult{JobName: "j", Success: true})

	if rate := h.GetSuccessRate(); rate < 0.66 || rate > 0.67 {
		t.Errorf("GetSuccessRate() = %v, want ~0.667", rate)
	}

	latest := h.GetLatestResults(2)
	if len(latest) != 2 {
		t.Fatalf("GetLatestResults(2) returned %d", len(latest))
	}
	if !latest[1].Success {
		t.Error("last result should be the most recent")
	}

	// History is bounded
	for i := 0; i < 150; i++ {
		h.AddResult(JobResult{JobName: "j", Success: true})
	}
	if len(h.Results) != 100 {
		t.Errorf("history length = %d, want 100", len(h.Results))
	}
}
