package jobs

import (
	"context"
	"errors"
	"testing"
	"time"
)

type mockJob struct {
	name        string
	schedule    string
	executeFunc func(ctx context.Context) error
	executed    int
}

func (m *mockJob) Execute(ctx context.Context) error {
	m.executed++
	if m.executeFunc != nil {
		return m.executeFunc(ctx)
	}
	return nil
}

func (m *mockJob) Name() string {
	return m.name
}

func (m *mockJob) Schedule() string {
	return m.schedule
}

// fakeClock advances time on every Sleep and refuses to sleep past maxSleeps
type fakeClock struct {
	now       time.Time
	sleeps    int
	maxSleeps int
	slept     time.Duration
}

func newFakeClock(maxSleeps int) *fakeClock {
	return &fakeClock{
		now:       time.Date(2025, 3, 16, 4, 0, 0, 0, time.UTC),
		maxSleeps: maxSleeps,
	}
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.sleeps >= c.maxSleeps {
		return context.Canceled
	}
	c.sleeps++
	c.slept += d
	c.now = c.now.Add(d)
	return nil
}

func TestJobManager_RegisterJob(t *testing.T) {
	manager := NewJobManager(newFakeClock(0), time.Minute)

	tests := []struct {
		name    string
		job     Job
		wantErr bool
	}{
		{
			name: "valid job",
			job: &mockJob{
				name:     "test-job",
				schedule: "@every 1h",
			},
			wantErr: false,
		},
		{
			name: "standard cron expression",
			job: &mockJob{
				name:     "cron-job",
				schedule: "0 * * * *",
			},
			wantErr: false,
		},
		{
			name:    "nil job",
			job:     nil,
			wantErr: true,
		},
		{
			name: "invalid schedule",
			job: &mockJob{
				name:     "invalid-job",
				schedule: "invalid-cron",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := manager.RegisterJob(tt.job)
			if (err != nil) != tt.wantErr {
				t.Errorf("RegisterJob() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestJobManager_GetJobs(t *testing.T) {
	manager := NewJobManager(newFakeClock(0), time.Minute)

	// Initially should have no jobs
	jobs := manager.GetJobs()
	if len(jobs) != 0 {
		t.Errorf("Expected 0 jobs initially, got %d", len(jobs))
	}

	testJob := &mockJob{
		name:     "test-job",
		schedule: "@every 1h",
	}

	err := manager.RegisterJob(testJob)
	if err != nil {
		t.Fatalf("Failed to register job: %v", err)
	}

	jobs = manager.GetJobs()
	if len(jobs) != 1 {
		t.Errorf("Expected 1 job, got %d", len(jobs))
	}

	if jobs[0].Name() != "test-job" {
		t.Errorf("Expected job name 'test-job', got '%s'", jobs[0].Name())
	}
}

func TestJobManager_RunsImmediatelyThenHourly(t *testing.T) {
	// 150 one-minute polls cover two and a half hours
	clock := newFakeClock(150)
	manager := NewJobManager(clock, time.Minute)

	testJob := &mockJob{name: "hourly", schedule: "@every 1h"}
	if err := manager.RegisterJob(testJob); err != nil {
		t.Fatalf("Failed to register job: %v", err)
	}

	if err := manager.Run(context.Background()); err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}

	// t=0 on startup, then t=60m and t=120m
	if testJob.executed != 3 {
		t.Errorf("Expected 3 executions, got %d", testJob.executed)
	}
	if clock.slept != 150*time.Minute {
		t.Errorf("Expected to sleep 150m in 1m steps, slept %v", clock.slept)
	}

	next, ok := manager.NextRun("hourly")
	if !ok {
		t.Fatal("Expected hourly job to be registered")
	}
	want := time.Date(2025, 3, 16, 7, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("Expected next run %v, got %v", want, next)
	}
}

func TestJobManager_NextRunMeasuredFromJobEnd(t *testing.T) {
	clock := newFakeClock(70)
	manager := NewJobManager(clock, time.Minute)

	// every execution takes five minutes of clock time
	testJob := &mockJob{name: "slow", schedule: "@every 1h"}
	testJob.executeFunc = func(ctx context.Context) error {
		clock.now = clock.now.Add(5 * time.Minute)
		return nil
	}
	if err := manager.RegisterJob(testJob); err != nil {
		t.Fatalf("Failed to register job: %v", err)
	}

	if err := manager.Run(context.Background()); err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}

	// runs end at 04:05 and 05:10, so after 70 polls (05:20) the third is not due until 06:10
	if testJob.executed != 2 {
		t.Errorf("Expected 2 executions, got %d", testJob.executed)
	}
}

func TestJobExecutionError(t *testing.T) {
	clock := newFakeClock(120)
	manager := NewJobManager(clock, time.Minute)

	testError := errors.New("test error")
	testJob := &mockJob{
		name:     "test-error",
		schedule: "@every 1h",
		executeFunc: func(ctx context.Context) error {
			return testError
		},
	}

	if err := manager.RegisterJob(testJob); err != nil {
		t.Fatalf("Failed to register job: %v", err)
	}

	if err := manager.Run(context.Background()); err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}

	// Job should keep running on schedule despite errors
	if testJob.executed != 3 {
		t.Errorf("Expected 3 executions despite errors, got %d", testJob.executed)
	}
}

func TestJobManager_StopsOnCancel(t *testing.T) {
	manager := NewJobManager(RealClock(), time.Hour)

	testJob := &mockJob{name: "once", schedule: "@every 1h"}
	if err := manager.RegisterJob(testJob); err != nil {
		t.Fatalf("Failed to register job: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- manager.Run(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Expected clean stop, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}

	if testJob.executed != 1 {
		t.Errorf("Expected the startup execution only, got %d", testJob.executed)
	}
}

func TestRunPending_NothingDue(t *testing.T) {
	clock := newFakeClock(0)
	manager := NewJobManager(clock, time.Minute)

	testJob := &mockJob{name: "hourly", schedule: "@every 1h"}
	if err := manager.RegisterJob(testJob); err != nil {
		t.Fatalf("Failed to register job: %v", err)
	}

	// a fresh registration has never run, so it is due
	if ran := manager.RunPending(context.Background()); ran != 1 {
		t.Fatalf("Expected 1 job to run, got %d", ran)
	}

	clock.now = clock.now.Add(59 * time.Minute)
	if ran := manager.RunPending(context.Background()); ran != 0 {
		t.Errorf("Expected nothing due after 59m, got %d", ran)
	}

	clock.now = clock.now.Add(time.Minute)
	if ran := manager.RunPending(context.Background()); ran != 1 {
		t.Errorf("Expected job due after 60m, got %d", ran)
	}
}
