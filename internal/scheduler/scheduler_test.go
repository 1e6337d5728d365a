package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestUpdateScheduleValid(t *testing.T) {
	tests := []struct {
		spec, tz string
	}{
		{"0 6 * * *", "America/Denver"},
		{"@daily", "UTC"},
		{"*/15 * * * *", ""},
	}
	for _, tt := range tests {
		s := New(func(context.Context) error { return nil }, nil)
		if err := s.UpdateSchedule(tt.spec, tt.tz); err != nil {
			t.Errorf("UpdateSchedule(%q, %q) error: %v", tt.spec, tt.tz, err)
		}
	}
}

func TestUpdateScheduleInvalid(t *testing.T) {
	s := New(func(context.Context) error { return nil }, nil)
	if err := s.UpdateSchedule("61 * * * *", "UTC"); err == nil {
		t.Error("expected error for invalid spec")
	}
	if err := s.UpdateSchedule("0 6 * * *", "Invalid/Timezone"); err == nil {
		t.Error("expected error for invalid timezone")
	}
}

func TestStatusReportsNextRun(t *testing.T) {
	s := New(func(context.Context) error { return nil }, nil)
	if err := s.UpdateSchedule("0 6 * * *", "America/Denver"); err != nil {
		t.Fatal(err)
	}
	s.Start(context.Background())
	defer s.Stop()

	st := s.Status()
	if st.Next.IsZero() {
		t.Fatal("expected a next run time once started")
	}
	if h := st.Next.Hour(); h != 6 {
		t.Errorf("next run hour = %d in %s, want 6", h, st.Timezone)
	}
	if st.Timezone != "America/Denver" {
		t.Errorf("timezone = %q", st.Timezone)
	}
}

func TestRunNowRecordsOutcome(t *testing.T) {
	fail := true
	s := New(func(context.Context) error {
		if fail {
			return errors.New("trends dir missing")
		}
		return nil
	}, nil)

	if err := s.RunNow(context.Background()); err == nil {
		t.Fatal("expected job error")
	}
	if st := s.Status(); st.Runs != 1 || st.LastError != "trends dir missing" {
		t.Errorf("status after failure = %+v", st)
	}

	fail = false
	if err := s.RunNow(context.Background()); err != nil {
		t.Fatalf("RunNow: %v", err)
	}
	if st := s.Status(); st.Runs != 2 || st.LastError != "" || st.LastRun.IsZero() {
		t.Errorf("status after success = %+v", st)
	}
}

func TestStopCancelsJobContext(t *testing.T) {
	started := make(chan struct{})
	cancelled := make(chan struct{})
	s := New(func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		close(cancelled)
		return ctx.Err()
	}, nil)
	if err := s.UpdateSchedule("@every 10ms", "UTC"); err != nil {
		t.Fatal(err)
	}
	s.Start(context.Background())

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("job never started")
	}
	s.Stop()
	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not cancel the running job")
	}
}

func TestStartStopWithoutSchedule(t *testing.T) {
	s := New(func(context.Context) error { return nil }, nil)
	s.Start(context.Background())
	s.Stop() // should not panic
}
