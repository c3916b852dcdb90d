package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catgraph/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

type fakeHarvester struct {
	mu    sync.Mutex
	fn    func(ctx context.Context, s config.Schedule) error
	calls []config.Schedule
}

func (f *fakeHarvester) HarvestSchedule(ctx context.Context, s config.Schedule) error {
	f.mu.Lock()
	f.calls = append(f.calls, s)
	f.mu.Unlock()
	if f.fn != nil {
		return f.fn(ctx, s)
	}
	return nil
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		s       config.Schedule
		wantErr bool
	}{
		{"valid", config.Schedule{Cron: "0 2 * * *", Connection: "HANA", Container: "/TABLES"}, false},
		{"descriptor", config.Schedule{Cron: "@daily", Connection: "HANA", Container: "/TABLES"}, false},
		{"bad cron", config.Schedule{Cron: "every day", Connection: "HANA", Container: "/TABLES"}, true},
		{"no connection", config.Schedule{Cron: "@hourly", Container: "/TABLES"}, true},
		{"no container", config.Schedule{Cron: "@hourly", Connection: "HANA"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.s)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestScheduler_Start(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		schedules []config.Schedule
		wantErr   bool
		wantCount int
	}{
		{
			name: "registers valid schedules",
			schedules: []config.Schedule{
				{Cron: "*/5 * * * *", Connection: "HANA", Container: "/TABLES"},
				{Cron: "@daily", Connection: "S3", Container: "/bucket"},
			},
			wantCount: 2,
		},
		{
			name: "skips invalid and duplicate",
			schedules: []config.Schedule{
				{Cron: "*/5 * * * *", Connection: "HANA", Container: "/TABLES"},
				{Cron: "*/5 * * * *", Connection: "HANA", Container: "/TABLES"},
				{Cron: "nope", Connection: "HANA", Container: "/VIEWS"},
			},
			wantCount: 1,
		},
		{
			name:      "empty list succeeds",
			wantCount: 0,
		},
		{
			name:      "all invalid fails",
			schedules: []config.Schedule{{Cron: "nope", Connection: "HANA", Container: "/TABLES"}},
			wantErr:   true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := New(&fakeHarvester{}, discardLogger())
			t.Cleanup(s.Stop)

			err := s.Start(context.Background(), tt.schedules)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			entries := s.Entries()
			assert.Len(t, entries, tt.wantCount)
			for _, e := range entries {
				assert.False(t, e.Next.IsZero())
			}
		})
	}
}

func TestScheduler_Reload(t *testing.T) {
	s := New(&fakeHarvester{}, discardLogger())
	t.Cleanup(s.Stop)
	require.NoError(t, s.Start(context.Background(), []config.Schedule{
		{Cron: "@hourly", Connection: "HANA", Container: "/TABLES"},
	}))
	require.NoError(t, s.Reload([]config.Schedule{
		{Cron: "@daily", Connection: "HANA", Container: "/VIEWS"},
		{Cron: "@weekly", Connection: "HANA", Container: "/TABLES"},
	}))

	var containers []string
	for _, e := range s.Entries() {
		containers = append(containers, e.Schedule.Container)
	}
	assert.ElementsMatch(t, []string{"/VIEWS", "/TABLES"}, containers)
}

func TestScheduler_RunNowPublishesResult(t *testing.T) {
	h := &fakeHarvester{fn: func(_ context.Context, s config.Schedule) error {
		if s.Container == "/BROKEN" {
			return errors.New("catalog unreachable")
		}
		return nil
	}}
	s := New(h, discardLogger())

	ok := s.RunNow(config.Schedule{Cron: "@daily", Connection: "HANA", Container: "/TABLES"})
	require.NoError(t, ok.Err)
	bad := s.RunNow(config.Schedule{Cron: "@daily", Connection: "HANA", Container: "/BROKEN"})
	require.Error(t, bad.Err)

	first := <-s.Results()
	assert.Equal(t, "/TABLES", first.Schedule.Container)
	assert.NoError(t, first.Err)
	second := <-s.Results()
	assert.EqualError(t, second.Err, "catalog unreachable")
	assert.Len(t, h.calls, 2)
}

func TestScheduler_ResultsDoNotBlock(t *testing.T) {
	s := New(&fakeHarvester{}, discardLogger())
	sc := config.Schedule{Cron: "@daily", Connection: "HANA", Container: "/TABLES"}
	for i := 0; i < cap(s.results)+5; i++ {
		s.RunNow(sc)
	}
	assert.Len(t, s.results, cap(s.results))
}

func TestScheduler_RunUsesStartContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := &fakeHarvester{fn: func(ctx context.Context, _ config.Schedule) error {
		return ctx.Err()
	}}
	s := New(h, discardLogger())
	t.Cleanup(s.Stop)
	require.NoError(t, s.Start(ctx, nil))
	cancel()

	res := s.RunNow(config.Schedule{Cron: "@daily", Connection: "HANA", Container: "/TABLES"})
	require.ErrorIs(t, res.Err, context.Canceled)
}

func TestScheduler_PanicReleasesRunLock(t *testing.T) {
	calls := 0
	h := &fakeHarvester{fn: func(context.Context, config.Schedule) error {
		calls++
		if calls == 1 {
			panic("harvest blew up")
		}
		return nil
	}}
	s := New(h, discardLogger())
	sc := config.Schedule{Cron: "@hourly", Connection: "HANA", Container: "/TABLES"}

	assert.Panics(t, func() { s.RunNow(sc) })

	done := make(chan RunResult, 1)
	go func() { done <- s.RunNow(sc) }()
	select {
	case res := <-done:
		require.NoError(t, res.Err)
	case <-time.After(5 * time.Second):
		t.Fatal("run lock still held after a panicking harvest")
	}
}
