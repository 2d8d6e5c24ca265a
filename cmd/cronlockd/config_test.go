package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/xraph/cronlock"
	"github.com/xraph/cronlock/engine"
	"github.com/xraph/cronlock/ledger"
	"github.com/xraph/cronlock/lock"
	"github.com/xraph/cronlock/store/memory"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	sched, err := cfg.Scheduler.Cronlock()
	if err != nil {
		t.Fatalf("Cronlock: %v", err)
	}
	if sched != cronlock.DefaultConfig() {
		t.Errorf("scheduler = %+v, want defaults", sched)
	}
	if cfg.Store.Driver != "memory" || cfg.HTTP.Addr != ":8080" {
		t.Errorf("store/http = %+v / %+v", cfg.Store, cfg.HTTP)
	}
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cronlock.yaml")
	content := `
store:
  driver: postgres
  dsn: postgres://localhost/app
scheduler:
  lease_duration: 1m
  heartbeat_interval: 15s
jobs:
  - alias: purge
    interval: "@every 5m"
    command: ["echo", "purge"]
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CRONLOCK_SCHEDULER_TICK_INTERVAL", "2s")
	t.Setenv("CRONLOCK_LOG_FORMAT", "json")

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"store driver", cfg.Store.Driver, "postgres"},
		{"store dsn", cfg.Store.DSN, "postgres://localhost/app"},
		{"lease", cfg.Scheduler.LeaseDuration, time.Minute},
		{"heartbeat", cfg.Scheduler.HeartbeatInterval, 15 * time.Second},
		{"tick from env", cfg.Scheduler.TickInterval, 2 * time.Second},
		{"log format from env", cfg.Log.Format, "json"},
		{"jobs", len(cfg.Jobs), 1},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
	if cfg.Jobs[0].Alias != "purge" || strings.Join(cfg.Jobs[0].Command, " ") != "echo purge" {
		t.Errorf("job = %+v", cfg.Jobs[0])
	}
}

func TestSchedulerConfig_Invalid(t *testing.T) {
	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	cfg.Scheduler.HeartbeatInterval = cfg.Scheduler.LeaseDuration

	if _, err := cfg.Scheduler.Cronlock(); !errors.Is(err, cronlock.ErrInvalidConfig) {
		t.Fatalf("err = %v, want ErrInvalidConfig", err)
	}
}

func TestLogConfig(t *testing.T) {
	tests := []struct {
		cfg     LogConfig
		wantErr bool
	}{
		{LogConfig{Level: "debug", Format: "text"}, false},
		{LogConfig{Level: "warn", Format: "json"}, false},
		{LogConfig{Level: "loud", Format: "text"}, true},
		{LogConfig{Level: "info", Format: "xml"}, true},
	}
	for _, tt := range tests {
		_, err := tt.cfg.newLogger()
		if (err != nil) != tt.wantErr {
			t.Errorf("newLogger(%+v) err = %v, wantErr %v", tt.cfg, err, tt.wantErr)
		}
	}
}

func TestDefineJobs(t *testing.T) {
	eng, err := engine.Build(memory.New())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	err = defineJobs(eng, []JobConfig{
		{Alias: "purge", Interval: "@every 1m", Timeout: "30s", Command: []string{"true"}},
		{Alias: "report", Interval: "@hourly", Command: []string{"true"}},
	})
	if err != nil {
		t.Fatalf("defineJobs: %v", err)
	}

	meta := eng.Scheduler().Metadata()
	if len(meta) != 2 {
		t.Fatalf("jobs = %d, want 2", len(meta))
	}
	if meta[0].Interval != time.Minute || meta[0].Timeout != 30*time.Second {
		t.Errorf("purge = %+v", meta[0])
	}
	if meta[1].Interval != time.Hour || meta[1].Timeout != time.Hour {
		t.Errorf("report = %+v", meta[1])
	}

	bad := []JobConfig{
		{Alias: "empty", Interval: "1m"},
		{Alias: "monthly", Interval: "@monthly", Command: []string{"true"}},
	}
	for _, j := range bad {
		if err := defineJobs(eng, []JobConfig{j}); err == nil {
			t.Errorf("defineJobs(%s) succeeded, want error", j.Alias)
		}
	}
}

func TestPrintStatus(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	runs := []*ledger.Record{{Alias: "purge", LastStartDate: now.Add(-time.Minute)}}

	tests := []struct {
		name string
		rec  *lock.Record
		want string
	}{
		{"free", nil, "free"},
		{"held", &lock.Record{Resource: "cron", OwnerID: "inst_a", AcquiredAt: now.Add(-5 * time.Second)}, "inst_a (acquired"},
		{"stale", &lock.Record{Resource: "cron", OwnerID: "inst_a", AcquiredAt: now.Add(-time.Minute)}, "stale since"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := printStatus(&buf, "cron", 30*time.Second, tt.rec, runs, now); err != nil {
				t.Fatalf("printStatus: %v", err)
			}
			out := buf.String()
			if !strings.Contains(out, tt.want) {
				t.Errorf("output missing %q:\n%s", tt.want, out)
			}
			if !strings.Contains(out, "purge") {
				t.Errorf("output missing ledger row:\n%s", out)
			}
		})
	}
}

func TestTail(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{name: "short", in: "done", n: 8, want: "done"},
		{name: "ascii", in: "abcdefgh", n: 3, want: "fgh"},
		{name: "cut inside rune", in: "ab€cd", n: 4, want: "cd"},
		{name: "cut on rune start", in: "ab€cd", n: 5, want: "€cd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tail(tt.in, tt.n)
			if got != tt.want {
				t.Errorf("tail(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("tail(%q, %d) = %q is not valid UTF-8", tt.in, tt.n, got)
			}
		})
	}
}
