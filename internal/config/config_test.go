package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Schedule.WeekStartDay() != time.Sunday {
		t.Fatalf("expected sunday week start")
	}
	if cfg.Schedule.MonthCellLimit != 2 || cfg.Schedule.MobileBreakpoint != 768 {
		t.Fatalf("unexpected defaults: %+v", cfg.Schedule)
	}
}

func TestFromYAMLKeepsDefaults(t *testing.T) {
	cfg, err := FromYAML([]byte("schedule:\n  week_start: monday\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Schedule.WeekStartDay() != time.Monday {
		t.Fatalf("expected monday")
	}
	if cfg.Schedule.SlotMinutes != 15 {
		t.Fatalf("slot minutes default lost: %d", cfg.Schedule.SlotMinutes)
	}
}

func TestValidateRejectsBadSlots(t *testing.T) {
	if _, err := FromYAML([]byte("schedule:\n  slot_minutes: 7\n")); err == nil {
		t.Fatalf("expected slot_minutes error")
	}
	if _, err := FromYAML([]byte("webhooks:\n  - url: \"\"\n")); err == nil {
		t.Fatalf("expected webhook url error")
	}
}

func TestLoadOptional(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadOptional(dir)
	if err != nil || cfg == nil {
		t.Fatalf("load optional: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "dispatch.yml"), []byte("schedule:\n  day_end_hour: 18\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Schedule.DayEndHour != 18 {
		t.Fatalf("expected 18, got %d", cfg.Schedule.DayEndHour)
	}
}
