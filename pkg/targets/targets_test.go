package targets

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadRegistryYAML(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "targets.yaml")
	content := `
targets:
  - id: bond-line-a
    name: Bond line A
    product: P100
    layer: BOND
    eqp: AOI-01
    lookback_minutes: 30
  - id: " all "
`
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("write targets file: %v", err)
	}

	reg, err := LoadRegistry(file)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	all := reg.All()
	if len(all) != 2 || all[0].ID != "bond-line-a" || all[1].ID != "all" {
		t.Fatalf("unexpected targets %#v", all)
	}
	if all[1].Name != "all" || all[1].Lookback() != time.Hour {
		t.Fatalf("defaults not applied: %#v", all[1])
	}

	tgt, ok := reg.ByID("bond-line-a")
	if !ok || tgt.Lookback() != 30*time.Minute {
		t.Fatalf("ByID = %#v, %v", tgt, ok)
	}
}

func TestLoadRegistryJSON(t *testing.T) {
	file := filepath.Join(t.TempDir(), "targets.json")
	if err := os.WriteFile(file, []byte(`{"targets":[{"id":"t1","lot":"L1"}]}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	reg, err := LoadRegistry(file)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	if tgt, _ := reg.ByID("t1"); tgt.Lot != "L1" {
		t.Fatalf("unexpected target %#v", tgt)
	}
}

func TestNewRegistryRejectsBadIDs(t *testing.T) {
	if _, err := NewRegistry([]Target{{ID: "a"}, {ID: " a"}}); err == nil {
		t.Fatalf("expected duplicate id error")
	}
	if _, err := NewRegistry([]Target{{Name: "no id"}}); err == nil {
		t.Fatalf("expected missing id error")
	}
}

func TestTargetQueryWindow(t *testing.T) {
	now := time.Date(2024, 5, 6, 12, 30, 0, 0, time.UTC)
	q := Target{Product: "P1", Eqp: "E2", LookbackMinutes: 90}.Query(now, "2006-01-02 15:04:05")

	if q.StartTime != "2024-05-06 11:00:00" || q.EndTime != "2024-05-06 12:30:00" {
		t.Fatalf("unexpected window %q .. %q", q.StartTime, q.EndTime)
	}
	if q.Product != "P1" || q.Eqp != "E2" || q.Lot != "" {
		t.Fatalf("unexpected filters %#v", q)
	}
}
