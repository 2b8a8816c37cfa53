// Package targets loads the set of AOI summary filters the watcher polls.
package targets

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/samvad-hq/aoi-inspection-client/pkg/aoi"
	"gopkg.in/yaml.v3"
)

const defaultLookbackMinutes = 60

// Target is one watched slice of the AOI summary.
type Target struct {
	ID              string `json:"id" yaml:"id"`
	Name            string `json:"name" yaml:"name"`
	Product         string `json:"product" yaml:"product"`
	Layer           string `json:"layer" yaml:"layer"`
	Eqp             string `json:"eqp" yaml:"eqp"`
	Lot             string `json:"lot" yaml:"lot"`
	Wafer           string `json:"wafer" yaml:"wafer"`
	LookbackMinutes int    `json:"lookback_minutes" yaml:"lookback_minutes"`
}

// Lookback returns the polling window length.
func (t Target) Lookback() time.Duration {
	if t.LookbackMinutes <= 0 {
		return defaultLookbackMinutes * time.Minute
	}
	return time.Duration(t.LookbackMinutes) * time.Minute
}

// Query builds the summary filter for the window ending at now, formatting
// both bounds with layout.
func (t Target) Query(now time.Time, layout string) aoi.SummaryQuery {
	return aoi.SummaryQuery{
		StartTime: now.Add(-t.Lookback()).Format(layout),
		EndTime:   now.Format(layout),
		Product:   t.Product,
		Layer:     t.Layer,
		Eqp:       t.Eqp,
		Lot:       t.Lot,
		Wafer:     t.Wafer,
	}
}

type fileFormat struct {
	Targets []Target `json:"targets" yaml:"targets"`
}

// Registry is an immutable, ordered set of targets.
type Registry struct {
	targets []Target
	idx     map[string]Target
}

// LoadRegistry reads targets from a YAML or JSON file.
func LoadRegistry(path string) (*Registry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("targets file path is empty")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read targets file: %w", err)
	}

	parsed, err := parse(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	return NewRegistry(parsed.Targets)
}

// NewRegistry validates and indexes targets, keeping their order.
func NewRegistry(list []Target) (*Registry, error) {
	reg := &Registry{
		targets: make([]Target, 0, len(list)),
		idx:     make(map[string]Target, len(list)),
	}
	for i, t := range list {
		t = sanitize(t)
		if t.ID == "" {
			return nil, fmt.Errorf("targets[%d]: id is required", i)
		}
		if _, dup := reg.idx[t.ID]; dup {
			return nil, fmt.Errorf("duplicate target id %q", t.ID)
		}
		reg.targets = append(reg.targets, t)
		reg.idx[t.ID] = t
	}
	return reg, nil
}

func parse(data []byte, ext string) (fileFormat, error) {
	var out fileFormat
	switch strings.ToLower(strings.TrimSpace(ext)) {
	case ".json":
		if err := json.Unmarshal(data, &out); err != nil {
			return fileFormat{}, fmt.Errorf("decode json targets: %w", err)
		}
	case ".yaml", ".yml", "":
		if err := yaml.Unmarshal(data, &out); err != nil {
			return fileFormat{}, fmt.Errorf("decode yaml targets: %w", err)
		}
	default:
		return fileFormat{}, fmt.Errorf("targets file format %q not recognized (expected YAML or JSON)", ext)
	}
	return out, nil
}

func sanitize(t Target) Target {
	t.ID = strings.TrimSpace(t.ID)
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		t.Name = t.ID
	}
	t.Product = strings.TrimSpace(t.Product)
	t.Layer = strings.TrimSpace(t.Layer)
	t.Eqp = strings.TrimSpace(t.Eqp)
	t.Lot = strings.TrimSpace(t.Lot)
	t.Wafer = strings.TrimSpace(t.Wafer)
	if t.LookbackMinutes <= 0 {
		t.LookbackMinutes = defaultLookbackMinutes
	}
	return t
}

// All returns a copy of the targets in file order.
func (r *Registry) All() []Target {
	if r == nil {
		return nil
	}
	out := make([]Target, len(r.targets))
	copy(out, r.targets)
	return out
}

// ByID looks a target up by id.
func (r *Registry) ByID(id string) (Target, bool) {
	if r == nil {
		return Target{}, false
	}
	t, ok := r.idx[strings.TrimSpace(id)]
	return t, ok
}
