package probes

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/samvad-hq/samvad-apikit/pkg/httpclient"
)

// Package probes contains probe definition (YAML/JSON) helpers.

// Probe describes one endpoint check executed by the runner.
type Probe struct {
	ID             string            `json:"id" yaml:"id"`
	Name           string            `json:"name" yaml:"name"`
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	Body           map[string]any    `json:"body" yaml:"body"`
	AcceptStatuses []int             `json:"accept_statuses" yaml:"accept_statuses"`
}

// Registry holds the loaded probe definitions keyed by ID.
type Registry struct {
	probes []Probe
	byID   map[string]Probe
}

type registryFile struct {
	Probes []Probe `json:"probes" yaml:"probes"`
}

// All returns a copy of the loaded probes in file order.
func (r *Registry) All() []Probe {
	if r == nil || len(r.probes) == 0 {
		return nil
	}
	out := make([]Probe, len(r.probes))
	copy(out, r.probes)
	return out
}

// ByID returns the probe entry for the given id, if loaded.
func (r *Registry) ByID(id string) (Probe, bool) {
	id = strings.TrimSpace(id)
	if r == nil || id == "" {
		return Probe{}, false
	}
	p, ok := r.byID[id]
	return p, ok
}

// LoadRegistry loads probe definitions from file.
func LoadRegistry(path string) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("probes file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open probes file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read probes file: %w", err)
	}

	parsed, err := parseRegistryFile(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(parsed.Probes) == 0 {
		return nil, errors.New("probes file contains no probe entries")
	}

	idx := make(map[string]Probe, len(parsed.Probes))
	for i := range parsed.Probes {
		p := sanitizeProbe(parsed.Probes[i])
		if err := validateProbe(p); err != nil {
			return nil, fmt.Errorf("probe[%d]: %w", i, err)
		}
		if _, exists := idx[p.ID]; exists {
			return nil, fmt.Errorf("duplicate probe id %q", p.ID)
		}
		parsed.Probes[i] = p
		idx[p.ID] = p
	}

	return &Registry{probes: parsed.Probes, byID: idx}, nil
}

type unmarshalFn func([]byte, any) error

func parseRegistryFile(data []byte, ext string) (registryFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var parsed registryFile
		if err := d.fn(data, &parsed); err == nil {
			return parsed, nil
		}
	}

	return registryFile{}, errors.New("probes file format not recognized (expected YAML or JSON)")
}

func sanitizeProbe(p Probe) Probe {
	p.ID = strings.TrimSpace(p.ID)
	p.Name = strings.TrimSpace(p.Name)
	p.URL = strings.TrimSpace(p.URL)
	p.Method = strings.ToUpper(strings.TrimSpace(p.Method))
	if p.Method == "" {
		p.Method = string(httpclient.MethodGet)
	}
	return p
}

func validateProbe(p Probe) error {
	if p.ID == "" {
		return errors.New("id is required")
	}
	if p.URL == "" {
		return fmt.Errorf("url is required for probe %q", p.ID)
	}
	switch httpclient.Method(p.Method) {
	case httpclient.MethodGet, httpclient.MethodPost, httpclient.MethodPut,
		httpclient.MethodUpdate, httpclient.MethodDelete:
	default:
		return fmt.Errorf("unsupported method %q for probe %q", p.Method, p.ID)
	}
	for _, code := range p.AcceptStatuses {
		if code < 100 || code > 599 {
			return fmt.Errorf("invalid accept status %d for probe %q", code, p.ID)
		}
	}
	return nil
}

// AcceptedSet converts the probe's accept list into a StatusSet; an empty
// list means the client default applies.
func (p Probe) AcceptedSet() httpclient.StatusSet {
	if len(p.AcceptStatuses) == 0 {
		return nil
	}
	return httpclient.NewStatusSet(p.AcceptStatuses...)
}
