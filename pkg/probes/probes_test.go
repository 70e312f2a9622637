package probes

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write probes file: %v", err)
	}
	return path
}

func TestLoadRegistryYAML(t *testing.T) {
	path := writeFile(t, "probes.yaml", `
probes:
  - id: items-api
    name: Items API
    url: https://api.example.com/items
    method: get
    headers:
      X-Env: staging
    accept_statuses: [200, 404]
  - id: submit-api
    url: https://api.example.com/submit
    method: POST
    body:
      ping: true
`)

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}

	all := reg.All()
	if len(all) != 2 {
		t.Fatalf("expected 2 probes, got %d", len(all))
	}

	p, ok := reg.ByID("items-api")
	if !ok {
		t.Fatalf("expected probe id items-api to be loaded")
	}
	if p.Method != "GET" {
		t.Fatalf("method must be normalized upper-case, got %q", p.Method)
	}
	if p.Headers["X-Env"] != "staging" {
		t.Fatalf("headers not loaded: %v", p.Headers)
	}
	set := p.AcceptedSet()
	if !set.Contains(404) || set.Contains(500) {
		t.Fatalf("accepted set broken: %v", set)
	}

	submit, _ := reg.ByID("submit-api")
	if submit.AcceptedSet() != nil {
		t.Fatalf("empty accept list must yield nil set")
	}
}

func TestLoadRegistryJSON(t *testing.T) {
	path := writeFile(t, "probes.json", `{
  "probes": [
    {"id": "health", "url": "https://api.example.com/health"}
  ]
}`)

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	if _, ok := reg.ByID("health"); !ok {
		t.Fatalf("health probe not loaded")
	}
}

func TestLoadRegistryValidation(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing url",
			content: "probes:\n  - id: broken\n",
			wantErr: "url is required",
		},
		{
			name:    "duplicate id",
			content: "probes:\n  - id: a\n    url: https://x/1\n  - id: a\n    url: https://x/2\n",
			wantErr: "duplicate probe id",
		},
		{
			name:    "bad method",
			content: "probes:\n  - id: a\n    url: https://x/1\n    method: PATCH\n",
			wantErr: "unsupported method",
		},
		{
			name:    "bad accept status",
			content: "probes:\n  - id: a\n    url: https://x/1\n    accept_statuses: [9999]\n",
			wantErr: "invalid accept status",
		},
		{
			name:    "empty file",
			content: "probes: []\n",
			wantErr: "no probe entries",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, "probes.yaml", tc.content)
			_, err := LoadRegistry(path)
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}
