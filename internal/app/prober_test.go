package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/samvad-hq/samvad-apikit/internal/storage"
	"github.com/samvad-hq/samvad-apikit/pkg/httpclient"
	"github.com/samvad-hq/samvad-apikit/pkg/probes"
)

func loadTestRegistry(t *testing.T, content string) *probes.Registry {
	t.Helper()
	path := filepath.Join(t.TempDir(), "probes.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write probes file: %v", err)
	}
	reg, err := probes.LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	return reg
}

func newTestStore(t *testing.T) storage.Store {
	t.Helper()
	store, err := storage.NewStore("bbolt", filepath.Join(t.TempDir(), "outcomes.db"), storage.Options{})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRunOnceRecordsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	reg := loadTestRegistry(t, fmt.Sprintf("probes:\n  - id: ok\n    url: %s\n", srv.URL))
	store := newTestStore(t)

	p := &Prober{
		registry: reg,
		client:   httpclient.New(httpclient.WithTimeout(2 * time.Second)),
		store:    store,
		interval: time.Minute,
	}

	if err := p.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	code, found, err := store.LastStatus("ok")
	if err != nil || !found {
		t.Fatalf("expected recorded outcome, found=%v err=%v", found, err)
	}
	if code != 0 {
		t.Fatalf("success outcome code = %d, want 0", code)
	}
}

func TestRunOnceAlertsOnFailureTransition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	var alerts atomic.Int64
	var lastEvent alertEvent
	alertSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &lastEvent); err != nil {
			t.Errorf("alert payload is not JSON: %v", err)
		}
		alerts.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer alertSrv.Close()

	reg := loadTestRegistry(t, fmt.Sprintf("probes:\n  - id: down\n    url: %s\n", srv.URL))
	store := newTestStore(t)
	client := httpclient.New(httpclient.WithTimeout(2 * time.Second))

	p := &Prober{
		registry: reg,
		client:   client,
		store:    store,
		alerter:  newWebhookAlerter(alertSrv.URL, client),
		interval: time.Minute,
	}

	if err := p.RunOnce(context.Background()); err == nil {
		t.Fatalf("expected pass failure for 503 probe")
	}
	if got := alerts.Load(); got != 1 {
		t.Fatalf("alerts sent = %d, want 1", got)
	}
	if lastEvent.ProbeID != "down" || lastEvent.Status != 503 || lastEvent.Kind != "server_error" {
		t.Fatalf("unexpected alert event: %+v", lastEvent)
	}

	code, found, err := store.LastStatus("down")
	if err != nil || !found || code != 503 {
		t.Fatalf("expected recorded 503 outcome, got code=%d found=%v err=%v", code, found, err)
	}

	// Second pass sees the same outcome; no transition, no new alert.
	if err := p.RunOnce(context.Background()); err == nil {
		t.Fatalf("expected pass failure on second run")
	}
	if got := alerts.Load(); got != 1 {
		t.Fatalf("alerts sent after second pass = %d, want 1", got)
	}
}

func TestOutcomeCode(t *testing.T) {
	if got := outcomeCode(nil); got != 0 {
		t.Fatalf("nil error: got %d", got)
	}
	if got := outcomeCode(errors.New("plain")); got != -1 {
		t.Fatalf("plain error: got %d", got)
	}

	_, err := httpclient.BuildRequest("https://x", httpclient.MethodPost, nil, make(chan int))
	if got := outcomeCode(err); got >= 0 {
		t.Fatalf("pre-status failure must map negative, got %d", got)
	}
}
