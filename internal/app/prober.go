package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/samvad-hq/samvad-apikit/internal/config"
	"github.com/samvad-hq/samvad-apikit/internal/logger"
	"github.com/samvad-hq/samvad-apikit/internal/storage"
	"github.com/samvad-hq/samvad-apikit/pkg/httpclient"
	"github.com/samvad-hq/samvad-apikit/pkg/probes"
)

// Prober represents the probe runner runtime. It executes every configured
// probe against its endpoint, records the outcome, and raises webhook alerts
// when a probe transitions into a failing state.
type Prober struct {
	cfg      *config.Config
	registry *probes.Registry
	client   *httpclient.Client
	store    storage.Store
	alerter  *webhookAlerter
	interval time.Duration
}

// NewProber builds a probe runner runtime from config files.
func NewProber(cfg *config.Config) (*Prober, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}

	registry, err := probes.LoadRegistry(cfg.ProbesFile)
	if err != nil {
		return nil, fmt.Errorf("load probes registry: %w", err)
	}
	probeList := registry.All()
	probeIDs := make([]string, 0, len(probeList))
	for _, p := range probeList {
		probeIDs = append(probeIDs, p.ID)
	}
	logger.InfoObj("probes registry loaded", "probes_meta", map[string]any{
		"count": len(probeIDs),
		"ids":   probeIDs,
	})

	storeOpts := storage.Options{
		OutcomeTTL:      cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	}
	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storeOpts)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	logger.InfoObj("storage initialized", "storage_config", map[string]any{
		"type": cfg.StorageType,
		"path": cfg.BBoltPath,
	})

	clientOpts := []httpclient.Option{httpclient.WithTimeout(cfg.RequestTimeout)}
	if logger.S != nil {
		clientOpts = append(clientOpts, httpclient.WithLogger(logger.S))
	}
	client := httpclient.New(clientOpts...)

	var alerter *webhookAlerter
	if cfg.AlertWebhookURL != "" {
		alerter = newWebhookAlerter(cfg.AlertWebhookURL, client)
	}

	return &Prober{
		cfg:      cfg,
		registry: registry,
		client:   client,
		store:    store,
		alerter:  alerter,
		interval: cfg.ProbeInterval,
	}, nil
}

// Run executes probe passes until the context is cancelled.
func (p *Prober) Run(ctx context.Context) error {
	if p == nil || p.registry == nil {
		return fmt.Errorf("prober is not initialized")
	}
	defer p.closeStore()

	if err := p.RunOnce(ctx); err != nil {
		logger.ErrorObj("probe pass finished with failures", "error", err.Error())
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.InfoObj("prober stopping", "cause", ctx.Err().Error())
			return nil
		case <-ticker.C:
			if err := p.RunOnce(ctx); err != nil {
				logger.ErrorObj("probe pass finished with failures", "error", err.Error())
			}
		}
	}
}

// RunOnce executes a single pass over all configured probes. Probes run
// concurrently; each is independent of the others.
func (p *Prober) RunOnce(ctx context.Context) error {
	cfgs := p.registry.All()
	if len(cfgs) == 0 {
		return fmt.Errorf("no probes configured")
	}

	var (
		mu   sync.Mutex
		errs []error
		wg   sync.WaitGroup
	)

	for _, probe := range cfgs {
		wg.Add(1)
		go func(probe probes.Probe) {
			defer wg.Done()
			if err := p.runProbe(ctx, probe); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("probe %s: %w", probe.ID, err))
				mu.Unlock()
			}
		}(probe)
	}
	wg.Wait()

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func (p *Prober) runProbe(ctx context.Context, probe probes.Probe) error {
	var body any
	if len(probe.Body) > 0 {
		body = probe.Body
	}

	spec, err := httpclient.BuildRequest(probe.URL, httpclient.Method(probe.Method), probe.Headers, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	var submitErr error
	if accepted := probe.AcceptedSet(); accepted != nil {
		_, submitErr = p.client.SubmitRaw(ctx, spec, accepted)
	} else {
		_, submitErr = p.client.SubmitRaw(ctx, spec)
	}

	code := outcomeCode(submitErr)
	last, known, err := p.store.LastStatus(probe.ID)
	if err != nil {
		logger.WarnObj("outcome lookup failed", "probe_error", map[string]any{
			"probe_id": probe.ID,
			"error":    err.Error(),
		})
	}
	if err := p.store.RecordStatus(probe.ID, code); err != nil {
		logger.WarnObj("outcome record failed", "probe_error", map[string]any{
			"probe_id": probe.ID,
			"error":    err.Error(),
		})
	}

	transitioned := !known || last != code
	p.logOutcome(probe, code, transitioned, submitErr)

	if submitErr != nil && transitioned && p.alerter != nil {
		if err := p.alerter.Notify(ctx, newAlertEvent(probe, submitErr)); err != nil {
			logger.WarnObj("alert delivery failed", "probe_error", map[string]any{
				"probe_id": probe.ID,
				"error":    err.Error(),
			})
		}
	}

	return submitErr
}

func (p *Prober) logOutcome(probe probes.Probe, code int, transitioned bool, err error) {
	fields := map[string]any{
		"probe_id":     probe.ID,
		"url":          probe.URL,
		"outcome":      code,
		"transitioned": transitioned,
	}
	if err == nil {
		logger.InfoObj("probe succeeded", "probe_result", fields)
		return
	}
	fields["error"] = err.Error()
	logger.WarnObj("probe failed", "probe_result", fields)
}

// Close releases the prober's storage backend. Run closes it on exit; Close
// is for callers driving single passes through RunOnce.
func (p *Prober) Close() error {
	if p == nil || p.store == nil {
		return nil
	}
	return p.store.Close()
}

func (p *Prober) closeStore() {
	if p == nil || p.store == nil {
		return
	}
	if err := p.store.Close(); err != nil {
		logger.WarnObj("storage close failed", "error", err.Error())
	}
}

// outcomeCode collapses a probe result into a single comparable code: zero
// for success, the HTTP status for protocol failures, and a negative Kind
// value for failures that happened before a status code existed.
func outcomeCode(err error) int {
	if err == nil {
		return 0
	}
	var cerr *httpclient.Error
	if errors.As(err, &cerr) {
		if cerr.Status > 0 {
			return cerr.Status
		}
		return -int(cerr.Kind)
	}
	return -1
}
