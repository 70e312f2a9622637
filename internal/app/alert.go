package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samvad-hq/samvad-apikit/pkg/httpclient"
	"github.com/samvad-hq/samvad-apikit/pkg/probes"
)

// alertEvent is the JSON payload posted to the alert webhook when a probe
// transitions into a failing state.
type alertEvent struct {
	ProbeID   string    `json:"probe_id"`
	ProbeName string    `json:"probe_name,omitempty"`
	URL       string    `json:"url"`
	Kind      string    `json:"kind"`
	Status    int       `json:"status,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Error     string    `json:"error"`
	At        time.Time `json:"at"`
}

func newAlertEvent(probe probes.Probe, err error) alertEvent {
	evt := alertEvent{
		ProbeID:   probe.ID,
		ProbeName: probe.Name,
		URL:       probe.URL,
		Error:     err.Error(),
		At:        time.Now().UTC(),
	}
	var cerr *httpclient.Error
	if errors.As(err, &cerr) {
		evt.Kind = cerr.Kind.String()
		evt.Status = cerr.Status
		evt.Reason = cerr.Reason
	}
	return evt
}

// webhookAlerter delivers alert events to a configured HTTP endpoint using
// the same client the probes run on.
type webhookAlerter struct {
	url    string
	client *httpclient.Client
}

func newWebhookAlerter(url string, client *httpclient.Client) *webhookAlerter {
	return &webhookAlerter{url: url, client: client}
}

func (w *webhookAlerter) Notify(ctx context.Context, evt alertEvent) error {
	spec, err := httpclient.BuildRequest(w.url, httpclient.MethodPost, nil, evt)
	if err != nil {
		return fmt.Errorf("build alert request: %w", err)
	}
	if _, err := w.client.SubmitRaw(ctx, spec); err != nil {
		return fmt.Errorf("post alert: %w", err)
	}
	return nil
}
