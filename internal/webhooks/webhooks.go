// Package webhooks posts clone-run results to configured HTTP
// endpoints so downstream tooling can react to finished copies.
package webhooks

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/fathomvfx/showsync/internal/domain"
)

const (
	defaultTimeout     = 500 * time.Millisecond
	defaultConcurrency = 4
)

// Payload is the webhook payload for a finished clone run.
type Payload struct {
	RunID           string  `json:"run_id"`
	RunUUID         string  `json:"run_uuid"`
	SourceProjectID string  `json:"source_project_id"`
	TargetProjectID string  `json:"target_project_id"`
	TargetName      string  `json:"target_name"`
	Status          string  `json:"status"`
	Error           *string `json:"error"`
	Created         int     `json:"created"`
	Skipped         int     `json:"skipped"`
}

// Notifier fans a run-finished payload out to its endpoints. A nil or
// empty URL list makes every dispatch a no-op.
type Notifier struct {
	urls   []string
	logger *slog.Logger
	client *http.Client
}

// NewNotifier creates a notifier for the given endpoint URLs.
func NewNotifier(urls []string, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		urls:   urls,
		logger: logger,
		client: &http.Client{Timeout: defaultTimeout},
	}
}

// RunFinished posts the run outcome to every configured endpoint.
// Delivery is best effort: failures are logged and not retried.
func (n *Notifier) RunFinished(run *domain.CloneRun, records []domain.CloneRecord) {
	payload := Payload{
		RunID:           run.ID,
		RunUUID:         run.UUID,
		SourceProjectID: run.SourceProjectID,
		TargetProjectID: run.TargetProjectID,
		TargetName:      run.TargetName,
		Status:          string(run.Status),
		Error:           run.Error,
	}
	for _, rec := range records {
		switch rec.Outcome {
		case "created", "created_as_fallback":
			payload.Created++
		default:
			payload.Skipped++
		}
	}

	n.dispatch(n.normalizeURLs(payload), payload)
}

// normalizeURLs templates, validates and de-dupes the endpoint list.
func (n *Notifier) normalizeURLs(payload Payload) []string {
	if len(n.urls) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(n.urls))
	var normalized []string

	for _, raw := range n.urls {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		templated := applyTemplate(trimmed, payload)
		templated = strings.TrimRight(strings.TrimSpace(templated), "/")
		if templated == "" {
			continue
		}
		if !isValidWebhookURL(templated) {
			n.logger.Warn("skipping invalid webhook url", "url", templated)
			continue
		}
		if _, ok := seen[templated]; ok {
			continue
		}
		seen[templated] = struct{}{}
		normalized = append(normalized, templated)
	}

	return normalized
}

func applyTemplate(raw string, payload Payload) string {
	result := strings.ReplaceAll(raw, "{run_id}", payload.RunID)
	result = strings.ReplaceAll(result, "{project_id}", payload.TargetProjectID)
	return result
}

func isValidWebhookURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	if parsed.Host == "" {
		return false
	}
	return true
}

func (n *Notifier) dispatch(urls []string, payload Payload) {
	if len(urls) == 0 {
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		n.logger.Error("failed to encode webhook payload", "error", err)
		return
	}

	workers := defaultConcurrency
	if len(urls) < workers {
		workers = len(urls)
	}

	jobs := make(chan string)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for endpoint := range jobs {
				n.send(endpoint, body)
			}
		}()
	}

	for _, endpoint := range urls {
		jobs <- endpoint
	}
	close(jobs)
	wg.Wait()
}

func (n *Notifier) send(endpoint string, body []byte) {
	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		n.logger.Error("failed to build webhook request", "url", endpoint, "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Warn("webhook delivery failed", "url", endpoint, "error", err)
		return
	}
	_ = resp.Body.Close()
}
