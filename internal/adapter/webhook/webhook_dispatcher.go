package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	domain "github.com/mecber11/farmacia/internal/entity"
	"github.com/mecber11/farmacia/internal/usecase"
)

const maxResponseBytes = 1 << 20

type Config struct {
	URL           string
	Timeout       time.Duration // 0 = no client timeout
	RedirectField string
	UserAgent     string
}

// Dispatcher posts order payloads to the payment automation webhook and
// extracts the approval link from its JSON reply.
type Dispatcher struct {
	cfg    Config
	client *http.Client
}

func NewDispatcher(cfg Config) *Dispatcher {
	if cfg.RedirectField == "" {
		cfg.RedirectField = "approve_url"
	}
	return &Dispatcher{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

// Dispatch makes exactly one POST. Any transport error or non-2xx reply is
// ErrDispatchFailed; a 2xx reply without a usable link is ErrMissingRedirect.
func (d *Dispatcher) Dispatch(ctx context.Context, p domain.OrderPayload) (string, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", usecase.ErrDispatchFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if d.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", d.cfg.UserAgent)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", usecase.ErrDispatchFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", usecase.ErrDispatchFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: %d %s", usecase.ErrDispatchFailed, resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	var reply map[string]any
	if err := json.Unmarshal(respBody, &reply); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", usecase.ErrMissingRedirect, err)
	}
	url, _ := reply[d.cfg.RedirectField].(string)
	if url == "" {
		return "", fmt.Errorf("%w: field %q", usecase.ErrMissingRedirect, d.cfg.RedirectField)
	}
	return url, nil
}

var _ usecase.OrderDispatcher = (*Dispatcher)(nil)
