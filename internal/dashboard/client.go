package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

var ErrAPIUnavailable = errors.New("sales api unavailable")

// Sale is one paid order line as served by GET /api/ventas.
type Sale struct {
	ID          int64           `json:"id"`
	Fecha       time.Time       `json:"fecha"`
	Cliente     string          `json:"cliente"`
	Medicamento string          `json:"medicamento"`
	Cantidad    int             `json:"cantidad"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type ClientConfig struct {
	APIURL       string // e.g. http://localhost:8000/api
	TokenURL     string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

// Client reads the reporting API. When client credentials are configured it
// requests a bearer token and reuses it until shortly before expiry.
type Client struct {
	cfg  ClientConfig
	http *http.Client
	now  func() time.Time

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}, now: time.Now}
}

func (c *Client) FetchSales(ctx context.Context) ([]Sale, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(c.cfg.APIURL, "/")+"/ventas", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.ClientID != "" {
		tok, err := c.bearer(ctx)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAPIUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read: %v", ErrAPIUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusUnauthorized {
			c.resetToken()
		}
		return nil, fmt.Errorf("%w: HTTP %d: %s", ErrAPIUnavailable, resp.StatusCode, truncate(body, 200))
	}

	var sales []Sale
	if err := json.Unmarshal(body, &sales); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrAPIUnavailable, err)
	}
	return sales, nil
}

func (c *Client) bearer(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && c.now().Before(c.tokenExp) {
		return c.token, nil
	}

	form := url.Values{"client_id": {c.cfg.ClientID}, "client_secret": {c.cfg.ClientSecret}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: token: %v", ErrAPIUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: token: HTTP %d", ErrAPIUnavailable, resp.StatusCode)
	}

	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.AccessToken == "" {
		return "", fmt.Errorf("%w: token response", ErrAPIUnavailable)
	}
	c.token = out.AccessToken
	// renew a little early
	c.tokenExp = c.now().Add(time.Duration(out.ExpiresIn)*time.Second - 30*time.Second)
	return c.token, nil
}

func (c *Client) resetToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
