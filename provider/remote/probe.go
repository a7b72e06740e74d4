package remote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/kbukum/greenscreen/errors"
	"github.com/kbukum/greenscreen/provider"
	"github.com/kbukum/greenscreen/resilience"
	"github.com/kbukum/greenscreen/version"
)

// NewProbe returns a probe that checks the service health endpoint,
// retrying transport errors and 5xx answers. A nil client is built from
// cfg, including its TLS settings.
func NewProbe(cfg Config, client *http.Client) provider.ProbeFunc {
	cfg.ApplyDefaults()
	var clientErr error
	if client == nil {
		client, clientErr = cfg.HTTPClient()
	}
	backoff := resilience.Backoff{
		Attempts: cfg.ProbeAttempts,
		Initial:  cfg.ProbeBackoff,
		Max:      4 * cfg.ProbeBackoff,
	}

	return func(ctx context.Context) error {
		if cfg.Endpoint == "" {
			return errors.ProviderUnavailable(string(Kind)).WithDetail("reason", "endpoint not configured")
		}
		if clientErr != nil {
			return errors.ProviderUnavailable(string(Kind)).WithCause(clientErr)
		}
		url := strings.TrimRight(cfg.Endpoint, "/") + cfg.HealthPath
		return resilience.Retry(ctx, backoff, func() error {
			return checkHealth(ctx, client, url)
		})
	}
}

func checkHealth(ctx context.Context, client *http.Client, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.ProviderUnavailable(string(Kind)).WithCause(err)
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 500:
		return fmt.Errorf("health check %s: %s", url, resp.Status)
	default:
		return errors.ProviderUnavailable(string(Kind)).
			WithCause(fmt.Errorf("health check %s: %s", url, resp.Status))
	}
}
