package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Pinger periodically requests the service's own public URL so hosting
// platforms that sleep idle services keep the process awake.
type Pinger struct {
	url        string
	interval   time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

// NewPinger creates a keep-alive pinger for the given URL.
func NewPinger(url string, interval time.Duration, logger *slog.Logger) *Pinger {
	return &Pinger{
		url:        url,
		interval:   interval,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}
}

// Run pings on the configured interval until ctx is cancelled. Ping failures
// are logged and never affect the rest of the process.
func (p *Pinger) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.ping(ctx)
		}
	}
}

func (p *Pinger) ping(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		p.logger.Warn("failed to build keep-alive request", "error", err)
		return
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.Warn("keep-alive ping failed", "url", p.url, "error", err)
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
