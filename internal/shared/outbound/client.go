package outbound

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/telemetry"
)

// NewHTTPClient returns a client for third-party calls. When proxy is set all
// traffic goes through it; otherwise the standard proxy env vars apply.
// Deadlines come from the caller's context, so timeout is only a backstop.
func NewHTTPClient(proxy string, timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if p := strings.TrimSpace(proxy); p != "" {
		u, err := url.Parse(p)
		if err != nil || u.Host == "" {
			telemetry.Error("outbound.proxy_invalid", map[string]any{"proxy": p})
		} else {
			transport.Proxy = http.ProxyURL(u)
			telemetry.Info("outbound.proxy_enabled", map[string]any{"host": u.Host})
		}
	}
	return &http.Client{Transport: transport, Timeout: timeout}
}
