package outbound

import (
	"net/http"
	"net/url"
	"testing"
	"time"
)

func TestNewHTTPClientUsesProxy(t *testing.T) {
	client := NewHTTPClient("http://proxy.local:8080", time.Second)
	tr, ok := client.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("expected *http.Transport")
	}
	req := &http.Request{URL: &url.URL{Scheme: "https", Host: "example.com"}}
	got, err := tr.Proxy(req)
	if err != nil {
		t.Fatalf("proxy: %v", err)
	}
	if got == nil || got.Host != "proxy.local:8080" {
		t.Fatalf("unexpected proxy: %v", got)
	}
	if client.Timeout != time.Second {
		t.Fatalf("unexpected timeout: %v", client.Timeout)
	}
}

func TestNewHTTPClientIgnoresInvalidProxy(t *testing.T) {
	client := NewHTTPClient("::bad", 0)
	if client.Transport == nil {
		t.Fatalf("expected transport")
	}
}
