package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAIGatewayEnrich(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ai/extract-listing" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("unexpected auth header %q", got)
		}
		w.Write([]byte(`{"keywords":["console","handheld"],"summary":"portable games console"}`))
	}))
	defer server.Close()

	client := NewAIGatewayClient(server.Client(), server.URL, "test-key")
	enriched, err := client.Enrich(context.Background(), "Switch OLED", "lightly used")
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if len(enriched.Keywords) != 2 || enriched.Keywords[0] != "console" {
		t.Fatalf("unexpected keywords %v", enriched.Keywords)
	}
	if enriched.Summary != "portable games console" {
		t.Fatalf("unexpected summary %q", enriched.Summary)
	}
}

func TestAIGatewayMasksSensitiveSummary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"keywords":[],"summary":"contact me on WeChat: abc123"}`))
	}))
	defer server.Close()

	client := NewAIGatewayClient(server.Client(), server.URL, "test-key")
	enriched, err := client.Enrich(context.Background(), "t", "d")
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if enriched.Summary != maskedSummary {
		t.Fatalf("expected sensitive summary masked, got %q", enriched.Summary)
	}
}

func TestAIGatewayCircuitOpensAfterRepeatedFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewAIGatewayClient(server.Client(), server.URL, "test-key")
	ctx := context.Background()
	for i := 0; i < aiMaxFailures; i++ {
		if _, err := client.Enrich(ctx, "t", "d"); err == nil {
			t.Fatalf("expected failure %d", i)
		}
	}

	_, err := client.Enrich(ctx, "t", "d")
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected circuit open, got %v", err)
	}
}
