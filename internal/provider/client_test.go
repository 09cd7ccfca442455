package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fastanime/fastanime-core/internal/config"
)

func testConfig() config.ProviderConfig {
	return config.ProviderConfig{
		Name:               "allanime",
		Timeout:            2 * time.Second,
		RateLimitPerSecond: 100,
		RateLimitBurst:     10,
	}
}

func TestSearchReturnsResults(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"bleach-dub","title":"Bleach (Dub)"}]`))
	}))
	defer server.Close()

	client := New(testConfig(), server.URL)
	results, err := client.Search(context.Background(), "bleach")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "bleach-dub" {
		t.Errorf("unexpected results: %+v", results)
	}
}

func TestEpisodeServersReturnsMap(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"hd-1":"https://example.test/stream"}`))
	}))
	defer server.Close()

	client := New(testConfig(), server.URL)
	servers, err := client.EpisodeServers(context.Background(), "bleach-dub", 3)
	if err != nil {
		t.Fatalf("EpisodeServers: %v", err)
	}
	if servers["hd-1"] != "https://example.test/stream" {
		t.Errorf("unexpected servers: %+v", servers)
	}
}

func TestGetSurfacesUpstreamErrorStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := New(testConfig(), server.URL)
	_, err := client.Search(context.Background(), "x")
	if err == nil {
		t.Fatal("expected an error for a 503 response")
	}
}
