package openrouter

import "testing"

func TestNewClientRequiresAPIKey(t *testing.T) {
	t.Parallel()

	if client := NewClient(Config{}); client != nil {
		t.Fatal("expected nil client without an api key")
	}
	if client := NewClient(Config{APIKey: "  "}); client != nil {
		t.Fatal("expected nil client for a blank api key")
	}
}

func TestNewClientWithAPIKey(t *testing.T) {
	t.Parallel()

	client := NewClient(Config{
		APIKey:   "sk-test",
		BaseURL:  "https://openrouter.ai/api/v1/",
		SiteURL:  "https://example.test",
		SiteName: "voyago",
	})
	if client == nil {
		t.Fatal("expected a client")
	}
}
