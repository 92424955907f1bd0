package gcs

import (
	"context"
	"testing"
	"time"
)

func TestObjectPathNormalization(t *testing.T) {
	c := &Client{
		defaultBucket: "opremico-documents",
		publicBase:    "https://storage.googleapis.com",
	}

	cases := map[string]string{
		"documents/42/PON-00001.pdf":  "documents/42/PON-00001.pdf",
		"/documents/42/RAC-00002.pdf": "documents/42/RAC-00002.pdf",
		"https://storage.googleapis.com/opremico-documents/documents/42/DOB-00003.pdf": "documents/42/DOB-00003.pdf",
	}
	for input, want := range cases {
		if got := c.objectPath(input); got != want {
			t.Fatalf("objectPath(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestTokenSourceCachesToken(t *testing.T) {
	calls := 0
	ts := &tokenSource{
		fetch: func(context.Context) (string, time.Time, error) {
			calls++
			return "tok", time.Now().Add(time.Hour), nil
		},
	}

	for i := 0; i < 3; i++ {
		token, err := ts.Token(context.Background())
		if err != nil {
			t.Fatalf("Token() error: %v", err)
		}
		if token != "tok" {
			t.Fatalf("unexpected token %q", token)
		}
	}
	if calls != 1 {
		t.Fatalf("expected 1 fetch, got %d", calls)
	}
}

func TestUninitializedClient(t *testing.T) {
	var c *Client
	if _, err := c.Put(context.Background(), "x", nil, ""); err == nil {
		t.Fatal("Put on nil client should error")
	}
	if err := c.Delete(context.Background(), "x"); err == nil {
		t.Fatal("Delete on nil client should error")
	}
}
