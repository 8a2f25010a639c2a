package standard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"newsfeed-canon/core/domain"
	coreerrors "newsfeed-canon/core/errors"
)

func TestFetcher_Fetch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rss", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(`<?xml version="1.0"?><rss version="2.0"><channel></channel></rss>`))
	})
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/article", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/article", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept-Language") == "" {
			t.Error("browser headers missing")
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><h1>Hi</h1></body></html>`))
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	fetcher := NewFetcher(NewWithOptions(Options{Timeout: 5 * time.Second, Retries: 0}))
	ctx := context.Background()

	t.Run("feed", func(t *testing.T) {
		doc, err := fetcher.Fetch(ctx, server.URL+"/rss")
		if err != nil {
			t.Fatal(err)
		}
		if doc.Kind != domain.DocumentKindFeed {
			t.Errorf("Kind = %v, want feed", doc.Kind)
		}
	})

	t.Run("redirect", func(t *testing.T) {
		doc, err := fetcher.Fetch(ctx, server.URL+"/old")
		if err != nil {
			t.Fatal(err)
		}
		if doc.FinalURL != server.URL+"/article" {
			t.Errorf("FinalURL = %q", doc.FinalURL)
		}
		if doc.Kind != domain.DocumentKindArticleHTML {
			t.Errorf("Kind = %v, want article_html", doc.Kind)
		}
		if doc.Text() == "" {
			t.Error("body should not be empty")
		}
	})

	t.Run("not found", func(t *testing.T) {
		_, err := fetcher.Fetch(ctx, server.URL+"/missing")
		if !coreerrors.IsFetchFailure(err) {
			t.Fatalf("error = %v, want FetchFailure", err)
		}
	})

	t.Run("unreachable", func(t *testing.T) {
		_, err := fetcher.Fetch(ctx, "http://127.0.0.1:1/nothing")
		if !coreerrors.IsFetchFailure(err) {
			t.Fatalf("error = %v, want FetchFailure", err)
		}
	})
}

func TestFetcher_DecodesLegacyCharsets(t *testing.T) {
	latin1Feed := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><rss version=\"2.0\"><channel><title>Caf\xe9</title></channel></rss>"

	mux := http.NewServeMux()
	mux.HandleFunc("/latin1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		_, _ = w.Write([]byte("<html><body><h1>Caf\xe9 cr\xe8me</h1></body></html>"))
	})
	mux.HandleFunc("/meta", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><head><meta charset=\"windows-1252\"></head><body><p>\x93Caf\xe9\x94</p></body></html>"))
	})
	mux.HandleFunc("/feed", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(latin1Feed))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	fetcher := NewFetcher(NewWithOptions(Options{Timeout: 5 * time.Second, Retries: 0}))
	ctx := context.Background()

	tests := []struct {
		path string
		want string
	}{
		{"/latin1", "Café crème"},
		{"/meta", "\u201cCafé\u201d"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			doc, err := fetcher.Fetch(ctx, server.URL+tt.path)
			if err != nil {
				t.Fatal(err)
			}
			if !utf8.Valid(doc.Body) {
				t.Errorf("body is not valid UTF-8: %q", doc.Body)
			}
			if !strings.Contains(string(doc.Body), tt.want) {
				t.Errorf("body = %q, want it to contain %q", doc.Body, tt.want)
			}
		})
	}

	t.Run("feed keeps declared encoding", func(t *testing.T) {
		doc, err := fetcher.Fetch(ctx, server.URL+"/feed")
		if err != nil {
			t.Fatal(err)
		}
		if string(doc.Body) != latin1Feed {
			t.Errorf("feed body was rewritten: %q", doc.Body)
		}
	})
}

func TestFetcher_RespectsRobots(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("User-agent: *\nDisallow: /private/\n"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html></html>"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewWithOptions(Options{Robots: NewRobotsChecker(time.Second)})
	fetcher := NewFetcher(client)

	if _, err := fetcher.Fetch(context.Background(), server.URL+"/news/a"); err != nil {
		t.Errorf("allowed path failed: %v", err)
	}
	if _, err := fetcher.Fetch(context.Background(), server.URL+"/private/a"); !coreerrors.IsFetchFailure(err) {
		t.Errorf("disallowed path error = %v, want FetchFailure", err)
	}
}

func TestHostLimiter(t *testing.T) {
	limiter := NewHostLimiter(0)
	if err := limiter.Wait(context.Background(), "https://a.test/x"); err != nil {
		t.Errorf("disabled limiter should never block: %v", err)
	}

	limiter = NewHostLimiter(1)
	ctx := context.Background()
	if err := limiter.Wait(ctx, "https://a.test/1"); err != nil {
		t.Fatal(err)
	}
	// Another host has its own bucket
	if err := limiter.Wait(ctx, "https://b.test/1"); err != nil {
		t.Fatal(err)
	}

	short, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	if err := limiter.Wait(short, "https://a.test/2"); err == nil {
		t.Error("second request to the same host within a second should wait past the deadline")
	}
}
