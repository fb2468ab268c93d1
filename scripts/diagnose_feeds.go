// Feed list diagnostic: fetches every configured RSS feed once and prints
// a JSON report of reachability, item counts, and freshness. Run it when a
// feed goes quiet to tell a dead feed from a slow news day:
//
//	go run scripts/diagnose_feeds.go [feeds.yaml]
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/mmcdole/gofeed"

	"trendpost/internal/infra/trending"
)

type feedDiagnostic struct {
	Name           string `json:"name"`
	URL            string `json:"url"`
	Status         string `json:"status"` // "OK", "FETCH_ERROR", "EMPTY", "STALE"
	ItemCount      int    `json:"item_count"`
	LatestDate     string `json:"latest_date,omitempty"`
	ErrorMessage   string `json:"error_message,omitempty"`
	ResponseTimeMS int64  `json:"response_time_ms"`
}

func main() {
	feedsPath := ""
	if len(os.Args) > 1 {
		feedsPath = os.Args[1]
	}

	feeds, err := trending.LoadFeeds(feedsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load feed list: %v\n", err)
		os.Exit(1)
	}

	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: 15 * time.Second}
	parser.UserAgent = "TrendPostBot"

	diagnostics := make([]feedDiagnostic, 0, len(feeds))
	failures := 0

	for _, feed := range feeds {
		diag := diagnose(parser, feed)
		if diag.Status != "OK" {
			failures++
		}
		diagnostics = append(diagnostics, diag)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(diagnostics); err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode report: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "%d/%d feeds healthy\n", len(feeds)-failures, len(feeds))
	if failures > 0 {
		os.Exit(1)
	}
}

func diagnose(parser *gofeed.Parser, source trending.FeedSource) feedDiagnostic {
	diag := feedDiagnostic{Name: source.Name, URL: source.URL}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	start := time.Now()
	feed, err := parser.ParseURLWithContext(source.URL, ctx)
	diag.ResponseTimeMS = time.Since(start).Milliseconds()

	if err != nil {
		diag.Status = "FETCH_ERROR"
		diag.ErrorMessage = err.Error()
		return diag
	}

	diag.ItemCount = len(feed.Items)
	if diag.ItemCount == 0 {
		diag.Status = "EMPTY"
		return diag
	}

	var latest time.Time
	for _, item := range feed.Items {
		published := item.PublishedParsed
		if published == nil {
			published = item.UpdatedParsed
		}
		if published != nil && published.After(latest) {
			latest = *published
		}
	}

	if !latest.IsZero() {
		diag.LatestDate = latest.Format(time.RFC3339)
		// A week without items usually means the feed moved.
		if time.Since(latest) > 7*24*time.Hour {
			diag.Status = "STALE"
			return diag
		}
	}

	diag.Status = "OK"
	return diag
}
