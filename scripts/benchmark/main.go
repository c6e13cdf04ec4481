package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// CLI flags
var (
	apiURL      string
	urls        string
	runs        int
	concurrency int
	output      string
)

var rootCmd = &cobra.Command{
	Use:   "benchmark",
	Short: "Load-test a running xcommunity server",
	Long: `benchmark sends POST /scrape for each community URL, optionally with
several requests in flight, and reports latency, hit rates and how many
requests were turned away by browser pool backpressure (503).`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBenchmark(cmd.Context())
	},
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&apiURL, "api-url", "http://localhost:8080", "xcommunity API base URL")
	f.StringVar(&urls, "urls", "https://x.com/i/communities/1493446837214187523", "Comma-separated community URLs")
	f.IntVar(&runs, "runs", 3, "Number of runs per URL")
	f.IntVarP(&concurrency, "concurrency", "c", 1, "Requests in flight at once")
	f.StringVarP(&output, "output", "o", "benchmark-results.json", "JSON output file path")
}

// --- Request / Response types (mirrors models package) ---

type scrapeRequest struct {
	CommunityURL string `json:"communityURL"`
}

type scrapeResponse struct {
	ImageURL      *string `json:"imageUrl"`
	CommunityName *string `json:"communityName"`
	Error         string  `json:"error"`
}

// --- Benchmark result types ---

type runResult struct {
	URL        string `json:"url"`
	Run        int    `json:"run"`
	LatencyMs  int64  `json:"latency_ms"`
	StatusCode int    `json:"status_code"`
	HasImage   bool   `json:"has_image"`
	HasName    bool   `json:"has_name"`
	Error      string `json:"error,omitempty"`
}

type urlSummary struct {
	URL       string  `json:"url"`
	OK        int     `json:"ok"`
	Rejected  int     `json:"rejected"` // 503 from pool backpressure
	Failed    int     `json:"failed"`
	AvgMs     float64 `json:"avg_ms"`
	P95Ms     int64   `json:"p95_ms"`
	ImageRate float64 `json:"image_rate"`
	NameRate  float64 `json:"name_rate"`
}

type benchmarkReport struct {
	Timestamp   string       `json:"timestamp"`
	APIURL      string       `json:"api_url"`
	RunsPerURL  int          `json:"runs_per_url"`
	Concurrency int          `json:"concurrency"`
	Runs        []runResult  `json:"runs"`
	Summary     []urlSummary `json:"summary"`
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runBenchmark(ctx context.Context) error {
	targets := splitURLs(urls)
	if len(targets) == 0 {
		return fmt.Errorf("no URLs given")
	}
	color.New(color.FgWhite, color.Bold).Println("=== xcommunity Benchmark ===")
	fmt.Printf("API URL:     %s\n", apiURL)
	fmt.Printf("URLs:        %d\n", len(targets))
	fmt.Printf("Runs/URL:    %d\n", runs)
	fmt.Printf("Concurrency: %d\n", concurrency)
	fmt.Println()

	// Quick connectivity check.
	if err := checkAPI(apiURL); err != nil {
		return fmt.Errorf("cannot reach API at %s: %w", apiURL, err)
	}

	client := &http.Client{Timeout: 90 * time.Second}
	results := make([]runResult, len(targets)*runs)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))
	for i, u := range targets {
		for r := 1; r <= runs; r++ {
			idx := i*runs + r - 1
			g.Go(func() error {
				results[idx] = benchmarkURL(gctx, client, u, r)
				rr := results[idx]
				if rr.Error == "" {
					fmt.Printf("  %s   %dms  %s (run %d)\n", color.GreenString("OK"), rr.LatencyMs, u, r)
				} else {
					fmt.Printf("  %s %d %s (run %d): %s\n", color.RedString("FAIL"), rr.StatusCode, u, r, rr.Error)
				}
				return nil
			})
		}
	}
	_ = g.Wait()

	report := benchmarkReport{
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		APIURL:      apiURL,
		RunsPerURL:  runs,
		Concurrency: concurrency,
		Runs:        results,
		Summary:     summarize(targets, results),
	}

	fmt.Println()
	printTable(report.Summary)

	if err := writeJSON(output, report); err != nil {
		return fmt.Errorf("writing JSON output: %w", err)
	}
	fmt.Printf("\nDetailed results written to %s\n", output)
	return nil
}

func splitURLs(s string) []string {
	var out []string
	for _, u := range strings.Split(s, ",") {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}

func checkAPI(baseURL string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func benchmarkURL(ctx context.Context, client *http.Client, url string, run int) runResult {
	rr := runResult{URL: url, Run: run}

	bodyBytes, err := json.Marshal(scrapeRequest{CommunityURL: url})
	if err != nil {
		rr.Error = fmt.Sprintf("marshal error: %v", err)
		return rr
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+"/scrape", bytes.NewReader(bodyBytes))
	if err != nil {
		rr.Error = fmt.Sprintf("request error: %v", err)
		return rr
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		rr.Error = fmt.Sprintf("request failed: %v", err)
		return rr
	}
	defer resp.Body.Close()
	rr.LatencyMs = time.Since(start).Milliseconds()
	rr.StatusCode = resp.StatusCode

	var sr scrapeResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		rr.Error = fmt.Sprintf("decode error: %v", err)
		return rr
	}

	if resp.StatusCode != http.StatusOK {
		rr.Error = sr.Error
		return rr
	}
	rr.HasImage = sr.ImageURL != nil
	rr.HasName = sr.CommunityName != nil
	return rr
}

func summarize(targets []string, results []runResult) []urlSummary {
	out := make([]urlSummary, 0, len(targets))
	for _, u := range targets {
		s := urlSummary{URL: u}
		var latencies []int64
		var images, names int
		for _, r := range results {
			if r.URL != u {
				continue
			}
			switch {
			case r.StatusCode == http.StatusServiceUnavailable:
				s.Rejected++
				continue
			case r.Error != "":
				s.Failed++
				continue
			}
			s.OK++
			latencies = append(latencies, r.LatencyMs)
			if r.HasImage {
				images++
			}
			if r.HasName {
				names++
			}
		}
		if s.OK > 0 {
			var total int64
			for _, l := range latencies {
				total += l
			}
			s.AvgMs = float64(total) / float64(s.OK)
			s.P95Ms = percentile(latencies, 95)
			s.ImageRate = float64(images) / float64(s.OK)
			s.NameRate = float64(names) / float64(s.OK)
		}
		out = append(out, s)
	}
	return out
}

func percentile(values []int64, p int) int64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]int64(nil), values...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := (len(sorted)*p+99)/100 - 1
	if idx < 0 {
		idx = 0
	}
	return sorted[idx]
}

func printTable(summary []urlSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"URL", "OK", "503", "Failed", "Avg", "P95", "Image", "Name"})

	for _, s := range summary {
		t.AppendRow(table.Row{
			truncateURL(s.URL, 40),
			s.OK, s.Rejected, s.Failed,
			fmt.Sprintf("%.0fms", s.AvgMs),
			fmt.Sprintf("%dms", s.P95Ms),
			fmt.Sprintf("%.0f%%", s.ImageRate*100),
			fmt.Sprintf("%.0f%%", s.NameRate*100),
		})
	}

	t.SetStyle(table.StyleRounded)
	t.Render()
}

func truncateURL(u string, max int) string {
	if len(u) <= max {
		return u
	}
	return u[:max-3] + "..."
}

func writeJSON(path string, report benchmarkReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
