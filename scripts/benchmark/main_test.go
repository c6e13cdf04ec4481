package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercentile(t *testing.T) {
	assert.Equal(t, int64(0), percentile(nil, 95))
	assert.Equal(t, int64(7), percentile([]int64{7}, 95))
	assert.Equal(t, int64(100), percentile([]int64{50, 10, 100, 20}, 95))
	assert.Equal(t, int64(20), percentile([]int64{50, 10, 100, 20}, 50))
}

func TestSummarize(t *testing.T) {
	results := []runResult{
		{URL: "a", StatusCode: 200, LatencyMs: 100, HasImage: true, HasName: true},
		{URL: "a", StatusCode: 200, LatencyMs: 300, HasName: true},
		{URL: "a", StatusCode: 503, Error: "busy"},
		{URL: "a", StatusCode: 500, Error: "boom"},
		{URL: "b", Error: "request failed"},
	}

	got := summarize([]string{"a", "b"}, results)

	assert.Equal(t, urlSummary{
		URL: "a", OK: 2, Rejected: 1, Failed: 1,
		AvgMs: 200, P95Ms: 300, ImageRate: 0.5, NameRate: 1,
	}, got[0])
	assert.Equal(t, urlSummary{URL: "b", Failed: 1}, got[1])
}

func TestSplitURLs(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitURLs(" a, ,b ,"))
	assert.Nil(t, splitURLs(""))
}
