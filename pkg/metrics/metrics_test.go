package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorderCounts(t *testing.T) {
	r := New()
	r.ObservePoll("line-a", 0.2, nil)
	r.ObservePoll("line-a", 0.1, errors.New("boom"))
	r.Published("line-a")
	r.Published("line-a")
	r.Skipped("line-a")
	r.PublishFailed("line-b")

	if got := testutil.ToFloat64(r.polls.WithLabelValues("line-a", OutcomeOK)); got != 1 {
		t.Fatalf("ok polls = %v", got)
	}
	if got := testutil.ToFloat64(r.polls.WithLabelValues("line-a", OutcomeError)); got != 1 {
		t.Fatalf("error polls = %v", got)
	}
	if got := testutil.ToFloat64(r.published.WithLabelValues("line-a")); got != 2 {
		t.Fatalf("published = %v", got)
	}
	if got := testutil.ToFloat64(r.skipped.WithLabelValues("line-a")); got != 1 {
		t.Fatalf("skipped = %v", got)
	}
	if got := testutil.ToFloat64(r.publishFailures.WithLabelValues("line-b")); got != 1 {
		t.Fatalf("publish failures = %v", got)
	}
}

func TestNilRecorderIsSafe(t *testing.T) {
	var r *Recorder
	r.ObservePoll("x", 1, nil)
	r.Published("x")
	r.Skipped("x")
	r.PublishFailed("x")
}

func TestHandlerExposesMetrics(t *testing.T) {
	r := New()
	r.Published("line-a")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `aoi_watcher_summaries_published_total{target="line-a"} 1`) {
		t.Fatalf("published counter missing from exposition:\n%s", body)
	}
}
