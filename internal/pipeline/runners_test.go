package pipeline

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/konradsoares/UK-GB-IE-daily-horseracing-picks/internal/model"
	"github.com/konradsoares/UK-GB-IE-daily-horseracing-picks/internal/worker"
)

const racecardPage = `<html><body>
<div class="RC-runnerRow">
  <a href="/profile/horse/11/thunder-bolt">Thunder Bolt</a>
  <span class="RC-runnerInfo_jockey">J: W Buick</span>
  <span class="RC-runnerInfo_trainer">T: C Appleby</span>
  <span class="RC-runnerInfo_form">Form: 1-203</span>
  <span class="RC-price">5/2</span>
  <span class="RC-exchangePrice">EXC 3.8</span>
</div>
<div class="RC-runnerRow">
  <a href="/profile/horse/12/each-way-hope">Each Way Hope</a>
  <span class="RC-price">4.0</span>
</div>
<div class="RC-runnerRow">
  <span class="RC-price">9/4</span>
</div>
</body></html>`

func testRunnerExtractor(fetcher *Fetcher, retryDelay time.Duration) *RunnerExtractor {
	site := model.SiteConfig{RacecardSeg: "racecards", ResultsSeg: "results", HorseProfilePath: "/profile/horse/"}
	conc := model.ConcurrencyConfig{Workers: 2, RetryDelay: retryDelay}
	return NewRunnerExtractor(fetcher, worker.NewLimiter(1000, 10), testLogger(), site, conc)
}

func TestRunnerExtractor_Extract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, racecardPage)
	}))
	defer srv.Close()

	site := testSiteConfig(srv.URL)
	ex := testRunnerExtractor(NewFetcher(testHTTPConfig(), site, nil), 10*time.Millisecond)

	race := ex.Extract(context.Background(), model.RaceLink{
		Course: "Ascot", Time: "14:30", URL: srv.URL + "/racecards/101/ascot",
	})

	if race.Error != "" {
		t.Fatalf("unexpected race error: %s", race.Error)
	}
	// The nameless third row is dropped; name is the only required field.
	if len(race.Runners) != 2 {
		t.Fatalf("expected 2 runners, got %d", len(race.Runners))
	}

	first := race.Runners[0]
	if first.Name != "Thunder Bolt" {
		t.Errorf("name: got %q", first.Name)
	}
	if first.Jockey != "W Buick" {
		t.Errorf("jockey label not stripped: %q", first.Jockey)
	}
	if first.Trainer != "C Appleby" {
		t.Errorf("trainer label not stripped: %q", first.Trainer)
	}
	if first.Form != "1-203" {
		t.Errorf("form label not stripped: %q", first.Form)
	}
	if first.Odds.Bookmaker != "5/2" {
		t.Errorf("bookmaker odds: got %q", first.Odds.Bookmaker)
	}
	if first.Odds.Exchange != "3.8" {
		t.Errorf("exchange source tag not stripped: %q", first.Odds.Exchange)
	}
}

func TestRunnerExtractor_RedirectToResults(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/racecards/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/results/101/ascot", http.StatusFound)
	})
	mux.HandleFunc("/results/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<html><body>Result</body></html>")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	site := testSiteConfig(srv.URL)
	ex := testRunnerExtractor(NewFetcher(testHTTPConfig(), site, nil), 10*time.Millisecond)

	race := ex.Extract(context.Background(), model.RaceLink{
		Course: "Ascot", Time: "14:30", URL: srv.URL + "/racecards/101/ascot",
	})

	if !race.SkippedFinished {
		t.Error("expected skipped_finished marker for redirect to results path")
	}
	if race.Error != "" {
		t.Errorf("redirect to results is not an error, got %q", race.Error)
	}
	if len(race.Runners) != 0 {
		t.Errorf("expected no runners, got %d", len(race.Runners))
	}
}

func TestRunnerExtractor_RetryOnEmpty(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			_, _ = io.WriteString(w, "<html><body><div class='placeholder'></div></body></html>")
			return
		}
		_, _ = io.WriteString(w, racecardPage)
	}))
	defer srv.Close()

	site := testSiteConfig(srv.URL)
	ex := testRunnerExtractor(NewFetcher(testHTTPConfig(), site, nil), 5*time.Millisecond)

	race := ex.Extract(context.Background(), model.RaceLink{
		Course: "Ascot", Time: "14:30", URL: srv.URL + "/racecards/101/ascot",
	})

	if atomic.LoadInt32(&hits) != 2 {
		t.Errorf("expected exactly one retry, server saw %d requests", hits)
	}
	if len(race.Runners) != 2 {
		t.Errorf("expected runners after retry, got %d", len(race.Runners))
	}
}

func TestRunnerExtractor_StillEmptyAfterRetry(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = io.WriteString(w, "<html><body></body></html>")
	}))
	defer srv.Close()

	site := testSiteConfig(srv.URL)
	ex := testRunnerExtractor(NewFetcher(testHTTPConfig(), site, nil), 5*time.Millisecond)

	race := ex.Extract(context.Background(), model.RaceLink{
		Course: "Ascot", Time: "14:30", URL: srv.URL + "/racecards/101/ascot",
	})

	if atomic.LoadInt32(&hits) != 2 {
		t.Errorf("expected the retry to be bounded at 2 attempts, got %d", hits)
	}
	if race.Error != "" {
		t.Errorf("empty after retry is a soft failure, got error %q", race.Error)
	}
	if len(race.Runners) != 0 {
		t.Errorf("expected no runners, got %d", len(race.Runners))
	}
}

func TestRunnerExtractor_ServerErrorScopedToRace(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	site := testSiteConfig(srv.URL)
	ex := testRunnerExtractor(NewFetcher(testHTTPConfig(), site, nil), 5*time.Millisecond)

	race := ex.Extract(context.Background(), model.RaceLink{
		Course: "Ascot", Time: "14:30", URL: srv.URL + "/racecards/101/ascot",
	})

	if race.Error == "" {
		t.Error("expected the failure recorded on the race")
	}
	if len(race.Runners) != 0 {
		t.Errorf("expected no runners, got %d", len(race.Runners))
	}
}

func TestRunnerExtractor_ExtractAllKeepsOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, racecardPage)
	}))
	defer srv.Close()

	site := testSiteConfig(srv.URL)
	ex := testRunnerExtractor(NewFetcher(testHTTPConfig(), site, nil), 5*time.Millisecond)

	links := []model.RaceLink{
		{Course: "Ascot", Time: "14:30", URL: srv.URL + "/racecards/1"},
		{Course: "York", Time: "15:00", URL: srv.URL + "/racecards/2"},
		{Course: "Haydock Park", Time: "15:30", URL: srv.URL + "/racecards/3"},
	}

	races := ex.ExtractAll(context.Background(), links)
	if len(races) != len(links) {
		t.Fatalf("expected %d races, got %d", len(links), len(races))
	}
	for i, link := range links {
		if races[i].Course != link.Course || races[i].URL != link.URL {
			t.Errorf("slot %d does not match input link: %+v", i, races[i])
		}
	}
}
