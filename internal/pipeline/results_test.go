package pipeline

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/konradsoares/UK-GB-IE-daily-horseracing-picks/internal/model"
	"github.com/konradsoares/UK-GB-IE-daily-horseracing-picks/internal/worker"
)

const resultsTablePage = `<html><body>
<table>
  <tr><th>Pos</th><th>Horse</th><th>SP</th><th>Jockey</th><th>Trainer</th></tr>
  <tr>
    <td>1</td>
    <td><a href="/profile/horse/11/thunder-bolt">Thunder Bolt</a></td>
    <td>9/2</td>
    <td><a href="/profile/jockey/21/w-buick">W Buick</a></td>
    <td><a href="/profile/trainer/31/c-appleby">C Appleby</a></td>
  </tr>
  <tr>
    <td>2</td>
    <td><a href="/profile/horse/12/each-way-hope">Each Way Hope</a></td>
    <td>4.5</td>
  </tr>
</table>
</body></html>`

const resultsCardPage = `<html><body>
<div class="runner-card">
  <span class="position">2nd</span>
  <span class="horse-name">Each Way Hope</span>
</div>
<div class="runner-card">
  <span class="position">1st</span>
  <span class="horse-name">Outside Shout</span>
  <span class="sp">7/2</span>
  <span class="jockey">T Marquand</span>
  <span class="trainer">A Balding</span>
</div>
</body></html>`

const resultsBarePage = `<html><body>
<p>Full result</p>
<a href="/profile/horse/13/long-shot">Long Shot</a>
<a href="/profile/horse/14/another">Another Horse</a>
</body></html>`

func parseDoc(t *testing.T, page string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(page)))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestExtractWinner_Tabular(t *testing.T) {
	winner := extractWinner(parseDoc(t, resultsTablePage), "/profile/horse/")
	if winner == nil {
		t.Fatal("expected a winner")
	}
	if winner.Name != "Thunder Bolt" {
		t.Errorf("name: got %q", winner.Name)
	}
	if winner.SP != "9/2" {
		t.Errorf("sp: got %q", winner.SP)
	}
	if winner.Jockey != "W Buick" || winner.Trainer != "C Appleby" {
		t.Errorf("connections: got %q / %q", winner.Jockey, winner.Trainer)
	}
}

func TestExtractWinner_CardList(t *testing.T) {
	winner := extractWinner(parseDoc(t, resultsCardPage), "/profile/horse/")
	if winner == nil {
		t.Fatal("expected a winner")
	}
	if winner.Name != "Outside Shout" {
		t.Errorf("expected the 1st-badge card, got %q", winner.Name)
	}
	if winner.SP != "7/2" {
		t.Errorf("sp: got %q", winner.SP)
	}
}

func TestExtractWinner_FallbackAnchor(t *testing.T) {
	winner := extractWinner(parseDoc(t, resultsBarePage), "/profile/horse/")
	if winner == nil {
		t.Fatal("expected fallback winner")
	}
	if winner.Name != "Long Shot" {
		t.Errorf("expected first profile anchor, got %q", winner.Name)
	}
	if winner.SP != "" || winner.Jockey != "" || winner.Trainer != "" {
		t.Error("fallback strategy must leave all other fields empty")
	}
}

func TestExtractWinner_StrategyOrder(t *testing.T) {
	// A page with both a result table and runner cards: the tabular
	// strategy wins.
	combined := strings.Replace(resultsTablePage, "</body>",
		`<div class="runner-card"><span class="position">1st</span><span class="horse-name">Card Horse</span></div></body>`, 1)

	winner := extractWinner(parseDoc(t, combined), "/profile/horse/")
	if winner == nil || winner.Name != "Thunder Bolt" {
		t.Errorf("expected tabular strategy to win, got %+v", winner)
	}
}

func TestExtractWinner_NoMatch(t *testing.T) {
	if winner := extractWinner(parseDoc(t, "<html><body><p>abandoned</p></body></html>"), "/profile/horse/"); winner != nil {
		t.Errorf("expected nil winner, got %+v", winner)
	}
}

func testResultExtractor(fetcher *Fetcher) *ResultExtractor {
	site := model.SiteConfig{RacecardSeg: "racecards", ResultsSeg: "results", HorseProfilePath: "/profile/horse/"}
	conc := model.ConcurrencyConfig{Workers: 2}
	return NewResultExtractor(fetcher, worker.NewLimiter(1000, 10), testLogger(), site, conc)
}

func TestResultsURL(t *testing.T) {
	ex := testResultExtractor(nil)

	tests := []struct {
		in   string
		want string
	}{
		{
			"https://example.com/racecards/101/ascot/2026-08-30/1430",
			"https://example.com/results/101/ascot/2026-08-30/1430",
		},
		// Unparsable URL falls back to raw substitution.
		{
			"://bad/racecards/101",
			"://bad/results/101",
		},
	}
	for _, tt := range tests {
		if got := ex.ResultsURL(tt.in); got != tt.want {
			t.Errorf("ResultsURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResultExtractor_Extract_HitMatching(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/results/") {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, resultsTablePage)
	}))
	defer srv.Close()

	site := testSiteConfig(srv.URL)
	ex := testResultExtractor(NewFetcher(testHTTPConfig(), site, nil))

	race := model.Race{
		Course: "Ascot",
		Time:   "14:30",
		URL:    srv.URL + "/racecards/101/ascot",
		Shortlist: []model.ScoredPick{
			// Case and internal whitespace must not matter.
			{AnalysisPick: model.AnalysisPick{Name: "thunder   bolt"}},
		},
	}

	record := ex.Extract(context.Background(), race)
	if record.Error != "" {
		t.Fatalf("unexpected error: %s", record.Error)
	}
	if record.Winner == nil || record.Winner.Name != "Thunder Bolt" {
		t.Fatalf("unexpected winner: %+v", record.Winner)
	}
	if !record.Hit {
		t.Error("normalized name match must count as a hit")
	}
}

func TestResultExtractor_Extract_FailureScoped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusBadGateway)
	}))
	defer srv.Close()

	site := testSiteConfig(srv.URL)
	ex := testResultExtractor(NewFetcher(testHTTPConfig(), site, nil))

	record := ex.Extract(context.Background(), model.Race{
		Course: "Ascot", Time: "14:30", URL: srv.URL + "/racecards/101/ascot",
	})

	if record.Error == "" {
		t.Error("expected failure recorded on the record")
	}
	if record.Winner != nil {
		t.Errorf("expected nil winner, got %+v", record.Winner)
	}
	if record.Hit {
		t.Error("a failed race can never be a hit")
	}
}

func TestResultExtractor_ExtractAllKeepsOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, resultsTablePage)
	}))
	defer srv.Close()

	site := testSiteConfig(srv.URL)
	ex := testResultExtractor(NewFetcher(testHTTPConfig(), site, nil))

	races := []model.Race{
		{Course: "Ascot", Time: "14:30", URL: srv.URL + "/racecards/1"},
		{Course: "York", Time: "15:00", URL: srv.URL + "/racecards/2"},
	}

	records := ex.ExtractAll(context.Background(), races)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	for i, race := range races {
		if records[i].Course != race.Course || records[i].URL != race.URL {
			t.Errorf("slot %d does not match input race: %+v", i, records[i])
		}
	}
}
