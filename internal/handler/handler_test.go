package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"coin-compass/internal/domain"
	"coin-compass/internal/sentiment"
	"coin-compass/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type stubReader struct {
	recs        []domain.EnhancedCryptoAnalysis
	recsErr     error
	coins       []domain.Coin
	coinsErr    error
	points      []domain.PricePoint
	historyErr  error
	historyID   string
	historyDays int
	summary     service.CycleSummary
	refreshErr  error
	source      string
}

func (s *stubReader) Recommendations(context.Context) ([]domain.EnhancedCryptoAnalysis, error) {
	return s.recs, s.recsErr
}

func (s *stubReader) Coins(context.Context) ([]domain.Coin, error) {
	return s.coins, s.coinsErr
}

func (s *stubReader) History(_ context.Context, coinID string, days int) ([]domain.PricePoint, error) {
	s.historyID = coinID
	s.historyDays = days
	return s.points, s.historyErr
}

func (s *stubReader) Refresh(context.Context) (service.CycleSummary, error) {
	return s.summary, s.refreshErr
}

func (s *stubReader) LastSummary() service.CycleSummary { return s.summary }

func (s *stubReader) DataSource() string { return s.source }

type stubSentiment struct {
	snap sentiment.Snapshot
}

func (s *stubSentiment) Fetch(context.Context) sentiment.Snapshot { return s.snap }

func newTestRouter(reader *stubReader, sentimentSvc SentimentFetcher) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := New(trace.NewNoopTracerProvider().Tracer("handler-test"), reader, sentimentSvc)
	r := gin.New()
	h.RegisterRoutes(r)
	return r
}

func TestGetRecommendations(t *testing.T) {
	reader := &stubReader{
		recs: []domain.EnhancedCryptoAnalysis{
			{CryptoAnalysis: domain.CryptoAnalysis{Coin: domain.Coin{ID: "bitcoin"}, TechnicalScore: 72}},
		},
		summary: service.CycleSummary{Ranked: 1, Source: "coingecko", At: time.Now()},
		source:  "coingecko",
	}
	router := newTestRouter(reader, &stubSentiment{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/recommendations", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Count  int    `json:"count"`
		Source string `json:"source"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 1 || body.Source != "coingecko" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestGetRecommendationsFailure(t *testing.T) {
	reader := &stubReader{recsErr: errors.New("cycle failed")}
	router := newTestRouter(reader, &stubSentiment{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/recommendations", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestTriggerRefresh(t *testing.T) {
	reader := &stubReader{summary: service.CycleSummary{Candidates: 100, Ranked: 10, Source: "coincap"}}
	router := newTestRouter(reader, &stubSentiment{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/recommendations/refresh", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var summary service.CycleSummary
	if err := json.Unmarshal(w.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if summary.Ranked != 10 || summary.Source != "coincap" {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestTriggerRefreshUpstreamFailure(t *testing.T) {
	reader := &stubReader{refreshErr: errors.New("all 6 sources failed")}
	router := newTestRouter(reader, &stubSentiment{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/recommendations/refresh", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
}

func TestGetCoins(t *testing.T) {
	reader := &stubReader{coins: []domain.Coin{{ID: "bitcoin"}, {ID: "ethereum"}}}
	router := newTestRouter(reader, &stubSentiment{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/coins", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 2 {
		t.Fatalf("expected 2 coins, got %d", body.Count)
	}
}

func TestGetCoinsUpstreamFailure(t *testing.T) {
	reader := &stubReader{coinsErr: errors.New("chain exhausted")}
	router := newTestRouter(reader, &stubSentiment{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/coins", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
}

func TestGetHistoryDaysParam(t *testing.T) {
	cases := []struct {
		name  string
		query string
		want  int
	}{
		{"default", "", 7},
		{"explicit", "?days=30", 30},
		{"zero rejected", "?days=0", 7},
		{"negative rejected", "?days=-3", 7},
		{"over cap rejected", "?days=400", 7},
		{"garbage rejected", "?days=week", 7},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reader := &stubReader{points: []domain.PricePoint{{Price: 97000}}}
			router := newTestRouter(reader, &stubSentiment{})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/coins/bitcoin/history"+tc.query, nil)
			router.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", w.Code)
			}
			if reader.historyID != "bitcoin" {
				t.Fatalf("expected coin id forwarded, got %q", reader.historyID)
			}
			if reader.historyDays != tc.want {
				t.Fatalf("expected %d days, got %d", tc.want, reader.historyDays)
			}
		})
	}
}

func TestGetHistoryUpstreamFailure(t *testing.T) {
	reader := &stubReader{historyErr: errors.New("no source answered")}
	router := newTestRouter(reader, &stubSentiment{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/coins/bitcoin/history", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
}

func TestGetDataSource(t *testing.T) {
	reader := &stubReader{source: "none"}
	router := newTestRouter(reader, &stubSentiment{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/datasource", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["source"] != "none" {
		t.Fatalf("expected source none, got %q", body["source"])
	}
}

func TestGetSentiment(t *testing.T) {
	value := 72
	snap := sentiment.Snapshot{
		Composite:      sentiment.Composite{Score: 0.44, Label: "bullish"},
		FearGreedValue: &value,
		Platforms: map[string]sentiment.PlatformResult{
			sentiment.PlatformFearGreed: {Score: 0.44, Available: true, Items: 1},
		},
		FetchedAt: time.Now().UTC(),
	}
	router := newTestRouter(&stubReader{}, &stubSentiment{snap: snap})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/sentiment", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var got sentiment.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Label != "bullish" || got.FearGreedValue == nil || *got.FearGreedValue != 72 {
		t.Fatalf("unexpected snapshot: %+v", got)
	}
}
