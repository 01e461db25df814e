package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
)

const fearGreedBaseURL = "https://api.alternative.me"

// FearGreedProvider reads the alternative.me Fear & Greed index. Every
// numeric field in the payload arrives as a string.
type FearGreedProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
}

func NewFearGreedProvider(tracer trace.Tracer) *FearGreedProvider {
	return &FearGreedProvider{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: fearGreedBaseURL,
		tracer:  tracer,
	}
}

type fearGreedRow struct {
	Value            string `json:"value"`
	Classification   string `json:"value_classification"`
	Timestamp        string `json:"timestamp"`
	TimeUntilUpdateS string `json:"time_until_update"`
}

// FetchHistory returns up to limit index readings, newest first.
func (p *FearGreedProvider) FetchHistory(ctx context.Context, limit int) ([]FearGreedPoint, error) {
	_, span := p.tracer.Start(ctx, "feargreed.fetch-history")
	defer span.End()

	if limit <= 0 {
		limit = 1
	}

	url := fmt.Sprintf("%s/fng/?limit=%d", strings.TrimRight(p.baseURL, "/"), limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fear & greed API error %d: %s", resp.StatusCode, string(body))
	}

	var payload struct {
		Data []fearGreedRow `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode fear & greed response: %w", err)
	}
	if len(payload.Data) == 0 {
		return nil, fmt.Errorf("fear & greed response has no rows")
	}

	points := make([]FearGreedPoint, 0, len(payload.Data))
	for _, row := range payload.Data {
		point, err := convertFearGreedRow(row)
		if err != nil {
			return nil, err
		}
		points = append(points, point)
	}
	return points, nil
}

// FetchLatest returns the most recent index reading.
func (p *FearGreedProvider) FetchLatest(ctx context.Context) (*FearGreedPoint, error) {
	points, err := p.FetchHistory(ctx, 1)
	if err != nil {
		return nil, err
	}
	return &points[0], nil
}

func convertFearGreedRow(row fearGreedRow) (FearGreedPoint, error) {
	value, err := strconv.Atoi(strings.TrimSpace(row.Value))
	if err != nil {
		return FearGreedPoint{}, fmt.Errorf("parse fear & greed value: %w", err)
	}
	ts, err := strconv.ParseInt(strings.TrimSpace(row.Timestamp), 10, 64)
	if err != nil {
		return FearGreedPoint{}, fmt.Errorf("parse fear & greed timestamp: %w", err)
	}
	// Some mirrors serve milliseconds.
	if ts > 1_000_000_000_000 {
		ts /= 1000
	}
	updateS := 0
	if n, err := strconv.Atoi(strings.TrimSpace(row.TimeUntilUpdateS)); err == nil && n >= 0 {
		updateS = n
	}

	return FearGreedPoint{
		Value:            value,
		Classification:   row.Classification,
		Timestamp:        time.Unix(ts, 0).UTC(),
		TimeUntilUpdateS: updateS,
	}, nil
}
