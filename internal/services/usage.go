package services

import (
	"sort"
	"time"

	"github.com/Dljdd/AgentHack25/internal/models"
	"github.com/Dljdd/AgentHack25/pkg/response"
	"gorm.io/gorm"
)

// UsageService is the append-only usage ledger plus its aggregation
// queries. Records are written once and never mutated.
type UsageService struct {
	db      *gorm.DB
	pricing *Pricing
}

func NewUsageService(db *gorm.DB, pricing *Pricing) *UsageService {
	return &UsageService{db: db, pricing: pricing}
}

// Record validates and appends one ledger entry, computing its cost
// from the provider price table. An explicit timestamp is honored so
// usage can be backfilled; otherwise the current time is used.
func (s *UsageService) Record(userID, provider, model string, inputTokens, outputTokens, calls int, at *time.Time) (*models.UsageRecord, error) {
	if provider == "" {
		return nil, response.NewBadRequest("provider is required")
	}
	if model == "" {
		return nil, response.NewBadRequest("model is required")
	}
	if !s.pricing.Known(provider) {
		return nil, response.NewBadRequest("unknown provider: " + provider)
	}
	if inputTokens < 0 || outputTokens < 0 {
		return nil, response.NewBadRequest("token counts must be non-negative")
	}
	if calls < 1 {
		calls = 1
	}

	rec := &models.UsageRecord{
		UserID:       userID,
		Provider:     provider,
		Model:        model,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		Calls:        calls,
		Cost:         s.pricing.Cost(provider, inputTokens, outputTokens),
	}
	if at != nil {
		rec.CreatedAt = *at
	}

	if err := s.db.Create(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

// ListRecent returns the most recent records, newest first, ties broken
// by id. The limit is clamped to [1, 200].
func (s *UsageService) ListRecent(limit int) ([]models.UsageRecord, error) {
	if limit < 1 {
		limit = 1
	}
	if limit > 200 {
		limit = 200
	}

	var records []models.UsageRecord
	err := s.db.Order("created_at DESC, id DESC").Limit(limit).Find(&records).Error
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []models.UsageRecord{}
	}
	return records, nil
}

// UsageTotals holds summed cost, tokens and calls for a record set.
type UsageTotals struct {
	Cost   float64 `json:"cost"`
	Tokens int64   `json:"tokens"`
	Calls  int64   `json:"calls"`
}

// UsageSummary is the aggregate over a window: grand totals plus one
// entry per provider seen in the window.
type UsageSummary struct {
	Total      UsageTotals            `json:"total"`
	ByProvider map[string]UsageTotals `json:"by_provider"`
}

// Summarize aggregates the ledger over the half-open window
// [start, end). Nil bounds mean unbounded; an empty window yields zero
// totals and an empty provider map, never nulls.
func (s *UsageService) Summarize(start, end *time.Time) (*UsageSummary, error) {
	query := s.db.Model(&models.UsageRecord{})
	if start != nil {
		query = query.Where("created_at >= ?", *start)
	}
	if end != nil {
		query = query.Where("created_at < ?", *end)
	}

	var total UsageTotals
	err := query.Session(&gorm.Session{}).Select(
		"COALESCE(SUM(cost), 0) as cost, " +
			"COALESCE(SUM(input_tokens + output_tokens), 0) as tokens, " +
			"COALESCE(SUM(calls), 0) as calls",
	).Scan(&total).Error
	if err != nil {
		return nil, err
	}

	type providerRow struct {
		Provider string
		Cost     float64
		Tokens   int64
		Calls    int64
	}
	var rows []providerRow
	err = query.Session(&gorm.Session{}).Select(
		"provider, " +
			"COALESCE(SUM(cost), 0) as cost, " +
			"COALESCE(SUM(input_tokens + output_tokens), 0) as tokens, " +
			"COALESCE(SUM(calls), 0) as calls",
	).Group("provider").Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	byProvider := make(map[string]UsageTotals, len(rows))
	for _, row := range rows {
		byProvider[row.Provider] = UsageTotals{Cost: row.Cost, Tokens: row.Tokens, Calls: row.Calls}
	}

	return &UsageSummary{Total: total, ByProvider: byProvider}, nil
}

// SeriesPoint is one non-empty bucket of a usage time series.
type SeriesPoint struct {
	Bucket string  `json:"bucket"`
	Cost   float64 `json:"cost"`
	Tokens int64   `json:"tokens"`
	Calls  int64   `json:"calls"`
}

// Timeseries partitions the trailing days-day window into hourly or
// daily buckets and aggregates each. Unrecognized granularities fall
// back to daily; days is clamped to [1, 90]. Bucketing happens in Go
// because the supported SQL dialects share no date-format function.
func (s *UsageService) Timeseries(granularity string, days int, provider string) ([]SeriesPoint, error) {
	if granularity != "hour" && granularity != "day" {
		granularity = "day"
	}
	if days < 1 {
		days = 1
	}
	if days > 90 {
		days = 90
	}

	since := time.Now().UTC().Add(-time.Duration(days) * 24 * time.Hour)
	query := s.db.Where("created_at >= ?", since)
	if provider != "" {
		query = query.Where("provider = ?", provider)
	}

	var records []models.UsageRecord
	if err := query.Order("created_at ASC").Find(&records).Error; err != nil {
		return nil, err
	}

	layout := "2006-01-02"
	if granularity == "hour" {
		layout = "2006-01-02 15:00"
	}

	byBucket := make(map[string]*SeriesPoint)
	for _, rec := range records {
		bucket := rec.CreatedAt.UTC().Format(layout)
		point, ok := byBucket[bucket]
		if !ok {
			point = &SeriesPoint{Bucket: bucket}
			byBucket[bucket] = point
		}
		point.Cost += rec.Cost
		point.Tokens += int64(rec.TotalTokens())
		point.Calls += int64(rec.Calls)
	}

	series := make([]SeriesPoint, 0, len(byBucket))
	for _, point := range byBucket {
		series = append(series, *point)
	}
	// Both layouts sort chronologically as strings.
	sort.Slice(series, func(i, j int) bool { return series[i].Bucket < series[j].Bucket })
	return series, nil
}

// PeriodBounds maps a symbolic period name to a concrete half-open
// window anchored to the current moment. Unrecognized names yield an
// unbounded (all-time) window rather than an error; callers that need
// strict validation must check the name themselves.
func (s *UsageService) PeriodBounds(period string) (start, end *time.Time) {
	now := time.Now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch period {
	case "day":
		from := midnight
		to := midnight.AddDate(0, 0, 1)
		return &from, &to
	case "week":
		from := midnight.AddDate(0, 0, -6)
		to := midnight.AddDate(0, 0, 1)
		return &from, &to
	case "month":
		from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		to := from.AddDate(0, 1, 0)
		return &from, &to
	default:
		return nil, nil
	}
}

// ThresholdResult reports a spend-threshold check over a period.
type ThresholdResult struct {
	Period        string     `json:"period"`
	Threshold     float64    `json:"threshold"`
	TotalCost     float64    `json:"total_cost"`
	OverThreshold bool       `json:"over_threshold"`
	WindowStart   *time.Time `json:"window_start"`
	WindowEnd     *time.Time `json:"window_end"`
}

// OverThreshold reports whether total cost in the period's window
// meets or exceeds the threshold.
func (s *UsageService) OverThreshold(period string, threshold float64) (*ThresholdResult, error) {
	start, end := s.PeriodBounds(period)
	summary, err := s.Summarize(start, end)
	if err != nil {
		return nil, err
	}
	return &ThresholdResult{
		Period:        period,
		Threshold:     threshold,
		TotalCost:     summary.Total.Cost,
		OverThreshold: summary.Total.Cost >= threshold,
		WindowStart:   start,
		WindowEnd:     end,
	}, nil
}
