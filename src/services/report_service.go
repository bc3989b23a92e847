package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/corretaje/src/aggregation"
	"github.com/username/corretaje/src/directory"
	"github.com/username/corretaje/src/instrumentation"
	"github.com/username/corretaje/src/logger"
	"github.com/username/corretaje/src/models"
	"github.com/username/corretaje/src/reports"
	"github.com/username/corretaje/src/store"
)

const (
	ckRanking      = "res_ranking_%d_%s_%d_%s"
	ckSelfPosition = "res_self_position_%d_%s"
	ckSectorMatrix = "res_sector_matrix_%d"
	ckMonthlyPivot = "res_monthly_pivot_%d_%d"
	ckRuedaPivot   = "res_rueda_pivot_%d_%s"

	minReportYear   = 1990
	maxReportYear   = 2100
	maxPeriodMonths = 60
)

// Store combines the read and write capabilities the service needs.
type Store interface {
	store.TransactionStore
	store.TransactionWriter
}

type reportServiceImpl struct {
	store       Store
	dirSource   *directory.CachedSource
	reportCache *cache.Cache
	metrics     *instrumentation.Metrics
	selfName    string
	now         func() time.Time
}

// NewReportService wires the reporting engine to its store, the
// TTL-cached trader directory source and the report cache. selfName is
// the operator's own canonical broker name; empty disables the
// self-position and gap features.
func NewReportService(
	st Store,
	dirSource *directory.CachedSource,
	reportCache *cache.Cache,
	metrics *instrumentation.Metrics,
	selfName string,
) ReportService {
	return &reportServiceImpl{
		store:       st,
		dirSource:   dirSource,
		reportCache: reportCache,
		metrics:     metrics,
		selfName:    selfName,
		now:         time.Now,
	}
}

// aggregator builds a request-scoped aggregator over a fresh (or
// TTL-fresh) alias directory. Each report request gets its own; nothing
// is shared across requests.
func (s *reportServiceImpl) aggregator(ctx context.Context) (*aggregation.Aggregator, error) {
	dir, err := s.dirSource.Directory(ctx)
	if err != nil {
		s.metrics.RecordError("directory", "source_failure")
		return nil, fmt.Errorf("building alias directory: %w", err)
	}
	return aggregation.New(dir), nil
}

func (s *reportServiceImpl) validateFilter(filter ReportFilter) error {
	if filter.Year < minReportYear || filter.Year > maxReportYear {
		return fmt.Errorf("%w: year %d out of range", ErrInvalidFilter, filter.Year)
	}
	if filter.Month != "" && !validMonthLabel(filter.Month) {
		return fmt.Errorf("%w: unknown month label %q", ErrInvalidFilter, filter.Month)
	}
	return nil
}

func validMonthLabel(label string) bool {
	for _, month := range models.MonthLabels {
		if strings.EqualFold(month, label) {
			return true
		}
	}
	return false
}

func (s *reportServiceImpl) Ranking(ctx context.Context, filter ReportFilter, limit int, order reports.Order) ([]models.RankingEntry, error) {
	if err := s.validateFilter(filter); err != nil {
		return nil, err
	}
	cacheKey := fmt.Sprintf(ckRanking, filter.Year, strings.ToLower(filter.Month), limit, order)
	if cached, found := s.reportCache.Get(cacheKey); found {
		s.metrics.RecordCacheHit("ranking")
		return cached.([]models.RankingEntry), nil
	}

	started := s.now()
	agg, err := s.aggregator(ctx)
	if err != nil {
		return nil, err
	}
	records, err := s.store.QueryTransactions(ctx, store.Filter{Year: filter.Year, MonthLabel: filter.Month})
	if err != nil {
		s.metrics.RecordError("ranking", "query_failure")
		return nil, err
	}

	entries := reports.Rank(agg.Fold(records, aggregation.ByTrader), order, limit)
	s.reportCache.Set(cacheKey, entries, cache.DefaultExpiration)
	s.metrics.RecordReport("ranking", float64(time.Since(started).Milliseconds()))
	logger.L.Info("Ranking built", "year", filter.Year, "month", filter.Month, "entries", len(entries))
	return entries, nil
}

func (s *reportServiceImpl) SelfPosition(ctx context.Context, filter ReportFilter) (*models.SelfStats, error) {
	if err := s.validateFilter(filter); err != nil {
		return nil, err
	}
	if s.selfName == "" {
		return nil, nil
	}
	cacheKey := fmt.Sprintf(ckSelfPosition, filter.Year, strings.ToLower(filter.Month))
	if cached, found := s.reportCache.Get(cacheKey); found {
		s.metrics.RecordCacheHit("self_position")
		return cached.(*models.SelfStats), nil
	}

	started := s.now()
	agg, err := s.aggregator(ctx)
	if err != nil {
		return nil, err
	}
	records, err := s.store.QueryTransactions(ctx, store.Filter{Year: filter.Year, MonthLabel: filter.Month})
	if err != nil {
		s.metrics.RecordError("self_position", "query_failure")
		return nil, err
	}

	// Full descending ranking; gaps are measured against the leaders.
	entries := reports.Rank(agg.Fold(records, aggregation.ByTrader), reports.Descending, 0)
	stats := reports.SelfStats(entries, agg.Resolve(s.selfName))
	s.reportCache.Set(cacheKey, stats, cache.DefaultExpiration)
	s.metrics.RecordReport("self_position", float64(time.Since(started).Milliseconds()))
	return stats, nil
}

func (s *reportServiceImpl) Comparison(ctx context.Context, periodMonths int, traders []string) (models.ComparisonReport, error) {
	if periodMonths <= 0 || periodMonths > maxPeriodMonths {
		return models.ComparisonReport{}, fmt.Errorf("%w: period of %d months out of range", ErrInvalidFilter, periodMonths)
	}
	if len(traders) == 0 {
		return models.ComparisonReport{}, fmt.Errorf("%w: no traders requested", ErrInvalidFilter)
	}

	started := s.now()
	agg, err := s.aggregator(ctx)
	if err != nil {
		return models.ComparisonReport{}, err
	}

	to := s.now()
	from := to.AddDate(0, -periodMonths, 0)
	records, err := s.store.QueryTransactions(ctx, store.Filter{
		DateFrom: from.Format("2006-01-02"),
		DateTo:   to.Format("2006-01-02"),
	})
	if err != nil {
		s.metrics.RecordError("comparison", "query_failure")
		return models.ComparisonReport{}, err
	}

	report := reports.Compare(agg, records, traders, s.selfName)
	s.metrics.RecordReport("comparison", float64(time.Since(started).Milliseconds()))
	logger.L.Info("Comparison built", "periodMonths", periodMonths, "requested", len(traders), "matched", len(report.MarketShare))
	return report, nil
}

func (s *reportServiceImpl) SectorMatrix(ctx context.Context, year int) ([]models.SectorCell, error) {
	if err := s.validateFilter(ReportFilter{Year: year}); err != nil {
		return nil, err
	}
	cacheKey := fmt.Sprintf(ckSectorMatrix, year)
	if cached, found := s.reportCache.Get(cacheKey); found {
		s.metrics.RecordCacheHit("sector_matrix")
		return cached.([]models.SectorCell), nil
	}

	started := s.now()
	agg, err := s.aggregator(ctx)
	if err != nil {
		return nil, err
	}
	current, err := s.store.QueryTransactions(ctx, store.Filter{Year: year})
	if err != nil {
		s.metrics.RecordError("sector_matrix", "query_failure")
		return nil, err
	}
	prior, err := s.store.QueryTransactions(ctx, store.Filter{Year: year - 1})
	if err != nil {
		s.metrics.RecordError("sector_matrix", "query_failure")
		return nil, err
	}

	cells := reports.SectorMatrix(agg, current, prior, s.selfName)
	s.reportCache.Set(cacheKey, cells, cache.DefaultExpiration)
	s.metrics.RecordReport("sector_matrix", float64(time.Since(started).Milliseconds()))
	return cells, nil
}

func (s *reportServiceImpl) MonthlyPivot(ctx context.Context, year int, shape reports.PivotShape) (*models.PivotReport, error) {
	if err := s.validateFilter(ReportFilter{Year: year}); err != nil {
		return nil, err
	}
	cacheKey := fmt.Sprintf(ckMonthlyPivot, year, shape)
	if cached, found := s.reportCache.Get(cacheKey); found {
		s.metrics.RecordCacheHit("monthly_pivot")
		return cached.(*models.PivotReport), nil
	}

	started := s.now()
	agg, err := s.aggregator(ctx)
	if err != nil {
		return nil, err
	}
	records, err := s.store.QueryTransactions(ctx, store.Filter{Year: year})
	if err != nil {
		s.metrics.RecordError("monthly_pivot", "query_failure")
		return nil, err
	}

	folded := agg.Fold(records, aggregation.ByTraderClientMonthLabel)
	report := reports.BuildPivot(folded, models.MonthLabels, shape)
	s.reportCache.Set(cacheKey, report, cache.DefaultExpiration)
	s.metrics.RecordReport("monthly_pivot", float64(time.Since(started).Milliseconds()))
	return report, nil
}

func (s *reportServiceImpl) RuedaPivot(ctx context.Context, year int, month string) (*models.PivotReport, error) {
	if err := s.validateFilter(ReportFilter{Year: year, Month: month}); err != nil {
		return nil, err
	}
	cacheKey := fmt.Sprintf(ckRuedaPivot, year, strings.ToLower(month))
	if cached, found := s.reportCache.Get(cacheKey); found {
		s.metrics.RecordCacheHit("rueda_pivot")
		return cached.(*models.PivotReport), nil
	}

	started := s.now()
	agg, err := s.aggregator(ctx)
	if err != nil {
		return nil, err
	}
	records, err := s.store.QueryTransactions(ctx, store.Filter{Year: year, MonthLabel: month})
	if err != nil {
		s.metrics.RecordError("rueda_pivot", "query_failure")
		return nil, err
	}

	folded := agg.Fold(records, aggregation.ByTraderClientRueda)
	report := reports.BuildPivot(folded, reports.RuedaSlots(folded), reports.VolumeOnly)
	s.reportCache.Set(cacheKey, report, cache.DefaultExpiration)
	s.metrics.RecordReport("rueda_pivot", float64(time.Since(started).Milliseconds()))
	return report, nil
}

func (s *reportServiceImpl) ImportTransactions(ctx context.Context, records []models.TransactionRecord) (int, error) {
	for i := range records {
		if err := validateRecord(&records[i]); err != nil {
			return 0, err
		}
	}
	inserted, err := s.store.InsertTransactions(ctx, records)
	if err != nil {
		s.metrics.RecordError("import", "insert_failure")
		return 0, err
	}
	// Simple consistency strategy: drop every cached report. The next
	// request triggers a full, correct recalculation.
	s.reportCache.Flush()
	logger.L.Info("Imported transactions, report cache flushed", "count", inserted)
	return inserted, nil
}

func validateRecord(tx *models.TransactionRecord) error {
	if strings.TrimSpace(tx.TraderName) == "" {
		return fmt.Errorf("%w: transaction missing trader name", ErrInvalidFilter)
	}
	if strings.TrimSpace(tx.ClientName) == "" {
		return fmt.Errorf("%w: transaction missing client name", ErrInvalidFilter)
	}
	if _, err := time.Parse("2006-01-02", tx.Date); err != nil {
		return fmt.Errorf("%w: transaction date %q not in YYYY-MM-DD form", ErrInvalidFilter, tx.Date)
	}
	if tx.Year < minReportYear || tx.Year > maxReportYear {
		return fmt.Errorf("%w: transaction year %d out of range", ErrInvalidFilter, tx.Year)
	}
	return nil
}

func (s *reportServiceImpl) ListTraders(ctx context.Context) ([]models.Trader, error) {
	return s.store.QueryTraders(ctx)
}

func (s *reportServiceImpl) CreateTrader(ctx context.Context, trader *models.Trader) error {
	if strings.TrimSpace(trader.Name) == "" {
		return fmt.Errorf("%w: trader name required", ErrInvalidFilter)
	}
	if err := s.store.InsertTrader(ctx, trader); err != nil {
		return err
	}
	s.dirSource.Invalidate()
	s.reportCache.Flush()
	return nil
}

func (s *reportServiceImpl) CreateAlias(ctx context.Context, alias *models.TraderAlias) error {
	if strings.TrimSpace(alias.Alias) == "" {
		return fmt.Errorf("%w: alias required", ErrInvalidFilter)
	}
	if alias.TraderID == 0 {
		return fmt.Errorf("%w: alias trader id required", ErrInvalidFilter)
	}
	// An alias matching a registered trader's own name would shadow that
	// trader's identity and misattribute its volume.
	traders, err := s.store.QueryTraders(ctx)
	if err != nil {
		return err
	}
	for _, t := range traders {
		if strings.EqualFold(strings.TrimSpace(alias.Alias), t.Name) {
			return fmt.Errorf("%w: alias %q collides with registered trader %q", ErrInvalidFilter, alias.Alias, t.Name)
		}
	}
	if err := s.store.InsertAlias(ctx, alias); err != nil {
		return err
	}
	s.dirSource.Invalidate()
	s.reportCache.Flush()
	return nil
}
