package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/corretaje/src/directory"
	"github.com/username/corretaje/src/instrumentation"
	"github.com/username/corretaje/src/logger"
	"github.com/username/corretaje/src/models"
	"github.com/username/corretaje/src/reports"
	"github.com/username/corretaje/src/store"
)

// Prometheus collectors register globally, so the suite shares one set.
var testMetrics = instrumentation.NewMetrics()

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	m.Run()
}

type fakeStore struct {
	transactions []models.TransactionRecord
	traders      []models.Trader
	aliases      []models.TraderAlias
	queryErr     error
	queryCount   int
	inserted     []models.TransactionRecord
}

func (f *fakeStore) QueryTransactions(ctx context.Context, filter store.Filter) ([]models.TransactionRecord, error) {
	f.queryCount++
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	var out []models.TransactionRecord
	for _, tx := range f.transactions {
		if filter.Year != 0 && tx.Year != filter.Year {
			continue
		}
		if filter.DateFrom != "" && tx.Date < filter.DateFrom {
			continue
		}
		if filter.DateTo != "" && tx.Date > filter.DateTo {
			continue
		}
		out = append(out, tx)
	}
	return out, nil
}

func (f *fakeStore) QueryTraders(ctx context.Context) ([]models.Trader, error) {
	return f.traders, nil
}

func (f *fakeStore) QueryAliases(ctx context.Context) ([]models.TraderAlias, error) {
	return f.aliases, nil
}

func (f *fakeStore) InsertTransactions(ctx context.Context, records []models.TransactionRecord) (int, error) {
	f.inserted = append(f.inserted, records...)
	return len(records), nil
}

func (f *fakeStore) InsertTrader(ctx context.Context, trader *models.Trader) error {
	trader.ID = int64(len(f.traders) + 1)
	f.traders = append(f.traders, *trader)
	return nil
}

func (f *fakeStore) InsertAlias(ctx context.Context, alias *models.TraderAlias) error {
	alias.ID = int64(len(f.aliases) + 1)
	f.aliases = append(f.aliases, *alias)
	return nil
}

func newTestService(st *fakeStore) ReportService {
	// Zero TTL keeps the directory always fresh in tests.
	dirSource := directory.NewCachedSource(st, 0)
	return NewReportService(st, dirSource, cache.New(time.Minute, time.Minute), testMetrics, "Corretaje Propio")
}

func seededStore() *fakeStore {
	return &fakeStore{
		traders: []models.Trader{
			{ID: 1, Name: "Grupo Bavaria"},
			{ID: 2, Name: "Corretaje Propio"},
		},
		aliases: []models.TraderAlias{{ID: 1, TraderID: 1, Alias: "Bavaria"}},
		transactions: []models.TransactionRecord{
			{TraderName: "Bavaria", ClientName: "Molinos SRL", Date: "2025-01-10", Rueda: 1, MonthLabel: "Enero", Year: 2025, ProductName: "Grano de Soya", Amount: 100, Commission: 2},
			{TraderName: "Grupo Bavaria", ClientName: "Molinos SRL", Date: "2025-02-11", Rueda: 2, MonthLabel: "Febrero", Year: 2025, ProductName: "Maiz", Amount: 50, Commission: 1},
			{TraderName: "Corretaje Propio", ClientName: "Granja Ltda", Date: "2025-02-12", Rueda: 2, MonthLabel: "Febrero", Year: 2025, ProductName: "Trigo", Amount: 80, Commission: 1.5},
		},
	}
}

func TestRanking_ResolvesAliasesAcrossTheWholeReport(t *testing.T) {
	svc := newTestService(seededStore())

	entries, err := svc.Ranking(context.Background(), ReportFilter{Year: 2025}, 0, reports.Descending)
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, "Grupo Bavaria", entries[0].Name)
	assert.Equal(t, 150.0, entries[0].Volume)
	assert.Equal(t, "Corretaje Propio", entries[1].Name)
}

func TestRanking_InvalidFilter(t *testing.T) {
	svc := newTestService(seededStore())

	tests := []struct {
		name   string
		filter ReportFilter
	}{
		{"year out of range", ReportFilter{Year: 12}},
		{"unknown month label", ReportFilter{Year: 2025, Month: "Smarch"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Ranking(context.Background(), tt.filter, 0, reports.Descending)
			assert.ErrorIs(t, err, ErrInvalidFilter)
		})
	}
}

func TestRanking_UsesReportCache(t *testing.T) {
	st := seededStore()
	svc := newTestService(st)

	_, err := svc.Ranking(context.Background(), ReportFilter{Year: 2025}, 0, reports.Descending)
	require.NoError(t, err)
	queriesAfterFirst := st.queryCount

	_, err = svc.Ranking(context.Background(), ReportFilter{Year: 2025}, 0, reports.Descending)
	require.NoError(t, err)
	assert.Equal(t, queriesAfterFirst, st.queryCount, "second identical request must be served from cache")
}

func TestRanking_UpstreamFailurePropagates(t *testing.T) {
	st := seededStore()
	st.queryErr = errors.New("disk gone")
	svc := newTestService(st)

	_, err := svc.Ranking(context.Background(), ReportFilter{Year: 2025}, 0, reports.Descending)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidFilter)
}

func TestSelfPosition(t *testing.T) {
	svc := newTestService(seededStore())

	stats, err := svc.SelfPosition(context.Background(), ReportFilter{Year: 2025})
	require.NoError(t, err)
	require.NotNil(t, stats)
	assert.Equal(t, 2, stats.Position)
	assert.Equal(t, 70.0, stats.GapToFirst)
}

func TestSelfPosition_NoDataIsNilNotError(t *testing.T) {
	st := seededStore()
	st.transactions = nil
	svc := newTestService(st)

	stats, err := svc.SelfPosition(context.Background(), ReportFilter{Year: 2025})
	require.NoError(t, err)
	assert.Nil(t, stats)
}

func TestComparison_Validation(t *testing.T) {
	svc := newTestService(seededStore())

	_, err := svc.Comparison(context.Background(), 0, []string{"Grupo Bavaria"})
	assert.ErrorIs(t, err, ErrInvalidFilter)

	_, err = svc.Comparison(context.Background(), 12, nil)
	assert.ErrorIs(t, err, ErrInvalidFilter)
}

func TestSectorMatrix_QueriesBothPeriods(t *testing.T) {
	st := seededStore()
	st.transactions = append(st.transactions, models.TransactionRecord{
		TraderName: "Bavaria", ClientName: "Molinos SRL", Date: "2024-05-10", Rueda: 9,
		MonthLabel: "Mayo", Year: 2024, ProductName: "Grano de Soya", Amount: 40,
	})
	svc := newTestService(st)

	cells, err := svc.SectorMatrix(context.Background(), 2025)
	require.NoError(t, err)
	require.NotEmpty(t, cells)

	byName := make(map[string]models.SectorCell)
	for _, cell := range cells {
		byName[cell.Sector] = cell
	}
	soya := byName["Oleaginosas"]
	assert.Equal(t, 100.0, soya.CurrentTotal)
	assert.Equal(t, 40.0, soya.PriorTotal)
	assert.Equal(t, 150.0, soya.MarketGrowth)
}

func TestMonthlyPivot(t *testing.T) {
	svc := newTestService(seededStore())

	report, err := svc.MonthlyPivot(context.Background(), 2025, reports.VolumeCommission)
	require.NoError(t, err)
	require.Len(t, report.Groups, 2)
	assert.Equal(t, models.MonthLabels, report.Buckets)
	assert.Equal(t, 230.0, report.GrandTotal.Volume)
	assert.Equal(t, 4.5, report.GrandTotal.Commission)
}

func TestRuedaPivot(t *testing.T) {
	svc := newTestService(seededStore())

	report, err := svc.RuedaPivot(context.Background(), 2025, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, report.Buckets)
	assert.Equal(t, 230.0, report.GrandTotal.Volume)
}

func TestImportTransactions_FlushesReportCache(t *testing.T) {
	st := seededStore()
	svc := newTestService(st)

	_, err := svc.Ranking(context.Background(), ReportFilter{Year: 2025}, 0, reports.Descending)
	require.NoError(t, err)
	queriesAfterFirst := st.queryCount

	inserted, err := svc.ImportTransactions(context.Background(), []models.TransactionRecord{
		{TraderName: "Bavaria", ClientName: "Granja Ltda", Date: "2025-03-01", Year: 2025, Amount: 10},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)

	_, err = svc.Ranking(context.Background(), ReportFilter{Year: 2025}, 0, reports.Descending)
	require.NoError(t, err)
	assert.Greater(t, st.queryCount, queriesAfterFirst, "import must invalidate cached reports")
}

func TestImportTransactions_Validation(t *testing.T) {
	svc := newTestService(seededStore())

	tests := []struct {
		name   string
		record models.TransactionRecord
	}{
		{"missing trader", models.TransactionRecord{ClientName: "C", Date: "2025-01-01", Year: 2025}},
		{"missing client", models.TransactionRecord{TraderName: "T", Date: "2025-01-01", Year: 2025}},
		{"bad date", models.TransactionRecord{TraderName: "T", ClientName: "C", Date: "01-01-2025", Year: 2025}},
		{"bad year", models.TransactionRecord{TraderName: "T", ClientName: "C", Date: "2025-01-01", Year: 25}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ImportTransactions(context.Background(), []models.TransactionRecord{tt.record})
			assert.ErrorIs(t, err, ErrInvalidFilter)
		})
	}
}

func TestCreateTraderAndAlias_Validation(t *testing.T) {
	svc := newTestService(seededStore())

	err := svc.CreateTrader(context.Background(), &models.Trader{Name: "  "})
	assert.ErrorIs(t, err, ErrInvalidFilter)

	err = svc.CreateAlias(context.Background(), &models.TraderAlias{Alias: "X"})
	assert.ErrorIs(t, err, ErrInvalidFilter)

	err = svc.CreateTrader(context.Background(), &models.Trader{Name: "Nuevo Corredor", Active: true})
	assert.NoError(t, err)
}

func TestCreateAlias_RejectsRegisteredTraderName(t *testing.T) {
	st := seededStore()
	svc := newTestService(st)

	err := svc.CreateAlias(context.Background(), &models.TraderAlias{TraderID: 1, Alias: "corretaje propio"})
	assert.ErrorIs(t, err, ErrInvalidFilter)
	assert.Len(t, st.aliases, 1, "colliding alias must not be stored")

	err = svc.CreateAlias(context.Background(), &models.TraderAlias{TraderID: 1, Alias: "Bavaria SRL"})
	assert.NoError(t, err)
}
