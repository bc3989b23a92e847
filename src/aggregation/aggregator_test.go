package aggregation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/username/corretaje/src/directory"
	"github.com/username/corretaje/src/models"
)

func testAggregator() *Aggregator {
	dir := directory.Build(
		[]models.Trader{{ID: 1, Name: "Grupo Bavaria"}, {ID: 2, Name: "Corretaje Andino"}},
		[]models.TraderAlias{{ID: 1, TraderID: 1, Alias: "Bavaria"}},
	)
	return New(dir)
}

func tx(trader, client, date string, rueda int, month string, amount, commission float64) models.TransactionRecord {
	return models.TransactionRecord{
		TraderName: trader,
		ClientName: client,
		Date:       date,
		Rueda:      rueda,
		MonthLabel: month,
		Amount:     amount,
		Commission: commission,
	}
}

func TestFold_CollapsesAliasesIntoOneBucket(t *testing.T) {
	agg := testAggregator()
	records := []models.TransactionRecord{
		tx("Bavaria", "Molinos SRL", "2025-03-04", 10, "Marzo", 100, 1),
		tx("Grupo Bavaria", "Molinos SRL", "2025-03-05", 11, "Marzo", 50, 0.5),
	}

	result := agg.Fold(records, ByTrader)

	assert.Len(t, result.Buckets, 1)
	bucket := result.Buckets[GroupKey{Trader: "Grupo Bavaria"}]
	assert.NotNil(t, bucket)
	assert.Equal(t, 150.0, bucket.Volume)
	assert.Equal(t, 1.5, bucket.Commission)
	assert.Equal(t, 2, bucket.Count)
}

func TestFold_ConservesTotalVolume(t *testing.T) {
	agg := testAggregator()
	records := []models.TransactionRecord{
		tx("Bavaria", "A", "2025-01-10", 1, "Enero", 100, 2),
		tx("Corretaje Andino", "B", "2025-02-11", 2, "Febrero", 250, 3),
		tx("Broker Nuevo", "A", "2025-02-12", 2, "Febrero", 75.5, 1),
		tx("grupo bavaria", "C", "2025-03-13", 3, "Marzo", 24.5, 0),
	}

	var inputTotal float64
	for _, r := range records {
		inputTotal += r.Amount
	}

	for name, key := range map[string]KeyFunc{
		"by trader":              ByTrader,
		"by trader and month":    ByTraderMonth,
		"by trader/client/month": ByTraderClientMonthLabel,
		"by trader/client/rueda": ByTraderClientRueda,
	} {
		t.Run(name, func(t *testing.T) {
			result := agg.Fold(records, key)
			assert.InDelta(t, inputTotal, result.Total(), 1e-9, "no record may be dropped or double-counted")
		})
	}
}

func TestFold_GroupingIsOrderIndependent(t *testing.T) {
	agg := testAggregator()
	records := []models.TransactionRecord{
		tx("Bavaria", "A", "2025-01-10", 1, "Enero", 100, 2),
		tx("Corretaje Andino", "B", "2025-02-11", 2, "Febrero", 250, 3),
		tx("Grupo Bavaria", "A", "2025-03-12", 3, "Marzo", 30, 1),
	}
	reversed := []models.TransactionRecord{records[2], records[1], records[0]}

	forward := agg.Fold(records, ByTrader)
	backward := agg.Fold(reversed, ByTrader)

	assert.Equal(t, len(forward.Buckets), len(backward.Buckets))
	for key, bucket := range forward.Buckets {
		other := backward.Buckets[key]
		assert.NotNil(t, other)
		assert.Equal(t, bucket.Volume, other.Volume)
		assert.Equal(t, bucket.Count, other.Count)
	}
}

func TestSeed_AddsZeroBuckets(t *testing.T) {
	agg := testAggregator()
	result := agg.Fold(nil, ByTrader)
	result.Seed(GroupKey{Trader: "Corretaje Andino"}, GroupKey{Trader: "Grupo Bavaria"})

	assert.Len(t, result.Buckets, 2)
	assert.Equal(t, 0.0, result.Buckets[GroupKey{Trader: "Corretaje Andino"}].Volume)

	// Seeding an existing bucket must not reset it.
	result2 := agg.Fold([]models.TransactionRecord{tx("Bavaria", "A", "2025-01-10", 1, "Enero", 40, 0)}, ByTrader)
	result2.Seed(GroupKey{Trader: "Grupo Bavaria"})
	assert.Len(t, result2.Buckets, 1)
	assert.Equal(t, 40.0, result2.Buckets[GroupKey{Trader: "Grupo Bavaria"}].Volume)
}

func TestMonthKey(t *testing.T) {
	assert.Equal(t, "2025-03", MonthKey("2025-03-17"))
	assert.Equal(t, "", MonthKey("17/03/2025"))
	assert.Equal(t, "", MonthKey(""))
}

func TestByTraderClientRueda_UsesSessionNumber(t *testing.T) {
	agg := testAggregator()
	result := agg.Fold([]models.TransactionRecord{
		tx("Bavaria", "Molinos SRL", "2025-03-04", 12, "Marzo", 100, 1),
	}, ByTraderClientRueda)

	_, ok := result.Buckets[GroupKey{Trader: "Grupo Bavaria", Client: "Molinos SRL", Bucket: "12"}]
	assert.True(t, ok)
}
