package reports

import (
	"sort"
	"strings"

	"github.com/username/corretaje/src/aggregation"
	"github.com/username/corretaje/src/models"
	"github.com/username/corretaje/src/utils"
)

// Compare builds the competitor comparison for a requested set of
// trader names over records already filtered to the rolling period.
// Requested names are normalized through the alias directory, so a
// request for an alias and its canonical name collapses into one
// trader. Every requested trader appears in the outputs even with zero
// volume. When no record matches any requested trader at all, all four
// outputs come back in their empty form.
func Compare(agg *aggregation.Aggregator, records []models.TransactionRecord, requested []string, selfName string) models.ComparisonReport {
	canonical := make([]string, 0, len(requested))
	member := make(map[string]bool, len(requested))
	for _, name := range requested {
		resolved := agg.Resolve(name)
		key := strings.ToLower(resolved)
		if key == "" || member[key] {
			continue
		}
		member[key] = true
		canonical = append(canonical, resolved)
	}

	matching := make([]models.TransactionRecord, 0, len(records))
	for i := range records {
		if member[strings.ToLower(agg.Resolve(records[i].TraderName))] {
			matching = append(matching, records[i])
		}
	}

	if len(matching) == 0 {
		return models.ComparisonReport{
			MarketShare:   []models.RankingEntry{},
			VolumeHistory: []models.TraderSeries{},
			Growth:        []models.VolumeBar{},
			Gaps:          nil,
		}
	}

	totals := agg.Fold(matching, aggregation.ByTrader)
	for _, name := range canonical {
		totals.Seed(aggregation.GroupKey{Trader: name})
	}
	marketShare := Rank(totals, Descending, 0)

	volumeHistory := monthlySeries(agg, matching, canonical)

	growth := make([]models.VolumeBar, 0, len(marketShare))
	for _, entry := range marketShare {
		growth = append(growth, models.VolumeBar{Name: entry.Name, Volume: entry.Volume})
	}

	return models.ComparisonReport{
		MarketShare:   marketShare,
		VolumeHistory: volumeHistory,
		Growth:        growth,
		Gaps:          competitiveGap(agg, marketShare, selfName),
	}
}

// monthlySeries builds one chronological YYYY-MM series per requested
// trader, filling months a trader was absent from with zero.
func monthlySeries(agg *aggregation.Aggregator, records []models.TransactionRecord, canonical []string) []models.TraderSeries {
	byMonth := agg.Fold(records, aggregation.ByTraderMonth)

	monthSet := make(map[string]bool)
	for key := range byMonth.Buckets {
		if key.Bucket != "" {
			monthSet[key.Bucket] = true
		}
	}
	months := make([]string, 0, len(monthSet))
	for month := range monthSet {
		months = append(months, month)
	}
	sort.Strings(months)

	series := make([]models.TraderSeries, 0, len(canonical))
	for _, name := range canonical {
		points := make([]models.MonthPoint, 0, len(months))
		for _, month := range months {
			var volume float64
			if bucket, ok := byMonth.Buckets[aggregation.GroupKey{Trader: name, Bucket: month}]; ok {
				volume = bucket.Volume
			}
			points = append(points, models.MonthPoint{Month: month, Volume: volume})
		}
		series = append(series, models.TraderSeries{Name: name, Points: points})
	}
	return series
}

// competitiveGap reports the deficit to the leader when the operator's
// own identity is in the comparison and is not already on top. A nil
// gap means either "no competitive gap to close" or "self not in set".
func competitiveGap(agg *aggregation.Aggregator, marketShare []models.RankingEntry, selfName string) *models.CompetitiveGap {
	if selfName == "" || len(marketShare) == 0 {
		return nil
	}
	resolvedSelf := agg.Resolve(selfName)
	idx := -1
	for i := range marketShare {
		if strings.EqualFold(marketShare[i].Name, resolvedSelf) {
			idx = i
			break
		}
	}
	if idx <= 0 {
		// Absent, or already the leader.
		return nil
	}
	leader := marketShare[0]
	return &models.CompetitiveGap{
		Leader:  leader.Name,
		Deficit: utils.RoundFloat(leader.Volume-marketShare[idx].Volume, 2),
	}
}
