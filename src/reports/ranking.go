// Package reports derives the benchmarking views (rankings, competitor
// comparisons, the sector growth-share matrix and pivot reports) from
// aggregated transaction buckets.
package reports

import (
	"sort"
	"strings"

	"github.com/username/corretaje/src/aggregation"
	"github.com/username/corretaje/src/models"
	"github.com/username/corretaje/src/utils"
)

// Order selects ranking direction. Ascending mode re-ranks from 1 in
// ascending order; it is not a reversed descending ranking.
type Order string

const (
	Descending Order = "desc"
	Ascending  Order = "asc"
)

// Rank orders trader buckets by volume and assigns 1-based positions.
// Share is each trader's percentage of the summed volume (0 when the
// total is 0). Equal volumes are broken alphabetically by canonical
// name so rankings are reproducible regardless of input order. A limit
// of 0 keeps the full ranking.
func Rank(result *aggregation.Result, order Order, limit int) []models.RankingEntry {
	total := result.Total()
	entries := make([]models.RankingEntry, 0, len(result.Buckets))
	for _, bucket := range result.Buckets {
		entries = append(entries, models.RankingEntry{
			Name:   bucket.Key.Trader,
			Volume: bucket.Volume,
			Share:  utils.Percent(bucket.Volume, total),
		})
	}

	asc := order == Ascending
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Volume != entries[j].Volume {
			if asc {
				return entries[i].Volume < entries[j].Volume
			}
			return entries[i].Volume > entries[j].Volume
		}
		return entries[i].Name < entries[j].Name
	})

	for i := range entries {
		entries[i].Position = i + 1
	}

	if limit > 0 {
		entries = entries[:utils.MinInt(limit, len(entries))]
	}
	return entries
}

// SelfStats locates the named trader in a ranking and reports its
// position, share and volume gaps. The match is case-insensitive. A nil
// return means no data for that trader in the period, which is an
// expected outcome, not an error. Each gap is 0 when the corresponding
// neighbor does not exist. Pass the full, descending ranking; a
// truncated list would hide the leaders the gaps are measured against.
func SelfStats(entries []models.RankingEntry, name string) *models.SelfStats {
	idx := -1
	for i := range entries {
		if strings.EqualFold(entries[i].Name, name) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	self := entries[idx]
	stats := &models.SelfStats{
		Position: self.Position,
		Volume:   self.Volume,
		Share:    self.Share,
	}
	if self.Position > 1 {
		stats.GapToFirst = utils.RoundFloat(entries[0].Volume-self.Volume, 2)
		stats.GapToAbove = utils.RoundFloat(entries[idx-1].Volume-self.Volume, 2)
	}
	if self.Position > 2 {
		stats.GapToSecond = utils.RoundFloat(entries[1].Volume-self.Volume, 2)
	}
	return stats
}
