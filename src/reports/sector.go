package reports

import (
	"sort"
	"strings"

	"github.com/username/corretaje/src/aggregation"
	"github.com/username/corretaje/src/models"
	"github.com/username/corretaje/src/utils"
)

// SectorOther catches every product no keyword rule matches.
const SectorOther = "Otros"

type sectorRule struct {
	keyword string
	sector  string
}

// sectorRules are evaluated top to bottom, first match wins. Narrow
// keywords come first; later, broader rules are safety nets for the
// earlier ones, so the order must not change.
var sectorRules = []sectorRule{
	{"aceite", "Aceites"},
	{"harina", "Harinas y Tortas"},
	{"torta", "Harinas y Tortas"},
	{"azucar", "Azúcar"},
	{"azúcar", "Azúcar"},
	{"alcohol", "Alcoholes"},
	{"girasol", "Oleaginosas"},
	{"soya", "Oleaginosas"},
	{"maiz", "Granos"},
	{"maíz", "Granos"},
	{"trigo", "Granos"},
	{"sorgo", "Granos"},
	{"arroz", "Granos"},
}

// ClassifySector assigns a product name to exactly one commodity
// sector via case-insensitive substring match.
func ClassifySector(productName string) string {
	name := strings.ToLower(productName)
	for _, rule := range sectorRules {
		if strings.Contains(name, rule.keyword) {
			return rule.sector
		}
	}
	return SectorOther
}

// SectorMatrix classifies the current and prior period transactions by
// sector and computes the growth-share cell per sector: market growth,
// the operator's share within the sector, the top competitor and the
// lider/oportunidad/rezago status. Cells come back ordered by current
// volume, largest first, alphabetical on ties.
//
// Growth is (current-prior)/prior*100, with two boundary rules: a
// sector with no prior volume but current volume counts as fully grown
// (100); a sector with no volume in either period has growth 0.
func SectorMatrix(agg *aggregation.Aggregator, current, prior []models.TransactionRecord, selfName string) []models.SectorCell {
	cells := make(map[string]*models.SectorCell)

	accumulate := func(records []models.TransactionRecord, isCurrent bool) {
		for i := range records {
			tx := &records[i]
			sector := ClassifySector(tx.ProductName)
			cell, ok := cells[sector]
			if !ok {
				cell = &models.SectorCell{
					Sector:        sector,
					TraderCurrent: make(map[string]float64),
					TraderPrior:   make(map[string]float64),
				}
				cells[sector] = cell
			}
			trader := agg.Resolve(tx.TraderName)
			if isCurrent {
				cell.CurrentTotal += tx.Amount
				cell.TraderCurrent[trader] += tx.Amount
			} else {
				cell.PriorTotal += tx.Amount
				cell.TraderPrior[trader] += tx.Amount
			}
		}
	}
	accumulate(current, true)
	accumulate(prior, false)

	resolvedSelf := ""
	if selfName != "" {
		resolvedSelf = agg.Resolve(selfName)
	}

	result := make([]models.SectorCell, 0, len(cells))
	for _, cell := range cells {
		cell.MarketGrowth = marketGrowth(cell.CurrentTotal, cell.PriorTotal)
		cell.TopCompetitor = topCompetitor(cell.TraderCurrent)
		cell.RelativeShare = utils.Percent(cell.TraderCurrent[resolvedSelf], cell.CurrentTotal)
		cell.Status = classifyStatus(cell, resolvedSelf)
		result = append(result, *cell)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CurrentTotal != result[j].CurrentTotal {
			return result[i].CurrentTotal > result[j].CurrentTotal
		}
		return result[i].Sector < result[j].Sector
	})
	return result
}

func marketGrowth(current, prior float64) float64 {
	if prior == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return utils.RoundFloat((current-prior)/prior*100, 2)
}

// topCompetitor picks the trader with the highest current-period
// volume, alphabetical on ties.
func topCompetitor(traderCurrent map[string]float64) string {
	top := ""
	var topVolume float64
	for trader, volume := range traderCurrent {
		if top == "" || volume > topVolume || (volume == topVolume && trader < top) {
			top = trader
			topVolume = volume
		}
	}
	return top
}

// classifyStatus applies the three-way heuristic in fixed order:
// lider when the operator tops the sector, oportunidad when the sector
// grows at least 5% and the operator holds at least 10% of it, rezago
// otherwise.
func classifyStatus(cell *models.SectorCell, resolvedSelf string) string {
	if resolvedSelf != "" && strings.EqualFold(cell.TopCompetitor, resolvedSelf) {
		return models.SectorStatusLider
	}
	if cell.MarketGrowth >= 5 && cell.RelativeShare >= 10 {
		return models.SectorStatusOportunidad
	}
	return models.SectorStatusRezago
}
