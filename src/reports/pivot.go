package reports

import (
	"sort"
	"strconv"

	"github.com/username/corretaje/src/aggregation"
	"github.com/username/corretaje/src/models"
	"github.com/username/corretaje/src/utils"
)

// PivotShape selects the cell payload of a pivot report. The nested
// structure and roll-up rule are identical for both shapes.
type PivotShape int

const (
	// VolumeOnly cells carry the negotiated volume.
	VolumeOnly PivotShape = iota
	// VolumeCommission cells add the commission and a derived
	// margin % (commission/volume*100, 0 on zero volume).
	VolumeCommission
)

// BuildPivot turns a fold keyed by (trader, client, bucket) into the
// nested trader -> client -> bucket report. Trader groups keep
// first-seen order, clients within a trader likewise. Every declared
// slot gets a cell, zero when the client had no contribution; data in
// an undeclared bucket still lands in its cell and in the totals, so
// nothing is dropped. Client totals sum the client's cells, trader
// totals sum their clients, and the grand total sums the trader groups.
func BuildPivot(result *aggregation.Result, slots []string, shape PivotShape) *models.PivotReport {
	report := &models.PivotReport{
		Buckets: slots,
		Groups:  []*models.PivotNode{},
	}

	groupIdx := make(map[string]*models.PivotNode)
	clientIdx := make(map[aggregation.GroupKey]*models.PivotNode)

	for _, key := range result.Order {
		bucket := result.Buckets[key]

		group, ok := groupIdx[key.Trader]
		if !ok {
			group = &models.PivotNode{Key: key.Trader}
			groupIdx[key.Trader] = group
			report.Groups = append(report.Groups, group)
		}

		clientKey := aggregation.GroupKey{Trader: key.Trader, Client: key.Client}
		client, ok := clientIdx[clientKey]
		if !ok {
			client = &models.PivotNode{
				Key:   key.Client,
				Cells: make(map[string]models.PivotCell, len(slots)),
			}
			for _, slot := range slots {
				client.Cells[slot] = models.PivotCell{}
			}
			clientIdx[clientKey] = client
			group.Children = append(group.Children, client)
		}

		cell := client.Cells[key.Bucket]
		cell.Volume += bucket.Volume
		cell.Commission += bucket.Commission
		client.Cells[key.Bucket] = cell
	}

	for _, group := range report.Groups {
		for _, client := range group.Children {
			for slot, cell := range client.Cells {
				cell.MarginPct = cellMargin(cell, shape)
				client.Cells[slot] = cell
				client.Total.Volume += cell.Volume
				client.Total.Commission += cell.Commission
			}
			client.Total.MarginPct = cellMargin(client.Total, shape)
			group.Total.Volume += client.Total.Volume
			group.Total.Commission += client.Total.Commission
		}
		group.ClientCount = len(group.Children)
		group.Total.MarginPct = cellMargin(group.Total, shape)
		report.GrandTotal.Volume += group.Total.Volume
		report.GrandTotal.Commission += group.Total.Commission
	}
	report.GrandTotal.MarginPct = cellMargin(report.GrandTotal, shape)

	if shape == VolumeOnly {
		stripCommission(report)
	}
	return report
}

func cellMargin(cell models.PivotCell, shape PivotShape) float64 {
	if shape != VolumeCommission {
		return 0
	}
	return utils.Percent(cell.Commission, cell.Volume)
}

// stripCommission zeroes the commission fields of a volume-only report
// so both shapes expose the same cell type.
func stripCommission(report *models.PivotReport) {
	var strip func(node *models.PivotNode)
	strip = func(node *models.PivotNode) {
		node.Total.Commission = 0
		for slot, cell := range node.Cells {
			cell.Commission = 0
			node.Cells[slot] = cell
		}
		for _, child := range node.Children {
			strip(child)
		}
	}
	for _, group := range report.Groups {
		strip(group)
	}
	report.GrandTotal.Commission = 0
}

// RuedaSlots returns the distinct session numbers present in a fold
// keyed by ByTraderClientRueda, in numeric order.
func RuedaSlots(result *aggregation.Result) []string {
	seen := make(map[string]bool)
	var numbers []int
	for key := range result.Buckets {
		if key.Bucket == "" || seen[key.Bucket] {
			continue
		}
		seen[key.Bucket] = true
		if n, err := strconv.Atoi(key.Bucket); err == nil {
			numbers = append(numbers, n)
		}
	}
	sort.Ints(numbers)
	slots := make([]string, 0, len(numbers))
	for _, n := range numbers {
		slots = append(slots, strconv.Itoa(n))
	}
	return slots
}
