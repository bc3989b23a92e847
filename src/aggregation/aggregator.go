// Package aggregation folds transaction streams into keyed buckets.
// All grouping goes through a single alias-resolution pass; consumers
// apply their own ordering.
package aggregation

import (
	"strconv"
	"time"

	"github.com/username/corretaje/src/directory"
	"github.com/username/corretaje/src/models"
)

// GroupKey is a composite grouping key. Unused dimensions stay empty,
// so a trader-only grouping uses {Trader: name} and a full pivot
// grouping fills all three fields.
type GroupKey struct {
	Trader string
	Client string
	Bucket string
}

// Bucket accumulates the contributions of every record that mapped to
// its key. Read-only once the fold finishes.
type Bucket struct {
	Key        GroupKey
	Volume     float64
	Commission float64
	Count      int
}

// Result holds the buckets of one fold. Buckets is the grouping map;
// Order records first-contribution order for consumers that need it
// (the pivot builder preserves first-seen trader and client order).
type Result struct {
	Buckets map[GroupKey]*Bucket
	Order   []GroupKey
}

// Total sums the volume across all buckets.
func (r *Result) Total() float64 {
	var total float64
	for _, b := range r.Buckets {
		total += b.Volume
	}
	return total
}

// KeyFunc extracts a grouping key from a record. The trader argument is
// the already-resolved canonical name; key funcs must use it instead of
// the record's raw name.
type KeyFunc func(canonicalTrader string, tx *models.TransactionRecord) GroupKey

// ByTrader groups by canonical trader name only.
func ByTrader(canonicalTrader string, tx *models.TransactionRecord) GroupKey {
	return GroupKey{Trader: canonicalTrader}
}

// ByTraderMonth groups by trader and calendar month. The month key is
// derived from the transaction date as YYYY-MM, not from the free-text
// month label, so series sort chronologically.
func ByTraderMonth(canonicalTrader string, tx *models.TransactionRecord) GroupKey {
	return GroupKey{Trader: canonicalTrader, Bucket: MonthKey(tx.Date)}
}

// ByTraderClientMonthLabel groups by trader, client and month label,
// the shape consumed by the monthly pivot report.
func ByTraderClientMonthLabel(canonicalTrader string, tx *models.TransactionRecord) GroupKey {
	return GroupKey{Trader: canonicalTrader, Client: tx.ClientName, Bucket: tx.MonthLabel}
}

// ByTraderClientRueda groups by trader, client and trading session
// number, the shape consumed by the per-rueda pivot report.
func ByTraderClientRueda(canonicalTrader string, tx *models.TransactionRecord) GroupKey {
	return GroupKey{Trader: canonicalTrader, Client: tx.ClientName, Bucket: strconv.Itoa(tx.Rueda)}
}

// MonthKey converts a YYYY-MM-DD date string to its YYYY-MM bucket.
// Unparseable dates come back empty and the record lands in an empty
// bucket rather than being dropped.
func MonthKey(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return ""
	}
	return t.Format("2006-01")
}

// Aggregator folds transaction records into buckets, resolving every
// raw broker name through the alias directory exactly once.
type Aggregator struct {
	dir *directory.Directory
}

func New(dir *directory.Directory) *Aggregator {
	return &Aggregator{dir: dir}
}

// Resolve exposes the aggregator's directory so consumers normalize
// requested names with the same pass the fold uses.
func (a *Aggregator) Resolve(rawName string) string {
	return a.dir.Resolve(rawName)
}

// Fold groups records by the given key func. Grouping is
// order-independent; Order only records first contributions for display
// purposes. No record is dropped or double-counted.
func (a *Aggregator) Fold(records []models.TransactionRecord, key KeyFunc) *Result {
	result := &Result{Buckets: make(map[GroupKey]*Bucket)}
	for i := range records {
		tx := &records[i]
		canonical := a.dir.Resolve(tx.TraderName)
		k := key(canonical, tx)
		bucket, ok := result.Buckets[k]
		if !ok {
			bucket = &Bucket{Key: k}
			result.Buckets[k] = bucket
			result.Order = append(result.Order, k)
		}
		bucket.Volume += tx.Amount
		bucket.Commission += tx.Commission
		bucket.Count++
	}
	return result
}

// Seed ensures a zero bucket exists for each key. Seeded traders appear
// in reports even with no matching transactions.
func (r *Result) Seed(keys ...GroupKey) {
	for _, k := range keys {
		if _, ok := r.Buckets[k]; !ok {
			r.Buckets[k] = &Bucket{Key: k}
			r.Order = append(r.Order, k)
		}
	}
}
