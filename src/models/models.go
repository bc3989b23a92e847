package models

// Trader is the canonical identity of a registered broker. Every alias
// resolves to exactly one trader; reports never show a raw alias.
type Trader struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	TaxID         string  `json:"tax_id"`
	CommissionPct float64 `json:"commission_pct"`
	Active        bool    `json:"active"`
}

// TraderAlias is an alternate raw name under which a trader's
// transactions may be recorded. An alias string is unique across the
// whole alias set.
type TraderAlias struct {
	ID       int64  `json:"id"`
	TraderID int64  `json:"trader_id"`
	Alias    string `json:"alias"`
}

// TransactionRecord is a single brokered operation as recorded at the
// exchange. It is read-only input for the reporting engine; TraderName
// holds the raw broker name and must be resolved before grouping.
type TransactionRecord struct {
	ID          int64   `json:"id"`
	TraderName  string  `json:"trader_name"`
	ClientName  string  `json:"client_name"`
	ClientTaxID string  `json:"client_tax_id"`
	City        string  `json:"city"`
	Date        string  `json:"date"` // YYYY-MM-DD
	Rueda       int     `json:"rueda"`
	MonthLabel  string  `json:"month_label"`
	Year        int     `json:"year"`
	ProductName string  `json:"product_name"`
	Amount      float64 `json:"amount"`
	Commission  float64 `json:"commission"`
	ExchangeFee float64 `json:"exchange_fee"`
	Tax         float64 `json:"tax"`
}

// RankingEntry is one row of an ordered ranking.
type RankingEntry struct {
	Name     string  `json:"name"`
	Volume   float64 `json:"volume"`
	Share    float64 `json:"share"`
	Position int     `json:"position"`
}

// SelfStats describes the operator's own position inside a ranking.
// Each gap is 0 when the corresponding neighbor does not exist.
type SelfStats struct {
	Position    int     `json:"position"`
	Volume      float64 `json:"volume"`
	Share       float64 `json:"share"`
	GapToFirst  float64 `json:"gap_to_first"`
	GapToSecond float64 `json:"gap_to_second"`
	GapToAbove  float64 `json:"gap_to_above"`
}

// MonthPoint is one step of a trader's monthly volume series, keyed by
// YYYY-MM so the series sorts chronologically.
type MonthPoint struct {
	Month  string  `json:"month"`
	Volume float64 `json:"volume"`
}

// TraderSeries is the monthly volume series of a single trader.
type TraderSeries struct {
	Name   string       `json:"name"`
	Points []MonthPoint `json:"points"`
}

// VolumeBar is a bar-chart-ready total for one trader.
type VolumeBar struct {
	Name   string  `json:"name"`
	Volume float64 `json:"volume"`
}

// CompetitiveGap reports the volume deficit between the operator and the
// current leader of a comparison set.
type CompetitiveGap struct {
	Leader  string  `json:"leader"`
	Deficit float64 `json:"deficit"`
}

// ComparisonReport bundles the four outputs of a competitor comparison.
// Gaps is nil when the operator leads or is not part of the set.
type ComparisonReport struct {
	MarketShare   []RankingEntry  `json:"marketShare"`
	VolumeHistory []TraderSeries  `json:"volumeHistory"`
	Growth        []VolumeBar     `json:"growth"`
	Gaps          *CompetitiveGap `json:"gaps"`
}

// Sector status tags. Dashboards color-code and count by these labels.
const (
	SectorStatusLider       = "lider"
	SectorStatusOportunidad = "oportunidad"
	SectorStatusRezago      = "rezago"
)

// SectorCell is one sector of the growth-share matrix.
type SectorCell struct {
	Sector        string             `json:"sector"`
	CurrentTotal  float64            `json:"current_total"`
	PriorTotal    float64            `json:"prior_total"`
	TraderCurrent map[string]float64 `json:"trader_current"`
	TraderPrior   map[string]float64 `json:"trader_prior"`
	MarketGrowth  float64            `json:"market_growth"`
	RelativeShare float64            `json:"relative_share"`
	TopCompetitor string             `json:"top_competitor"`
	Status        string             `json:"status"`
}

// PivotCell is the payload of one pivot slot. The volume-only report
// shape leaves Commission and MarginPct at zero.
type PivotCell struct {
	Volume     float64 `json:"volume"`
	Commission float64 `json:"commission"`
	MarginPct  float64 `json:"margin_pct"`
}

// PivotNode is a group row of a nested pivot report. Trader nodes carry
// client children; client nodes carry the per-bucket cells.
type PivotNode struct {
	Key         string               `json:"key"`
	Children    []*PivotNode         `json:"children,omitempty"`
	Cells       map[string]PivotCell `json:"cells,omitempty"`
	Total       PivotCell            `json:"total"`
	ClientCount int                  `json:"client_count,omitempty"`
}

// PivotReport is the root of a pivot report: the declared bucket slots,
// the trader groups in first-seen order, and the grand total.
type PivotReport struct {
	Buckets    []string     `json:"buckets"`
	Groups     []*PivotNode `json:"groups"`
	GrandTotal PivotCell    `json:"grand_total"`
}
