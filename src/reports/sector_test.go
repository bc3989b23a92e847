package reports

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/corretaje/src/aggregation"
	"github.com/username/corretaje/src/directory"
	"github.com/username/corretaje/src/models"
)

func sectorAggregator() *aggregation.Aggregator {
	dir := directory.Build(
		[]models.Trader{
			{ID: 1, Name: "Corretaje Propio"},
			{ID: 2, Name: "Grupo Bavaria"},
		},
		[]models.TraderAlias{{ID: 1, TraderID: 2, Alias: "Bavaria"}},
	)
	return aggregation.New(dir)
}

func sectorTx(trader, product string, amount float64) models.TransactionRecord {
	return models.TransactionRecord{TraderName: trader, ClientName: "Cliente", Date: "2025-06-10", ProductName: product, Amount: amount}
}

func TestClassifySector(t *testing.T) {
	tests := []struct {
		product  string
		expected string
	}{
		{"Torta de Soya Solvente", "Harinas y Tortas"},
		{"Aceite crudo de soya", "Aceites"}, // narrower rule wins over "soya"
		{"Grano de Soya", "Oleaginosas"},
		{"SOYA", "Oleaginosas"},
		{"Maiz amarillo", "Granos"},
		{"Harina de trigo", "Harinas y Tortas"},
		{"Azucar blanca", "Azúcar"},
		{"Alcohol etílico", "Alcoholes"},
		{"Ganado bovino", "Otros"},
		{"", "Otros"},
	}

	for _, tt := range tests {
		t.Run(tt.product, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifySector(tt.product))
		})
	}
}

func TestMarketGrowth_BoundaryRules(t *testing.T) {
	assert.Equal(t, 100.0, marketGrowth(500, 0), "new sector counts as fully grown")
	assert.Equal(t, 0.0, marketGrowth(0, 0))
	assert.Equal(t, 25.0, marketGrowth(125, 100))
	assert.Equal(t, -50.0, marketGrowth(50, 100))
}

func TestSectorMatrix_ZeroPriorGrowth(t *testing.T) {
	agg := sectorAggregator()
	current := []models.TransactionRecord{sectorTx("Bavaria", "Grano de Soya", 500)}

	cells := SectorMatrix(agg, current, nil, "Corretaje Propio")

	require.Len(t, cells, 1)
	assert.Equal(t, "Oleaginosas", cells[0].Sector)
	assert.Equal(t, 100.0, cells[0].MarketGrowth)
	assert.Equal(t, 500.0, cells[0].CurrentTotal)
	assert.Equal(t, 0.0, cells[0].PriorTotal)
}

func TestSectorMatrix_StatusClassification(t *testing.T) {
	agg := sectorAggregator()

	current := []models.TransactionRecord{
		// Aceites: self leads -> lider.
		sectorTx("Corretaje Propio", "Aceite de girasol", 300),
		sectorTx("Bavaria", "Aceite de soya", 100),
		// Granos: growing fast, self holds 20% -> oportunidad.
		sectorTx("Bavaria", "Maiz amarillo", 400),
		sectorTx("Corretaje Propio", "Trigo", 100),
		// Azúcar: shrinking and self absent -> rezago.
		sectorTx("Bavaria", "Azucar blanca", 50),
	}
	prior := []models.TransactionRecord{
		sectorTx("Bavaria", "Maiz amarillo", 200),
		sectorTx("Bavaria", "Azucar blanca", 100),
		sectorTx("Corretaje Propio", "Aceite de soya", 250),
	}

	cells := SectorMatrix(agg, current, prior, "Corretaje Propio")
	byName := make(map[string]models.SectorCell)
	for _, cell := range cells {
		byName[cell.Sector] = cell
	}

	aceites := byName["Aceites"]
	assert.Equal(t, models.SectorStatusLider, aceites.Status)
	assert.Equal(t, "Corretaje Propio", aceites.TopCompetitor)

	granos := byName["Granos"]
	assert.Equal(t, models.SectorStatusOportunidad, granos.Status)
	assert.Equal(t, 150.0, granos.MarketGrowth)
	assert.Equal(t, 20.0, granos.RelativeShare)

	azucar := byName["Azúcar"]
	assert.Equal(t, models.SectorStatusRezago, azucar.Status)
	assert.Equal(t, -50.0, azucar.MarketGrowth)
	assert.Equal(t, "Grupo Bavaria", azucar.TopCompetitor, "alias volume must land on the canonical trader")
}

func TestSectorMatrix_OrderedByCurrentVolume(t *testing.T) {
	agg := sectorAggregator()
	current := []models.TransactionRecord{
		sectorTx("Bavaria", "Azucar", 50),
		sectorTx("Bavaria", "Maiz", 400),
		sectorTx("Bavaria", "Aceite", 400),
	}

	cells := SectorMatrix(agg, current, nil, "")

	require.Len(t, cells, 3)
	// Ties break alphabetically: Aceites before Granos at 400.
	assert.Equal(t, "Aceites", cells[0].Sector)
	assert.Equal(t, "Granos", cells[1].Sector)
	assert.Equal(t, "Azúcar", cells[2].Sector)
}

func TestTopCompetitor_TieBreaksAlphabetically(t *testing.T) {
	assert.Equal(t, "Andino", topCompetitor(map[string]float64{
		"Bavaria": 100,
		"Andino":  100,
	}))
	assert.Equal(t, "", topCompetitor(nil))
}
