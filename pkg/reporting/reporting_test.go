package reporting

import (
	"bytes"
	"context"
	"encoding/csv"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ducminhle1904/transit-ga/pkg/network"
	"github.com/ducminhle1904/transit-ga/pkg/optimization"
)

func sampleRounds() []optimization.RoundMetrics {
	stats := func(base float64) map[string]optimization.ComponentStats {
		m := make(map[string]optimization.ComponentStats)
		for i, name := range optimization.ComponentNames {
			v := base + float64(i)
			m[name] = optimization.ComponentStats{Mean: v, Median: v, StdDev: 0.5}
		}
		return m
	}
	return []optimization.RoundMetrics{
		{Generation: 1, BestIndex: 2, BestID: "abc", BestFitness: 1.25, Stats: stats(1), CrossoverFailures: 3, Duration: 1500 * time.Millisecond},
		{Generation: 2, BestIndex: 0, BestID: "def", BestFitness: 1.5, Stats: stats(2), Fallbacks: 1, Duration: 2 * time.Second},
	}
}

func testNetwork(id string) *network.Network {
	s := func(name string, lon float64) network.Stop {
		return network.Stop{ID: name, Name: name, Location: orb.Point{lon, 37.76}, Ridership: 5}
	}
	a, b, c, d := s("A", -122.50), s("B", -122.48), s("C", -122.46), s("D", -122.44)
	return network.NewNetwork(id, []network.TripSpec{
		{ID: "T1", RouteID: "R1", Stops: []network.Stop{a, b, c}},
		{ID: "T2", RouteID: "R2", Stops: []network.Stop{b, c, d}},
		{ID: "T3", RouteID: "R3", Stops: []network.Stop{a, c, d}},
	}, nil)
}

func testPopulation(t *testing.T) *optimization.Population {
	t.Helper()
	initial := testNetwork("initial")
	fitness := optimization.NewFitnessFunction(initial, nil, optimization.Weights{RidershipDensity: 1}, 1, 10)
	breeder := optimization.NewNetworkBreeder(50, optimization.MutationConfig{}, nil)

	chromosomes := []*optimization.Chromosome{
		optimization.NewChromosome("c0", initial, "", "", 0),
		optimization.NewChromosome("c1", initial.Clone("copy"), "", "", 0),
	}
	pop, err := optimization.NewPopulation(chromosomes, fitness, breeder, rand.New(rand.NewSource(1)),
		optimization.PopulationConfig{Name: "report", Cutoff: optimization.ConstantCutoff(0.5)}, nil)
	require.NoError(t, err)
	_, err = pop.Run(context.Background(), 1)
	require.NoError(t, err)
	_, err = pop.Evaluate(context.Background())
	require.NoError(t, err)
	return pop
}

func TestWriteRoundsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "metrics.csv")
	require.NoError(t, WriteRoundsCSV(sampleRounds(), path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 3)
	header := records[0]
	assert.Equal(t, "iteration", header[0])
	assert.Equal(t, "best_fitness", header[3])
	assert.Contains(t, header, "avg_zone_val")
	assert.Contains(t, header, "med_ridership_density_val")
	assert.Contains(t, header, "stddev_fitness")
	assert.Equal(t, "time", header[len(header)-1])

	row := records[1]
	assert.Len(t, row, len(header))
	assert.Equal(t, []string{"1", "2", "abc", "1.25"}, row[:4])
	assert.Equal(t, "1.5", row[len(row)-1])
	assert.Equal(t, "3", row[len(row)-3])
}

func TestWriteRoundsXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.xlsx")
	summary := RunSummary{Name: "unit", Population: 4, Generations: 2, BestFitness: optimization.Fitness{Total: 1.5}, Initial: optimization.Fitness{Total: 1}}
	require.NoError(t, WriteRoundsXLSX(sampleRounds(), summary, path))

	fx, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer fx.Close()

	assert.Equal(t, []string{roundsSheet, summarySheet}, fx.GetSheetList())

	rows, err := fx.GetRows(roundsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, RoundsHeader(), rows[0])
	assert.Equal(t, "def", rows[2][2])

	name, err := fx.GetCellValue(summarySheet, "B1")
	require.NoError(t, err)
	assert.Equal(t, "unit", name)
}

func TestPrintTables(t *testing.T) {
	var buf bytes.Buffer
	PrintRoundsTable(&buf, sampleRounds())
	out := buf.String()
	assert.Contains(t, out, "GENERATIONS")
	assert.Contains(t, out, "1.2500")
	assert.Contains(t, out, "3/0")

	buf.Reset()
	PrintRunSummary(&buf, RunSummary{
		Name:        "unit",
		BestID:      "abc",
		Initial:     optimization.Fitness{Total: 1},
		BestFitness: optimization.Fitness{Total: 1.2},
		OutputDir:   "results/unit",
	})
	out = buf.String()
	assert.Contains(t, out, "RUN SUMMARY")
	assert.Contains(t, out, "+20.00%")
	assert.Contains(t, out, "results/unit")
}

func TestPrintBatchTable(t *testing.T) {
	var buf bytes.Buffer
	PrintBatchTable(&buf, []RunSummary{
		{Name: "rd1z0et0-2i4p", Weights: optimization.Weights{RidershipDensity: 1}, Initial: optimization.Fitness{Total: 1}, BestFitness: optimization.Fitness{Total: 1.5}},
		{Name: "rd0z1et0-2i4p", Weights: optimization.Weights{Zone: 1}, Initial: optimization.Fitness{Total: 1}, BestFitness: optimization.Fitness{Total: 1}},
	})
	out := buf.String()
	assert.Contains(t, out, "BATCH RESULTS")
	assert.Contains(t, out, "rd1z0et0-2i4p")
	assert.Contains(t, out, "+50.00%")
	assert.Contains(t, out, "+0.00%")
}

func TestRunSummary_Improvement(t *testing.T) {
	assert.InDelta(t, 0.5, RunSummary{Initial: optimization.Fitness{Total: 2}, BestFitness: optimization.Fitness{Total: 3}}.Improvement(), 1e-12)
	assert.Equal(t, 0.0, RunSummary{BestFitness: optimization.Fitness{Total: 3}}.Improvement())
}

func TestCheckpointRoundTrip(t *testing.T) {
	pop := testPopulation(t)
	path := filepath.Join(t.TempDir(), "population.json")
	require.NoError(t, WriteCheckpoint(pop, path))

	cp, err := ReadCheckpoint(path)
	require.NoError(t, err)
	assert.Equal(t, "report", cp.Name)
	assert.Equal(t, 2, cp.Generation)
	assert.Len(t, cp.Chromosomes, 2)
	assert.Len(t, cp.Rounds, 2)

	restored, err := cp.Restore(nil)
	require.NoError(t, err)
	for i, c := range restored {
		orig := pop.Chromosomes()[i]
		assert.Equal(t, orig.ID, c.ID)
		assert.Equal(t, orig.Network.NumTrips(), c.Network.NumTrips())
		assert.Equal(t, orig.Score(), c.Score())
	}

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestWriteBestNetwork(t *testing.T) {
	pop := testPopulation(t)
	path := filepath.Join(t.TempDir(), "best_network.json")

	best, err := WriteBestNetwork(pop, path)
	require.NoError(t, err)

	loaded, err := network.LoadJSON(path, nil)
	require.NoError(t, err)
	assert.Equal(t, best.Network.NumTrips(), loaded.NumTrips())
	assert.Equal(t, best.Network.ID(), loaded.ID())
}

func TestBatchDirName(t *testing.T) {
	assert.Equal(t, "rd1z0et1-10i20p", BatchDirName(optimization.Weights{RidershipDensity: 1, ExtremeTrips: -1}, 10, 20))
	assert.Equal(t, "rd2z1et0-5i4p", BatchDirName(optimization.Weights{RidershipDensity: 2, Zone: 1}, 5, 4))
	assert.Equal(t, "rd0.5z1et1-1i2p", BatchDirName(optimization.Weights{RidershipDensity: 0.5, Zone: 1, ExtremeTrips: -1}, 1, 2))
	assert.Equal(t, filepath.Join("out", "rd0z1et0-3i3p"), BatchOutputDir("out", optimization.Weights{Zone: 1}, 3, 3))
}
