/*****************************************************************************************************************/

package queryexpssvc

/*****************************************************************************************************************/

import (
	"context"
	"strings"
	"testing"

	"github.com/pkgw/dasch-science-lambda/internal/metastore"
	"github.com/pkgw/dasch-science-lambda/pkg/skybin"
)

/*****************************************************************************************************************/

type fakeStore struct {
	coverage map[int][]coverageRow
	plates   map[string]*metastore.Plate
}

type coverageRow struct {
	plateID string
	se      metastore.SolExp
}

func (f *fakeStore) BatchGetPlates(_ context.Context, plateIDs []string, _ metastore.Projection) ([]*metastore.Plate, error) {
	out := make([]*metastore.Plate, 0, len(plateIDs))
	for _, id := range plateIDs {
		if p, ok := f.plates[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) FetchCoverageCSV(_ context.Context, totalBin int, yield func(plateID string, se metastore.SolExp) error) error {
	for _, row := range f.coverage[totalBin] {
		if err := yield(row.plateID, row.se); err != nil {
			return err
		}
	}
	return nil
}

/*****************************************************************************************************************/

func ptrF(v float64) *float64 { return &v }

/*****************************************************************************************************************/

func newService(t *testing.T, store Store) *Service {
	t.Helper()

	bin1, err := skybin.NewBin1()
	if err != nil {
		t.Fatalf("unexpected error constructing bin1: %v", err)
	}

	return &Service{Store: store, Bin1: bin1}
}

/*****************************************************************************************************************/

// TestRunSyntheticWCSMatch exercises a plate with no astrometric
// solutions but a usable exposure center, which should fall back to the
// synthesized tangent-plane WCS and produce exactly one row.
func TestRunSyntheticWCSMatch(t *testing.T) {
	raDeg, decDeg := 120.0, 30.0

	bin1, err := skybin.NewBin1()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	decBin, err := bin1.DecBin(decDeg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	totalBin, err := bin1.TotalBin(decBin, raDeg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	plate := &metastore.Plate{
		PlateID:     "x00001",
		Series:      "a",
		PlateNumber: 1,
		Astrometry: &metastore.Astrometry{
			NSolutions: 0,
			Exposures: []metastore.Exposure{
				{Number: 1, RADeg: ptrF(raDeg), DecDeg: ptrF(decDeg), DurMin: ptrF(45.0), MidpointDate: "1955-01-01"},
			},
		},
	}

	store := &fakeStore{
		coverage: map[int][]coverageRow{
			totalBin: {{plateID: "x00001", se: metastore.SolExp{SolNum: 0, ExpNum: 1}}},
		},
		plates: map[string]*metastore.Plate{"x00001": plate},
	}

	svc := newService(t, store)

	rows, err := svc.run(context.Background(), Request{RADeg: raDeg, DecDeg: decDeg})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected a header row and one data row, got %d: %v", len(rows), rows)
	}
	if rows[0] != header {
		t.Fatalf("unexpected header row: %q", rows[0])
	}

	fields := strings.Split(rows[1], ",")
	if len(fields) != 17 {
		t.Fatalf("expected 17 columns, got %d: %v", len(fields), fields)
	}
	if fields[12] != "synthetic" {
		t.Fatalf("expected wcs-source 'synthetic', got %q", fields[12])
	}
}

/*****************************************************************************************************************/

func TestRunSkipsCandidateWithNoUsableWCS(t *testing.T) {
	raDeg, decDeg := 10.0, -10.0

	bin1, err := skybin.NewBin1()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	decBin, err := bin1.DecBin(decDeg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	totalBin, err := bin1.TotalBin(decBin, raDeg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	plate := &metastore.Plate{
		PlateID: "x00002",
		Series:  "unknown-series",
		Astrometry: &metastore.Astrometry{
			NSolutions: 0,
			Exposures: []metastore.Exposure{
				{Number: 1, RADeg: ptrF(raDeg), DecDeg: ptrF(decDeg)},
			},
		},
	}

	store := &fakeStore{
		coverage: map[int][]coverageRow{
			totalBin: {{plateID: "x00002", se: metastore.SolExp{SolNum: 0, ExpNum: 1}}},
		},
		plates: map[string]*metastore.Plate{"x00002": plate},
	}

	svc := newService(t, store)

	rows, err := svc.run(context.Background(), Request{RADeg: raDeg, DecDeg: decDeg})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected only the header row (unknown plate scale), got %d: %v", len(rows), rows)
	}
}

/*****************************************************************************************************************/

func TestRunRejectsOutOfRangeDec(t *testing.T) {
	svc := newService(t, &fakeStore{})

	if _, err := svc.run(context.Background(), Request{RADeg: 10, DecDeg: 200}); err == nil {
		t.Fatalf("expected an error for an out-of-range dec")
	}
}

/*****************************************************************************************************************/

func TestCandidateDimensionsSwapsForRotatedFrame(t *testing.T) {
	plate := &metastore.Plate{
		Mosaic:     &metastore.Mosaic{B01Width: 100, B01Height: 50},
		Astrometry: &metastore.Astrometry{RotationDelta: 90},
	}

	w, h := candidateDimensions(plate, metastore.SolExp{})
	if w != 50 || h != 100 {
		t.Fatalf("expected dimensions to swap to (50, 100), got (%d, %d)", w, h)
	}
}

/*****************************************************************************************************************/

func TestCandidateDimensionsFallsBackBySeries(t *testing.T) {
	w, h := candidateDimensions(&metastore.Plate{Series: "a"}, metastore.SolExp{})
	if w != defaultSeriesASide || h != defaultSeriesASide {
		t.Fatalf("expected the 'a' series default, got (%d, %d)", w, h)
	}

	w, h = candidateDimensions(&metastore.Plate{Series: "x"}, metastore.SolExp{})
	if w != defaultOtherSide || h != defaultOtherSide {
		t.Fatalf("expected the default-series fallback, got (%d, %d)", w, h)
	}
}
