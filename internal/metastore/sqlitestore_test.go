/*****************************************************************************************************************/

package metastore

/*****************************************************************************************************************/

import (
	"context"
	"errors"
	"testing"
)

/*****************************************************************************************************************/

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := OpenSQLiteStore("file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("unexpected error opening store: %v", err)
	}

	return store
}

/*****************************************************************************************************************/

func ptr(f float64) *float64 { return &f }

/*****************************************************************************************************************/

func TestSQLiteStoreGetPlateRoundTrips(t *testing.T) {
	store := newTestStore(t)

	plate := &Plate{
		PlateID:     "a12345",
		Series:      "a",
		PlateNumber: 12345,
		Astrometry: &Astrometry{
			B01HeaderGz:   []byte{0x1f, 0x8b, 0x01, 0x02},
			NSolutions:    2,
			RotationDelta: 90,
			Exposures: []Exposure{
				{Number: 1, RADeg: ptr(10.5), DecDeg: ptr(-5.25), MidpointDate: "1920-01-01"},
			},
		},
		Mosaic: &Mosaic{B01Width: 8000, B01Height: 8000, MosNum: 1, ScanNum: 1},
	}

	if err := store.SeedPlate(plate); err != nil {
		t.Fatalf("unexpected error seeding plate: %v", err)
	}

	got, err := store.GetPlate(context.Background(), "a12345", CutoutProjection)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Series != "a" || got.PlateNumber != 12345 {
		t.Fatalf("unexpected plate fields: %+v", got)
	}

	if got.Astrometry == nil || got.Astrometry.NSolutions != 2 || got.Astrometry.RotationDelta != 90 {
		t.Fatalf("unexpected astrometry: %+v", got.Astrometry)
	}

	if len(got.Astrometry.Exposures) != 1 || got.Astrometry.Exposures[0].MidpointDate != "1920-01-01" {
		t.Fatalf("unexpected exposures: %+v", got.Astrometry.Exposures)
	}

	if got.Mosaic == nil || got.Mosaic.B01Width != 8000 {
		t.Fatalf("unexpected mosaic: %+v", got.Mosaic)
	}
}

/*****************************************************************************************************************/

func TestSQLiteStoreGetPlateNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetPlate(context.Background(), "missing", CutoutProjection)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

/*****************************************************************************************************************/

func TestSQLiteStoreBatchGetPlates(t *testing.T) {
	store := newTestStore(t)

	for _, id := range []string{"a00001", "a00002", "a00003"} {
		if err := store.SeedPlate(&Plate{PlateID: id, Series: "a"}); err != nil {
			t.Fatalf("unexpected error seeding %s: %v", id, err)
		}
	}

	got, err := store.BatchGetPlates(context.Background(), []string{"a00001", "a00003", "missing"}, CutoutProjection)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("expected 2 plates, got %d", len(got))
	}
}

/*****************************************************************************************************************/

func TestSQLiteStoreQueryRefcatBin(t *testing.T) {
	store := newTestStore(t)

	rows := []RefcatRow{
		{RefNumber: 1, RADeg: 10, DecDeg: 20, GscBinIndex: 55},
		{RefNumber: 2, RADeg: 11, DecDeg: 21, GscBinIndex: 55},
		{RefNumber: 3, RADeg: 12, DecDeg: 22, GscBinIndex: 56},
	}

	for _, r := range rows {
		if err := store.SeedRefcatRow("apass", r); err != nil {
			t.Fatalf("unexpected error seeding refcat row: %v", err)
		}
	}

	var got []RefcatRow
	err := store.QueryRefcatBin(context.Background(), "apass", 55, func(r RefcatRow) bool {
		got = append(got, r)
		return true
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("expected 2 rows in bin 55, got %d", len(got))
	}
}

/*****************************************************************************************************************/

func TestSQLiteStoreQueryRefcatBinStopsOnYieldFalse(t *testing.T) {
	store := newTestStore(t)

	for i := int64(0); i < 5; i++ {
		if err := store.SeedRefcatRow("apass", RefcatRow{RefNumber: uint64(i) + 1, GscBinIndex: 9}); err != nil {
			t.Fatalf("unexpected error seeding refcat row: %v", err)
		}
	}

	count := 0
	err := store.QueryRefcatBin(context.Background(), "apass", 9, func(RefcatRow) bool {
		count++
		return count < 2
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if count != 2 {
		t.Fatalf("expected yield to stop after 2 calls, got %d", count)
	}
}

/*****************************************************************************************************************/

func TestSQLiteStoreFetchCoverageCSV(t *testing.T) {
	store := newTestStore(t)

	entries := []struct {
		plateID string
		se      SolExp
	}{
		{"a12345", SolExp{SolNum: 0, ExpNum: 0}},
		{"a12346", SolExp{SolNum: 1, ExpNum: 0}},
	}

	for _, e := range entries {
		if err := store.SeedCoverageRow(1000, e.plateID, e.se); err != nil {
			t.Fatalf("unexpected error seeding coverage row: %v", err)
		}
	}

	var got []string
	err := store.FetchCoverageCSV(context.Background(), 1000, func(plateID string, se SolExp) error {
		got = append(got, plateID)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("expected 2 coverage entries, got %d", len(got))
	}
}

/*****************************************************************************************************************/

func TestExposureHasUsableCenter(t *testing.T) {
	sentinel := 99.0
	real := 15.5

	if (&Exposure{RADeg: &sentinel, DecDeg: &real}).HasUsableCenter() {
		t.Fatalf("expected sentinel RA to be unusable")
	}

	if !(&Exposure{RADeg: &real, DecDeg: &real}).HasUsableCenter() {
		t.Fatalf("expected real ra/dec to be usable")
	}

	if (&Exposure{}).HasUsableCenter() {
		t.Fatalf("expected nil fields to be unusable")
	}
}
