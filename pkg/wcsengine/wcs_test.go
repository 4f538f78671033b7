/*****************************************************************************************************************/

package wcsengine

/*****************************************************************************************************************/

import (
	"math"
	"testing"
)

/*****************************************************************************************************************/

func TestNewTANRoundTripsAtReferencePixel(t *testing.T) {
	coll := NewTAN(83.633, 22.0145, 500.5, 500.5, 0.0004)

	w, err := coll.Get(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	coord := w.PixelToWorldScalar(w.CRPIX1-1, w.CRPIX2-1)

	if math.Abs(coord.RA-83.633) > 1e-6 || math.Abs(coord.Dec-22.0145) > 1e-6 {
		t.Fatalf("expected round trip to reference point, got (%f, %f)", coord.RA, coord.Dec)
	}
}

/*****************************************************************************************************************/

func TestSampleWorldSquareRoundTripsThroughWorldToPixel(t *testing.T) {
	coll := NewTAN(10.0, -5.0, 50, 50, 0.0004)

	w, err := coll.Get(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	const n = 5
	grid := w.SampleWorldSquare(n)

	pix, err := w.WorldToPixel(grid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			x, y := pix[i][j][0], pix[i][j][1]
			wantX, wantY := float64(j), float64(i)

			if math.Abs(x-wantX) > 1e-6 || math.Abs(y-wantY) > 1e-6 {
				t.Fatalf("sample (%d,%d): expected pixel (%f,%f), got (%f,%f)", i, j, wantX, wantY, x, y)
			}
		}
	}
}

/*****************************************************************************************************************/

func TestSolnumIndexInversion(t *testing.T) {
	tests := []struct {
		n, external, want int
	}{
		{3, 0, 2},
		{3, 1, 1},
		{3, 2, 0},
		{1, 0, 0},
	}

	for _, tt := range tests {
		got, err := SolnumIndex(tt.n, tt.external)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != tt.want {
			t.Fatalf("SolnumIndex(%d, %d) = %d, want %d", tt.n, tt.external, got, tt.want)
		}
	}

	if _, err := SolnumIndex(3, 3); err == nil {
		t.Fatalf("expected an error for out-of-range external solution number")
	}
}

/*****************************************************************************************************************/

func TestRewriteTANToTPVOnlyTouchesCTYPE(t *testing.T) {
	record := []byte("CTYPE1  = 'RA---TAN'                                                           ")
	rewriteTANToTPV(record)

	if string(record[15:19]) != "-TPV" {
		t.Fatalf("expected -TPV rewrite, got %q", string(record[15:19]))
	}

	other := []byte("CRVAL1  = 83.633                                                               ")
	before := string(other)
	rewriteTANToTPV(other)
	if string(other) != before {
		t.Fatalf("expected non-CTYPE record to be untouched")
	}
}

/*****************************************************************************************************************/

func TestRewriteTANToTPVIsIdempotent(t *testing.T) {
	record := []byte("CTYPE2  = 'DEC--TPV'                                                           ")
	before := string(record)
	rewriteTANToTPV(record)
	if string(record) != before {
		t.Fatalf("expected idempotent rewrite to leave -TPV untouched")
	}
}

/*****************************************************************************************************************/
