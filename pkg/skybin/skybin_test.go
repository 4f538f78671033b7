/*****************************************************************************************************************/

package skybin

/*****************************************************************************************************************/

import "testing"

/*****************************************************************************************************************/

func TestNewBin64TotalMatchesExpected(t *testing.T) {
	b, err := NewBin64()
	if err != nil {
		t.Fatalf("unexpected error constructing bin64: %v", err)
	}

	if b.TotalBins() != 168966386 {
		t.Fatalf("expected 168966386 total bins, got %d", b.TotalBins())
	}
}

/*****************************************************************************************************************/

func TestNewRejectsMismatchedExpectedTotal(t *testing.T) {
	if _, err := New(1.0, 180, 1); err == nil {
		t.Fatalf("expected an error for a mismatched expected total bin count")
	}
}

/*****************************************************************************************************************/

func TestDecBinClampsAndRejectsOutOfRange(t *testing.T) {
	b, err := NewBin1()
	if err != nil {
		t.Fatalf("unexpected error constructing bin1: %v", err)
	}

	i, err := b.DecBin(89.999)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if i != b.DecBins()-1 {
		t.Fatalf("expected last dec bin, got %d", i)
	}

	if _, err := b.DecBin(91); err == nil {
		t.Fatalf("expected an error for out-of-range declination")
	}
}

/*****************************************************************************************************************/

func TestTotalBinInRange(t *testing.T) {
	b, err := NewBin1()
	if err != nil {
		t.Fatalf("unexpected error constructing bin1: %v", err)
	}

	for _, dec := range []float64{-90, -45, 0, 45, 89.9} {
		db, err := b.DecBin(dec)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		for _, ra := range []float64{0, 90, 180, 270, 359.999, -10, 370} {
			tb, err := b.TotalBin(db, ra)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tb < 0 || tb >= b.TotalBins() {
				t.Fatalf("total bin %d out of range [0, %d)", tb, b.TotalBins())
			}
		}
	}
}

/*****************************************************************************************************************/
