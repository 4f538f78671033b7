/*****************************************************************************************************************/

// Package skybin implements the deterministic partition of the celestial
// sphere into declination bands and right-ascension bins used as the
// archive's coarse and fine spatial indices.
package skybin

/*****************************************************************************************************************/

import (
	"fmt"
	"math"
)

/*****************************************************************************************************************/

// Binning is a fixed declination-band x right-ascension-bin partition of
// the sphere. Two configurations are used across the service: Bin1 (1 deg
// bands, for the coarse plate-footprint index) and Bin64 (1/64 deg bands,
// for the reference-catalog index).
type Binning struct {
	binSizeDeg float64
	decBins    int
	totalBins  int

	// numRABins[i] is the number of RA bins in declination band i.
	numRABins []int

	// startBin[i] is the total-bin index of the first RA bin in band i.
	startBin []int
}

/*****************************************************************************************************************/

// New constructs a Binning with the given band size (degrees) and number
// of declination bands, verifying that the resulting total bin count
// matches expectedTotal. A mismatch is a startup invariant failure.
func New(binSizeDeg float64, decBins int, expectedTotal int) (*Binning, error) {
	if binSizeDeg <= 0 {
		return nil, fmt.Errorf("skybin: bin size must be positive, got %f", binSizeDeg)
	}

	if decBins <= 0 {
		return nil, fmt.Errorf("skybin: dec bin count must be positive, got %d", decBins)
	}

	numRABins := make([]int, decBins)
	startBin := make([]int, decBins)

	total := 0

	for i := 0; i < decBins; i++ {
		decCenter := float64(i)*binSizeDeg - 90.0 + binSizeDeg/2.0

		n := int(math.Floor((360.0 / binSizeDeg) * math.Cos(decCenter*math.Pi/180.0)))
		if n < 1 {
			n = 1
		}

		numRABins[i] = n
		startBin[i] = total
		total += n
	}

	if total != expectedTotal {
		return nil, fmt.Errorf("skybin: total bin count %d does not match expected %d", total, expectedTotal)
	}

	return &Binning{
		binSizeDeg: binSizeDeg,
		decBins:    decBins,
		totalBins:  total,
		numRABins:  numRABins,
		startBin:   startBin,
	}, nil
}

/*****************************************************************************************************************/

// NewBin1 constructs the coarse, 1-degree plate-footprint binning.
func NewBin1() (*Binning, error) {
	return New(1.0, 180, 41164)
}

/*****************************************************************************************************************/

// NewBin64 constructs the fine, 1/64-degree reference-catalog binning.
func NewBin64() (*Binning, error) {
	return New(1.0/64.0, 180*64, 168966386)
}

/*****************************************************************************************************************/

// DecBins returns the number of declination bands.
func (b *Binning) DecBins() int {
	return b.decBins
}

/*****************************************************************************************************************/

// TotalBins returns the total number of bins across all bands.
func (b *Binning) TotalBins() int {
	return b.totalBins
}

/*****************************************************************************************************************/

// DecBin returns the declination-band index for decDeg, clamped to the
// last band, or an error if decDeg is out of the valid [-90, 90] range.
func (b *Binning) DecBin(decDeg float64) (int, error) {
	if math.IsNaN(decDeg) || math.Abs(decDeg) > 90.0 {
		return 0, fmt.Errorf("skybin: declination out of range: %f", decDeg)
	}

	i := int(math.Floor((decDeg + 90.0) / b.binSizeDeg))

	if i >= b.decBins {
		i = b.decBins - 1
	}
	if i < 0 {
		i = 0
	}

	return i, nil
}

/*****************************************************************************************************************/

// TotalBin returns the total-bin index for the given declination band and
// right ascension (degrees, normalized into [0, 360) internally).
func (b *Binning) TotalBin(decBin int, raDeg float64) (int, error) {
	if decBin < 0 || decBin >= b.decBins {
		return 0, fmt.Errorf("skybin: dec bin index out of range: %d", decBin)
	}

	ra := math.Mod(raDeg, 360.0)
	if ra < 0 {
		ra += 360.0
	}

	num := b.numRABins[decBin]

	offset := int(math.Floor(ra * float64(num) / 360.0))
	if offset > num-1 {
		offset = num - 1
	}
	if offset < 0 {
		offset = 0
	}

	return b.startBin[decBin] + offset, nil
}

/*****************************************************************************************************************/
