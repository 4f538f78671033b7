/*****************************************************************************************************************/

package wcsengine

/*****************************************************************************************************************/

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/pkgw/dasch-science-lambda/pkg/astrometry"
	"github.com/pkgw/dasch-science-lambda/pkg/projection"
)

/*****************************************************************************************************************/

// WCS is a single tangent-plane (TAN/TPV) astrometric solution: the
// linear pixel-to-intermediate-coordinate mapping (CRPIX/CRVAL/CD) that
// every solution in this archive reduces to once distortion terms are
// either absent or (for TPV headers) ignored by the engine's linear
// forward/inverse model.
type WCS struct {
	CRVAL1, CRVAL2 float64
	CRPIX1, CRPIX2 float64
	CD1_1, CD1_2   float64
	CD2_1, CD2_2   float64
	CType1, CType2 string
}

/*****************************************************************************************************************/

// Collection is an ordered set of WCS solutions parsed from one header
// blob, or synthesized via NewTAN. Solutions are addressed by their
// position in the collection; callers needing the archive's external
// (database-order) solution number must invert it first via SolnumIndex.
type Collection struct {
	solutions []*WCS
}

/*****************************************************************************************************************/

// Count returns the number of solutions in the collection.
func (c *Collection) Count() int {
	return len(c.solutions)
}

/*****************************************************************************************************************/

// Get returns the i-th solution (0-based, collection order).
func (c *Collection) Get(i int) (*WCS, error) {
	if i < 0 || i >= len(c.solutions) {
		return nil, fmt.Errorf("wcsengine: requested solution #%d (0-based), but there are only %d", i, len(c.solutions))
	}
	return c.solutions[i], nil
}

/*****************************************************************************************************************/

// SolnumIndex translates an externally-numbered (database-order) solution
// index into the collection's internal order, which is reversed relative
// to the external numbering: internal = n - 1 - external.
func SolnumIndex(n, externalSolNum int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("wcsengine: collection has no solutions to index")
	}
	if externalSolNum < 0 || externalSolNum >= n {
		return 0, fmt.Errorf("wcsengine: solution number %d out of range [0, %d)", externalSolNum, n)
	}
	return n - 1 - externalSolNum, nil
}

/*****************************************************************************************************************/

// NewTAN constructs a single-solution synthetic tangent-plane collection.
// This mirrors the engine's fixed 9-card TAN header (NAXIS, CTYPE1/2,
// CRVAL1/2, CRPIX1/2, CD1_1=-cd, CD2_2=+cd) and is infallible.
func NewTAN(crval1, crval2, crpix1, crpix2, cd float64) *Collection {
	w := &WCS{
		CRVAL1: crval1,
		CRVAL2: crval2,
		CRPIX1: crpix1,
		CRPIX2: crpix2,
		CD1_1:  -cd,
		CD1_2:  0,
		CD2_1:  0,
		CD2_2:  cd,
		CType1: "RA---TAN",
		CType2: "DEC--TAN",
	}

	return &Collection{solutions: []*WCS{w}}
}

/*****************************************************************************************************************/

// Parse decodes a (TAN-to-TPV-already-rewritten) flat header buffer into
// a Collection. Multiple solutions are represented using the FITS
// "alternate WCS" convention: a blank version letter for the primary
// solution, then 'A'..'Z' for subsequent alternates, each with its own
// CRVALnA/CRPIXnA/CDn_mA keyword set. A header with only the unversioned
// keywords yields a single-solution collection.
func Parse(header []byte) (*Collection, error) {
	records := SplitRecords(header)

	cards := make(map[string]string, len(records))
	for _, rec := range records {
		key, val, ok := parseCard(rec)
		if !ok {
			continue
		}
		cards[key] = val
	}

	versions := detectVersions(cards)

	solutions := make([]*WCS, 0, len(versions))
	for _, v := range versions {
		w, err := buildWCS(cards, v)
		if err != nil {
			return nil, fmt.Errorf("wcsengine: parsing solution %q: %w", v, err)
		}
		solutions = append(solutions, w)
	}

	if len(solutions) == 0 {
		return nil, fmt.Errorf("wcsengine: header contains no parseable WCS solution")
	}

	return &Collection{solutions: solutions}, nil
}

/*****************************************************************************************************************/

// detectVersions returns the set of alternate-WCS version suffixes
// present in cards ("" for the primary, then "A".."Z"), in collection
// order (primary first, then alphabetical). This is the reverse of the
// archive's external database-order numbering; see SolnumIndex.
func detectVersions(cards map[string]string) []string {
	var versions []string

	if _, ok := cards["CRVAL1"]; ok {
		versions = append(versions, "")
	}

	for c := 'A'; c <= 'Z'; c++ {
		key := "CRVAL1" + string(c)
		if _, ok := cards[key]; ok {
			versions = append(versions, string(c))
		}
	}

	return versions
}

/*****************************************************************************************************************/

func buildWCS(cards map[string]string, version string) (*WCS, error) {
	get := func(key string) (float64, error) {
		raw, ok := cards[key+version]
		if !ok {
			return 0, fmt.Errorf("missing card %s", key+version)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return 0, fmt.Errorf("card %s: %w", key+version, err)
		}
		return v, nil
	}

	crval1, err := get("CRVAL1")
	if err != nil {
		return nil, err
	}
	crval2, err := get("CRVAL2")
	if err != nil {
		return nil, err
	}
	crpix1, err := get("CRPIX1")
	if err != nil {
		return nil, err
	}
	crpix2, err := get("CRPIX2")
	if err != nil {
		return nil, err
	}

	cd11, _ := get("CD1_1")
	cd12, _ := get("CD1_2")
	cd21, _ := get("CD2_1")
	cd22, err := get("CD2_2")
	if err != nil {
		return nil, err
	}

	ctype1 := strings.Trim(cards["CTYPE1"+version], "' ")
	ctype2 := strings.Trim(cards["CTYPE2"+version], "' ")

	return &WCS{
		CRVAL1: crval1,
		CRVAL2: crval2,
		CRPIX1: crpix1,
		CRPIX2: crpix2,
		CD1_1:  cd11,
		CD1_2:  cd12,
		CD2_1:  cd21,
		CD2_2:  cd22,
		CType1: ctype1,
		CType2: ctype2,
	}, nil
}

/*****************************************************************************************************************/

// parseCard extracts the keyword and value from an 80-byte FITS header
// record of the form "KEYWORD = VALUE / comment". Records with no '=' at
// column 9 (the standard position) are not treated as value cards.
func parseCard(record string) (key, value string, ok bool) {
	if len(record) < 10 || record[8] != '=' {
		return "", "", false
	}

	key = strings.TrimSpace(record[:8])
	rest := record[9:]

	if idx := strings.Index(rest, "/"); idx >= 0 {
		rest = rest[:idx]
	}

	return key, strings.TrimSpace(rest), true
}

/*****************************************************************************************************************/

// PixelToWorld evaluates the forward tangent-plane transform at one
// 1-based pixel coordinate, returning (ra, dec) in degrees.
func (w *WCS) PixelToWorld(px, py float64) astrometry.ICRSEquatorialCoordinate {
	dx := px - w.CRPIX1
	dy := py - w.CRPIX2

	xi := projection.Radians(w.CD1_1*dx + w.CD1_2*dy)
	eta := projection.Radians(w.CD2_1*dx + w.CD2_2*dy)

	ra0 := projection.Radians(w.CRVAL1)
	dec0 := projection.Radians(w.CRVAL2)

	rho := math.Hypot(xi, eta)
	c := math.Atan(rho)

	var dec, ra float64

	if rho < 1e-12 {
		dec = projection.Degrees(dec0)
		ra = w.CRVAL1
	} else {
		sinC, cosC := math.Sin(c), math.Cos(c)
		decRad := math.Asin(cosC*math.Sin(dec0) + (eta*sinC*math.Cos(dec0))/rho)
		raRad := ra0 + math.Atan2(xi*sinC, rho*math.Cos(dec0)*cosC-eta*math.Sin(dec0)*sinC)

		dec = projection.Degrees(decRad)
		ra = projection.Degrees(raRad)
	}

	ra = math.Mod(ra, 360)
	if ra < 0 {
		ra += 360
	}

	return astrometry.ICRSEquatorialCoordinate{RA: ra, Dec: dec}
}

/*****************************************************************************************************************/

// SampleWorldSquare evaluates the forward transform on an NxN integer
// pixel grid (1-based pixel coordinates, matching the underlying
// library's convention), returning an N x N grid of (ra, dec) pairs.
func (w *WCS) SampleWorldSquare(n int) [][]astrometry.ICRSEquatorialCoordinate {
	grid := make([][]astrometry.ICRSEquatorialCoordinate, n)

	for i := 0; i < n; i++ {
		row := make([]astrometry.ICRSEquatorialCoordinate, n)
		for j := 0; j < n; j++ {
			// pixel (x, y) = (j+1, i+1), matching the library's
			// row-major (i, j) -> (x=j+1, y=i+1) grid convention.
			row[j] = w.PixelToWorld(float64(j+1), float64(i+1))
		}
		grid[i] = row
	}

	return grid
}

/*****************************************************************************************************************/

// WorldToPixel evaluates the inverse tangent-plane transform for a grid
// of (ra, dec) pairs, returning 0-based pixel coordinates (x, y).
func (w *WCS) WorldToPixel(world [][]astrometry.ICRSEquatorialCoordinate) ([][][2]float64, error) {
	inv, err := w.cdInverse()
	if err != nil {
		return nil, err
	}

	out := make([][][2]float64, len(world))

	for i, row := range world {
		outRow := make([][2]float64, len(row))
		for j, coord := range row {
			x, y := w.worldToPixelOne(coord, inv)
			outRow[j] = [2]float64{x, y}
		}
		out[i] = outRow
	}

	return out, nil
}

/*****************************************************************************************************************/

// WorldToPixelScalar is the scalar form of WorldToPixel.
func (w *WCS) WorldToPixelScalar(raDeg, decDeg float64) (x, y float64, err error) {
	inv, err := w.cdInverse()
	if err != nil {
		return 0, 0, err
	}

	x, y = w.worldToPixelOne(astrometry.ICRSEquatorialCoordinate{RA: raDeg, Dec: decDeg}, inv)
	return x, y, nil
}

/*****************************************************************************************************************/

// PixelToWorldScalar is the scalar form of the forward transform, taking
// 0-based pixel coordinates (the caller-facing convention used by C9/C10)
// and internally applying the 1-based shift the underlying math expects.
func (w *WCS) PixelToWorldScalar(x, y float64) astrometry.ICRSEquatorialCoordinate {
	return w.PixelToWorld(x+1, y+1)
}

/*****************************************************************************************************************/

func (w *WCS) worldToPixelOne(coord astrometry.ICRSEquatorialCoordinate, inv *mat.Dense) (x, y float64) {
	xi, eta := projection.ConvertEquatorialToGnomic(coord.RA, coord.Dec, w.CRVAL1, w.CRVAL2)

	dxdy := mat.NewVecDense(2, []float64{projection.Degrees(xi), projection.Degrees(eta)})

	var result mat.VecDense
	result.MulVec(inv, dxdy)

	// 1-based pixel, then shifted to 0-based.
	px := result.AtVec(0) + w.CRPIX1
	py := result.AtVec(1) + w.CRPIX2

	return px - 1, py - 1
}

/*****************************************************************************************************************/

func (w *WCS) cdInverse() (*mat.Dense, error) {
	cd := mat.NewDense(2, 2, []float64{w.CD1_1, w.CD1_2, w.CD2_1, w.CD2_2})

	var inv mat.Dense
	if err := inv.Inverse(cd); err != nil {
		return nil, fmt.Errorf("wcsengine: CD matrix is singular: %w", err)
	}

	return &inv, nil
}

/*****************************************************************************************************************/
