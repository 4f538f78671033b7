/*****************************************************************************************************************/

// Package platescale holds the legacy plate-scale lookup table used to
// synthesize a tangent-plane WCS when a plate's astrometric solution is
// missing or unusable, per spec §4.10 step 4b.
package platescale

/*****************************************************************************************************************/

// PixelsPerMM is the scanner's fixed digitization resolution, 90.909
// pixels per millimeter, used to turn a series' arcsec-per-mm plate
// scale into a degrees-per-pixel scalar.
const PixelsPerMM = 90.9090

/*****************************************************************************************************************/

// byArcsecPerMM maps a plate series to its plate scale in arcsec per
// millimeter, taken from the archive's scanner.series table (fitted
// value where available, nominal otherwise).
var byArcsecPerMM = map[string]float64{
	"a": 59.57, "ab": 590., "ac": 606.4, "aco": 611.3, "adh": 68.,
	"ai": 1360., "ak": 614.5, "al": 1200., "am": 610.8, "an": 574.,
	"ax": 695.7, "ay": 694.2, "b": 179.4, "bi": 1446., "bm": 384.,
	"bo": 800., "br": 204., "c": 52.56, "ca": 596., "ctio": 18.,
	"darnor": 890., "darsou": 890., "dnb": 577.3, "dnr": 579.7, "dny": 576.1,
	"dsb": 574.5, "dsr": 579.7, "dsy": 581.8, "ee": 330., "er": 390.,
	"fa": 1298., "h": 59.6, "hale": 11.06, "i": 163.3, "ir": 164.,
	"j": 98., "jdar": 560., "ka": 1200., "kb": 1200., "kc": 650.,
	"kd": 650., "ke": 1160., "kf": 1160., "kg": 1160., "kge": 1160.,
	"kh": 1160., "lwla": 36.687, "ma": 93.7, "mb": 390., "mc": 97.9,
	"md": 193., "me": 600., "meteor": 1200., "mf": 167.3, "na": 100.,
	"pas": 95.64, "poss": 67.19, "pz": 1553., "r": 390., "rb": 395.5,
	"rh": 391.3, "rl": 290., "ro": 390., "s": 26.3, "sb": 26.,
	"sh": 26., "x": 42.3, "yb": 55.,
}

/*****************************************************************************************************************/

// Lookup returns the series' plate scale in arcsec/mm and whether it is
// known. Series lookups are case-sensitive: the key-value store stores
// series identifiers in their canonical lowercase form.
func Lookup(series string) (arcsecPerMM float64, ok bool) {
	v, ok := byArcsecPerMM[series]
	return v, ok
}

/*****************************************************************************************************************/

// DegPerPixel converts a series' plate scale into a degrees-per-pixel
// scalar suitable for a synthetic tangent-plane WCS's CD diagonal.
func DegPerPixel(series string) (float64, bool) {
	arcsecPerMM, ok := Lookup(series)
	if !ok {
		return 0, false
	}

	arcsecPerPixel := arcsecPerMM / PixelsPerMM
	return arcsecPerPixel / 3600.0, true
}
