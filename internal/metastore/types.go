/*****************************************************************************************************************/

// Package metastore provides typed access to the plate/exposure metadata
// rows held in the archive's wide-row key-value store, and to the
// coarse sky-index CSVs held in object storage.
package metastore

/*****************************************************************************************************************/

import "context"

/*****************************************************************************************************************/

// Exposure is one exposure record attached to a plate's astrometry, in
// parallel with the plate's solutions.
type Exposure struct {
	Number       int
	RADeg        *float64
	DecDeg       *float64
	DurMin       *float64
	MidpointDate string
	Source       string
}

/*****************************************************************************************************************/

// HasUsableCenter reports whether the exposure carries a real (ra, dec)
// center rather than the archive's ±99/±999 "unknown" sentinels.
func (e *Exposure) HasUsableCenter() bool {
	if e == nil || e.RADeg == nil || e.DecDeg == nil {
		return false
	}

	ra, dec := *e.RADeg, *e.DecDeg

	if ra == 99 || ra == -99 || ra == 999 || ra == -999 {
		return false
	}
	if dec == 99 || dec == -99 || dec == 999 || dec == -999 {
		return false
	}

	return true
}

/*****************************************************************************************************************/

// Astrometry holds a plate's astrometric solutions and exposure records.
type Astrometry struct {
	B01HeaderGz   []byte
	NSolutions    int
	RotationDelta int
	Exposures     []Exposure
}

/*****************************************************************************************************************/

// Mosaic describes a plate's scanned image as stored in object storage.
type Mosaic struct {
	B01Width      int
	B01Height     int
	CreationDate  string
	MosNum        int
	ScanNum       int
	S3KeyTemplate string
}

/*****************************************************************************************************************/

// Plate is one plate metadata row.
type Plate struct {
	PlateID     string
	Series      string
	PlateNumber int
	Astrometry  *Astrometry
	Mosaic      *Mosaic
}

/*****************************************************************************************************************/

// IsCutoutCapable reports whether this plate has everything needed to
// serve a cutout: a mosaic and an astrometry block with a non-empty
// header blob.
func (p *Plate) IsCutoutCapable() bool {
	return p.Mosaic != nil && p.Astrometry != nil && len(p.Astrometry.B01HeaderGz) > 0
}

/*****************************************************************************************************************/

// SolExp is a single candidate (solution, exposure) pair emitted by the
// coarse sky index for one plate.
type SolExp struct {
	SolNum int
	ExpNum int
}

/*****************************************************************************************************************/

// Projection names the subset of plate attributes a caller needs back.
// It mirrors the key-value store's "select only these nested paths"
// syntax; the service owns a small fixed set of these rather than
// constructing them dynamically.
type Projection []string

/*****************************************************************************************************************/

// Cutout projection, matching spec §6.
var CutoutProjection = Projection{
	"astrometry.b01HeaderGz", "astrometry.nSolutions", "astrometry.rotationDelta",
	"mosaic.b01Height", "mosaic.b01Width", "mosaic.s3KeyTemplate",
}

/*****************************************************************************************************************/

// Queryexps batch projection, matching spec §6.
var QueryexpsProjection = Projection{
	"astrometry.b01HeaderGz", "astrometry.exposures", "astrometry.nSolutions",
	"astrometry.rotationDelta", "mosaic.b01Height", "mosaic.b01Width",
	"mosaic.creationDate", "mosaic.mosNum", "mosaic.scanNum",
	"plateId", "plateNumber", "series",
}

/*****************************************************************************************************************/

// RefcatRow is one row of a reference-catalog bin query result.
type RefcatRow struct {
	RefNumber   uint64
	RADeg       float64
	DecDeg      float64
	GscBinIndex int64
	PMRaMasyr   *float64
	PMDecMasyr  *float64
	UPMRaMasyr  *float64
	UPMDecMasyr *float64
	StdMag      *float64
	Color       *float64
	VFlag       string
	MagFlag     string
	Class       string
}

/*****************************************************************************************************************/

// Store is the typed accessor over the key-value store and coarse
// sky-index CSVs described in spec §4.7.
type Store interface {
	// GetPlate performs a point read of one plate, projecting only the
	// requested attributes. It returns ErrNotFound if no such plate
	// exists.
	GetPlate(ctx context.Context, plateID string, projection Projection) (*Plate, error)

	// BatchGetPlates performs batched point reads (up to 100 keys per
	// underlying request), honoring the store's "unprocessed keys"
	// continuation until every id has been fetched.
	BatchGetPlates(ctx context.Context, plateIDs []string, projection Projection) ([]*Plate, error)

	// QueryRefcatBin issues a paginated partition-key query against the
	// named reference-catalog table for the given gscBinIndex value,
	// invoking yield for every row until the query is exhausted or yield
	// returns false.
	QueryRefcatBin(ctx context.Context, refcat string, bin int64, yield func(RefcatRow) bool) error

	// FetchCoverageCSV streams the coverage CSV for totalBin, invoking
	// yield once per non-empty line. Malformed lines (fewer than 3
	// comma-separated fields) are skipped rather than surfaced as
	// errors.
	FetchCoverageCSV(ctx context.Context, totalBin int, yield func(plateID string, se SolExp) error) error
}

/*****************************************************************************************************************/
