/*****************************************************************************************************************/

// Package queryexpssvc implements the queryexps endpoint: given a sky
// point, list every plate/exposure/solution footprint known to cover it,
// drawn from the coarse sky index and the plate metadata store.
package queryexpssvc

/*****************************************************************************************************************/

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/pkgw/dasch-science-lambda/internal/apperr"
	"github.com/pkgw/dasch-science-lambda/internal/metastore"
	"github.com/pkgw/dasch-science-lambda/internal/platescale"
	"github.com/pkgw/dasch-science-lambda/pkg/skybin"
	"github.com/pkgw/dasch-science-lambda/pkg/wcsengine"
)

/*****************************************************************************************************************/

// header is the first element of every queryexps response, per spec §6.
const header = "series,platenum,scannum,mosnum,expnum,solnum,class,ra,dec,exptime,expdate,epoch,wcssource,scandate,mosdate,centerdist,edgedist"

/*****************************************************************************************************************/

// defaultSeriesASide/defaultOtherSide are the legacy fallback plate-size
// assumptions (17" vs 10" field at 90.909 pix/mm) used when a plate has
// no registered mosaic.
const (
	defaultSeriesASide = 39255
	defaultOtherSide   = 23091
)

/*****************************************************************************************************************/

// Request is the decoded queryexps invocation payload.
type Request struct {
	RADeg  float64 `json:"ra_deg"`
	DecDeg float64 `json:"dec_deg"`
}

/*****************************************************************************************************************/

// Store is the subset of metastore.Store this service consumes.
type Store interface {
	BatchGetPlates(ctx context.Context, plateIDs []string, projection metastore.Projection) ([]*metastore.Plate, error)
	FetchCoverageCSV(ctx context.Context, totalBin int, yield func(plateID string, se metastore.SolExp) error) error
}

/*****************************************************************************************************************/

// Service orchestrates one queryexps request end to end.
type Service struct {
	Store Store
	Bin1  *skybin.Binning
}

/*****************************************************************************************************************/

// Handle decodes payload and returns the header-plus-rows response.
func (s *Service) Handle(ctx context.Context, payload json.RawMessage) (interface{}, error) {
	var req Request
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, apperr.Wrap(apperr.BadRequest, err, "decoding queryexps request")
	}

	return s.run(ctx, req)
}

/*****************************************************************************************************************/

func validateRADec(raDeg, decDeg float64) error {
	if math.IsNaN(raDeg) || !(raDeg >= 0 && raDeg <= 360) {
		return apperr.New(apperr.BadRequest, "ra_deg %v out of range [0, 360]", raDeg)
	}
	if math.IsNaN(decDeg) || !(decDeg >= -90 && decDeg <= 90) {
		return apperr.New(apperr.BadRequest, "dec_deg %v out of range [-90, 90]", decDeg)
	}
	return nil
}

/*****************************************************************************************************************/

func (s *Service) run(ctx context.Context, req Request) ([]string, error) {
	if err := validateRADec(req.RADeg, req.DecDeg); err != nil {
		return nil, err
	}

	decBin, err := s.Bin1.DecBin(req.DecDeg)
	if err != nil {
		return nil, apperr.Wrap(apperr.Fatal, err, "binning dec %v", req.DecDeg)
	}
	totalBin, err := s.Bin1.TotalBin(decBin, req.RADeg)
	if err != nil {
		return nil, apperr.Wrap(apperr.Fatal, err, "binning ra %v", req.RADeg)
	}

	candidates := make(map[string][]metastore.SolExp)

	err = s.Store.FetchCoverageCSV(ctx, totalBin, func(plateID string, se metastore.SolExp) error {
		candidates[plateID] = append(candidates[plateID], se)
		return nil
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.IoError, err, "fetching coverage bin %d", totalBin)
	}

	plateIDs := make([]string, 0, len(candidates))
	for id := range candidates {
		plateIDs = append(plateIDs, id)
	}

	plates, err := s.Store.BatchGetPlates(ctx, plateIDs, metastore.QueryexpsProjection)
	if err != nil {
		return nil, apperr.Wrap(apperr.IoError, err, "batch-fetching %d candidate plates", len(plateIDs))
	}

	rows := []string{header}

	for _, plate := range plates {
		if plate == nil {
			continue
		}

		var collection *wcsengine.Collection
		if plate.Astrometry != nil && len(plate.Astrometry.B01HeaderGz) > 0 {
			if hdr, _, err := wcsengine.LoadASCIIHeader(bytes.NewReader(plate.Astrometry.B01HeaderGz)); err == nil {
				collection, _ = wcsengine.Parse(hdr)
			}
		}

		for _, se := range candidates[plate.PlateID] {
			row, ok := processOne(plate, se, collection, req.RADeg, req.DecDeg)
			if ok {
				rows = append(rows, row)
			}
		}
	}

	return rows, nil
}

/*****************************************************************************************************************/

// processOne implements spec §4.10 step 4 for one (plate, SolExp)
// candidate, returning (row, false) when the candidate must be skipped.
func processOne(plate *metastore.Plate, se metastore.SolExp, collection *wcsengine.Collection, raDeg, decDeg float64) (string, bool) {
	width, height := candidateDimensions(plate, se)

	wcs, source, ok := selectWCS(plate, se, collection, width, height)
	if !ok {
		return "", false
	}

	x, y, err := wcs.WorldToPixelScalar(raDeg, decDeg)
	if err != nil {
		return "", false
	}

	if x < -0.5 || x > float64(width)-0.5 || y < -0.5 || y > float64(height)-0.5 {
		return "", false
	}

	centerX := (float64(width) - 1) / 2
	centerY := (float64(height) - 1) / 2
	center := wcs.PixelToWorldScalar(centerX, centerY)

	const cmPerPix = 1.0 / (10.0 * platescale.PixelsPerMM)

	centerDist := math.Hypot(x-centerX, y-centerY) * cmPerPix
	edgeDist := math.Min(
		math.Min(x+0.5, y+0.5),
		math.Min(float64(width)-0.5-x, float64(height)-0.5-y),
	) * cmPerPix

	scanNum, mosNum := -1, -1
	mosDate := ""
	if plate.Mosaic != nil {
		scanNum = plate.Mosaic.ScanNum
		mosNum = plate.Mosaic.MosNum
		mosDate = plate.Mosaic.CreationDate
	}

	exptime, expdate := "", ""
	if plate.Astrometry != nil {
		for _, exp := range plate.Astrometry.Exposures {
			if exp.Number == se.ExpNum {
				if exp.DurMin != nil {
					exptime = strconv.FormatFloat(*exp.DurMin, 'f', -1, 64)
				}
				expdate = exp.MidpointDate
				break
			}
		}
	}

	fields := []string{
		plate.Series,
		strconv.Itoa(plate.PlateNumber),
		strconv.Itoa(scanNum),
		strconv.Itoa(mosNum),
		strconv.Itoa(se.ExpNum),
		strconv.Itoa(se.SolNum),
		"",
		strconv.FormatFloat(center.RA, 'f', 6, 64),
		strconv.FormatFloat(center.Dec, 'f', 6, 64),
		exptime,
		expdate,
		"2000.0",
		strings.ToLower(source),
		"",
		mosDate,
		strconv.FormatFloat(centerDist, 'f', 1, 64),
		strconv.FormatFloat(edgeDist, 'f', 1, 64),
	}

	return strings.Join(fields, ","), true
}

/*****************************************************************************************************************/

// candidateDimensions implements spec §4.10 step 4a: mosaic dimensions
// when present (swapped for a rotated frame), else a series-dependent
// legacy default.
func candidateDimensions(plate *metastore.Plate, se metastore.SolExp) (width, height int) {
	if plate.Mosaic != nil {
		width, height = plate.Mosaic.B01Width, plate.Mosaic.B01Height

		rotationDelta := 0
		if plate.Astrometry != nil {
			rotationDelta = plate.Astrometry.RotationDelta
		}
		if rotationDelta == 90 || rotationDelta == -90 || rotationDelta == 270 || rotationDelta == -270 {
			width, height = height, width
		}

		return width, height
	}

	if plate.Series == "a" {
		return defaultSeriesASide, defaultSeriesASide
	}
	return defaultOtherSide, defaultOtherSide
}

/*****************************************************************************************************************/

// selectWCS implements spec §4.10 step 4b.
func selectWCS(plate *metastore.Plate, se metastore.SolExp, collection *wcsengine.Collection, width, height int) (*wcsengine.WCS, string, bool) {
	if collection != nil && plate.Astrometry != nil && se.SolNum >= 0 && se.SolNum < plate.Astrometry.NSolutions {
		if idx, err := wcsengine.SolnumIndex(plate.Astrometry.NSolutions, se.SolNum); err == nil {
			if wcs, err := collection.Get(idx); err == nil {
				return wcs, "plate", true
			}
		}
	}

	if plate.Astrometry == nil {
		return nil, "", false
	}

	var exposure *metastore.Exposure
	for i := range plate.Astrometry.Exposures {
		if plate.Astrometry.Exposures[i].Number == se.ExpNum {
			exposure = &plate.Astrometry.Exposures[i]
			break
		}
	}
	if exposure == nil || !exposure.HasUsableCenter() {
		return nil, "", false
	}

	cd, ok := platescale.DegPerPixel(plate.Series)
	if !ok {
		return nil, "", false
	}

	side := width
	if height > side {
		side = height
	}
	crpix := float64(side+1) / 2

	synthetic := wcsengine.NewTAN(*exposure.RADeg, *exposure.DecDeg, crpix, crpix, cd)
	wcs, err := synthetic.Get(0)
	if err != nil {
		return nil, "", false
	}

	return wcs, "synthetic", true
}

/*****************************************************************************************************************/
