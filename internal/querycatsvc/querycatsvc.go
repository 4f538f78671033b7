/*****************************************************************************************************************/

// Package querycatsvc implements the querycat endpoint: a cone search
// against one of the archive's reference catalogs, driven by the fine
// (bin64) sky index.
package querycatsvc

/*****************************************************************************************************************/

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/pkgw/dasch-science-lambda/internal/apperr"
	"github.com/pkgw/dasch-science-lambda/internal/metastore"
	"github.com/pkgw/dasch-science-lambda/pkg/refnum"
	"github.com/pkgw/dasch-science-lambda/pkg/skybin"
)

/*****************************************************************************************************************/

// header is the first element of every querycat response, per spec §6.
const header = "ref_text,ref_number,gscBinIndex,raDeg,decDeg,draAsec,ddecAsec,posEpoch,pmRaMasyr,pmDecMasyr,uPMRaMasyr,uPMDecMasyr,stdmag,color,vFlag,magFlag,class"

/*****************************************************************************************************************/

var validRefcats = map[string]bool{"apass": true, "atlas": true}

/*****************************************************************************************************************/

// Request is the decoded querycat invocation payload.
type Request struct {
	Refcat       string  `json:"refcat"`
	RADeg        float64 `json:"ra_deg"`
	DecDeg       float64 `json:"dec_deg"`
	RadiusArcsec float64 `json:"radius_arcsec"`
}

/*****************************************************************************************************************/

// Store is the subset of metastore.Store this service consumes.
type Store interface {
	QueryRefcatBin(ctx context.Context, refcat string, bin int64, yield func(metastore.RefcatRow) bool) error
}

/*****************************************************************************************************************/

// Service orchestrates one querycat request end to end.
type Service struct {
	Store Store
	Bin64 *skybin.Binning
}

/*****************************************************************************************************************/

// Handle decodes payload and returns the header-plus-rows response.
func (s *Service) Handle(ctx context.Context, payload json.RawMessage) (interface{}, error) {
	var req Request
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, apperr.Wrap(apperr.BadRequest, err, "decoding querycat request")
	}

	return s.run(ctx, req)
}

/*****************************************************************************************************************/

func (s *Service) run(ctx context.Context, req Request) ([]string, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	radiusDeg := req.RadiusArcsec / 3600.0

	minDec := math.Max(req.DecDeg-radiusDeg, -90.0)
	maxDec := math.Min(req.DecDeg+radiusDeg, 90.0)

	bin0, err := s.Bin64.DecBin(minDec)
	if err != nil {
		return nil, apperr.Wrap(apperr.Fatal, err, "binning min dec %v", minDec)
	}
	bin1, err := s.Bin64.DecBin(maxDec)
	if err != nil {
		return nil, apperr.Wrap(apperr.Fatal, err, "binning max dec %v", maxDec)
	}

	bands := raBands(req.RADeg, minDec, maxDec, radiusDeg)

	rows := []string{header}

	for ibin := bin0; ibin <= bin1; ibin++ {
		for _, band := range bands {
			t0, err := s.Bin64.TotalBin(ibin, band.lo)
			if err != nil {
				return nil, apperr.Wrap(apperr.Fatal, err, "binning ra %v", band.lo)
			}
			t1, err := s.Bin64.TotalBin(ibin, band.hi)
			if err != nil {
				return nil, apperr.Wrap(apperr.Fatal, err, "binning ra %v", band.hi)
			}

			for t := t0; t <= t1; t++ {
				err := s.Store.QueryRefcatBin(ctx, req.Refcat, int64(t), func(item metastore.RefcatRow) bool {
					row, ok := processItem(item, req, radiusDeg, band)
					if ok {
						rows = append(rows, row)
					}
					return true
				})
				if err != nil {
					return nil, apperr.Wrap(apperr.IoError, err, "querying %s bin %d", req.Refcat, t)
				}
			}
		}
	}

	return rows, nil
}

/*****************************************************************************************************************/

func validate(req Request) error {
	if !validRefcats[req.Refcat] {
		return apperr.New(apperr.BadRequest, "unknown refcat %q", req.Refcat)
	}
	if math.IsNaN(req.RADeg) || !(req.RADeg >= 0 && req.RADeg <= 360) {
		return apperr.New(apperr.BadRequest, "ra_deg %v out of range [0, 360]", req.RADeg)
	}
	if math.IsNaN(req.DecDeg) || !(req.DecDeg >= -90 && req.DecDeg <= 90) {
		return apperr.New(apperr.BadRequest, "dec_deg %v out of range [-90, 90]", req.DecDeg)
	}
	if math.IsNaN(req.RadiusArcsec) || !(req.RadiusArcsec > 0 && req.RadiusArcsec < 3600) {
		return apperr.New(apperr.BadRequest, "radius_arcsec %v out of range (0, 3600)", req.RadiusArcsec)
	}
	return nil
}

/*****************************************************************************************************************/

// raBand is one contiguous, non-wrapping right-ascension search band.
type raBand struct {
	lo, hi float64
}

/*****************************************************************************************************************/

// raBands implements spec §4.11 step 3: computing the RA search span(s)
// for the given center and declination extremes.
func raBands(raDeg, minDec, maxDec, radiusDeg float64) []raBand {
	cosDec := math.Min(math.Cos(minDec*math.Pi/180), math.Cos(maxDec*math.Pi/180))

	if cosDec <= 0 {
		return []raBand{{0, 360}}
	}

	searchRA := radiusDeg / cosDec
	minRA := raDeg - searchRA
	maxRA := raDeg + searchRA

	if minRA <= 0 && maxRA >= 360 {
		return []raBand{{0, 360}}
	}
	if minRA < 0 {
		return []raBand{{0, maxRA}, {minRA + 360, 360}}
	}
	if maxRA > 360 {
		return []raBand{{minRA, 360}, {0, maxRA - 360}}
	}
	return []raBand{{minRA, maxRA}}
}

/*****************************************************************************************************************/

// shiftIntoBand shifts ra by one turn (+360 when it lies below lo, -360
// when it lies above hi) so that it sits on the same side of the 0/360
// seam as [lo, hi], matching spec §4.11 step 5's "eff_search_ra"
// construction. An ra already inside [lo, hi] is returned unchanged.
func shiftIntoBand(ra, lo, hi float64) float64 {
	if ra < lo {
		return ra + 360
	}
	if ra > hi {
		return ra - 360
	}
	return ra
}

/*****************************************************************************************************************/

// processItem implements spec §4.11 steps 5-6 for one returned catalog
// item, returning (row, false) when the item must be filtered out.
func processItem(item metastore.RefcatRow, req Request, radiusDeg float64, band raBand) (string, bool) {
	if item.DecDeg < req.DecDeg-radiusDeg || item.DecDeg > req.DecDeg+radiusDeg {
		return "", false
	}

	factor := math.Cos(item.DecDeg * math.Pi / 180)

	if factor > 0 {
		effSearchRA := shiftIntoBand(req.RADeg, band.lo, band.hi)
		searchHalfWidth := radiusDeg / factor

		if item.RADeg < effSearchRA-searchHalfWidth || item.RADeg > effSearchRA+searchHalfWidth {
			return "", false
		}
	}

	deltaRA := normalizeDeltaRA(req.RADeg - item.RADeg)

	midDecRad := (item.DecDeg + req.DecDeg) / 2 * math.Pi / 180
	draAsec := 3600 * math.Cos(midDecRad) * deltaRA
	ddecAsec := 3600 * (req.DecDeg - item.DecDeg)

	fields := []string{
		refnum.ToText(item.RefNumber),
		strconv.FormatUint(item.RefNumber, 10),
		strconv.FormatInt(item.GscBinIndex, 10),
		strconv.FormatFloat(item.RADeg, 'f', -1, 64),
		strconv.FormatFloat(item.DecDeg, 'f', -1, 64),
		strconv.FormatFloat(draAsec, 'f', -1, 64),
		strconv.FormatFloat(ddecAsec, 'f', -1, 64),
		"2000.000",
		optionalFloat(item.PMRaMasyr),
		optionalFloat(item.PMDecMasyr),
		optionalFloat(item.UPMRaMasyr),
		optionalFloat(item.UPMDecMasyr),
		optionalFloat(item.StdMag),
		optionalFloat(item.Color),
		item.VFlag,
		item.MagFlag,
		item.Class,
	}

	return strings.Join(fields, ","), true
}

/*****************************************************************************************************************/

// normalizeDeltaRA folds a right ascension difference into (-180, 180].
func normalizeDeltaRA(deltaRA float64) float64 {
	deltaRA = math.Mod(deltaRA, 360)
	if deltaRA <= -180 {
		deltaRA += 360
	} else if deltaRA > 180 {
		deltaRA -= 360
	}
	return deltaRA
}

/*****************************************************************************************************************/

func optionalFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

/*****************************************************************************************************************/
