/*****************************************************************************************************************/

// Package cutoutsvc implements the cutout endpoint: given a plate id,
// solution number, and sky center, synthesize a small resampled FITS
// image of that region of sky from the plate's mosaic.
package cutoutsvc

/*****************************************************************************************************************/

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math"
	"strings"

	"github.com/pkgw/dasch-science-lambda/internal/apperr"
	"github.com/pkgw/dasch-science-lambda/internal/metastore"
	"github.com/pkgw/dasch-science-lambda/internal/remotefits"
	"github.com/pkgw/dasch-science-lambda/pkg/fitsimage"
	"github.com/pkgw/dasch-science-lambda/pkg/resample"
	"github.com/pkgw/dasch-science-lambda/pkg/wcsengine"
)

/*****************************************************************************************************************/

const (
	// OutHalf is the half-width of the output cutout in pixels.
	OutHalf = 417

	// OutFull is the output cutout's full side length, 2*OutHalf+1.
	OutFull = 2*OutHalf + 1

	// OutPixScaleDeg is the output cutout's pixel scale, degrees/pixel.
	OutPixScaleDeg = 0.0004
)

/*****************************************************************************************************************/

// Request is the decoded cutout invocation payload.
type Request struct {
	PlateID        string  `json:"plate_id"`
	SolutionNumber int     `json:"solution_number"`
	CenterRADeg    float64 `json:"center_ra_deg"`
	CenterDecDeg   float64 `json:"center_dec_deg"`
}

/*****************************************************************************************************************/

// Store is the subset of metastore.Store this service consumes.
type Store interface {
	GetPlate(ctx context.Context, plateID string, projection metastore.Projection) (*metastore.Plate, error)
}

/*****************************************************************************************************************/

// Service orchestrates one cutout request end to end.
type Service struct {
	Store    Store
	Registry *remotefits.Registry
	Bucket   string
}

/*****************************************************************************************************************/

// Handle decodes payload, runs the pipeline, and returns the
// base64(gzip(fits bytes)) response string.
func (s *Service) Handle(ctx context.Context, payload json.RawMessage) (interface{}, error) {
	var req Request
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, apperr.Wrap(apperr.BadRequest, err, "decoding cutout request")
	}

	return s.run(ctx, req)
}

/*****************************************************************************************************************/

func validateRADec(raDeg, decDeg float64) error {
	if math.IsNaN(raDeg) || !(raDeg >= 0 && raDeg <= 360) {
		return apperr.New(apperr.BadRequest, "center_ra_deg %v out of range [0, 360]", raDeg)
	}
	if math.IsNaN(decDeg) || !(decDeg >= -90 && decDeg <= 90) {
		return apperr.New(apperr.BadRequest, "center_dec_deg %v out of range [-90, 90]", decDeg)
	}
	return nil
}

/*****************************************************************************************************************/

func (s *Service) run(ctx context.Context, req Request) (string, error) {
	if err := validateRADec(req.CenterRADeg, req.CenterDecDeg); err != nil {
		return "", err
	}

	plate, err := s.Store.GetPlate(ctx, req.PlateID, metastore.CutoutProjection)
	if err != nil {
		if errors.Is(err, metastore.ErrNotFound) {
			return "", apperr.Wrap(apperr.NotFound, err, "plate %s", req.PlateID)
		}
		return "", apperr.Wrap(apperr.IoError, err, "fetching plate %s", req.PlateID)
	}

	if !plate.IsCutoutCapable() {
		return "", apperr.New(apperr.IncompletePlate, "plate %s has no usable mosaic/astrometry", req.PlateID)
	}
	if req.SolutionNumber < 0 || req.SolutionNumber >= plate.Astrometry.NSolutions {
		return "", apperr.New(apperr.IncompletePlate, "solution %d out of range [0, %d)", req.SolutionNumber, plate.Astrometry.NSolutions)
	}

	rot, err := resample.ParseRotationDelta(plate.Astrometry.RotationDelta)
	if err != nil {
		return "", apperr.Wrap(apperr.RotationDeltaIllegal, err, "plate %s", req.PlateID)
	}

	builder, err := fitsimage.NewBuilder(OutFull)
	if err != nil {
		return "", apperr.Wrap(apperr.Fatal, err, "allocating destination image")
	}

	builder.SetString("CTYPE1", "RA---TAN", "")
	builder.SetString("CTYPE2", "DEC--TAN", "")
	builder.SetString("CUNIT1", "deg", "")
	builder.SetString("CUNIT2", "deg", "")
	builder.SetFloat("CRVAL1", req.CenterRADeg, "")
	builder.SetFloat("CRVAL2", req.CenterDecDeg, "")
	builder.SetFloat("CD1_1", -OutPixScaleDeg, "")
	builder.SetFloat("CD2_2", OutPixScaleDeg, "")
	builder.SetFloat("CRPIX1", OutHalf+1, "")
	builder.SetFloat("CRPIX2", OutHalf+1, "")
	builder.SetInt("BLANK", 0, "")

	destCollection := wcsengine.NewTAN(req.CenterRADeg, req.CenterDecDeg, OutHalf+1, OutHalf+1, OutPixScaleDeg)
	destWCS, err := destCollection.Get(0)
	if err != nil {
		return "", apperr.Wrap(apperr.Fatal, err, "building destination WCS")
	}

	destWorld := destWCS.SampleWorldSquare(OutFull)

	header, _, err := wcsengine.LoadASCIIHeader(bytes.NewReader(plate.Astrometry.B01HeaderGz))
	if err != nil {
		return "", apperr.Wrap(apperr.MalformedHeader, err, "plate %s", req.PlateID)
	}

	collection, err := wcsengine.Parse(header)
	if err != nil {
		return "", apperr.Wrap(apperr.LibraryError, err, "plate %s", req.PlateID)
	}

	idx, err := wcsengine.SolnumIndex(plate.Astrometry.NSolutions, req.SolutionNumber)
	if err != nil {
		return "", apperr.Wrap(apperr.IncompletePlate, err, "plate %s", req.PlateID)
	}
	sourceWCS, err := collection.Get(idx)
	if err != nil {
		return "", apperr.Wrap(apperr.LibraryError, err, "plate %s", req.PlateID)
	}

	destPix, err := sourceWCS.WorldToPixel(destWorld)
	if err != nil {
		return "", apperr.Wrap(apperr.LibraryError, err, "plate %s", req.PlateID)
	}

	width, height := plate.Mosaic.B01Width, plate.Mosaic.B01Height
	if rot.Swapped() {
		width, height = height, width
	}

	flatPoints := make([]resample.Point, 0, OutFull*OutFull)
	for i := range destPix {
		for j := range destPix[i] {
			flatPoints = append(flatPoints, resample.Point{X: destPix[i][j][0], Y: destPix[i][j][1]})
		}
	}
	resample.RemapAll(rot, plate.Mosaic.B01Width, plate.Mosaic.B01Height, flatPoints)

	flagged := make([]bool, len(flatPoints))
	surviving := make([]resample.Point, 0, len(flatPoints))
	decompress := make([]int, 0, len(flatPoints))

	for i, p := range flatPoints {
		if p.X < 0 || p.X > float64(width-1) || p.Y < 0 || p.Y > float64(height-1) {
			flagged[i] = true
			continue
		}
		surviving = append(surviving, p)
		decompress = append(decompress, i)
	}

	if len(surviving) == 0 {
		return "", apperr.New(apperr.NoOverlap, "plate %s does not overlap the target region", req.PlateID)
	}

	xmin, xmax := surviving[0].X, surviving[0].X
	ymin, ymax := surviving[0].Y, surviving[0].Y
	for _, p := range surviving[1:] {
		xmin = math.Min(xmin, p.X)
		xmax = math.Max(xmax, p.X)
		ymin = math.Min(ymin, p.Y)
		ymax = math.Max(ymax, p.Y)
	}

	x0 := clampInt(int(math.Floor(xmin)), 0, width-1)
	x1 := clampInt(int(math.Ceil(xmax)), 0, width-1)
	y0 := clampInt(int(math.Floor(ymin)), 0, height-1)
	y1 := clampInt(int(math.Ceil(ymax)), 0, height-1)

	key := strings.ReplaceAll(strings.ReplaceAll(plate.Mosaic.S3KeyTemplate, "{bin}", "01"), "{tnx}", "_tnx")

	var sourcePixels [][]int16

	err = remotefits.RunBlockingIsland(ctx, func(ctx context.Context) error {
		handle, openErr := s.Registry.Open(s.Bucket + "/" + key)
		if openErr != nil {
			return openErr
		}
		defer s.Registry.Close(handle)

		hdu, hduErr := s.Registry.MoveToHDU(ctx, handle, 1)
		if hduErr != nil {
			return hduErr
		}

		rect, rectErr := s.Registry.ReadRectangle(ctx, handle, hdu, x0, y0, x1-x0+1, y1-y0+1)
		if rectErr != nil {
			return rectErr
		}

		sourcePixels = rect
		return nil
	})
	if err != nil {
		return "", apperr.Wrap(apperr.IoError, err, "fetching source pixels for plate %s", req.PlateID)
	}

	shifted := make([]resample.Point, len(surviving))
	for i, p := range surviving {
		shifted[i] = resample.Point{X: p.X - float64(x0), Y: p.Y - float64(y0)}
	}

	resampled, err := resample.Bilinear(sourcePixels, shifted)
	if err != nil {
		return "", apperr.Wrap(apperr.LibraryError, err, "resampling plate %s", req.PlateID)
	}

	full := make([]int16, OutFull*OutFull)
	for i := len(decompress) - 1; i >= 0; i-- {
		full[decompress[i]] = resampled[i]
	}

	pixels := make([][]int16, OutFull)
	for i := 0; i < OutFull; i++ {
		pixels[i] = full[i*OutFull : (i+1)*OutFull]
	}

	if err := builder.WritePixels(pixels); err != nil {
		return "", apperr.Wrap(apperr.Fatal, err, "writing destination pixels")
	}

	raw, err := builder.Into()
	if err != nil {
		return "", apperr.Wrap(apperr.Fatal, err, "emitting destination FITS bytes")
	}

	var gz bytes.Buffer
	w := gzip.NewWriter(&gz)
	if _, err := w.Write(raw); err != nil {
		return "", apperr.Wrap(apperr.Fatal, err, "gzip-compressing response")
	}
	if err := w.Close(); err != nil {
		return "", apperr.Wrap(apperr.Fatal, err, "gzip-compressing response")
	}

	return base64.StdEncoding.EncodeToString(gz.Bytes()), nil
}

/*****************************************************************************************************************/

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

/*****************************************************************************************************************/
