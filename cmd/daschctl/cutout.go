/*****************************************************************************************************************/

package main

/*****************************************************************************************************************/

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/fogleman/gg"
	"github.com/observerly/sidera/pkg/humanize"
	"github.com/spf13/cobra"

	"github.com/pkgw/dasch-science-lambda/internal/cutoutsvc"
	"github.com/pkgw/dasch-science-lambda/internal/metastore"
	"github.com/pkgw/dasch-science-lambda/internal/remotefits"
)

/*****************************************************************************************************************/

var (
	cutoutPlateID  string
	cutoutSolution int
	cutoutRA       float64
	cutoutDec      float64
	cutoutBucket   string
	cutoutOut      string
	cutoutDebugPNG string
)

/*****************************************************************************************************************/

var cutoutCommand = &cobra.Command{
	Use:   "cutout",
	Short: "synthesize a resampled FITS cutout from a plate mosaic",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		store, err := metastore.OpenSQLiteStore(dbPath)
		if err != nil {
			return fmt.Errorf("opening sqlite mirror %q: %w", dbPath, err)
		}

		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return fmt.Errorf("loading AWS config: %w", err)
		}

		registry := remotefits.NewRegistry(s3.NewFromConfig(awsCfg))

		svc := &cutoutsvc.Service{Store: store, Registry: registry, Bucket: cutoutBucket}

		result, err := svc.Handle(ctx, []byte(fmt.Sprintf(
			`{"plate_id":%q,"solution_number":%d,"center_ra_deg":%s,"center_dec_deg":%s}`,
			cutoutPlateID, cutoutSolution, formatFloat(cutoutRA), formatFloat(cutoutDec),
		)))
		if err != nil {
			return err
		}

		encoded, ok := result.(string)
		if !ok {
			return fmt.Errorf("cutout: unexpected response type %T", result)
		}

		fitsBytes, err := decodeCutoutResponse(encoded)
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "cutout centered at %s %s\n",
			humanize.FormatDecimalToDMS(cutoutRA, "%s%d %d %.2f"),
			humanize.FormatDecimalToDMS(cutoutDec, "%s%d %d %.2f"),
		)

		if cutoutDebugPNG != "" {
			if err := writeDebugPNG(fitsBytes, cutoutDebugPNG); err != nil {
				return fmt.Errorf("cutout: rendering debug PNG: %w", err)
			}
		}

		if cutoutOut == "" {
			_, err := os.Stdout.Write(fitsBytes)
			return err
		}

		return os.WriteFile(cutoutOut, fitsBytes, 0o644)
	},
}

/*****************************************************************************************************************/

// decodeCutoutResponse reverses the base64(gzip(fits)) encoding the
// cutout handler applies to its response, yielding raw FITS bytes.
func decodeCutoutResponse(encoded string) ([]byte, error) {
	compressed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("cutout: decoding base64 response: %w", err)
	}

	gz, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("cutout: opening gzip response: %w", err)
	}
	defer gz.Close()

	return io.ReadAll(gz)
}

// writeDebugPNG decodes a single-HDU, BITPIX=16 FITS byte stream (the
// shape internal/cutoutsvc always emits) and rasterizes a normalized
// grayscale preview, purely as a quick-look aid for local debugging.
func writeDebugPNG(fitsBytes []byte, path string) error {
	width, height, dataOffset, err := parseFITSDimensions(fitsBytes)
	if err != nil {
		return err
	}

	pixels := fitsBytes[dataOffset:]
	if len(pixels) < width*height*2 {
		return fmt.Errorf("short pixel data: have %d bytes, want %d", len(pixels), width*height*2)
	}

	values := make([]float64, width*height)
	minVal, maxVal := math.Inf(1), math.Inf(-1)
	for i := range values {
		v := float64(int16(binary.BigEndian.Uint16(pixels[i*2 : i*2+2])))
		values[i] = v
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if maxVal == minVal {
		maxVal = minVal + 1
	}

	dc := gg.NewContext(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			norm := (values[y*width+x] - minVal) / (maxVal - minVal)
			dc.SetRGB(norm, norm, norm)
			dc.SetPixel(x, y)
		}
	}

	return dc.SavePNG(path)
}

/*****************************************************************************************************************/

// parseFITSDimensions scans the 2880-byte header blocks of a primary
// HDU for NAXIS1/NAXIS2 and returns their values plus the byte offset
// where pixel data begins.
func parseFITSDimensions(fitsBytes []byte) (width, height, dataOffset int, err error) {
	const blockSize = 2880
	const cardSize = 80

	for offset := 0; offset+blockSize <= len(fitsBytes); offset += blockSize {
		block := fitsBytes[offset : offset+blockSize]
		for c := 0; c+cardSize <= len(block); c += cardSize {
			card := string(block[c : c+cardSize])
			key := strings.TrimSpace(card[:8])

			if key == "END" {
				dataOffset = offset + blockSize
				if width == 0 || height == 0 {
					return 0, 0, 0, fmt.Errorf("FITS header missing NAXIS1/NAXIS2")
				}
				return width, height, dataOffset, nil
			}

			if len(card) < 10 || card[8] != '=' {
				continue
			}

			value := strings.TrimSpace(strings.SplitN(card[9:], "/", 2)[0])

			switch key {
			case "NAXIS1":
				width, _ = strconv.Atoi(value)
			case "NAXIS2":
				height, _ = strconv.Atoi(value)
			}
		}
	}

	return 0, 0, 0, fmt.Errorf("FITS header END card not found")
}

/*****************************************************************************************************************/

func init() {
	cutoutCommand.Flags().StringVar(&cutoutPlateID, "plate-id", "", "plate identifier")
	cutoutCommand.Flags().IntVar(&cutoutSolution, "solution", -1, "solution number")
	cutoutCommand.Flags().Float64Var(&cutoutRA, "ra", math.NaN(), "cutout center right ascension in degrees")
	cutoutCommand.Flags().Float64Var(&cutoutDec, "dec", math.NaN(), "cutout center declination in degrees")
	cutoutCommand.Flags().StringVar(&cutoutBucket, "bucket", "", "S3 bucket holding the plate mosaics")
	cutoutCommand.Flags().StringVar(&cutoutOut, "out", "", "output file for the decoded FITS bytes (default: stdout)")
	cutoutCommand.Flags().StringVar(&cutoutDebugPNG, "debug-png", "", "also render a normalized grayscale preview PNG to this path")
	cutoutCommand.MarkFlagRequired("plate-id")
	cutoutCommand.MarkFlagRequired("solution")
	cutoutCommand.MarkFlagRequired("ra")
	cutoutCommand.MarkFlagRequired("dec")
	cutoutCommand.MarkFlagRequired("bucket")
}

/*****************************************************************************************************************/
