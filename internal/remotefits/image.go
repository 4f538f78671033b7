/*****************************************************************************************************************/

package remotefits

/*****************************************************************************************************************/

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"
)

/*****************************************************************************************************************/

const blockSize = 2880

/*****************************************************************************************************************/

// ImageHDU describes the primary or first-extension image HDU located by
// MoveToHDU: the byte offset at which pixel data begins, its dimensions,
// and its bits-per-pixel. When Compressed is true, the HDU is actually a
// FITS Tile Compression Convention binary table (XTENSION=BINTABLE,
// ZIMAGE=T) rather than a plain image array, and the Tile*/Row*/Heap*
// fields below describe how to locate and decompress its tiles.
type ImageHDU struct {
	DataOffset int64
	Width      int
	Height     int
	Bitpix     int

	Compressed      bool
	CompressionType string // e.g. "GZIP_1"; the ZCMPTYPE header value
	TileWidth       int    // ZTILE1
	TileHeight      int    // ZTILE2
	RowBytes        int64  // NAXIS1 of the compressed-data table
	HeapOffset      int64  // absolute byte offset of the table's heap
}

/*****************************************************************************************************************/

// MoveToHDU scans the FITS header blocks of the object at handle to
// locate the hdunum-th HDU (0-based: 0 is the primary HDU, 1 the first
// extension) and returns its image
// dimensions and data offset. Only primary/image HDUs and tile-compressed
// binary table HDUs are supported, matching the archive's mosaic files.
func (r *Registry) MoveToHDU(ctx context.Context, handle int, hdunum int) (*ImageHDU, error) {
	var offset int64

	for hdu := 0; ; hdu++ {
		cards, headerBytes, err := r.readHeaderBlocks(ctx, handle, offset)
		if err != nil {
			return nil, err
		}

		naxis, _ := strconv.Atoi(strings.TrimSpace(cards["NAXIS"]))

		var naxis1, naxis2 int
		if naxis >= 1 {
			naxis1, _ = strconv.Atoi(strings.TrimSpace(cards["NAXIS1"]))
		}
		if naxis >= 2 {
			naxis2, _ = strconv.Atoi(strings.TrimSpace(cards["NAXIS2"]))
		}

		bitpix, _ := strconv.Atoi(strings.TrimSpace(cards["BITPIX"]))
		pcount, _ := strconv.ParseInt(strings.TrimSpace(cards["PCOUNT"]), 10, 64)

		dataOffset := offset + int64(headerBytes)

		isCompressedTable := strings.TrimSpace(cards["XTENSION"]) == "BINTABLE" && strings.TrimSpace(cards["ZCMPTYPE"]) != ""

		if hdu == hdunum {
			if isCompressedTable {
				return moveToCompressedHDU(cards, dataOffset, naxis1, naxis2, pcount)
			}

			if naxis < 2 || naxis1 <= 0 || naxis2 <= 0 {
				return nil, fmt.Errorf("remotefits: HDU %d is not a usable 2-D image", hdunum)
			}

			return &ImageHDU{
				DataOffset: dataOffset,
				Width:      naxis1,
				Height:     naxis2,
				Bitpix:     bitpix,
			}, nil
		}

		dataBytes := int64(0)
		if naxis > 0 {
			bytesPerPixel := bitpix / 8
			if bytesPerPixel < 0 {
				bytesPerPixel = -bytesPerPixel
			}
			dataBytes = int64(naxis1) * int64(naxis2) * int64(bytesPerPixel)
		}
		dataBytes += pcount

		// FITS data segments are padded to a multiple of the 2880-byte
		// block size.
		padded := ((dataBytes + blockSize - 1) / blockSize) * blockSize

		offset = dataOffset + padded
	}
}

/*****************************************************************************************************************/

// moveToCompressedHDU builds the ImageHDU for a tile-compressed binary
// table HDU: ZNAXIS1/ZNAXIS2 give the original image's dimensions,
// ZTILE1/ZTILE2 its tiling, and THEAP (defaulting to the size of the
// main table, per the binary table convention) locates the heap holding
// each tile's compressed bytes.
func moveToCompressedHDU(cards map[string]string, tableDataOffset int64, naxis1, naxis2 int, pcount int64) (*ImageHDU, error) {
	zbitpix, _ := strconv.Atoi(strings.TrimSpace(cards["ZBITPIX"]))
	znaxis1, _ := strconv.Atoi(strings.TrimSpace(cards["ZNAXIS1"]))
	znaxis2, _ := strconv.Atoi(strings.TrimSpace(cards["ZNAXIS2"]))
	ztile1, _ := strconv.Atoi(strings.TrimSpace(cards["ZTILE1"]))
	ztile2, _ := strconv.Atoi(strings.TrimSpace(cards["ZTILE2"]))
	cmptype := strings.TrimSpace(cards["ZCMPTYPE"])

	if znaxis1 <= 0 || znaxis2 <= 0 {
		return nil, fmt.Errorf("remotefits: compressed HDU missing ZNAXIS1/ZNAXIS2")
	}
	if ztile1 <= 0 {
		ztile1 = znaxis1
	}
	if ztile2 <= 0 {
		ztile2 = 1
	}

	theap := int64(naxis1) * int64(naxis2)
	if raw, ok := cards["THEAP"]; ok && strings.TrimSpace(raw) != "" {
		if v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64); err == nil {
			theap = v
		}
	}

	_ = pcount // total heap size; not needed once HeapOffset is known

	return &ImageHDU{
		DataOffset:      tableDataOffset,
		Width:           znaxis1,
		Height:          znaxis2,
		Bitpix:          zbitpix,
		Compressed:      true,
		CompressionType: cmptype,
		TileWidth:       ztile1,
		TileHeight:      ztile2,
		RowBytes:        int64(naxis1),
		HeapOffset:      tableDataOffset + theap,
	}, nil
}

/*****************************************************************************************************************/

// readHeaderBlocks reads successive 2880-byte header blocks starting at
// offset until it finds the END card, returning the parsed keyword cards
// and the total number of header bytes consumed (always a multiple of
// 2880).
func (r *Registry) readHeaderBlocks(ctx context.Context, handle int, offset int64) (map[string]string, int, error) {
	cards := make(map[string]string)

	if err := r.Seek(handle, offset); err != nil {
		return nil, 0, err
	}

	var consumed int

	for {
		block := make([]byte, blockSize)
		if err := r.Read(ctx, handle, block); err != nil {
			return nil, 0, fmt.Errorf("remotefits: reading header block at offset %d: %w", offset+int64(consumed), err)
		}
		consumed += blockSize

		done := false

		for i := 0; i+80 <= len(block); i += 80 {
			record := string(block[i : i+80])

			key := strings.TrimSpace(record[:8])
			if key == "END" {
				done = true
				break
			}

			if len(record) >= 10 && record[8] == '=' {
				rest := record[9:]
				if idx := strings.Index(rest, "/"); idx >= 0 {
					rest = rest[:idx]
				}
				cards[key] = strings.TrimSpace(strings.Trim(strings.TrimSpace(rest), "'"))
			}
		}

		if done {
			break
		}
	}

	if err := r.Seek(handle, offset+int64(consumed)); err != nil {
		return nil, 0, err
	}

	return cards, consumed, nil
}

/*****************************************************************************************************************/

// ReadRectangle fetches the axis-aligned pixel rectangle
// [x0, x0+w) x [y0, y0+h) from a 16-bit signed-integer image HDU. For a
// tile-compressed HDU this means locating and decompressing each row's
// tile; for a plain image HDU it means one range read per row. Either
// way, reading row by row is the pattern that best matches the
// archive's actual storage layout: each scanline of a tile-compressed
// mosaic image is one compression tile.
func (r *Registry) ReadRectangle(ctx context.Context, handle int, hdu *ImageHDU, x0, y0, w, h int) ([][]int16, error) {
	if hdu.Bitpix != 16 {
		return nil, fmt.Errorf("remotefits: only 16-bit integer images are supported, got BITPIX=%d", hdu.Bitpix)
	}

	if x0 < 0 || y0 < 0 || x0+w > hdu.Width || y0+h > hdu.Height {
		return nil, fmt.Errorf("remotefits: rectangle [%d,%d)x[%d,%d) out of bounds for %dx%d image", x0, x0+w, y0, y0+h, hdu.Width, hdu.Height)
	}

	if hdu.Compressed {
		return r.readCompressedRectangle(ctx, handle, hdu, x0, y0, w, h)
	}

	out := make([][]int16, h)

	rowBytes := int64(hdu.Width) * 2

	for row := 0; row < h; row++ {
		y := y0 + row

		rowStart := hdu.DataOffset + int64(y)*rowBytes + int64(x0)*2
		raw := make([]byte, w*2)

		if err := r.Seek(handle, rowStart); err != nil {
			return nil, err
		}
		if err := r.Read(ctx, handle, raw); err != nil {
			return nil, fmt.Errorf("remotefits: reading row %d: %w", y, err)
		}

		pixels := make([]int16, w)
		for i := 0; i < w; i++ {
			pixels[i] = int16(binary.BigEndian.Uint16(raw[i*2 : i*2+2]))
		}

		out[row] = pixels
	}

	return out, nil
}

/*****************************************************************************************************************/

// readCompressedRectangle reads and decompresses the tile rows spanning
// [y0, y0+h) of a tile-compressed image HDU, slicing out columns
// [x0, x0+w) of each decompressed row. It only supports row tiling
// (ZTILE2=1), which is how the archive compresses its mosaics: each
// table row is one variable-length-array entry, whose 8-byte 'P'
// descriptor (element count, heap byte offset) precedes a heap-resident
// blob of tile-compressed bytes.
func (r *Registry) readCompressedRectangle(ctx context.Context, handle int, hdu *ImageHDU, x0, y0, w, h int) ([][]int16, error) {
	if hdu.TileHeight != 1 {
		return nil, fmt.Errorf("remotefits: only single-row tiling (ZTILE2=1) is supported, got ZTILE2=%d", hdu.TileHeight)
	}

	out := make([][]int16, h)

	for row := 0; row < h; row++ {
		y := y0 + row

		descriptor := make([]byte, 8)
		if err := r.Seek(handle, hdu.DataOffset+int64(y)*hdu.RowBytes); err != nil {
			return nil, err
		}
		if err := r.Read(ctx, handle, descriptor); err != nil {
			return nil, fmt.Errorf("remotefits: reading tile descriptor for row %d: %w", y, err)
		}

		nelem := int64(binary.BigEndian.Uint32(descriptor[0:4]))
		tileOffset := int64(binary.BigEndian.Uint32(descriptor[4:8]))

		compressed := make([]byte, nelem)
		if err := r.Seek(handle, hdu.HeapOffset+tileOffset); err != nil {
			return nil, err
		}
		if err := r.Read(ctx, handle, compressed); err != nil {
			return nil, fmt.Errorf("remotefits: reading compressed tile for row %d: %w", y, err)
		}

		raw, err := decompressTile(hdu.CompressionType, compressed)
		if err != nil {
			return nil, fmt.Errorf("remotefits: decompressing tile for row %d: %w", y, err)
		}

		want := hdu.TileWidth * 2
		if len(raw) != want {
			return nil, fmt.Errorf("remotefits: decompressed tile for row %d has %d bytes, want %d", y, len(raw), want)
		}

		pixels := make([]int16, w)
		for i := 0; i < w; i++ {
			srcIdx := (x0 + i) * 2
			pixels[i] = int16(binary.BigEndian.Uint16(raw[srcIdx : srcIdx+2]))
		}

		out[row] = pixels
	}

	return out, nil
}

/*****************************************************************************************************************/

// decompressTile decompresses a single tile's bytes according to the
// FITS Tile Compression Convention's ZCMPTYPE algorithm name. Only
// GZIP_1/GZIP_2 (whole-tile deflate, byte-for-byte what compress/gzip
// produces) are supported; RICE_1, PLIO_1, and HCOMPRESS_1 tiles are
// rejected rather than silently misdecoded.
func decompressTile(compressionType string, compressed []byte) ([]byte, error) {
	switch compressionType {
	case "GZIP_1", "GZIP_2":
		gz, err := gzip.NewReader(bytes.NewReader(compressed))
		if err != nil {
			return nil, err
		}
		defer gz.Close()

		return io.ReadAll(gz)
	default:
		return nil, fmt.Errorf("unsupported tile compression type %q", compressionType)
	}
}

/*****************************************************************************************************************/
