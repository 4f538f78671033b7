/*****************************************************************************************************************/

// Package fitsimage builds the archive's in-memory binary image files:
// headers plus a 16-bit-integer pixel plane, emitted as a byte stream.
package fitsimage

/*****************************************************************************************************************/

import (
	"bytes"
	"fmt"

	"github.com/observerly/iris/pkg/fits"
)

/*****************************************************************************************************************/

// noCopy marks Builder as non-movable after construction, the idiomatic
// Go analogue of the underlying image library retaining a raw pointer
// into the builder's buffer fields for its reallocation callback: once
// created, a Builder must only ever be referenced through its pointer,
// never copied by value. go vet's copylocks check flags accidental
// copies of any type embedding sync.noCopy-shaped values; this mirrors
// that convention for our own non-movability invariant.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

/*****************************************************************************************************************/

// Builder constructs a single in-memory FITS primary HDU: a square,
// 16-bit signed-integer image with caller-supplied header cards. A
// Builder is created via NewBuilder and must be addressed only by
// pointer for its entire lifetime; it is disposed of by Into, which
// consumes it.
type Builder struct {
	_ noCopy

	image *fits.FITSImage
	size  int
}

/*****************************************************************************************************************/

// NewBuilder allocates a new in-memory builder for a size x size, 16-bit
// signed integer image. The returned Builder must not be copied; always
// hold and pass it by pointer.
func NewBuilder(size int) (*Builder, error) {
	if size <= 0 {
		return nil, fmt.Errorf("fitsimage: image size must be positive, got %d", size)
	}

	image := fits.NewFITSImage(16, size, size, 65535)

	return &Builder{
		image: image,
		size:  size,
	}, nil
}

/*****************************************************************************************************************/

// SetString sets (or overwrites) a string-valued header keyword.
func (b *Builder) SetString(key, value, comment string) {
	b.image.Header.Set(key, value, comment)
}

/*****************************************************************************************************************/

// SetFloat sets (or overwrites) a float64-valued header keyword.
func (b *Builder) SetFloat(key string, value float64, comment string) {
	b.image.Header.Set(key, value, comment)
}

/*****************************************************************************************************************/

// SetInt sets (or overwrites) an integer-valued header keyword.
func (b *Builder) SetInt(key string, value int, comment string) {
	b.image.Header.Set(key, value, comment)
}

/*****************************************************************************************************************/

// WritePixels writes a size x size plane of 16-bit signed pixel values
// into the image's data array, in row-major (FITS Fortran) order.
func (b *Builder) WritePixels(pixels [][]int16) error {
	if len(pixels) != b.size {
		return fmt.Errorf("fitsimage: expected %d rows, got %d", b.size, len(pixels))
	}

	data := make([]float32, 0, b.size*b.size)

	for _, row := range pixels {
		if len(row) != b.size {
			return fmt.Errorf("fitsimage: expected %d columns, got %d", b.size, len(row))
		}
		for _, v := range row {
			data = append(data, float32(v))
		}
	}

	b.image.Data = data

	return nil
}

/*****************************************************************************************************************/

// Into flushes the builder and returns its complete byte stream. The
// Builder must not be used again afterward.
func (b *Builder) Into() ([]byte, error) {
	buf, err := b.image.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("fitsimage: emitting byte stream: %w", err)
	}

	var out bytes.Buffer
	out.Write(buf)

	return out.Bytes(), nil
}

/*****************************************************************************************************************/
