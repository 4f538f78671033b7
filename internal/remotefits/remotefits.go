/*****************************************************************************************************************/

// Package remotefits adapts the archive's tile-compressed mosaic images,
// stored as objects in remote object storage, to a random-access reader
// interface: open by "bucket/key" URL, report size, seek, and read
// byte ranges. It plays the role of the FITS library's pluggable
// `s3://` I/O driver, translated from a synchronous-C-calling-async
// adapter into a small Go handle table guarded by a single mutex.
package remotefits

/*****************************************************************************************************************/

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/pkgw/dasch-science-lambda/internal/rangereader"
)

/*****************************************************************************************************************/

// S3API is the subset of the S3 client this package drives, satisfied by
// *s3.Client.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

/*****************************************************************************************************************/

type state struct {
	client S3API
	bucket string
	key    string
	offset int64
	reader *rangereader.Reader
}

/*****************************************************************************************************************/

func (s *state) GetRange(ctx context.Context, offset int64, n int) ([]byte, error) {
	end := offset + int64(n) - 1

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", offset, end)),
	})
	if err != nil {
		return nil, fmt.Errorf("remotefits: GetObject %s/%s: %w", s.bucket, s.key, err)
	}
	defer out.Body.Close()

	return io.ReadAll(out.Body)
}

/*****************************************************************************************************************/

// Registry is the process-wide table of open remote file handles,
// guarded by a single mutex for the duration of each lookup or insert,
// mirroring the driver-registration state described in spec §5.
type Registry struct {
	mu      sync.Mutex
	client  S3API
	nextID  int
	handles map[int]*state
}

/*****************************************************************************************************************/

// NewRegistry creates an empty Registry backed by client.
func NewRegistry(client S3API) *Registry {
	return &Registry{
		client:  client,
		handles: make(map[int]*state),
	}
}

/*****************************************************************************************************************/

// Open allocates a new handle for "bucket/key" and returns its id.
func (r *Registry) Open(url string) (int, error) {
	bucket, key, ok := strings.Cut(url, "/")
	if !ok {
		return 0, fmt.Errorf("remotefits: invalid filename, no slash: %q", url)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	r.nextID++

	r.handles[id] = &state{
		client: r.client,
		bucket: bucket,
		key:    key,
	}
	r.handles[id].reader = rangereader.New(r.handles[id])

	return id, nil
}

/*****************************************************************************************************************/

// Close discards a handle. Closing is a no-op beyond table bookkeeping:
// there is nothing to flush for a read-only driver.
func (r *Registry) Close(handle int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.handles, handle)
}

/*****************************************************************************************************************/

func (r *Registry) lookup(handle int) (*state, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.handles[handle]
	if !ok {
		return nil, fmt.Errorf("remotefits: no such open handle #%d", handle)
	}

	return s, nil
}

/*****************************************************************************************************************/

// Size performs a synchronous HEAD on the object and returns its content
// length.
func (r *Registry) Size(ctx context.Context, handle int) (int64, error) {
	s, err := r.lookup(handle)
	if err != nil {
		return 0, err
	}

	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return 0, fmt.Errorf("remotefits: HeadObject %s/%s: %w", s.bucket, s.key, err)
	}

	if out.ContentLength == nil {
		return 0, fmt.Errorf("remotefits: HeadObject %s/%s: no Content-Length", s.bucket, s.key)
	}

	return *out.ContentLength, nil
}

/*****************************************************************************************************************/

// Seek stores the given offset for subsequent Read calls.
func (r *Registry) Seek(handle int, offset int64) error {
	s, err := r.lookup(handle)
	if err != nil {
		return err
	}

	s.offset = offset

	return nil
}

/*****************************************************************************************************************/

// Read fills dest (sized to the desired read length) starting at the
// handle's current offset, then advances the offset by len(dest).
func (r *Registry) Read(ctx context.Context, handle int, dest []byte) error {
	s, err := r.lookup(handle)
	if err != nil {
		return err
	}

	if err := s.reader.ReadInto(ctx, s.offset, len(dest), dest); err != nil {
		return err
	}

	s.offset += int64(len(dest))

	return nil
}

/*****************************************************************************************************************/
