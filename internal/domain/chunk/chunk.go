// Package chunk selects and inflates film chunks.
//
// A match manifest lists chunks of three declared types. Summary chunks are
// the ones whose event records carry weapon identifiers, so classification
// prefers them and falls back to gameplay chunks when no summary chunk is
// present. Chunk bytes arrive compressed with a deflate-family algorithm;
// newer film revisions have been observed with gzip and zstd framing, so the
// decompressor sniffs the header instead of assuming zlib.
package chunk

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"

	"github.com/strafelab/filmdec/internal/domain/model"
)

// Decompressed payloads run a few hundred KB to a few MB; the default limit
// leaves generous headroom without letting a corrupt length field allocate
// unbounded memory.
const defaultInflateLimit = 64 << 20

// DefaultPreference decodes summary chunks first and falls back to gameplay.
// Bootstrap chunks never contain event records.
var DefaultPreference = []model.ChunkType{model.ChunkSummary, model.ChunkGameplay}

// Classify returns manifest entries of the first preferred type that is
// present, ordered by chunk index. An empty result means the manifest holds
// no decodable chunk of any preferred type.
func Classify(entries []model.ChunkManifestEntry, preference []model.ChunkType) []model.ChunkManifestEntry {
	if len(preference) == 0 {
		preference = DefaultPreference
	}
	for _, want := range preference {
		var selected []model.ChunkManifestEntry
		for _, e := range entries {
			if e.DeclaredType == want {
				selected = append(selected, e)
			}
		}
		if len(selected) > 0 {
			sort.Slice(selected, func(i, j int) bool {
				return selected[i].ChunkIndex < selected[j].ChunkIndex
			})
			return selected
		}
	}
	return nil
}

// Decompressor inflates raw chunk bytes into their uncompressed payload.
// It is stateless apart from configuration and safe for concurrent use.
type Decompressor struct {
	inflateLimit int64
}

// NewDecompressor creates a decompressor with configuration options.
func NewDecompressor(opts ...Option) *Decompressor {
	d := &Decompressor{
		inflateLimit: defaultInflateLimit,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Compression framing magic numbers.
var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Decompress inflates raw into its uncompressed binary payload. Input that
// does not begin with a recognizable compression header, or that truncates
// mid-stream, fails with ErrMalformedChunk. The transformation is pure.
func (d *Decompressor) Decompress(raw []byte) ([]byte, error) {
	if len(raw) < 2 {
		return nil, fmt.Errorf("%w: %d bytes", ErrMalformedChunk, len(raw))
	}

	var (
		r   io.Reader
		err error
	)
	switch {
	case bytes.HasPrefix(raw, zstdMagic):
		var zr *zstd.Decoder
		zr, err = zstd.NewReader(bytes.NewReader(raw))
		if err == nil {
			defer zr.Close()
			r = zr
		}
	case bytes.HasPrefix(raw, gzipMagic):
		var gr *gzip.Reader
		gr, err = gzip.NewReader(bytes.NewReader(raw))
		if err == nil {
			defer gr.Close()
			r = gr
		}
	case isZlibHeader(raw):
		var zr io.ReadCloser
		zr, err = zlib.NewReader(bytes.NewReader(raw))
		if err == nil {
			defer zr.Close()
			r = zr
		}
	default:
		return nil, fmt.Errorf("%w: unrecognized compression header %02x %02x", ErrMalformedChunk, raw[0], raw[1])
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedChunk, err)
	}

	payload, err := io.ReadAll(io.LimitReader(r, d.inflateLimit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedChunk, err)
	}
	if int64(len(payload)) > d.inflateLimit {
		return nil, fmt.Errorf("%w: limit %d bytes", ErrPayloadTooLarge, d.inflateLimit)
	}
	return payload, nil
}

// isZlibHeader reports whether b starts with a valid zlib stream header:
// low nibble of CMF is 8 (deflate) and the CMF/FLG pair is a multiple of 31.
func isZlibHeader(b []byte) bool {
	return b[0]&0x0f == 8 && (uint16(b[0])<<8|uint16(b[1]))%31 == 0
}
