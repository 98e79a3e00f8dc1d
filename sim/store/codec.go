package store

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects how artefact payloads are compressed.
type Compression uint8

const (
	CompressionNone Compression = 0
	CompressionLZ4  Compression = 1
	CompressionZSTD Compression = 2
)

var compressionNames = map[string]Compression{
	"none": CompressionNone,
	"lz4":  CompressionLZ4,
	"zstd": CompressionZSTD,
}

// ParseCompression maps a configuration name to a Compression.
func ParseCompression(name string) (Compression, error) {
	c, ok := compressionNames[name]
	if !ok {
		return 0, fmt.Errorf("unknown codec %q; valid: none, lz4, zstd", name)
	}
	return c, nil
}

func (c Compression) String() string {
	for name, v := range compressionNames {
		if v == c {
			return name
		}
	}
	return fmt.Sprintf("compression(%d)", uint8(c))
}

// Artefact header: [magic 4][compression 1][uncompressed uint32][stored uint32].
// stored == 0 means the payload is kept uncompressed.
var magic = [4]byte{'N', 'P', 'S', '1'}

const headerSize = 13

// ErrCorrupt is returned for payloads that do not carry a valid header.
var ErrCorrupt = errors.New("corrupt artefact")

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// Codec encodes values as JSON and wraps them in a compressed, self-describing
// envelope. Safe for concurrent use.
type Codec struct {
	Compression Compression
}

// Encode marshals v and compresses the result.
func (c Codec) Encode(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return c.compress(raw)
}

// Decode reverses Encode. The compression is read from the header, so data
// written with any codec can be decoded.
func (c Codec) Decode(data []byte, v any) error {
	raw, err := decompress(data)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func (c Codec) compress(raw []byte) ([]byte, error) {
	var packed []byte
	switch c.Compression {
	case CompressionNone:
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(raw)))
		n, err := lz4.CompressBlock(raw, buf, nil)
		if err != nil {
			return nil, err
		}
		packed = buf[:n]
	case CompressionZSTD:
		enc := getZstdEncoder()
		packed = enc.EncodeAll(raw, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, fmt.Errorf("unknown compression %d", c.Compression)
	}

	// Incompressible payloads are stored as is.
	stored := len(packed)
	if stored == 0 || stored >= len(raw) {
		stored = 0
	}

	out := make([]byte, headerSize, headerSize+max(stored, len(raw)))
	copy(out, magic[:])
	out[4] = byte(c.Compression)
	binary.LittleEndian.PutUint32(out[5:], uint32(len(raw)))
	binary.LittleEndian.PutUint32(out[9:], uint32(stored))
	if stored == 0 {
		return append(out, raw...), nil
	}
	return append(out, packed...), nil
}

func decompress(data []byte) ([]byte, error) {
	if len(data) < headerSize || !bytes.Equal(data[:4], magic[:]) {
		return nil, fmt.Errorf("%w: missing header", ErrCorrupt)
	}
	comp := Compression(data[4])
	size := binary.LittleEndian.Uint32(data[5:])
	stored := binary.LittleEndian.Uint32(data[9:])
	body := data[headerSize:]

	if stored == 0 {
		if uint32(len(body)) != size {
			return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrCorrupt, size, len(body))
		}
		return body, nil
	}
	if uint32(len(body)) != stored {
		return nil, fmt.Errorf("%w: expected %d compressed bytes, got %d", ErrCorrupt, stored, len(body))
	}

	out := make([]byte, size)
	switch comp {
	case CompressionLZ4:
		n, err := lz4.UncompressBlock(body, out)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		out = out[:n]
	case CompressionZSTD:
		dec := getZstdDecoder()
		decoded, err := dec.DecodeAll(body, out[:0])
		zstdDecoderPool.Put(dec)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		out = decoded
	default:
		return nil, fmt.Errorf("%w: unknown compression %d", ErrCorrupt, comp)
	}
	if uint32(len(out)) != size {
		return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
	}
	return out, nil
}
