package artifact

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the frame compression for artifact payloads.
type Compression uint8

const (
	// CompressionNone stores payloads uncompressed.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression (fast).
	CompressionLZ4 Compression = 1
	// CompressionZSTD uses ZSTD block compression (better ratio).
	CompressionZSTD Compression = 2
)

// Frame format: [Compression uint8][UncompressedSize uint32][CompressedSize uint32][Data...]
// CompressedSize == 0 means the data is stored uncompressed; the frame is
// self-describing, so a reader needs no out-of-band knowledge.
const frameHeaderSize = 9

// ZSTD encoder/decoder pools for efficiency.
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

// Compress frames data with the given compression. Payloads that do not
// compress well (ratio above 0.9) are stored uncompressed inside the frame.
func Compress(data []byte, compression Compression) ([]byte, error) {
	var compressed []byte
	var err error

	switch compression {
	case CompressionNone:
		// Framed but uncompressed.
	case CompressionLZ4:
		compressed, err = compressLZ4(data)
	case CompressionZSTD:
		compressed = compressZSTD(data)
	default:
		return nil, fmt.Errorf("unknown compression: %d", compression)
	}
	if err != nil {
		return nil, err
	}

	if len(compressed) == 0 || float64(len(compressed)) > float64(len(data))*0.9 {
		return frame(CompressionNone, data, nil), nil
	}

	return frame(compression, data, compressed), nil
}

// Decompress unframes data produced by Compress.
func Decompress(data []byte) ([]byte, error) {
	if len(data) < frameHeaderSize {
		return nil, errors.New("frame too small for header")
	}

	compression := Compression(data[0])
	uncompressedSize := binary.LittleEndian.Uint32(data[1:])
	compressedSize := binary.LittleEndian.Uint32(data[5:])
	body := data[frameHeaderSize:]

	if compressedSize == 0 {
		if uint32(len(body)) < uncompressedSize {
			return nil, errors.New("frame body too small")
		}
		return body[:uncompressedSize], nil
	}

	if uint32(len(body)) < compressedSize {
		return nil, errors.New("frame body too small")
	}
	body = body[:compressedSize]

	switch compression {
	case CompressionLZ4:
		out := make([]byte, uncompressedSize)
		n, err := lz4.UncompressBlock(body, out)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		return out[:n], nil
	case CompressionZSTD:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)

		out, err := dec.DecodeAll(body, make([]byte, 0, uncompressedSize))
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown compression: %d", compression)
	}
}

func frame(compression Compression, data, compressed []byte) []byte {
	body := compressed
	compressedSize := uint32(len(compressed))
	if compressed == nil {
		body = data
		compressedSize = 0
	}

	out := make([]byte, frameHeaderSize+len(body))
	out[0] = byte(compression)
	binary.LittleEndian.PutUint32(out[1:], uint32(len(data)))
	binary.LittleEndian.PutUint32(out[5:], compressedSize)
	copy(out[frameHeaderSize:], body)

	return out
}

func compressLZ4(data []byte) ([]byte, error) {
	compressed := make([]byte, lz4.CompressBlockBound(len(data)))

	n, err := lz4.CompressBlock(data, compressed, nil)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil // incompressible
	}

	return compressed[:n], nil
}

func compressZSTD(data []byte) []byte {
	enc := getZstdEncoder()
	defer zstdEncoderPool.Put(enc)

	return enc.EncodeAll(data, nil)
}
