package rerank

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// Cached vectors are stored as a little-endian blob: an int32 length
// prefix followed by the float32 components.

// ErrInvalidVector is returned for malformed vector blobs.
var ErrInvalidVector = errors.New("invalid vector")

// EncodeVector encodes a float32 vector to bytes.
func EncodeVector(vector []float32) ([]byte, error) {
	if vector == nil {
		return nil, ErrInvalidVector
	}
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, int32(len(vector))); err != nil {
		return nil, fmt.Errorf("encode vector length: %w", err)
	}
	if err := binary.Write(buf, binary.LittleEndian, vector); err != nil {
		return nil, fmt.Errorf("encode vector values: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeVector decodes bytes back to a float32 vector.
func DecodeVector(data []byte) ([]float32, error) {
	if len(data) < 4 {
		return nil, ErrInvalidVector
	}
	buf := bytes.NewReader(data)
	var length int32
	if err := binary.Read(buf, binary.LittleEndian, &length); err != nil {
		return nil, fmt.Errorf("decode vector length: %w", err)
	}
	if length < 0 || buf.Len() < int(length)*4 {
		return nil, ErrInvalidVector
	}
	vector := make([]float32, length)
	if err := binary.Read(buf, binary.LittleEndian, &vector); err != nil {
		return nil, fmt.Errorf("decode vector values: %w", err)
	}
	return vector, nil
}
