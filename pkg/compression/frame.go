package compression

import (
	"bytes"

	"github.com/ajitpratap0/launchpad/pkg/errors"
)

// frameSeparator ends the algorithm header of a frame
const frameSeparator = '\n'

// Seal compresses payload with algo and prefixes the algorithm name, so
// Open can decode the frame without knowing which codec wrote it.
func Seal(algo Algorithm, payload []byte) ([]byte, error) {
	comp, err := NewCompressor(&Config{Algorithm: algo, Level: Default})
	if err != nil {
		return nil, err
	}
	compressed, err := comp.Compress(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to compress").
			WithDetail("algorithm", algo)
	}

	var buf bytes.Buffer
	buf.Grow(len(algo) + 1 + len(compressed))
	buf.WriteString(string(algo))
	buf.WriteByte(frameSeparator)
	buf.Write(compressed)
	return buf.Bytes(), nil
}

// Open decodes a frame written by Seal and reports the algorithm it used.
// Malformed frames yield ErrorTypeValidation errors.
func Open(frame []byte) ([]byte, Algorithm, error) {
	i := bytes.IndexByte(frame, frameSeparator)
	if i <= 0 {
		return nil, "", errors.New(errors.ErrorTypeValidation, "frame has no algorithm header")
	}

	algo, err := ParseAlgorithm(string(frame[:i]))
	if err != nil {
		return nil, "", err
	}
	comp, err := NewCompressor(&Config{Algorithm: algo, Level: Default})
	if err != nil {
		return nil, "", err
	}
	payload, err := comp.Decompress(frame[i+1:])
	if err != nil {
		return nil, algo, errors.Wrap(err, errors.ErrorTypeValidation, "corrupt frame").
			WithDetail("algorithm", algo)
	}
	return payload, algo, nil
}
