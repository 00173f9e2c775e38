package usecase

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"movement-hold-service/internal/domain/entity"
)

// DecodeBody turns a message body into plain JSON according to its content encoding.
// An empty encoding means the body already is plain JSON.
func DecodeBody(resourceType, body, contentEncoding string) ([]byte, error) {
	switch strings.TrimSpace(contentEncoding) {
	case "":
		return []byte(body), nil
	case entity.ContentEncodingGzipBase64:
		compressed, err := base64.StdEncoding.DecodeString(strings.TrimSpace(body))
		if err != nil {
			return nil, &DecodeError{ResourceType: resourceType, Err: fmt.Errorf("invalid base64 body: %w", err)}
		}

		zr, err := gzip.NewReader(bytes.NewReader(compressed))
		if err != nil {
			return nil, &DecodeError{ResourceType: resourceType, Err: fmt.Errorf("invalid gzip body: %w", err)}
		}
		defer zr.Close()

		plain, err := io.ReadAll(zr)
		if err != nil {
			return nil, &DecodeError{ResourceType: resourceType, Err: fmt.Errorf("invalid gzip body: %w", err)}
		}
		return plain, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, contentEncoding)
	}
}
