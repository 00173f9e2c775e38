package usecase

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gzipBase64(t *testing.T, plain string) string {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(plain))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestDecodeBody(t *testing.T) {
	plain := `{"movementId":"MV1"}`

	t.Run("plain", func(t *testing.T) {
		got, err := DecodeBody("movement", plain, "")
		require.NoError(t, err)
		assert.Equal(t, plain, string(got))
	})

	t.Run("gzip and base64", func(t *testing.T) {
		got, err := DecodeBody("movement", gzipBase64(t, plain), "gzip, base64")
		require.NoError(t, err)
		assert.Equal(t, plain, string(got))
	})

	t.Run("unsupported encoding", func(t *testing.T) {
		_, err := DecodeBody("movement", plain, "br")
		assert.ErrorIs(t, err, ErrUnsupportedEncoding)
	})

	t.Run("invalid base64", func(t *testing.T) {
		_, err := DecodeBody("movement", "!!not base64!!", "gzip, base64")
		var decodeErr *DecodeError
		require.True(t, errors.As(err, &decodeErr))
		assert.Equal(t, "movement", decodeErr.ResourceType)
	})

	t.Run("base64 but not gzip", func(t *testing.T) {
		_, err := DecodeBody("movement", base64.StdEncoding.EncodeToString([]byte(plain)), "gzip, base64")
		var decodeErr *DecodeError
		assert.True(t, errors.As(err, &decodeErr))
	})
}
