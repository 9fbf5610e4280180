package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetectMIME(t *testing.T) {
	t.Parallel()

	pngHeader := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	require.Equal(t, "image/png", DetectMIME(pngHeader))

	require.Contains(t, DetectMIME([]byte("plain text content")), "text/plain")
}

func TestIsImageMIME(t *testing.T) {
	t.Parallel()

	require.True(t, IsImageMIME("image/png"))
	require.True(t, IsImageMIME(" IMAGE/JPEG "))
	require.False(t, IsImageMIME("application/pdf"))
	require.False(t, IsImageMIME(""))
}

func TestIsTextMIME(t *testing.T) {
	t.Parallel()

	require.True(t, IsTextMIME("text/plain; charset=utf-8"))
	require.True(t, IsTextMIME("application/json"))
	require.True(t, IsTextMIME("application/xml"))
	require.False(t, IsTextMIME("image/png"))
	require.False(t, IsTextMIME("application/octet-stream"))
}

func TestIsThumbnailMIME(t *testing.T) {
	t.Parallel()

	require.True(t, IsThumbnailMIME("image/jpeg"))
	require.True(t, IsThumbnailMIME("image/png; charset=binary"))
	require.True(t, IsThumbnailMIME("image/webp"))
	require.False(t, IsThumbnailMIME("image/svg+xml"))
	require.False(t, IsThumbnailMIME("application/pdf"))
}
