package stationmodule

import (
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureLogReadDeduplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "captures.log")
	content := "http://a/playlist.m3u8\n\nhttp://b/chunklist.m3u8\nhttp://a/playlist.m3u8\n  \n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	capture := NewCaptureLog(path)
	assert.Equal(t, []string{
		"http://a/playlist.m3u8",
		"http://b/chunklist.m3u8",
	}, capture.Read())
}

func TestCaptureLogReadMissingFile(t *testing.T) {
	capture := NewCaptureLog(filepath.Join(t.TempDir(), "absent.log"))
	assert.Nil(t, capture.Read())
}

func TestCaptureLogClearTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "captures.log")
	require.NoError(t, os.WriteFile(path, []byte("http://stale/playlist.m3u8\n"), 0644))

	capture := NewCaptureLog(path)
	capture.Clear()
	assert.Empty(t, capture.Read())
}

func TestProxyReachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	assert.True(t, proxyReachable(ln.Addr().String(), time.Second))

	addr := ln.Addr().String()
	ln.Close()
	assert.False(t, proxyReachable(addr, 200*time.Millisecond))
}
