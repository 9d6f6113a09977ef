package stationmodule

import (
	"net"
	"os"
	"strings"
	"time"

	"github.com/mediahubpy/mediahub/internal/logger"
)

// CaptureLog wraps the passive-capture proxy's output file: one manifest
// URL per line, appended by the proxy as the browsed page fetches streams.
type CaptureLog struct {
	path string
}

// NewCaptureLog points at the proxy's log file.
func NewCaptureLog(path string) *CaptureLog {
	return &CaptureLog{path: path}
}

// Clear truncates the log before a discovery run so stale captures from a
// previous session cannot leak in.
func (c *CaptureLog) Clear() {
	if err := os.WriteFile(c.path, nil, 0644); err != nil {
		logger.Warn("could not clear capture log", "path", c.path, "error", err)
	}
}

// Read returns the unique non-empty captured URLs in file order.
func (c *CaptureLog) Read() []string {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("could not read capture log", "path", c.path, "error", err)
		}
		return nil
	}

	seen := make(map[string]struct{})
	var urls []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		urls = append(urls, line)
	}
	return urls
}

// proxyReachable dials the capture proxy; discovery fails fast before any
// browser launch when the proxy is down.
func proxyReachable(host string, timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", host, timeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
