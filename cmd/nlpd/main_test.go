// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/nlpd/internal/version"
)

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := execute(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "nlpd.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestVersion(t *testing.T) {
	code, out, _ := run(t, "version")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, version.Version)
}

func TestUsageErrorsExitTwo(t *testing.T) {
	code, _, stderr := run(t, "--no-such-flag")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "no-such-flag")

	code, _, _ = run(t, "stray-argument")
	assert.Equal(t, 2, code)

	code, _, _ = run(t, "config", "dump", "--format", "toml")
	assert.Equal(t, 2, code)
}

func TestBadConfigExitsOne(t *testing.T) {
	bad := writeConfig(t, "port: 8080\nunknownField: true\n")

	code, _, stderr := run(t, "--config", bad)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "unknownField")

	code, _, _ = run(t, "--default-type", "image/png")
	assert.Equal(t, 1, code)
}

func TestConfigValidate(t *testing.T) {
	good := writeConfig(t, "port: 9001\ndefaultType: text/xml\n")
	code, out, _ := run(t, "config", "validate", "-f", good)
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "is valid")

	bad := writeConfig(t, "port: -1\n")
	code, _, _ = run(t, "config", "validate", "-f", bad)
	assert.Equal(t, 1, code)
}

func TestConfigDump(t *testing.T) {
	p := writeConfig(t, "port: 9001\ncache:\n  backend: redis\n  redis:\n    addr: localhost:6379\n    password: hunter2\n")

	code, out, _ := run(t, "config", "dump", "-f", p)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "port: 9001")
	assert.NotContains(t, out, "hunter2")

	code, out, _ = run(t, "config", "dump", "-f", p, "--format", "json")
	require.Equal(t, 0, code)
	assert.Contains(t, out, `"Port": 9001`)
}

func TestOverridesOnlyChangedFlags(t *testing.T) {
	root := newRootCmd(&bytes.Buffer{}, &bytes.Buffer{})
	require.NoError(t, root.ParseFlags([]string{"--port", "9100", "--prop", "annotators=tokenize", "-p", "regexner.ignorecase=true"}))

	var f serveFlags
	f.port = 9100
	f.props = map[string]string{"annotators": "tokenize", "regexner.ignorecase": "true"}
	o := overridesFrom(root, f)

	require.NotNil(t, o.Port)
	assert.Equal(t, 9100, *o.Port)
	assert.Nil(t, o.Host)
	assert.Nil(t, o.DefaultType)
	assert.Nil(t, o.Timeout)
	assert.Equal(t, "true", o.Properties["regexner.ignorecase"])
}

func TestHealthcheck(t *testing.T) {
	var notReady atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/readyz" && notReady.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	addr := strings.TrimPrefix(srv.URL, "http://")

	code, out, _ := run(t, "healthcheck", "--addr", addr)
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "ready")

	notReady.Store(true)
	code, _, stderr := run(t, "healthcheck", "--addr", addr, "--timeout", time.Second.String())
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "503")

	code, _, _ = run(t, "healthcheck", "--addr", addr, "--mode", "live")
	assert.Equal(t, 0, code)

	code, _, _ = run(t, "healthcheck", "--mode", "sideways")
	assert.Equal(t, 2, code)
}
