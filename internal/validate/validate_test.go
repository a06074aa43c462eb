// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package validate

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_URL(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"valid http", "http://localhost:9000", false},
		{"valid https", "https://corenlp.example.com", false},
		{"empty url", "", true},
		{"no host", "http://", true},
		{"invalid scheme", "ftp://example.com", true},
		{"no scheme", "example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.URL("corenlp.url", tt.value, []string{"http", "https"})
			assert.Equal(t, tt.wantErr, !v.IsValid(), "errors: %v", v.Err())
		})
	}
}

func TestValidator_PortAndListenAddr(t *testing.T) {
	for _, p := range []int{1, 80, 65535} {
		v := New()
		v.Port("port", p)
		assert.True(t, v.IsValid(), "port %d", p)
	}
	for _, p := range []int{0, -1, 65536} {
		v := New()
		v.Port("port", p)
		assert.False(t, v.IsValid(), "port %d", p)
	}

	tests := []struct {
		addr    string
		wantErr bool
	}{
		{":9090", false},
		{"127.0.0.1:9090", false},
		{"9090", true},
		{":http", true},
		{":0", true},
	}
	for _, tt := range tests {
		v := New()
		v.ListenAddr("metrics.listenAddr", tt.addr)
		assert.Equal(t, tt.wantErr, !v.IsValid(), "addr %q", tt.addr)
	}
}

func TestValidator_Numbers(t *testing.T) {
	v := New()
	v.Range("r", 5, 1, 10)
	v.Positive("p", 1)
	v.NonNegative("n", 0)
	v.Fraction("f", 0.5)
	v.MinDuration("d", time.Second, time.Millisecond)
	require.True(t, v.IsValid())

	v.Range("r", 11, 1, 10)
	v.Positive("p", 0)
	v.NonNegative("n", -1)
	v.Fraction("f", 1.5)
	v.MinDuration("d", 0, time.Millisecond)
	assert.Len(t, v.Errors(), 5)
}

func TestValidator_File(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "rules.tsv")
	require.NoError(t, os.WriteFile(file, []byte("x\tY\n"), 0o600))

	v := New()
	v.File("mapping", file)
	assert.True(t, v.IsValid())

	v.File("mapping", "")
	v.File("mapping", filepath.Join(dir, "missing"))
	v.File("mapping", dir)
	assert.Len(t, v.Errors(), 3)
}

func TestValidator_DirectoryCreates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", "badger")

	v := New()
	v.Directory("cache.path", path, false)
	require.True(t, v.IsValid(), "%v", v.Err())
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	v.Directory("cache.path", filepath.Join(t.TempDir(), "nope"), true)
	assert.False(t, v.IsValid())
}

func TestValidator_OneOfAndLogLevel(t *testing.T) {
	v := New()
	v.OneOf("errors.mode", "problem", []string{"problem", "legacy"})
	v.LogLevel("log.level", "")
	v.LogLevel("log.level", "warn")
	require.True(t, v.IsValid())

	v.OneOf("errors.mode", "silent", []string{"problem", "legacy"})
	v.LogLevel("log.level", "verbose")
	assert.Len(t, v.Errors(), 2)
}

func TestValidationErrorAggregates(t *testing.T) {
	v := New()
	assert.NoError(t, v.Err())

	v.NotEmpty("host", " ")
	err := v.Err()
	require.Error(t, err)
	assert.Equal(t, "validation failed for host: value cannot be empty", err.Error())

	v.Custom("defaultType", "image/png", func(any) error { return errors.New("not renderable") })
	err = v.Err()

	var ve ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Errors(), 2)
	assert.Contains(t, err.Error(), "; ")
	assert.Contains(t, err.Error(), "not renderable")
}
