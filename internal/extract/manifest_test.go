// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package extract

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultManifest(t *testing.T) {
	m := DefaultManifest()
	require.NoError(t, m.Validate())
	assert.Len(t, m.Fields, 17)

	wantSeverity := map[string]Severity{
		"episodeId":            SeverityError,
		"masterBrand":          SeverityError,
		"headline":             SeverityWarn,
		"releaseDateTimeStamp": SeverityWarn,
		"language":             SeverityInfo,
		"episodeTitle":         SeverityNone,
		"pageIdentifier":       SeverityNone,
	}
	for name, sev := range wantSeverity {
		f, ok := m.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, sev, f.Severity, name)
	}

	f, _ := m.Lookup("durationISO8601")
	assert.Equal(t, "promo.media.versions.0.durationISO8601", f.Path.String())
}

func TestParseManifestRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"unknown key":     "version: v1\nfields:\n  - {name: a, path: x, severity: info, extra: 1}\n",
		"bad severity":    "version: v1\nfields:\n  - {name: a, path: x, severity: loud}\n",
		"duplicate field": "version: v1\nfields:\n  - {name: a, path: x}\n  - {name: a, path: y}\n",
		"missing version": "fields:\n  - {name: a, path: x}\n",
		"empty":           "",
		"no fields":       "version: v1\n",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseManifest([]byte(src))
			assert.Error(t, err)
		})
	}
}

func TestParseSeverity(t *testing.T) {
	for in, want := range map[string]Severity{"": SeverityNone, "INFO": SeverityInfo, "warning": SeverityWarn, "error": SeverityError} {
		got, err := ParseSeverity(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseSeverity("fatal")
	assert.Error(t, err)
}

func TestLoadManifestRejectsNonYAML(t *testing.T) {
	_, err := LoadManifest(filepath.Join(t.TempDir(), "manifest.json"))
	assert.Error(t, err)
}

func TestManifestHolderReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: v1\nfields:\n  - {name: id, path: metadata.id}\n"), 0o600))

	initial, err := LoadManifest(path)
	require.NoError(t, err)
	h := NewManifestHolder(initial, path)
	assert.Equal(t, "v1", h.Get().Version)

	require.NoError(t, os.WriteFile(path, []byte("version: v2\nfields:\n  - {name: id, path: metadata.id, severity: error}\n"), 0o600))
	require.NoError(t, h.Reload())
	assert.Equal(t, "v2", h.Get().Version)

	require.NoError(t, os.WriteFile(path, []byte("version: v3\nfields: []\n"), 0o600))
	assert.Error(t, h.Reload())
	assert.Equal(t, "v2", h.Get().Version, "invalid manifest must not replace the active one")
}

func TestManifestHolderWatcherPicksUpChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: v1\nfields:\n  - {name: id, path: metadata.id}\n"), 0o600))

	initial, err := LoadManifest(path)
	require.NoError(t, err)
	h := NewManifestHolder(initial, path)
	h.debounce = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, h.StartWatcher(ctx))

	require.NoError(t, os.WriteFile(path, []byte("version: v2\nfields:\n  - {name: id, path: metadata.id}\n"), 0o600))
	assert.Eventually(t, func() bool { return h.Get().Version == "v2" }, 3*time.Second, 20*time.Millisecond)
}

func TestStaticManifestWatcherIsNoop(t *testing.T) {
	h := StaticManifest(DefaultManifest())
	require.NoError(t, h.StartWatcher(context.Background()))
	require.NoError(t, h.Reload())
}
