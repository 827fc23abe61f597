package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/diskfs/go-memfs/filesystem/treefs"
	"github.com/go-test/deep"
	"github.com/sirupsen/logrus"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "memfs.yaml")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(EnvConfigFile, "")
	c, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if diff := deep.Equal(c, Default()); diff != nil {
		t.Errorf("Load() = %v", diff)
	}
}

func TestLoadFileThenEnvironment(t *testing.T) {
	p := writeConfig(t, `
imageDir: /var/lib/memfs
mountpoint: /mnt/memfs
log:
  level: debug
volume:
  blockSize: 512
  blockCount: 400
  preallocate: false
  layout: flat
  compression: zstd
`)
	t.Setenv("MEMFS_VOLUME_BLOCK_COUNT", "800")
	t.Setenv("MEMFS_LOG_FORMAT", "json")
	c, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	expected := Default()
	expected.ImageDir = "/var/lib/memfs"
	expected.Mountpoint = "/mnt/memfs"
	expected.Log = Log{Level: "debug", Format: "json"}
	expected.Volume.BlockSize = 512
	expected.Volume.BlockCount = 800
	expected.Volume.Preallocate = false
	expected.Volume.Layout = "flat"
	expected.Volume.Compression = "zstd"
	if diff := deep.Equal(c, expected); diff != nil {
		t.Errorf("Load() = %v", diff)
	}

	params, err := c.Params()
	if err != nil {
		t.Fatal(err)
	}
	if params.BlockSize != 512 || params.BlockCount != 800 || !params.NoPreallocate ||
		params.Layout != treefs.LayoutFlat || params.Compression != treefs.CompressionZstd {
		t.Errorf("unexpected params %+v", params)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown field", "volume:\n  blokSize: 512\n"},
		{"bad layout", "volume:\n  layout: btree\n"},
		{"bad compression", "volume:\n  compression: brotli\n"},
		{"bad uuid", "volume:\n  uuid: nope\n"},
		{"bad level", "log:\n  level: loud\n"},
		{"bad format", "log:\n  format: xml\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Errorf("expected an error")
			}
		})
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("expected an error for a missing file")
	}
}

func TestLogger(t *testing.T) {
	c := Default()
	c.Log = Log{Level: "warn", Format: "json"}
	var buf bytes.Buffer
	l, err := c.Logger(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if l.GetLevel() != logrus.WarnLevel {
		t.Errorf("level %s", l.GetLevel())
	}
	l.Info("hidden")
	l.WithField("k", "v").Warn("shown")
	if out := buf.String(); !bytes.Contains(buf.Bytes(), []byte(`"k":"v"`)) || bytes.Contains(buf.Bytes(), []byte("hidden")) {
		t.Errorf("unexpected output %q", out)
	}
}
