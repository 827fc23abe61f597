// Package config loads the settings of the memfs tools: a YAML file, then MEMFS_* environment
// variables on top of it. Command line flags are applied by the caller last.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/diskfs/go-memfs/filesystem/treefs"
	"github.com/google/uuid"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	// EnvPrefix prefixes every environment variable read by Load
	EnvPrefix = "MEMFS"
	// EnvConfigFile names the config file when no path is passed to Load
	EnvConfigFile = EnvPrefix + "_CONFIG_FILE"
)

// Config holds everything the tools can be configured with
type Config struct {
	// ImageDir holds the tree and superblock images
	ImageDir   string `envconfig:"IMAGE_DIR"   yaml:"imageDir"`
	Mountpoint string `envconfig:"MOUNTPOINT"  yaml:"mountpoint"`
	AllowOther bool   `envconfig:"ALLOW_OTHER" yaml:"allowOther"`
	// FuseDebug logs every FUSE request
	FuseDebug bool   `envconfig:"FUSE_DEBUG" yaml:"fuseDebug"`
	Log       Log    `envconfig:"LOG"        yaml:"log"`
	Volume    Volume `envconfig:"VOLUME"     yaml:"volume"`
}

// Log configures the logger
type Log struct {
	Level  string `envconfig:"LEVEL"  yaml:"level"`
	Format string `envconfig:"FORMAT" yaml:"format"`
}

// Volume is the geometry and encoding used when a filesystem is created
type Volume struct {
	BlockSize     uint32 `envconfig:"BLOCK_SIZE"      yaml:"blockSize"`
	BlockCount    uint32 `envconfig:"BLOCK_COUNT"     yaml:"blockCount"`
	InodeCount    uint32 `envconfig:"INODE_COUNT"     yaml:"inodeCount"`
	BlocksPerFile uint32 `envconfig:"BLOCKS_PER_FILE" yaml:"blocksPerFile"`
	Preallocate   bool   `envconfig:"PREALLOCATE"     yaml:"preallocate"`
	Layout        string `envconfig:"LAYOUT"          yaml:"layout"`
	Compression   string `envconfig:"COMPRESSION"     yaml:"compression"`
	UUID          string `envconfig:"UUID"            yaml:"uuid"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		ImageDir: ".",
		Log: Log{
			Level:  "info",
			Format: "text",
		},
		Volume: Volume{
			BlockSize:     treefs.DefaultBlockSize,
			BlockCount:    treefs.DefaultBlockCount,
			InodeCount:    treefs.DefaultInodeCount,
			BlocksPerFile: treefs.DefaultBlocksPerFile,
			Preallocate:   true,
			Layout:        treefs.LayoutTree.String(),
			Compression:   treefs.CompressionNone.String(),
		},
	}
}

// Load starts from Default, applies the YAML file at path and then the environment.
// An empty path falls back to $MEMFS_CONFIG_FILE; if that is unset too no file is read.
// A named file that does not exist is an error.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := c.decode(data); err != nil {
			return nil, fmt.Errorf("unmarshaling config file %s: %w", path, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return nil, fmt.Errorf("parsing environment variables: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks the values that are parsed later
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format: must be text or json, not %q", c.Log.Format)
	}
	if _, err := c.Params(); err != nil {
		return err
	}
	return nil
}

// Params converts the volume settings into treefs.Params
func (c *Config) Params() (*treefs.Params, error) {
	v := c.Volume
	layout, err := treefs.ParseLayout(v.Layout)
	if err != nil {
		return nil, fmt.Errorf("volume.layout: %w", err)
	}
	compression, err := treefs.ParseCompression(v.Compression)
	if err != nil {
		return nil, fmt.Errorf("volume.compression: %w", err)
	}
	p := &treefs.Params{
		BlockSize:     v.BlockSize,
		BlockCount:    v.BlockCount,
		InodeCount:    v.InodeCount,
		BlocksPerFile: v.BlocksPerFile,
		NoPreallocate: !v.Preallocate,
		Layout:        layout,
		Compression:   compression,
	}
	if v.UUID != "" {
		id, err := uuid.Parse(v.UUID)
		if err != nil {
			return nil, fmt.Errorf("volume.uuid: %w", err)
		}
		p.UUID = &id
	}
	return p, nil
}

// Logger builds the logger described by the log settings, writing to w
func (c *Config) Logger(w io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(level)
	switch c.Log.Format {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("log.format: must be text or json, not %q", c.Log.Format)
	}
	return l, nil
}
