package fusefs

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/diskfs/go-memfs/backend/memory"
	"github.com/diskfs/go-memfs/filesystem/treefs"
)

// fuseAvailable checks whether /dev/fuse is accessible. Tests that need a real FUSE mount
// call this and skip if the device is absent.
func fuseAvailable(t *testing.T) {
	t.Helper()
	if _, err := os.Stat("/dev/fuse"); err != nil {
		t.Skip("skipping: /dev/fuse not available")
	}
}

func testMount(t *testing.T) (string, *treefs.FileSystem, *memory.Storage) {
	t.Helper()
	fuseAvailable(t)
	storage := memory.New()
	fs, err := treefs.Create(storage, &treefs.Params{NoPreallocate: true})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	mountpoint := filepath.Join(t.TempDir(), "mount")
	server, err := Mount(Options{Mountpoint: mountpoint, FileSystem: fs})
	if err != nil {
		t.Skipf("skipping: cannot mount: %v", err)
	}
	t.Cleanup(func() {
		if err := server.Unmount(); err != nil {
			t.Errorf("Unmount: %v", err)
		}
	})
	return mountpoint, fs, storage
}

func TestMountReadWrite(t *testing.T) {
	mountpoint, fs, storage := testMount(t)

	dir := filepath.Join(mountpoint, "dir")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	content := bytes.Repeat([]byte("0123456789"), 250)
	if err := os.WriteFile(filepath.Join(dir, "file"), content, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := fs.ReadFile("/dir/file", 0)
	if err != nil {
		t.Fatalf("engine read: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("engine holds %d bytes, expected %d", len(got), len(content))
	}
	read, err := os.ReadFile(filepath.Join(dir, "file"))
	if err != nil || !bytes.Equal(read, content) {
		t.Errorf("read back %d bytes, %v", len(read), err)
	}
	if storage.Saves() < 3 {
		t.Errorf("only %d saves after mkdir, create and write", storage.Saves())
	}

	if err := os.Rename(filepath.Join(dir, "file"), filepath.Join(mountpoint, "moved")); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if _, err := fs.Stat("/moved"); err != nil {
		t.Errorf("engine does not see the moved file: %v", err)
	}
	entries, err := os.ReadDir(mountpoint)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	names := map[string]bool{}
	for _, e := range entries {
		names[e.Name()] = true
	}
	if !names["dir"] || !names["moved"] || len(names) != 2 {
		t.Errorf("unexpected entries %v", names)
	}

	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(dir); !errors.Is(err, syscall.ENOTEMPTY) {
		t.Errorf("removing a non-empty directory: %v, expected ENOTEMPTY", err)
	}
	if err := os.Remove(filepath.Join(dir, "sub")); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(dir); err != nil {
		t.Errorf("removing an empty directory: %v", err)
	}
	if err := fs.Check(); err != nil {
		t.Errorf("Check: %v", err)
	}
}
