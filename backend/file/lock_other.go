//go:build !unix

package file

import "os"

// advisory locks are not available, a second process opening the same images is not detected
func lockFile(_ *os.File) error { return nil }

func unlockFile(_ *os.File) error { return nil }
