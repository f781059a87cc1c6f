//go:build unix

package util

import "golang.org/x/sys/unix"

// Usage returns total, used, and free bytes for the filesystem at path.
func Usage(path string) (total, used, free uint64, err error) {
	var st unix.Statfs_t
	if err = unix.Statfs(path, &st); err != nil {
		return
	}

	// Bsize is portable across UNIXes; Frsize exists on Linux only.
	bsize := uint64(st.Bsize)

	total = bsize * uint64(st.Blocks)
	free = bsize * uint64(st.Bavail) // space available to unprivileged user
	used = total - free
	return
}
