package util

import "os"

// IsUserExecutable reports whether info describes a regular file with the
// owner execute bit set.
func IsUserExecutable(info os.FileInfo) bool {
	return info.Mode().IsRegular() && info.Mode().Perm()&0o100 != 0
}
