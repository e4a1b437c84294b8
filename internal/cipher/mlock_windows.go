//go:build windows

package cipher

// mlock attempts to lock the memory region containing the data.
// Not supported on Windows; the data is still zeroed on Destroy.
func mlock(_ []byte) bool {
	return false
}

// munlock unlocks the memory region.
func munlock(_ []byte) {}
