//go:build !linux

package helpers

// GetTotalSystemMemoryMB is not implemented off Linux.
func GetTotalSystemMemoryMB() int {
	return 0
}
