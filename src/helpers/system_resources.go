package helpers

import (
	"runtime/debug"

	"satoshi-drop/src/logger"
)

const (
	minMemoryLimitMB = 64
	memoryShare      = 0.75
)

// -----------------------------------------------------------------------------

// GetRecommendedMemoryLimit returns 75% of the memory available to the
// process in MB, or 0 when it cannot be determined.
func GetRecommendedMemoryLimit() int {
	totalMB := GetTotalSystemMemoryMB()
	if totalMB <= 0 {
		return 0
	}

	limit := int(float64(totalMB) * memoryShare)
	if limit < minMemoryLimitMB {
		if totalMB < minMemoryLimitMB {
			return totalMB
		}
		return minMemoryLimitMB
	}
	return limit
}

// -----------------------------------------------------------------------------

// ApplyMemoryLimit sets the runtime soft memory limit from the host or
// container size. An explicit GOMEMLIMIT is left alone.
func ApplyMemoryLimit(lookupEnv func(string) (string, bool), log *logger.Logger) int {
	if v, ok := lookupEnv("GOMEMLIMIT"); ok && v != "" {
		log.Debug("GOMEMLIMIT=%s set, keeping it", v)
		return 0
	}

	limitMB := GetRecommendedMemoryLimit()
	if limitMB == 0 {
		log.Warning("Could not determine available memory, no soft limit set")
		return 0
	}

	debug.SetMemoryLimit(int64(limitMB) << 20)
	log.Info("Soft memory limit set to %d MB", limitMB)
	return limitMB
}
