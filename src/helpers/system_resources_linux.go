//go:build linux

package helpers

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

const cgroupMemoryMax = "/sys/fs/cgroup/memory.max"

// GetTotalSystemMemoryMB returns the memory available to the process in MB:
// the cgroup v2 limit when one is set, physical memory otherwise.
func GetTotalSystemMemoryMB() int {
	physical := readMemInfoMB("/proc/meminfo")
	if limit := readCgroupLimitMB(cgroupMemoryMax); limit > 0 && (physical == 0 || limit < physical) {
		return limit
	}
	return physical
}

// -----------------------------------------------------------------------------

func readMemInfoMB(path string) int {
	file, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 2 && fields[0] == "MemTotal:" {
			if kb, err := strconv.Atoi(fields[1]); err == nil {
				return kb / 1024
			}
		}
	}
	return 0
}

// -----------------------------------------------------------------------------

// readCgroupLimitMB parses memory.max; "max" means unlimited and yields 0.
func readCgroupLimitMB(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	raw := strings.TrimSpace(string(data))
	if raw == "" || raw == "max" {
		return 0
	}
	bytes, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return int(bytes >> 20)
}
