package process

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// memInfo is the subset of /proc/meminfo the free-memory check needs.
type memInfo struct {
	TotalBytes     uint64
	AvailableBytes uint64
}

// readMemInfo parses /proc/meminfo. There is no third-party system-stats
// library anywhere in the example pack (no gopsutil, no github.com/shirou
// equivalent), so reading /proc/meminfo directly matches the pack's
// convention of shelling out or reading files directly for host info
// rather than introducing an unproven dependency for two parsed lines.
func readMemInfo() (memInfo, error) {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return memInfo{}, fmt.Errorf("open /proc/meminfo: %w", err)
	}
	defer f.Close()

	var mi memInfo
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		switch strings.TrimSuffix(fields[0], ":") {
		case "MemTotal":
			mi.TotalBytes = parseKB(fields[1])
		case "MemAvailable":
			mi.AvailableBytes = parseKB(fields[1])
		}
	}
	if err := scanner.Err(); err != nil {
		return memInfo{}, err
	}
	return mi, nil
}

func parseKB(s string) uint64 {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return n * 1024
}

// CheckFreeMemory implements the original implementation's launch gate:
// required = jarMaxHeapMB*1.25 + totalMemBytes*0.125. If available memory
// is below that, the launch is refused so a heap allocation doesn't drag
// the host into swap death alongside every other managed server.
func CheckFreeMemory(maxHeapMB int) (ok bool, required, available uint64, err error) {
	mi, err := readMemInfo()
	if err != nil {
		return false, 0, 0, err
	}
	required = uint64(float64(maxHeapMB)*1024*1024*1.25 + float64(mi.TotalBytes)*0.125)
	return mi.AvailableBytes >= required, required, mi.AvailableBytes, nil
}
