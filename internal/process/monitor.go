package process

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dncore/swi/pkg/types"
)

// StartMonitor samples the running child's RSS/VMS from /proc/<pid>/statm
// every interval until stopCh is closed or the process exits. CPU percent
// is derived from /proc/<pid>/stat utime+stime deltas between samples.
func (p *Process) StartMonitor(interval time.Duration, stopCh <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var lastCPUTicks uint64
		var lastSample time.Time

		for {
			select {
			case <-stopCh:
				return
			case <-p.doneChSafe():
				return
			case now := <-ticker.C:
				pid := p.PID()
				if pid == 0 {
					continue
				}
				rss, vms, cpuTicks, err := readProcStats(pid)
				if err != nil {
					continue
				}
				cpuPct := 0.0
				if !lastSample.IsZero() && cpuTicks >= lastCPUTicks {
					elapsed := now.Sub(lastSample).Seconds()
					if elapsed > 0 {
						ticksPerSec := float64(clockTicksPerSecond())
						cpuPct = (float64(cpuTicks-lastCPUTicks) / ticksPerSec) / elapsed * 100
					}
				}
				lastCPUTicks = cpuTicks
				lastSample = now

				stats := types.PerfStats{SampledAt: now, CPU: cpuPct, RSSBytes: rss, VMSBytes: vms}
				p.monMu.Lock()
				p.perf = &stats
				p.monMu.Unlock()
			}
		}
	}()
}

// doneChSafe returns the process's done channel if a run is active, or a
// nil channel (which blocks forever in a select) otherwise.
func (p *Process) doneChSafe() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.doneCh
}

// LastPerf returns the most recent resource sample, or nil if none has
// been taken yet.
func (p *Process) LastPerf() *types.PerfStats {
	p.monMu.RLock()
	defer p.monMu.RUnlock()
	return p.perf
}

func readProcStats(pid int) (rssBytes, vmsBytes uint64, cpuTicks uint64, err error) {
	statmData, err := os.ReadFile(fmt.Sprintf("/proc/%d/statm", pid))
	if err != nil {
		return 0, 0, 0, err
	}
	fields := strings.Fields(string(statmData))
	if len(fields) < 2 {
		return 0, 0, 0, fmt.Errorf("unexpected statm format")
	}
	pageSize := uint64(os.Getpagesize())
	vmsPages, _ := strconv.ParseUint(fields[0], 10, 64)
	rssPages, _ := strconv.ParseUint(fields[1], 10, 64)
	vmsBytes = vmsPages * pageSize
	rssBytes = rssPages * pageSize

	statFile, err := os.Open(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return rssBytes, vmsBytes, 0, err
	}
	defer statFile.Close()
	scanner := bufio.NewScanner(statFile)
	scanner.Buffer(make([]byte, 4096), 4096)
	if scanner.Scan() {
		// Fields after the parenthesized comm can contain spaces, so split
		// on the closing paren first.
		line := scanner.Text()
		idx := strings.LastIndex(line, ")")
		if idx > 0 && idx+2 < len(line) {
			rest := strings.Fields(line[idx+2:])
			if len(rest) >= 14 {
				utime, _ := strconv.ParseUint(rest[11], 10, 64)
				stime, _ := strconv.ParseUint(rest[12], 10, 64)
				cpuTicks = utime + stime
			}
		}
	}
	return rssBytes, vmsBytes, cpuTicks, nil
}

func clockTicksPerSecond() int64 {
	return 100 // USER_HZ is 100 on virtually every modern Linux distro
}
