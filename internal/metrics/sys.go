package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

var startedAt = time.Now()

// SysHealth represents real-time system metrics.
type SysHealth struct {
	AllocMB      uint64
	SysMB        uint64
	NumGC        uint32
	Goroutines   int
	Uptime       time.Duration
	DataDiskSize string
}

// GetSysHealth collects real-time health data. dataPath is the directory
// holding the database and session files.
func GetSysHealth(dataPath string) SysHealth {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return SysHealth{
		AllocMB:      m.Alloc / 1024 / 1024,
		SysMB:        m.Sys / 1024 / 1024,
		NumGC:        m.NumGC,
		Goroutines:   runtime.NumGoroutine(),
		Uptime:       time.Since(startedAt).Truncate(time.Second),
		DataDiskSize: formatBytes(dirSize(dataPath)),
	}
}

// Report renders usage and health as plain text for chat and terminal.
func Report(usage []DailyUsage, health SysHealth) string {
	var sb strings.Builder
	sb.WriteString("Usage & Health Report\n\n")

	sb.WriteString("Recent LLM activity\n")
	if len(usage) == 0 {
		sb.WriteString("  no data yet\n")
	}
	for _, d := range usage {
		fmt.Fprintf(&sb, "  %s: %d tokens (%d calls, %d fallbacks)\n",
			d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution, d.Fallbacks)
	}

	sb.WriteString("\nSystem health\n")
	fmt.Fprintf(&sb, "  RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB)
	fmt.Fprintf(&sb, "  Goroutines: %d\n", health.Goroutines)
	fmt.Fprintf(&sb, "  Uptime: %s\n", health.Uptime)
	fmt.Fprintf(&sb, "  Disk data: %s\n", health.DataDiskSize)
	return sb.String()
}

func dirSize(path string) int64 {
	var size int64
	_ = filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size
}

func formatBytes(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
