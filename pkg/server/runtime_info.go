package server

import (
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/process"
	"github.com/sirupsen/logrus"

	"github.com/denysvitali/photowall-server/internal/models"
)

// systemStats returns process and disk statistics using gopsutil. Values
// that cannot be read are left zero.
func systemStats(root string, logger *logrus.Logger) models.SystemStats {
	stats := models.SystemStats{CPUCount: runtime.NumCPU()}

	if usage, err := disk.Usage(root); err != nil {
		logger.Warnf("Failed to get disk usage: %v", err)
	} else {
		stats.Disk = models.DiskStats{
			Total:   usage.Total,
			Used:    usage.Used,
			Free:    usage.Free,
			Percent: usage.UsedPercent,
		}
	}

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		logger.Warnf("Failed to get process info: %v", err)
		return stats
	}

	if cpu, err := proc.CPUPercent(); err != nil {
		logger.Warnf("Failed to get CPU percent: %v", err)
	} else {
		stats.CPUPercent = cpu
	}

	if mem, err := proc.MemoryInfo(); err != nil {
		logger.Warnf("Failed to get memory info: %v", err)
	} else {
		stats.Memory.RSS = mem.RSS
		stats.Memory.VMS = mem.VMS
	}

	if pct, err := proc.MemoryPercent(); err != nil {
		logger.Warnf("Failed to get memory percent: %v", err)
	} else {
		stats.Memory.Percent = pct
	}

	return stats
}
