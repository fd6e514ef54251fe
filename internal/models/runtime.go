package models

import "time"

// AliveResponse represents the liveness probe response
type AliveResponse struct {
	Status string `json:"status"`
}

// RuntimeInfo represents server information
type RuntimeInfo struct {
	StartTime   time.Time   `json:"start_time"`
	Uptime      float64     `json:"uptime"`
	Root        string      `json:"root"`
	AssetRoot   string      `json:"asset_root"`
	Aliases     []string    `json:"aliases"`
	SystemStats SystemStats `json:"system_stats"`
}

// SystemStats represents process and disk statistics
type SystemStats struct {
	CPUCount   int         `json:"cpu_count"`
	CPUPercent float64     `json:"cpu_percent"`
	Memory     MemoryStats `json:"memory"`
	Disk       DiskStats   `json:"disk"`
}

// MemoryStats represents memory usage statistics
type MemoryStats struct {
	RSS     uint64  `json:"rss"`     // Resident Set Size in bytes
	VMS     uint64  `json:"vms"`     // Virtual Memory Size in bytes
	Percent float32 `json:"percent"` // Memory usage percentage
}

// DiskStats represents disk usage statistics
type DiskStats struct {
	Total   uint64  `json:"total"`   // Total disk space in bytes
	Used    uint64  `json:"used"`    // Used disk space in bytes
	Free    uint64  `json:"free"`    // Free disk space in bytes
	Percent float64 `json:"percent"` // Disk usage percentage
}
