package database

import (
	"database/sql"
	"fmt"
	"time"
)

// StoreSystemVital saves a new system vital log entry to the database.
func StoreSystemVital(cpuPercent, memoryPercent, diskUsagePercent float64) error {
	db := GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	_, err := db.Exec(`
		INSERT INTO system_vital_logs (cpu_percent, memory_percent, disk_usage_percent)
		VALUES (?, ?, ?)
	`, cpuPercent, memoryPercent, diskUsagePercent)
	if err != nil {
		return fmt.Errorf("failed to store system vital: %w", err)
	}

	return nil
}

// GetLatestVital retrieves the most recent system vital log entry.
// Returns nil if no metrics are found (not an error condition).
func GetLatestVital() (*SystemVitalLog, error) {
	db := GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	var m SystemVitalLog
	err := db.QueryRow(`
		SELECT id, timestamp, cpu_percent, memory_percent, disk_usage_percent
		FROM system_vital_logs
		ORDER BY timestamp DESC
		LIMIT 1
	`).Scan(&m.ID, &m.Timestamp, &m.CPUPercent, &m.MemoryPercent, &m.DiskUsagePercent)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query latest vital: %w", err)
	}

	return &m, nil
}

// CleanupOldSystemVitals removes system vital logs older than the specified duration.
func CleanupOldSystemVitals(olderThan time.Duration) error {
	db := GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	cutoff := time.Now().Add(-olderThan)

	_, err := db.Exec(`DELETE FROM system_vital_logs WHERE timestamp < ?`, cutoff)
	if err != nil {
		return fmt.Errorf("failed to cleanup old vitals: %w", err)
	}

	return nil
}
