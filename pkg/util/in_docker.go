package util

import (
	"os"
	"strings"
)

func IsRunningInDocker() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}

	return false
}

// IsInMemoryDSN reports whether a SQLite DSN points to an in-memory database
func IsInMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
}
