package reporting

import (
	"time"

	"token-audit/internal/audit"
)

// Report is one rendered audit with its metadata.
type Report struct {
	GeneratedAt time.Time
	View        *audit.View
}
