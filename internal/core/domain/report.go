package domain

import "time"

// UsageReport is the printable summary of per-application usage.
type UsageReport struct {
	ID            string
	Range         UsageRange
	Since         time.Time
	GeneratedAt   time.Time
	Hostname      string
	Apps          []AppUsage
	TotalSent     uint64
	TotalReceived uint64
}

// NewUsageReport totals the rows of a usage query.
func NewUsageReport(id string, r UsageRange, since, at time.Time, apps []AppUsage) *UsageReport {
	rep := &UsageReport{ID: id, Range: r, Since: since, GeneratedAt: at, Apps: apps}
	for _, a := range apps {
		rep.TotalSent += a.BytesSent
		rep.TotalReceived += a.BytesReceived
	}
	return rep
}
