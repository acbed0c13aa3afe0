package reporting

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/MrOplus/NetGuard/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPDFExporterExportAppUsage(t *testing.T) {
	now := time.Now()
	apps := []domain.AppUsage{
		{ProcessName: "firefox", ProcessPath: "/usr/bin/firefox", BytesReceived: 50 << 20, BytesSent: 2 << 20, Connections: 120},
		{ProcessName: "", ProcessPath: "/opt/some/really/long/path/to/an/application/binary", BytesReceived: 1024, Connections: 1},
	}
	report := domain.NewUsageReport("6f1c2a7e-0000-0000-0000-000000000000", domain.RangeWeek, now.AddDate(0, 0, -7), now, apps)

	pdf, err := NewPDFExporter().ExportAppUsage(report)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")), "output should be a PDF document")
	assert.Equal(t, uint64(50<<20+1024), report.TotalReceived)
}

func TestPDFExporterManyRows(t *testing.T) {
	var apps []domain.AppUsage
	for i := 0; i < 60; i++ {
		apps = append(apps, domain.AppUsage{ProcessName: fmt.Sprintf("app-%d", i), BytesReceived: uint64(i) * 1000})
	}
	pdf, err := NewPDFExporter().ExportAppUsage(domain.NewUsageReport("r1", domain.RangeMonth, time.Now(), time.Now(), apps))
	require.NoError(t, err)
	assert.NotEmpty(t, pdf)
}

func TestPDFExporterEmpty(t *testing.T) {
	pdf, err := NewPDFExporter().ExportAppUsage(domain.NewUsageReport("", domain.RangeToday, time.Now(), time.Now(), nil))
	require.NoError(t, err)
	assert.NotEmpty(t, pdf)

	_, err = NewPDFExporter().ExportAppUsage(nil)
	assert.Error(t, err)
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", FormatBytes(512))
	assert.Equal(t, "1.0 KiB", FormatBytes(1024))
	assert.Equal(t, "1.5 MiB", FormatBytes(1536*1024))
	assert.Equal(t, "2.0 GiB", FormatBytes(2<<30))
}
