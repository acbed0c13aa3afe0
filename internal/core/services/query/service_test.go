package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/MrOplus/NetGuard/internal/core/domain"
)

type fakeConns struct{ lastHide *bool }

func (f *fakeConns) Connections(hideLocal bool) []domain.Connection {
	f.lastHide = &hideLocal
	if hideLocal {
		return []domain.Connection{{ID: "ext"}}
	}
	return []domain.Connection{{ID: "ext"}, {ID: "local"}}
}

type fakeSettings struct{ s domain.Settings }

func (f *fakeSettings) Load(ctx context.Context) (domain.Settings, error) { return f.s, nil }
func (f *fakeSettings) Current() domain.Settings                         { return f.s }
func (f *fakeSettings) Update(ctx context.Context, patch map[string]any) (domain.Settings, error) {
	return f.s, nil
}

type mockHistory struct{ mock.Mock }

func (m *mockHistory) SaveTrafficPoint(ctx context.Context, p domain.TrafficPoint) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockHistory) GetTrafficHistory(ctx context.Context, since time.Time) ([]domain.TrafficPoint, error) {
	args := m.Called(ctx, since)
	return args.Get(0).([]domain.TrafficPoint), args.Error(1)
}

func (m *mockHistory) GetTrafficRange(ctx context.Context, start, end time.Time) ([]domain.TrafficPoint, error) {
	args := m.Called(ctx, start, end)
	return args.Get(0).([]domain.TrafficPoint), args.Error(1)
}

func (m *mockHistory) PruneTrafficHistory(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

type mockLogs struct{ mock.Mock }

func (m *mockLogs) SaveConnectionLogs(ctx context.Context, entries []domain.ConnectionLogEntry) error {
	return m.Called(ctx, entries).Error(0)
}

func (m *mockLogs) GetConnectionLogs(ctx context.Context, start, end time.Time, limit int) ([]domain.ConnectionLogEntry, error) {
	args := m.Called(ctx, start, end, limit)
	return args.Get(0).([]domain.ConnectionLogEntry), args.Error(1)
}

func (m *mockLogs) PruneConnectionLogs(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

type fakeUsage struct{ since string }

func (f *fakeUsage) AddAppUsage(ctx context.Context, date string, conn domain.Connection) error {
	return nil
}

func (f *fakeUsage) GetAppUsage(ctx context.Context, since string) ([]domain.AppUsage, error) {
	f.since = since
	return []domain.AppUsage{
		{ProcessName: "small", BytesSent: 10},
		{ProcessName: "big", BytesReceived: 1000},
		{ProcessName: "mid", BytesSent: 50, BytesReceived: 50},
	}, nil
}

type fakeReporter struct{ got *domain.UsageReport }

func (f *fakeReporter) ExportAppUsage(r *domain.UsageReport) ([]byte, error) {
	f.got = r
	return []byte("%PDF-1.3"), nil
}

type fakeKnownApps struct{ cleared bool }

func (f *fakeKnownApps) GetKnownApp(ctx context.Context, path string) (*domain.KnownApp, error) {
	return nil, domain.ErrNotFound
}
func (f *fakeKnownApps) SaveKnownApp(ctx context.Context, app domain.KnownApp) error { return nil }
func (f *fakeKnownApps) ClearKnownApps(ctx context.Context) error {
	f.cleared = true
	return nil
}

type fakeForgetter struct{ forgot bool }

func (f *fakeForgetter) Forget() { f.forgot = true }

func TestConnectionsDefaultsToSetting(t *testing.T) {
	conns := &fakeConns{}
	st := &fakeSettings{s: domain.DefaultSettings()}
	svc := NewService(Deps{Connections: conns, Settings: st})

	got, err := svc.Connections(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.True(t, *conns.lastHide)

	show := false
	got, err = svc.Connections(context.Background(), &show)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	st.s.HideLocalTraffic = false
	got, _ = svc.Connections(context.Background(), nil)
	assert.Len(t, got, 2)
}

func TestAppUsageSortedAndRanged(t *testing.T) {
	usage := &fakeUsage{}
	svc := NewService(Deps{Usage: usage})
	svc.now = func() time.Time { return time.Date(2024, 3, 10, 15, 0, 0, 0, time.Local) }

	apps, err := svc.AppUsage(context.Background(), domain.RangeWeek)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-03", usage.since)
	require.Len(t, apps, 3)
	assert.Equal(t, "big", apps[0].ProcessName)
	assert.Equal(t, "mid", apps[1].ProcessName)
	assert.Equal(t, "small", apps[2].ProcessName)
}

func TestUsageReport(t *testing.T) {
	rep := &fakeReporter{}
	svc := NewService(Deps{Usage: &fakeUsage{}, Reporter: rep})

	pdf, err := svc.UsageReport(context.Background(), domain.RangeToday)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.3", string(pdf))
	require.NotNil(t, rep.got)
	assert.NotEmpty(t, rep.got.ID)
	assert.Equal(t, uint64(1110), rep.got.TotalSent+rep.got.TotalReceived)

	_, err = NewService(Deps{Usage: &fakeUsage{}}).UsageReport(context.Background(), domain.RangeToday)
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}

func TestHistory(t *testing.T) {
	hist := new(mockHistory)
	logs := new(mockLogs)
	svc := NewService(Deps{TrafficLog: hist, Logs: logs})

	start := time.Now().Add(-time.Hour)
	end := time.Now()
	logs.On("GetConnectionLogs", mock.Anything, start, end, HistoryLimit).
		Return([]domain.ConnectionLogEntry{{ProcessName: "curl"}}, nil)
	hist.On("GetTrafficRange", mock.Anything, start, end).Return([]domain.TrafficPoint(nil), nil)

	h, err := svc.History(context.Background(), start, end)
	require.NoError(t, err)
	assert.Len(t, h.Connections, 1)
	assert.NotNil(t, h.Traffic)
	assert.Empty(t, h.Traffic)

	_, err = svc.History(context.Background(), end, start)
	assert.ErrorIs(t, err, domain.ErrInvalidRange)

	logs.AssertExpectations(t)
	hist.AssertExpectations(t)
}

func TestHistoryStoreError(t *testing.T) {
	logs := new(mockLogs)
	svc := NewService(Deps{TrafficLog: new(mockHistory), Logs: logs})
	boom := errors.New("disk gone")
	logs.On("GetConnectionLogs", mock.Anything, mock.Anything, mock.Anything, HistoryLimit).
		Return([]domain.ConnectionLogEntry(nil), boom)

	_, err := svc.History(context.Background(), time.Now().Add(-time.Minute), time.Now())
	assert.ErrorIs(t, err, boom)
}

func TestTrafficHistoryWindow(t *testing.T) {
	hist := new(mockHistory)
	svc := NewService(Deps{TrafficLog: hist})
	now := time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	hist.On("GetTrafficHistory", mock.Anything, now.Add(-24*time.Hour)).
		Return([]domain.TrafficPoint{{Download: 1}}, nil)

	points, err := svc.TrafficHistory(context.Background(), "24h")
	require.NoError(t, err)
	assert.Len(t, points, 1)
	hist.AssertExpectations(t)
}

func TestClearKnownAppsForgetsDetector(t *testing.T) {
	apps := &fakeKnownApps{}
	det := &fakeForgetter{}
	svc := NewService(Deps{KnownApps: apps, Detector: det})

	require.NoError(t, svc.ClearKnownApps(context.Background()))
	assert.True(t, apps.cleared)
	assert.True(t, det.forgot)
}

func TestVendorsNotConfigured(t *testing.T) {
	svc := NewService(Deps{})
	_, err := svc.VendorStats(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
	_, err = svc.RefreshVendors(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}

func TestDevicePortsRejectsBadMAC(t *testing.T) {
	svc := NewService(Deps{})
	_, err := svc.DevicePorts(context.Background(), "zz")
	assert.ErrorIs(t, err, domain.ErrInvalidMAC)
}
