package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrOplus/NetGuard/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNIC struct {
	c   domain.IOCounters
	err error
}

func (f *fakeNIC) HostCounters(ctx context.Context) (domain.IOCounters, error) { return f.c, f.err }

type memHistory struct {
	points   []domain.TrafficPoint
	prunedAt time.Time
}

func (m *memHistory) SaveTrafficPoint(ctx context.Context, p domain.TrafficPoint) error {
	m.points = append(m.points, p)
	return nil
}
func (m *memHistory) GetTrafficHistory(ctx context.Context, since time.Time) ([]domain.TrafficPoint, error) {
	return m.points, nil
}
func (m *memHistory) GetTrafficRange(ctx context.Context, start, end time.Time) ([]domain.TrafficPoint, error) {
	return m.points, nil
}
func (m *memHistory) PruneTrafficHistory(ctx context.Context, before time.Time) (int64, error) {
	m.prunedAt = before
	return 0, nil
}

type memMirror struct {
	traffic int
}

func (m *memMirror) MirrorTraffic(ctx context.Context, p domain.TrafficPoint) error {
	m.traffic++
	return nil
}
func (m *memMirror) MirrorConnections(ctx context.Context, e []domain.ConnectionLogEntry) error {
	return nil
}
func (m *memMirror) Close() error { return nil }

func TestTrafficSample(t *testing.T) {
	nic := &fakeNIC{c: domain.IOCounters{Received: 1000, Sent: 500}}
	tm := NewTrafficMonitor(nic, nil, nil)

	s, err := tm.Sample(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(0), s.Download)
	assert.Equal(t, uint64(1000), s.TotalDownload)

	nic.c = domain.IOCounters{Received: 1800, Sent: 400}
	s, err = tm.Sample(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(800), s.Download)
	assert.Equal(t, uint64(0), s.Upload, "counter rollback yields zero")
	assert.Equal(t, s, tm.Current())

	nic.err = errors.New("no such device")
	_, err = tm.Sample(context.Background())
	assert.Error(t, err)
	assert.Equal(t, uint64(800), tm.Current().Download)
}

func TestTrafficRecordHistory(t *testing.T) {
	now := time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)
	hist := &memHistory{}
	mirror := &memMirror{}
	nic := &fakeNIC{c: domain.IOCounters{Received: 10, Sent: 10}}
	tm := NewTrafficMonitor(nic, hist, func() int { return 7 })
	tm.SetMirror(mirror)
	tm.now = func() time.Time { return now }

	_, _ = tm.Sample(context.Background())
	require.NoError(t, tm.RecordHistory(context.Background()))
	assert.Empty(t, hist.points, "zero samples are not stored")
	assert.Equal(t, now.AddDate(0, 0, -7), hist.prunedAt)

	nic.c = domain.IOCounters{Received: 110, Sent: 30}
	_, _ = tm.Sample(context.Background())
	require.NoError(t, tm.RecordHistory(context.Background()))
	require.Len(t, hist.points, 1)
	assert.Equal(t, domain.TrafficPoint{Timestamp: now, Download: 100, Upload: 20}, hist.points[0])
	assert.Equal(t, 1, mirror.traffic)
}
