package alerts

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MrOplus/NetGuard/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type memoryAlertStore struct {
	mu     sync.Mutex
	nextID int64
	saved  []domain.Alert
}

func (m *memoryAlertStore) SaveAlert(ctx context.Context, alert domain.Alert, max int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	alert.ID = m.nextID
	m.saved = append(m.saved, alert)
	if len(m.saved) > max {
		m.saved = m.saved[len(m.saved)-max:]
	}
	return alert.ID, nil
}

func (m *memoryAlertStore) GetAlerts(ctx context.Context, limit int) ([]domain.Alert, error) {
	return nil, nil
}
func (m *memoryAlertStore) MarkAlertRead(ctx context.Context, id int64) error { return nil }
func (m *memoryAlertStore) ClearAlerts(ctx context.Context) error           { return nil }

func (m *memoryAlertStore) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saved)
}

type recordingSubscriber struct {
	mu     sync.Mutex
	alerts []domain.Alert
}

func (r *recordingSubscriber) NotifyAlert(a domain.Alert) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, a)
}

func (r *recordingSubscriber) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.alerts)
}

type MockKnownApps struct {
	mock.Mock
}

func (m *MockKnownApps) GetKnownApp(ctx context.Context, path string) (*domain.KnownApp, error) {
	args := m.Called(ctx, path)
	app, _ := args.Get(0).(*domain.KnownApp)
	return app, args.Error(1)
}

func (m *MockKnownApps) SaveKnownApp(ctx context.Context, app domain.KnownApp) error {
	return m.Called(ctx, app.Path).Error(0)
}

func (m *MockKnownApps) ClearKnownApps(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type countingPublisher struct {
	mu     sync.Mutex
	alerts []domain.Alert
}

func (c *countingPublisher) Publish(a domain.Alert) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.alerts = append(c.alerts, a)
	return true
}

func established(path string) domain.Connection {
	return domain.Connection{
		ProcessName:   "app.exe",
		ProcessPath:   path,
		RemoteAddress: "93.184.216.34",
		RemotePort:    443,
		State:         domain.StateEstablished,
	}
}

func TestPipelinePersistsAndFansOut(t *testing.T) {
	store := &memoryAlertStore{}
	sub := &recordingSubscriber{}
	p := NewPipeline(store, 10)
	p.Subscribe(sub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	assert.True(t, p.Publish(domain.Alert{Type: domain.AlertNewDevice, Title: "one"}))
	assert.True(t, p.Publish(domain.Alert{Type: domain.AlertNewApp, Title: "two"}))

	require.Eventually(t, func() bool { return sub.count() == 2 }, time.Second, 5*time.Millisecond)
	recent := p.Recent()
	require.Len(t, recent, 2)
	assert.Equal(t, "two", recent[0].Title)
	assert.Equal(t, int64(2), recent[0].ID)
	assert.False(t, recent[1].Timestamp.IsZero())
}

func TestPipelinePublishNeverBlocks(t *testing.T) {
	p := NewPipeline(&memoryAlertStore{}, 2)

	assert.True(t, p.Publish(domain.Alert{Type: domain.AlertNewApp}))
	assert.True(t, p.Publish(domain.Alert{Type: domain.AlertNewApp}))
	assert.False(t, p.Publish(domain.Alert{Type: domain.AlertNewApp}))
}

func TestPipelineRecentRing(t *testing.T) {
	store := &memoryAlertStore{}
	p := NewPipeline(store, QueueSize)
	for i := 0; i < 120; i++ {
		p.handle(context.Background(), domain.Alert{Type: domain.AlertNewApp})
	}
	assert.Len(t, p.Recent(), domain.MaxRecentAlerts)
	assert.Equal(t, domain.MaxStoredAlerts, store.len())
	assert.Equal(t, int64(120), p.Recent()[0].ID)
}

func TestDetectorKnownAppNeverAlerts(t *testing.T) {
	apps := new(MockKnownApps)
	apps.On("GetKnownApp", mock.Anything, "/usr/bin/curl").Return(&domain.KnownApp{Path: "/usr/bin/curl"}, nil)
	pub := &countingPublisher{}

	d := NewNewAppDetector(apps, pub)
	d.Check(context.Background(), []domain.Connection{established("/usr/bin/curl")})

	assert.Empty(t, pub.alerts)
	apps.AssertNotCalled(t, "SaveKnownApp", mock.Anything, mock.Anything)
}

func TestDetectorUnknownAppAlertsOnceUnderConcurrency(t *testing.T) {
	apps := new(MockKnownApps)
	apps.On("GetKnownApp", mock.Anything, "/opt/new/app").Return(nil, domain.ErrNotFound).Once()
	apps.On("SaveKnownApp", mock.Anything, "/opt/new/app").Return(nil).Once()
	pub := &countingPublisher{}
	d := NewNewAppDetector(apps, pub)

	conns := make([]domain.Connection, 5)
	for i := range conns {
		conns[i] = established("/opt/new/app")
		conns[i].RemotePort = uint32(1000 + i)
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Check(context.Background(), conns)
		}()
	}
	wg.Wait()

	require.Len(t, pub.alerts, 1)
	assert.Equal(t, domain.AlertNewApp, pub.alerts[0].Type)
	assert.Equal(t, "/opt/new/app", pub.alerts[0].Data["processPath"])
	apps.AssertExpectations(t)
}

func TestDetectorRetriesAfterLookupFailure(t *testing.T) {
	apps := new(MockKnownApps)
	apps.On("GetKnownApp", mock.Anything, "/opt/new/app").Return(nil, errors.New("database is locked")).Once()
	apps.On("GetKnownApp", mock.Anything, "/opt/new/app").Return(nil, domain.ErrNotFound).Once()
	apps.On("SaveKnownApp", mock.Anything, "/opt/new/app").Return(nil).Once()
	pub := &countingPublisher{}
	d := NewNewAppDetector(apps, pub)
	conns := []domain.Connection{established("/opt/new/app")}

	d.Check(context.Background(), conns)
	assert.Empty(t, pub.alerts)

	d.Check(context.Background(), conns)
	require.Len(t, pub.alerts, 1)
	assert.Equal(t, domain.AlertNewApp, pub.alerts[0].Type)

	// recorded now, so a third tick stays quiet
	d.Check(context.Background(), conns)
	assert.Len(t, pub.alerts, 1)
	apps.AssertExpectations(t)
}

func TestDetectorSkipsIrrelevantRows(t *testing.T) {
	apps := new(MockKnownApps)
	pub := &countingPublisher{}
	d := NewNewAppDetector(apps, pub)

	listen := established("/usr/sbin/sshd")
	listen.State = domain.StateListen
	loop := established("/usr/bin/redis")
	loop.RemoteAddress = "127.0.0.1"
	noPath := established("")

	d.Check(context.Background(), []domain.Connection{listen, loop, noPath})
	assert.Empty(t, pub.alerts)
	apps.AssertNotCalled(t, "GetKnownApp", mock.Anything, mock.Anything)
}

func TestDetectorGate(t *testing.T) {
	apps := new(MockKnownApps)
	pub := &countingPublisher{}
	enabled := false
	d := NewNewAppDetector(apps, pub).WithGate(func() bool { return enabled })

	d.Check(context.Background(), []domain.Connection{established("/opt/x")})
	apps.AssertNotCalled(t, "GetKnownApp", mock.Anything, mock.Anything)

	enabled = true
	apps.On("GetKnownApp", mock.Anything, "/opt/x").Return(nil, domain.ErrNotFound)
	apps.On("SaveKnownApp", mock.Anything, "/opt/x").Return(nil)
	d.Check(context.Background(), []domain.Connection{established("/opt/x")})
	assert.Len(t, pub.alerts, 1)

	d.Forget()
	apps.ExpectedCalls = nil
	apps.On("GetKnownApp", mock.Anything, "/opt/x").Return(&domain.KnownApp{Path: "/opt/x"}, nil)
	d.Check(context.Background(), []domain.Connection{established("/opt/x")})
	assert.Len(t, pub.alerts, 1)
}

func TestNewDeviceAlert(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a := NewDeviceAlert(domain.Device{MACAddress: "AA:BB:CC:00:11:22", IPAddress: "192.168.1.20"}, at)
	assert.Equal(t, domain.AlertNewDevice, a.Type)
	assert.Equal(t, "Unknown vendor (AA:BB:CC:00:11:22) joined the network at 192.168.1.20", a.Message)
	assert.Equal(t, at, a.Timestamp)
}
