package server_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/MrOplus/NetGuard/internal/core/domain"
)

type MockQueryService struct {
	mock.Mock
}

func (m *MockQueryService) Connections(ctx context.Context, hideLocal *bool) ([]domain.Connection, error) {
	args := m.Called(ctx, hideLocal)
	conns, _ := args.Get(0).([]domain.Connection)
	return conns, args.Error(1)
}

func (m *MockQueryService) Traffic(ctx context.Context) domain.TrafficStats {
	args := m.Called(ctx)
	return args.Get(0).(domain.TrafficStats)
}

func (m *MockQueryService) TrafficHistory(ctx context.Context, window string) ([]domain.TrafficPoint, error) {
	args := m.Called(ctx, window)
	points, _ := args.Get(0).([]domain.TrafficPoint)
	return points, args.Error(1)
}

func (m *MockQueryService) Devices(ctx context.Context) ([]domain.Device, error) {
	args := m.Called(ctx)
	devices, _ := args.Get(0).([]domain.Device)
	return devices, args.Error(1)
}

func (m *MockQueryService) ScanDevices(ctx context.Context) ([]domain.Device, error) {
	args := m.Called(ctx)
	devices, _ := args.Get(0).([]domain.Device)
	return devices, args.Error(1)
}

func (m *MockQueryService) SetDeviceName(ctx context.Context, mac, name string) error {
	return m.Called(ctx, mac, name).Error(0)
}

func (m *MockQueryService) DevicePorts(ctx context.Context, mac string) ([]domain.OpenPort, error) {
	args := m.Called(ctx, mac)
	open, _ := args.Get(0).([]domain.OpenPort)
	return open, args.Error(1)
}

func (m *MockQueryService) ScanDevicePorts(ctx context.Context, ip, mac string) ([]domain.OpenPort, error) {
	args := m.Called(ctx, ip, mac)
	open, _ := args.Get(0).([]domain.OpenPort)
	return open, args.Error(1)
}

func (m *MockQueryService) AppUsage(ctx context.Context, r domain.UsageRange) ([]domain.AppUsage, error) {
	args := m.Called(ctx, r)
	apps, _ := args.Get(0).([]domain.AppUsage)
	return apps, args.Error(1)
}

func (m *MockQueryService) UsageReport(ctx context.Context, r domain.UsageRange) ([]byte, error) {
	args := m.Called(ctx, r)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *MockQueryService) History(ctx context.Context, start, end time.Time) (domain.History, error) {
	args := m.Called(ctx, start, end)
	return args.Get(0).(domain.History), args.Error(1)
}

func (m *MockQueryService) Alerts(ctx context.Context) ([]domain.Alert, error) {
	args := m.Called(ctx)
	alerts, _ := args.Get(0).([]domain.Alert)
	return alerts, args.Error(1)
}

func (m *MockQueryService) RecentAlerts() []domain.Alert {
	alerts, _ := m.Called().Get(0).([]domain.Alert)
	return alerts
}

func (m *MockQueryService) MarkAlertRead(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockQueryService) ClearAlerts(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockQueryService) Settings(ctx context.Context) (domain.Settings, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.Settings), args.Error(1)
}

func (m *MockQueryService) UpdateSettings(ctx context.Context, patch map[string]any) (domain.Settings, error) {
	args := m.Called(ctx, patch)
	return args.Get(0).(domain.Settings), args.Error(1)
}

func (m *MockQueryService) ClearKnownApps(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockQueryService) VendorStats(ctx context.Context) (domain.VendorDBStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.VendorDBStats), args.Error(1)
}

func (m *MockQueryService) RefreshVendors(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockQueryService) DBStats(ctx context.Context) (domain.DBStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.DBStats), args.Error(1)
}

type MockControlService struct {
	mock.Mock
}

func (m *MockControlService) Rules(ctx context.Context) ([]domain.FirewallRule, error) {
	args := m.Called(ctx)
	rules, _ := args.Get(0).([]domain.FirewallRule)
	return rules, args.Error(1)
}

func (m *MockControlService) BlockApp(ctx context.Context, path string) error {
	return m.Called(ctx, path).Error(0)
}

func (m *MockControlService) AllowApp(ctx context.Context, path string) error {
	return m.Called(ctx, path).Error(0)
}

func (m *MockControlService) RemoveRule(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}

func (m *MockControlService) BlockRemote(ctx context.Context, addr string, port uint32) error {
	return m.Called(ctx, addr, port).Error(0)
}

func (m *MockControlService) KillConnection(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockControlService) Pending(ctx context.Context) ([]domain.PendingConnection, error) {
	args := m.Called(ctx)
	pending, _ := args.Get(0).([]domain.PendingConnection)
	return pending, args.Error(1)
}

func (m *MockControlService) Respond(ctx context.Context, verdict domain.Verdict) error {
	return m.Called(ctx, verdict).Error(0)
}
