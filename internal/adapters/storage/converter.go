package storage

import (
	"encoding/json"

	"github.com/MrOplus/NetGuard/internal/core/domain"
)

func deviceToDomain(m DeviceModel) domain.Device {
	return domain.Device{
		MACAddress: m.MAC,
		IPAddress:  m.IP,
		Hostname:   m.Hostname,
		Vendor:     m.Vendor,
		CustomName: m.CustomName,
		FirstSeen:  m.FirstSeen,
		LastSeen:   m.LastSeen,
		IsOnline:   m.IsOnline,
	}
}

func deviceToModel(d domain.Device) DeviceModel {
	return DeviceModel{
		MAC:        d.MACAddress,
		IP:         d.IPAddress,
		Hostname:   d.Hostname,
		Vendor:     d.Vendor,
		CustomName: d.CustomName,
		FirstSeen:  d.FirstSeen,
		LastSeen:   d.LastSeen,
		IsOnline:   d.IsOnline,
	}
}

func alertToModel(a domain.Alert) AlertModel {
	m := AlertModel{
		Type:      string(a.Type),
		Severity:  string(a.Severity),
		Title:     a.Title,
		Message:   a.Message,
		Timestamp: a.Timestamp,
		Read:      a.Read,
	}
	if len(a.Data) > 0 {
		if b, err := json.Marshal(a.Data); err == nil {
			m.Data = string(b)
		}
	}
	return m
}

func alertToDomain(m AlertModel) domain.Alert {
	a := domain.Alert{
		ID:        m.ID,
		Type:      domain.AlertType(m.Type),
		Severity:  domain.AlertSeverity(m.Severity),
		Title:     m.Title,
		Message:   m.Message,
		Timestamp: m.Timestamp,
		Read:      m.Read,
	}
	if m.Data != "" {
		_ = json.Unmarshal([]byte(m.Data), &a.Data)
	}
	return a
}

func logToModel(e domain.ConnectionLogEntry) ConnectionLogModel {
	return ConnectionLogModel{
		Timestamp:     e.Timestamp,
		ProcessName:   e.ProcessName,
		ProcessPath:   e.ProcessPath,
		RemoteAddress: e.RemoteAddress,
		RemotePort:    e.RemotePort,
		RemoteHost:    e.RemoteHost,
		Country:       e.Country,
		Protocol:      e.Protocol,
		BytesSent:     e.BytesSent,
		BytesReceived: e.BytesReceived,
	}
}

func logToDomain(m ConnectionLogModel) domain.ConnectionLogEntry {
	return domain.ConnectionLogEntry{
		ID:            m.ID,
		Timestamp:     m.Timestamp,
		ProcessName:   m.ProcessName,
		ProcessPath:   m.ProcessPath,
		RemoteAddress: m.RemoteAddress,
		RemotePort:    m.RemotePort,
		RemoteHost:    m.RemoteHost,
		Country:       m.Country,
		Protocol:      m.Protocol,
		BytesSent:     m.BytesSent,
		BytesReceived: m.BytesReceived,
	}
}
