package handlers

import (
	"net/http"

	"github.com/MrOplus/NetGuard/internal/core/ports"
)

// DeviceHandler serves LAN discovery results.
type DeviceHandler struct {
	Query ports.QueryService
}

func NewDeviceHandler(query ports.QueryService) *DeviceHandler {
	return &DeviceHandler{Query: query}
}

func (h *DeviceHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	devices, err := h.Query.Devices(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, devices)
}

// HandleScan runs a discovery pass before answering.
func (h *DeviceHandler) HandleScan(w http.ResponseWriter, r *http.Request) {
	devices, err := h.Query.ScanDevices(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, devices)
}

func (h *DeviceHandler) HandleSetName(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MACAddress string `json:"macAddress"`
		Name       string `json:"name"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if err := h.Query.SetDeviceName(r.Context(), req.MACAddress, req.Name); err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, map[string]string{"macAddress": req.MACAddress, "name": req.Name})
}

func (h *DeviceHandler) HandlePorts(w http.ResponseWriter, r *http.Request) {
	open, err := h.Query.DevicePorts(r.Context(), r.URL.Query().Get("mac"))
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, open)
}

func (h *DeviceHandler) HandleScanPorts(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IPAddress  string `json:"ipAddress"`
		MACAddress string `json:"macAddress"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}
	open, err := h.Query.ScanDevicePorts(r.Context(), req.IPAddress, req.MACAddress)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, open)
}
