package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/MrOplus/NetGuard/internal/core/domain"
	"github.com/MrOplus/NetGuard/internal/core/ports"
)

// ConnectionHandler serves the live connection table and traffic.
type ConnectionHandler struct {
	Query   ports.QueryService
	Control ports.ControlService
}

func NewConnectionHandler(query ports.QueryService, control ports.ControlService) *ConnectionHandler {
	return &ConnectionHandler{Query: query, Control: control}
}

// HandleConnections lists connections; hideLocal overrides the stored setting.
func (h *ConnectionHandler) HandleConnections(w http.ResponseWriter, r *http.Request) {
	var hideLocal *bool
	if v := r.URL.Query().Get("hideLocal"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			WriteError(w, errors.Join(errBadRequest, err))
			return
		}
		hideLocal = &b
	}
	conns, err := h.Query.Connections(r.Context(), hideLocal)
	if err != nil {
		WriteError(w, err)
		return
	}
	if conns == nil {
		conns = []domain.Connection{}
	}
	WriteJSON(w, conns)
}

func (h *ConnectionHandler) HandleTraffic(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, h.Query.Traffic(r.Context()))
}

// HandleKill terminates the process owning a connection id.
func (h *ConnectionHandler) HandleKill(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if err := h.Control.KillConnection(r.Context(), req.ID); err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, map[string]string{"killed": req.ID})
}

// HandleBlockRemote blocks a remote address, optionally one port of it.
func (h *ConnectionHandler) HandleBlockRemote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RemoteAddress string `json:"remoteAddress"`
		RemotePort    uint32 `json:"remotePort"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if err := h.Control.BlockRemote(r.Context(), req.RemoteAddress, req.RemotePort); err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, map[string]any{"blocked": req.RemoteAddress, "port": req.RemotePort})
}
