package handlers

import (
	"net/http"

	"github.com/MrOplus/NetGuard/internal/core/domain"
	"github.com/MrOplus/NetGuard/internal/core/ports"
)

// FirewallHandler forwards rule edits and verdicts to the privileged collaborators.
type FirewallHandler struct {
	Control ports.ControlService
}

func NewFirewallHandler(control ports.ControlService) *FirewallHandler {
	return &FirewallHandler{Control: control}
}

type appRequest struct {
	Path string `json:"path"`
}

func (h *FirewallHandler) HandleRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.Control.Rules(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	if rules == nil {
		rules = []domain.FirewallRule{}
	}
	WriteJSON(w, rules)
}

func (h *FirewallHandler) HandleBlockApp(w http.ResponseWriter, r *http.Request) {
	var req appRequest
	if err := decodeBody(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if err := h.Control.BlockApp(r.Context(), req.Path); err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, map[string]string{"blocked": req.Path})
}

func (h *FirewallHandler) HandleAllowApp(w http.ResponseWriter, r *http.Request) {
	var req appRequest
	if err := decodeBody(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if err := h.Control.AllowApp(r.Context(), req.Path); err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, map[string]string{"allowed": req.Path})
}

func (h *FirewallHandler) HandleRemoveRule(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if err := h.Control.RemoveRule(r.Context(), req.Name); err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, map[string]string{"removed": req.Name})
}

func (h *FirewallHandler) HandlePending(w http.ResponseWriter, r *http.Request) {
	pending, err := h.Control.Pending(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	if pending == nil {
		pending = []domain.PendingConnection{}
	}
	WriteJSON(w, pending)
}

func (h *FirewallHandler) HandleRespond(w http.ResponseWriter, r *http.Request) {
	var v domain.Verdict
	if err := decodeBody(w, r, &v); err != nil {
		WriteError(w, err)
		return
	}
	if err := h.Control.Respond(r.Context(), v); err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, v)
}
