package handler

import (
	"net/http"
	"strings"

	"go-calendar/internal/model"
	"go-calendar/internal/service"
)

type AuditHandler struct {
	service *service.AuditService
}

func NewAuditHandler(service *service.AuditService) *AuditHandler {
	return &AuditHandler{service: service}
}

// List returns the caller's own audit trail.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	items, meta, err := h.service.ListForActor(r.Context(), identity.UserID, model.AuditQuery{
		Action: strings.TrimSpace(query.Get("action")),
		Status: strings.TrimSpace(query.Get("status")),
		Page:   parseIntOrDefault(query.Get("page"), 1),
		Limit:  parseIntOrDefault(query.Get("limit"), 50),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.AuditListData{Items: items}, &meta)
}
