package handler

import (
	"net/http"

	"homefinder-client/internal/middleware"
	"homefinder-client/internal/model"
	"homefinder-client/internal/service"
	"homefinder-client/pkg/response"
)

// InquiryHandler handles inquiry requests.
type InquiryHandler struct {
	inquiries *service.InquiryService
}

// NewInquiryHandler creates a new inquiry handler.
func NewInquiryHandler(inquiries *service.InquiryService) *InquiryHandler {
	return &InquiryHandler{inquiries: inquiries}
}

// Create handles POST /api/inquiries
func (h *InquiryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.InquiryInput
	if err := decodeJSON(r, &in); err != nil {
		response.Error(w, err)
		return
	}
	q, err := h.inquiries.Create(r.Context(), middleware.GetActor(r.Context()), in)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Created(w, q)
}

// List handles GET /api/inquiries
func (h *InquiryHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.inquiries.List(r.Context(), middleware.GetActor(r.Context()))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, list)
}

// ForUser handles GET /api/inquiries/user/{id}
func (h *InquiryHandler) ForUser(w http.ResponseWriter, r *http.Request) {
	list, err := h.inquiries.ForUser(r.Context(), middleware.GetActor(r.Context()), idParam(r, "id"))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, list)
}

// ForProperty handles GET /api/inquiries/property/{id}
func (h *InquiryHandler) ForProperty(w http.ResponseWriter, r *http.Request) {
	list, err := h.inquiries.ForListing(r.Context(), middleware.GetActor(r.Context()), idParam(r, "id"))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, list)
}

// UpdateStatus handles PUT /api/inquiries/{id} and PUT /api/inquiries/{id}/status
func (h *InquiryHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status model.InquiryStatus `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	q, err := h.inquiries.UpdateStatus(r.Context(), middleware.GetActor(r.Context()), idParam(r, "id"), req.Status)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, q)
}
