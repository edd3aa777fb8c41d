package handler

import (
	"net/http"

	"homefinder-client/internal/middleware"
	"homefinder-client/internal/model"
	"homefinder-client/internal/service"
	"homefinder-client/pkg/apierror"
	"homefinder-client/pkg/response"
)

// PropertyHandler handles listing and favourite requests.
type PropertyHandler struct {
	listings *service.ListingService
}

// NewPropertyHandler creates a new property handler.
func NewPropertyHandler(listings *service.ListingService) *PropertyHandler {
	return &PropertyHandler{listings: listings}
}

// List handles GET /api/properties. variant=featured and variant=mine
// return bare arrays; otherwise the response is one page of search results.
func (h *PropertyHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	switch r.URL.Query().Get("variant") {
	case "featured":
		list, err := h.listings.Featured(ctx)
		if err != nil {
			response.Error(w, err)
			return
		}
		response.OK(w, list)
	case "mine":
		actor := middleware.GetActor(ctx)
		if actor.ID == "" {
			response.Error(w, apierror.Unauthorized("Authentication required"))
			return
		}
		list, err := h.listings.Mine(ctx, actor)
		if err != nil {
			response.Error(w, err)
			return
		}
		response.OK(w, list)
	default:
		page, err := h.listings.Search(ctx, r.URL.Query())
		if err != nil {
			response.Error(w, err)
			return
		}
		response.OK(w, page)
	}
}

// Get handles GET /api/properties/{id}
func (h *PropertyHandler) Get(w http.ResponseWriter, r *http.Request) {
	l, err := h.listings.Get(r.Context(), idParam(r, "id"))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, l)
}

// Create handles POST /api/properties
func (h *PropertyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.ListingInput
	if err := decodeJSON(r, &in); err != nil {
		response.Error(w, err)
		return
	}
	l, err := h.listings.Create(r.Context(), middleware.GetActor(r.Context()), in)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Created(w, l)
}

// Update handles PUT /api/properties/{id}
func (h *PropertyHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in model.ListingInput
	if err := decodeJSON(r, &in); err != nil {
		response.Error(w, err)
		return
	}
	l, err := h.listings.Update(r.Context(), middleware.GetActor(r.Context()), idParam(r, "id"), in)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, l)
}

// Delete handles DELETE /api/properties/{id}
func (h *PropertyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.listings.Delete(r.Context(), middleware.GetActor(r.Context()), idParam(r, "id")); err != nil {
		response.Error(w, err)
		return
	}
	response.Message(w, http.StatusOK, "Property deleted successfully")
}

// ToggleFeature handles PATCH /api/properties/{id}/feature
func (h *PropertyHandler) ToggleFeature(w http.ResponseWriter, r *http.Request) {
	l, err := h.listings.ToggleFeature(r.Context(), middleware.GetActor(r.Context()), idParam(r, "id"))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, l)
}

// Favourites handles GET /api/favourites
func (h *PropertyHandler) Favourites(w http.ResponseWriter, r *http.Request) {
	favs, err := h.listings.Favorites(r.Context(), middleware.GetActor(r.Context()))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, favs)
}

// Favourite handles GET /api/favourites/{property_id}
func (h *PropertyHandler) Favourite(w http.ResponseWriter, r *http.Request) {
	f, err := h.listings.Favorite(r.Context(), middleware.GetActor(r.Context()), idParam(r, "property_id"))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, f)
}

// AddFavourite handles POST /api/favourites
func (h *PropertyHandler) AddFavourite(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PropertyID model.ID `json:"property_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	f, err := h.listings.AddFavorite(r.Context(), middleware.GetActor(r.Context()), req.PropertyID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Created(w, f)
}

// RemoveFavourite handles DELETE /api/favourites/{property_id}
func (h *PropertyHandler) RemoveFavourite(w http.ResponseWriter, r *http.Request) {
	if err := h.listings.RemoveFavorite(r.Context(), middleware.GetActor(r.Context()), idParam(r, "property_id")); err != nil {
		response.Error(w, err)
		return
	}
	response.Message(w, http.StatusOK, "Favorite removed successfully")
}
