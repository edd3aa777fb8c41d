package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"homefinder-client/internal/model"
	"homefinder-client/pkg/apierror"
)

// decodeJSON reads the request body into v.
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apierror.BadRequest("invalid request body")
	}
	return nil
}

// idParam returns the named URL parameter as an ID.
func idParam(r *http.Request, name string) model.ID {
	return model.ID(chi.URLParam(r, name))
}
