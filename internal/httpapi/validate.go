package httpapi

import (
	"encoding/json"
	"net/http"
)

// decodeAndValidate decodes r's JSON body into dst and runs struct-tag
// validation (spec.md §4.5 "400 on malformed input"). On failure it writes
// the response itself and returns false; callers should return immediately.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "malformed_request_body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed")
		return false
	}
	return true
}
