package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"studyhub/middleware"
	"studyhub/store"
)

// resource is the generic ownership-scoped handler set. Each resource kind
// supplies only its payload decoding; list/get/create/patch/delete and the
// ownership rules are shared.
type resource[T any] struct {
	store  *store.Store[T]
	logger *slog.Logger
	// decodeCreate returns the insert columns and values for a create payload.
	decodeCreate func(r *http.Request) (cols []string, vals []any, err error)
	// decodePatch returns the column changes for a partial-update payload.
	decodePatch func(r *http.Request) (map[string]any, error)
}

func mountResource[T any](r chi.Router, path string, res *resource[T]) {
	r.Get(path, res.list)
	r.Post(path, res.create)
	r.Get(path+"/{id}", res.get)
	r.Patch(path+"/{id}", res.patch)
	r.Delete(path+"/{id}", res.delete)
}

func (res *resource[T]) list(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	items, err := res.store.List(r.Context(), user.ID)
	if err != nil {
		res.fail(w, err)
		return
	}
	if items == nil {
		items = []T{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (res *resource[T]) get(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	item, err := res.store.Get(r.Context(), id, user.ID)
	if err != nil {
		res.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (res *resource[T]) create(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	cols, vals, err := res.decodeCreate(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	item, err := res.store.Create(r.Context(), user.ID, cols, vals)
	if err != nil {
		res.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (res *resource[T]) patch(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	changes, err := res.decodePatch(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	item, err := res.store.Update(r.Context(), id, user.ID, changes)
	if err != nil {
		res.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (res *resource[T]) delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	if err := res.store.Delete(r.Context(), id, user.ID); err != nil {
		res.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (res *resource[T]) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	res.logger.Error("storage fault", "error", err)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// patch payload helpers

// patchFields decodes the request body into raw fields so that an absent key
// and an explicit null can be told apart.
func patchFields(r *http.Request) (map[string]json.RawMessage, error) {
	fields := map[string]json.RawMessage{}
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		return nil, fmt.Errorf("invalid body: %w", err)
	}
	return fields, nil
}

func isNull(raw json.RawMessage) bool {
	return string(raw) == "null"
}

func decodeString(raw json.RawMessage, field string, max int, allowEmpty bool) (string, error) {
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", fmt.Errorf("%s must be a string", field)
	}
	if !allowEmpty && v == "" {
		return "", fmt.Errorf("%s must not be empty", field)
	}
	if len(v) > max {
		return "", fmt.Errorf("%s exceeds %d characters", field, max)
	}
	return v, nil
}

func decodeBool(raw json.RawMessage, field string) (bool, error) {
	var v bool
	if err := json.Unmarshal(raw, &v); err != nil {
		return false, fmt.Errorf("%s must be a boolean", field)
	}
	return v, nil
}

func decodeInt(raw json.RawMessage, field string) (int, error) {
	var v int
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, fmt.Errorf("%s must be an integer", field)
	}
	return v, nil
}

func decodeDate(raw json.RawMessage, field string) (time.Time, error) {
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return time.Time{}, fmt.Errorf("%s must be a date string", field)
	}
	return parseDate(v, field)
}

func parseDate(v, field string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, v); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%s must be a YYYY-MM-DD date", field)
}
