package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/iwvelando/mortgage-simulator/internal/conditions"
	"github.com/iwvelando/mortgage-simulator/internal/mortgage"
	"github.com/iwvelando/mortgage-simulator/internal/session"
	"go.uber.org/zap"
)

type valueRequest struct {
	Value json.RawMessage `json:"value"`
}

type metricRequest struct {
	Metric string `json:"metric"`
}

// decodeJSON reads a size-limited JSON body into dst.
func (h *handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return fmt.Errorf("request body exceeds limit of %d bytes: %w", h.maxBodySize, err)
		}
		return fmt.Errorf("failed to decode request: %w", err)
	}
	return nil
}

// rawValue returns the text the user typed. Strings are used as is; a bare
// JSON number is taken by its literal text.
func (req valueRequest) rawValue() (string, error) {
	trimmed := bytes.TrimSpace(req.Value)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", errors.New(`request must contain a "value"`)
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", fmt.Errorf("invalid value: %w", err)
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return "", errors.New("value must be a string or a number")
	}
	return n.String(), nil
}

func (h *handler) readValue(w http.ResponseWriter, r *http.Request, op string) (string, bool) {
	var req valueRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.respondBodyErr(w, err, op)
		return "", false
	}
	raw, err := req.rawValue()
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return "", false
	}
	return raw, true
}

func (h *handler) respondBodyErr(w http.ResponseWriter, err error, op string) {
	status := http.StatusBadRequest
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		status = http.StatusRequestEntityTooLarge
	}
	h.respondErrorWithOp(w, status, err.Error(), op)
}

// respondEdit answers a field edit. A rejected value is not a request error:
// the warning travels in the view.
func (h *handler) respondEdit(w http.ResponseWriter, s *session.Session, err error, op string) {
	var fieldErr *conditions.FieldError
	if err != nil && !errors.As(err, &fieldErr) {
		h.respondErr(w, err, op)
		return
	}
	if fieldErr != nil {
		h.logger.Debug("field input rejected",
			zap.String("op", op),
			zap.String("session", s.ID),
			zap.String("key", fieldErr.Key),
		)
	}
	h.writeJSON(w, http.StatusOK, newSessionView(s))
}

func conditionIndex(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "index")
	index, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid condition index %q", raw)
	}
	return index, nil
}

func (h *handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCreateSession"

	s, err := h.sessions.Create(r.Context())
	if err != nil {
		h.respondErr(w, err, op)
		return
	}
	w.Header().Set("Location", "/api/sessions/"+s.ID)
	h.writeJSON(w, http.StatusCreated, newSessionView(s))
}

func (h *handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondErr(w, err, "server.handleGetSession")
		return
	}
	h.writeJSON(w, http.StatusOK, newSessionView(s))
}

func (h *handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondErr(w, err, "server.handleDeleteSession")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) handleUpdateGeneralField(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleUpdateGeneralField"

	field, err := mortgage.ParseGeneralField(chi.URLParam(r, "field"))
	if err != nil {
		h.respondErr(w, err, op)
		return
	}
	raw, ok := h.readValue(w, r, op)
	if !ok {
		return
	}

	s, err := h.sessions.Update(r.Context(), chi.URLParam(r, "id"), func(s *session.Session) error {
		return s.Store.UpdateGeneralField(field, raw)
	})
	h.respondEdit(w, s, err, op)
}

func (h *handler) handleAddCondition(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleAddCondition"

	s, err := h.sessions.Update(r.Context(), chi.URLParam(r, "id"), func(s *session.Session) error {
		s.Store.AddCondition()
		return nil
	})
	if err != nil {
		h.respondErr(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusCreated, newSessionView(s))
}

func (h *handler) handleRemoveCondition(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleRemoveCondition"

	index, err := conditionIndex(r)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	s, err := h.sessions.Update(r.Context(), chi.URLParam(r, "id"), func(s *session.Session) error {
		return s.Store.RemoveCondition(index)
	})
	if err != nil {
		h.respondErr(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, newSessionView(s))
}

func (h *handler) handleUpdateConditionField(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleUpdateConditionField"

	index, err := conditionIndex(r)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	field, err := mortgage.ParseConditionField(chi.URLParam(r, "field"))
	if err != nil {
		h.respondErr(w, err, op)
		return
	}
	raw, ok := h.readValue(w, r, op)
	if !ok {
		return
	}

	s, err := h.sessions.Update(r.Context(), chi.URLParam(r, "id"), func(s *session.Session) error {
		return s.Store.UpdateConditionField(index, field, raw)
	})
	h.respondEdit(w, s, err, op)
}

func (h *handler) handleSelectMetric(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSelectMetric"

	var req metricRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.respondBodyErr(w, err, op)
		return
	}

	s, err := h.sessions.SelectMetric(r.Context(), chi.URLParam(r, "id"), req.Metric)
	if err != nil {
		h.respondErr(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, newSessionView(s))
}

func (h *handler) handleSimulate(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Simulate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondErr(w, err, "server.handleSimulate")
		return
	}
	h.writeJSON(w, http.StatusOK, newSessionView(s))
}
