package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/iwvelando/mortgage-simulator/internal/conditions"
	"github.com/iwvelando/mortgage-simulator/internal/session"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const exportFilename = "mortgage-conditions.yaml"

// handleExport downloads the general input and conditions as YAML.
func (h *handler) handleExport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleExport"

	s, err := h.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondErr(w, err, op)
		return
	}

	body, err := yaml.Marshal(s.Store.Snapshot())
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to encode conditions: %v", err), op)
		return
	}

	w.Header().Set("Content-Type", "application/x-yaml")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, exportFilename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// handleImport replaces the general input and conditions with an uploaded
// YAML document. A document with any value outside its field's range is
// rejected as a whole. Field warnings are cleared; stored results are kept
// until the next simulation.
func (h *handler) handleImport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleImport"

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		h.respondBodyErr(w, err, op)
		return
	}

	var snap conditions.Snapshot
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&snap); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("empty document")
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to parse conditions: %v", err), op)
		return
	}

	s, err := h.sessions.Update(r.Context(), chi.URLParam(r, "id"), func(s *session.Session) error {
		return s.Store.Replace(snap.General, snap.Conditions)
	})
	if err != nil {
		h.respondErr(w, err, op)
		return
	}

	h.logger.Info("conditions imported",
		zap.String("op", op),
		zap.String("session", s.ID),
		zap.Int("conditions", s.Store.Len()),
	)
	h.writeJSON(w, http.StatusOK, newSessionView(s))
}
