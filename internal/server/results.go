package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/cespare/xxhash/v2"
	"github.com/go-chi/chi/v5"
	"github.com/iwvelando/mortgage-simulator/internal/mortgage"
	"github.com/iwvelando/mortgage-simulator/internal/results"
	"github.com/iwvelando/mortgage-simulator/pkg/constants"
	"github.com/iwvelando/mortgage-simulator/pkg/output"
	"github.com/iwvelando/mortgage-simulator/pkg/validation"
)

var errNoResults = errors.New("no simulation results for this session")

var contentTypes = map[string]string{
	constants.OutputFormatJSON:   "application/json",
	constants.OutputFormatCSV:    "text/csv; charset=utf-8",
	constants.OutputFormatPretty: "text/plain; charset=utf-8",
	constants.OutputFormatPDF:    "application/pdf",
}

// handleResults renders the stored results projected onto a metric. The
// metric defaults to the session's selection and is not persisted.
func (h *handler) handleResults(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleResults"

	s, err := h.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondErr(w, err, op)
		return
	}
	if !s.HasResults() {
		h.respondErrorWithOp(w, http.StatusNotFound, errNoResults.Error(), op)
		return
	}

	metric := s.Metric
	if name := r.URL.Query().Get("metric"); name != "" {
		if metric, err = results.ParseMetric(name); err != nil {
			h.respondErr(w, err, op)
			return
		}
	}

	outputFormat := r.URL.Query().Get("format")
	if outputFormat == "" {
		outputFormat = constants.OutputFormatJSON
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	chart, err := results.BuildChart(s.Results, metric)
	if err != nil {
		h.respondErr(w, err, op)
		return
	}

	var buf bytes.Buffer
	switch outputFormat {
	case constants.OutputFormatJSON:
		err = json.NewEncoder(&buf).Encode(chart)
	case constants.OutputFormatCSV:
		var series []results.Series
		if series, err = results.Project(s.Results, metric); err == nil {
			err = output.CsvFormat(&buf, series)
		}
	case constants.OutputFormatPretty:
		err = output.PrettyFormat(&buf, chart, h.locale)
	case constants.OutputFormatPDF:
		err = results.RenderPDF(&buf, chart, h.valueFormatter(metric))
	}
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to render %s results: %v", outputFormat, err), op)
		return
	}

	etag := fmt.Sprintf(`"%016x"`, xxhash.Sum64(buf.Bytes()))
	w.Header().Set("ETag", etag)
	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", contentTypes[outputFormat])
	if outputFormat == constants.OutputFormatPDF {
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.pdf"`, metric))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// valueFormatter renders PDF values with the session codecs, so rates read
// as percentages and amounts carry the currency symbol.
func (h *handler) valueFormatter(metric results.Metric) results.ValueFormatter {
	if metric.IsRate() {
		if h.codecs.Percentage == nil {
			return nil
		}
		return func(v float64) string {
			return h.codecs.Percentage.Format(mortgage.ToPercentagePoints(v))
		}
	}
	if h.codecs.Currency == nil {
		return nil
	}
	return h.codecs.Currency.Format
}
