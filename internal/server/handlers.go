package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/bxl-digital/compare-cli/internal/compare"
	"github.com/bxl-digital/compare-cli/internal/export"
	"github.com/bxl-digital/compare-cli/internal/ingest"
	"github.com/bxl-digital/compare-cli/internal/model"
	"github.com/bxl-digital/compare-cli/pkg/backend"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleIngest accepts a multipart upload with parts file1..file4 and
// replaces the session dataset. Any file error rejects the whole batch and
// leaves the previous dataset in place.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	// The first three slots are required; only file4 is optional. A gap in
	// the required slots must not let a later part shift down into it.
	var files []ingest.File
	for _, field := range []string{"file1", "file2", "file3", "file4"} {
		fhs := r.MultipartForm.File[field]
		if len(fhs) == 0 {
			if field != "file4" {
				writeError(w, http.StatusBadRequest, "missing required upload "+field)
				return
			}
			continue
		}
		fh := fhs[0]
		f, err := fh.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, "open "+fh.Filename+": "+err.Error())
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			writeError(w, http.StatusBadRequest, "read "+fh.Filename+": "+err.Error())
			return
		}
		files = append(files, ingest.File{Name: fh.Filename, Data: data})
	}

	ds, err := ingest.Load(r.Context(), files)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.session.Replace(ds)
	zap.L().Info("dataset ingested",
		zap.Int("sources", ds.ActiveSources()),
		zap.Int("cars", len(ds.Cars)))
	writeJSON(w, http.StatusOK, map[string]any{
		"cars":    ds.Cars,
		"sources": ds.SourceNames,
	})
}

// handleFetch pulls a stored comparison from the backend. A fetch started
// later wins: if this request's result arrives after another fetch or
// ingestion began, it is discarded.
func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	if s.backend == nil {
		writeError(w, http.StatusServiceUnavailable, "no backend configured")
		return
	}

	var req struct {
		UserID  string `json:"userId"`
		ModelID string `json:"modelId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" || req.ModelID == "" {
		writeError(w, http.StatusBadRequest, "userId and modelId are required")
		return
	}

	generation := s.session.BeginFetch()

	payload, err := s.backend.GetComparison(r.Context(), req.UserID, req.ModelID)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	ds, err := backend.Flatten(payload, s.reg)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if !s.session.CompleteFetch(generation, ds) {
		zap.L().Info("fetch superseded", zap.Uint64("generation", generation))
		writeJSON(w, http.StatusOK, map[string]any{"superseded": true})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"superseded": false,
		"cars":       ds.Cars,
	})
}

func (s *Server) handleCars(w http.ResponseWriter, r *http.Request) {
	ds := s.session.Dataset()
	if ds == nil {
		writeError(w, http.StatusConflict, "no dataset ingested")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"cars":    ds.Cars,
		"sources": ds.SourceNames,
	})
}

func (s *Server) carRows(w http.ResponseWriter, r *http.Request) (*model.Dataset, string, []model.Row, bool) {
	ds := s.session.Dataset()
	if ds == nil {
		writeError(w, http.StatusConflict, "no dataset ingested")
		return nil, "", nil, false
	}
	car := r.URL.Query().Get("car")
	if car == "" {
		writeError(w, http.StatusBadRequest, "car query parameter is required")
		return nil, "", nil, false
	}
	if _, ok := ds.FeatureOrder[car]; !ok {
		writeError(w, http.StatusNotFound, "unknown car: "+car)
		return nil, "", nil, false
	}
	rows, err := s.builder.BuildRows(r.Context(), ds, car)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, "", nil, false
	}
	return ds, car, rows, true
}

func (s *Server) handleRows(w http.ResponseWriter, r *http.Request) {
	_, _, rows, ok := s.carRows(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	ds, _, rows, ok := s.carRows(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, compare.Aggregate(rows, ds.ActiveSources()))
}

type overrideRequest struct {
	Car     string `json:"car"`
	Feature string `json:"feature"`
	Source  *int   `json:"source,omitempty"`
	Value   string `json:"value"`
}

func (s *Server) handleSetFinal(w http.ResponseWriter, r *http.Request) {
	var req overrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Car == "" || req.Feature == "" {
		writeError(w, http.StatusBadRequest, "car and feature are required")
		return
	}
	if err := s.store.SetFinal(r.Context(), req.Car, req.Feature, req.Value); err != nil {
		zap.L().Error("set final override", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "persisting override failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

func (s *Server) handleSetCell(w http.ResponseWriter, r *http.Request) {
	var req overrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Car == "" || req.Feature == "" || req.Source == nil {
		writeError(w, http.StatusBadRequest, "car, feature and source are required")
		return
	}
	if *req.Source < 0 || *req.Source >= model.MaxSources {
		writeError(w, http.StatusBadRequest, "source index out of range")
		return
	}
	if err := s.store.SetCell(r.Context(), req.Car, req.Feature, *req.Source, req.Value); err != nil {
		zap.L().Error("set cell override", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "persisting override failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.store.ResetAll(r.Context()); err != nil {
		zap.L().Error("reset overrides", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "reset failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// handleExport streams a CSV or XLSX artifact. With a car parameter it
// exports that car's final values; without one it exports all cars side by
// side.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ds := s.session.Dataset()
	if ds == nil {
		writeError(w, http.StatusConflict, "no dataset ingested")
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "xlsx" {
		writeError(w, http.StatusBadRequest, "format must be csv or xlsx")
		return
	}

	car := r.URL.Query().Get("car")
	var buf bytes.Buffer
	var filename string
	var err error

	if car != "" {
		if _, ok := ds.FeatureOrder[car]; !ok {
			writeError(w, http.StatusNotFound, "unknown car: "+car)
			return
		}
		rows, berr := s.builder.BuildRows(r.Context(), ds, car)
		if berr != nil {
			writeError(w, http.StatusInternalServerError, berr.Error())
			return
		}
		filename = export.CarFilename(car, format, time.Now())
		if format == "csv" {
			err = export.CarCSV(&buf, rows)
		} else {
			err = export.CarXLSX(&buf, rows)
		}
	} else {
		resolve := func(c, feature string) (string, error) {
			return s.builder.FinalValue(r.Context(), ds, c, feature)
		}
		filename = export.AllCarsFilename(format, time.Now())
		if format == "csv" {
			err = export.AllCarsCSV(&buf, ds.Cars, ds.FeatureOrder, resolve)
		} else {
			err = export.AllCarsXLSX(&buf, ds.Cars, ds.FeatureOrder, resolve)
		}
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if format == "csv" {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	} else {
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		zap.L().Error("write export", zap.Error(err))
	}
}
