package server

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"ailo_generator/config"
	"ailo_generator/framework"
	"ailo_generator/generator"
	"ailo_generator/normalizer"
	"ailo_generator/report"
	"ailo_generator/store"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

//go:embed web/index.html
var indexHTML []byte

const defaultInfluencePercent = 50

type Server struct {
	agent    *generator.Agent
	store    store.Store
	cfg      config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	uploads  *prometheus.CounterVec
	now      func() time.Time
}

// New wires the HTTP surface. A nil registry gets a fresh one; a nil logger
// discards output.
func New(agent *generator.Agent, st store.Store, cfg config.Config, logger *zap.Logger, reg *prometheus.Registry) (*Server, error) {
	if agent == nil {
		return nil, errors.New("generator agent required")
	}
	if st == nil {
		return nil, errors.New("session store required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = config.DefaultMaxUploadBytes
	}
	if cfg.Session.CookieName == "" {
		cfg.Session.CookieName = config.DefaultCookieName
	}

	uploads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ailo_uploads_total",
		Help: "Syllabus uploads by file format and result.",
	}, []string{"format", "result"})
	if err := reg.Register(uploads); err != nil {
		return nil, fmt.Errorf("register upload metrics: %w", err)
	}

	return &Server{
		agent:    agent,
		store:    st,
		cfg:      cfg,
		logger:   logger,
		registry: reg,
		uploads:  uploads,
		now:      time.Now,
	}, nil
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /framework", s.handleFramework)
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("POST /validate", s.handleValidate)
	mux.HandleFunc("POST /generate-ailos", s.handleGenerate)
	mux.HandleFunc("GET /export", s.handleExport)
	mux.HandleFunc("DELETE /session", s.handleReset)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return s.logMiddleware(s.recoverMiddleware(mux))
}

// --- Handlers ---

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexHTML)
}

func (s *Server) handleFramework(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, framework.Get())
}

type extractedData struct {
	LearningOutcomes  []generator.LearningOutcome  `json:"learning_outcomes"`
	AssessmentMethods []generator.AssessmentMethod `json:"assessment_methods"`
}

type uploadResp struct {
	Success       bool          `json:"success,omitempty"`
	Filename      string        `json:"filename,omitempty"`
	Warning       string        `json:"warning,omitempty"`
	ExtractedData extractedData `json:"extracted_data"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	file, header, err := r.FormFile("syllabus")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			s.uploads.WithLabelValues("unknown", "rejected").Inc()
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("File too large. Maximum size is %d MB", s.cfg.MaxUploadBytes>>20))
		case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
			s.uploads.WithLabelValues("unknown", "rejected").Inc()
			writeError(w, http.StatusBadRequest, "No file uploaded")
		default:
			s.uploads.WithLabelValues("unknown", "rejected").Inc()
			writeError(w, http.StatusBadRequest, "Invalid upload: "+err.Error())
		}
		return
	}
	defer file.Close()

	if header.Filename == "" {
		s.uploads.WithLabelValues("unknown", "rejected").Inc()
		writeError(w, http.StatusBadRequest, "No file selected")
		return
	}
	if !normalizer.Allowed(header.Filename) {
		s.uploads.WithLabelValues("unsupported", "rejected").Inc()
		writeError(w, http.StatusBadRequest, "Invalid file type. Please upload PDF, DOCX, or TXT")
		return
	}
	ext := normalizer.ExtensionOf(header.Filename)

	data, err := io.ReadAll(file)
	if err != nil {
		s.uploads.WithLabelValues(ext, "error").Inc()
		writeError(w, http.StatusInternalServerError, "Error processing file: "+err.Error())
		return
	}
	filename := secureFilename(header.Filename)
	path, err := saveUpload(s.cfg.UploadDir, filename, s.now(), data)
	if err != nil {
		s.uploads.WithLabelValues(ext, "error").Inc()
		s.logger.Error("upload save failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error processing file: "+err.Error())
		return
	}

	text, err := normalizer.Normalize(normalizer.RawDocument{Bytes: data, Extension: ext})
	if err != nil {
		s.uploads.WithLabelValues(ext, "error").Inc()
		s.logger.Warn("normalize failed", zap.String("file", filepath.Base(path)), zap.Error(err))
		status := http.StatusInternalServerError
		if errors.Is(err, normalizer.ErrUnsupportedFormat) {
			status = http.StatusBadRequest
		}
		writeError(w, status, "Error processing file: "+err.Error())
		return
	}

	sess := s.session(w, r)
	if err := sess.SaveSyllabus(r.Context(), filename, text); err != nil {
		s.uploads.WithLabelValues(ext, "error").Inc()
		s.logger.Error("save syllabus failed", zap.String("session", sess.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error processing file: "+err.Error())
		return
	}

	ctx, cancel := s.oracleContext(r.Context())
	defer cancel()
	res := s.agent.Extract(ctx, text)
	if res.Failed() {
		s.uploads.WithLabelValues(ext, "fallback").Inc()
		s.logger.Warn("extraction failed", zap.String("session", sess.ID), zap.String("error", res.Error))
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"error":    fmt.Sprintf("AI extraction failed: %s... Please try again in a moment.", firstChars(res.Error, 200)),
			"fallback": true,
		})
		return
	}

	s.uploads.WithLabelValues(ext, "ok").Inc()
	s.logger.Info("syllabus extracted",
		zap.String("session", sess.ID),
		zap.String("file", filename),
		zap.Int("chars", len(text)),
		zap.Int("outcomes", len(res.LearningOutcomes)),
		zap.Int("assessments", len(res.AssessmentMethods)),
	)
	if len(res.LearningOutcomes) == 0 {
		writeJSON(w, http.StatusOK, uploadResp{
			Warning: "No learning outcomes were automatically extracted. Please add them manually in the next step.",
			ExtractedData: extractedData{
				LearningOutcomes:  []generator.LearningOutcome{},
				AssessmentMethods: res.AssessmentMethods,
			},
		})
		return
	}
	writeJSON(w, http.StatusOK, uploadResp{
		Success:  true,
		Filename: filename,
		ExtractedData: extractedData{
			LearningOutcomes:  res.LearningOutcomes,
			AssessmentMethods: res.AssessmentMethods,
		},
	})
}

type validateReq struct {
	LearningOutcomes  []generator.LearningOutcome  `json:"learning_outcomes"`
	AssessmentMethods []generator.AssessmentMethod `json:"assessment_methods"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	sess := s.session(w, r)
	inv := generator.Validate(req.LearningOutcomes, req.AssessmentMethods)
	if err := sess.SaveInventory(r.Context(), inv); err != nil {
		s.logger.Error("save inventory failed", zap.String("session", sess.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error saving validated outcomes: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type generateReq struct {
	LearningOutcomes   []generator.LearningOutcome `json:"learning_outcomes"`
	SelectedDimensions []string                    `json:"selected_dimensions"`
	AIInfluencePercent *int                        `json:"ai_influence_percent"`
}

type generateResp struct {
	Success bool             `json:"success"`
	AILOs   []generator.AILO `json:"ailos"`
	Error   *string          `json:"error"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	percent := defaultInfluencePercent
	if req.AIInfluencePercent != nil {
		percent = *req.AIInfluencePercent
	}

	sess := s.session(w, r)
	inv, _, err := sess.Inventory(r.Context())
	if err != nil {
		s.logger.Error("load inventory failed", zap.String("session", sess.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error generating AILOs: "+err.Error())
		return
	}
	if len(req.LearningOutcomes) > 0 {
		inv = generator.Validate(req.LearningOutcomes, inv.AssessmentMethods)
	}

	ctx, cancel := s.oracleContext(r.Context())
	defer cancel()
	result, err := s.agent.Generate(ctx, inv, req.SelectedDimensions, percent)
	switch {
	case errors.Is(err, generator.ErrNoOutcomesProvided):
		writeError(w, http.StatusBadRequest, "No learning outcomes provided")
		return
	case errors.Is(err, generator.ErrNoDimensionSelected):
		writeError(w, http.StatusBadRequest, "Please select at least one DEC AI Literacy dimension")
		return
	case err != nil:
		s.logger.Error("generation failed", zap.String("session", sess.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error generating AILOs: "+err.Error())
		return
	}

	// body outcomes replace the stored inventory only once the request is accepted
	if len(req.LearningOutcomes) > 0 {
		if err := sess.SaveInventory(r.Context(), inv); err != nil {
			s.logger.Error("save inventory failed", zap.String("session", sess.ID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Error generating AILOs: "+err.Error())
			return
		}
	}

	if err := sess.RecordGeneration(r.Context(), req.SelectedDimensions, percent, result); err != nil {
		s.logger.Error("record generation failed", zap.String("session", sess.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error generating AILOs: "+err.Error())
		return
	}

	resp := generateResp{Success: true, AILOs: result.AILOs}
	if resp.AILOs == nil {
		resp.AILOs = []generator.AILO{}
	}
	if result.Failed() {
		resp.Error = &result.Error
		s.logger.Warn("generation returned no AILOs", zap.String("session", sess.ID), zap.String("error", result.Error))
	} else {
		s.logger.Info("AILOs generated",
			zap.String("session", sess.ID),
			zap.Int("ailos", len(result.AILOs)),
			zap.Int("target", result.TargetCount),
		)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	rec, ok, err := sess.LastGeneration(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error exporting results: "+err.Error())
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "No AILOs have been generated in this session")
		return
	}
	filename, err := sess.Filename(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error exporting results: "+err.Error())
		return
	}
	inv, _, err := sess.Inventory(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error exporting results: "+err.Error())
		return
	}

	body, contentType, ext, err := report.Render(report.New(filename, inv, rec), r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	if stem == "" {
		stem = "syllabus"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="ailos_%s.%s"`, stem, ext))
	_, _ = w.Write(body)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if err := sess.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Error clearing session: "+err.Error())
		return
	}
	http.SetCookie(w, &http.Cookie{Name: s.cfg.Session.CookieName, Value: "", Path: "/", MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// --- Helpers ---

// session returns the caller's session, issuing a new cookie when the
// request carries none or an invalid one.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *generator.Session {
	if c, err := r.Cookie(s.cfg.Session.CookieName); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return generator.NewSession(id.String(), s.store)
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.Session.CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return generator.NewSession(id, s.store)
}

func (s *Server) oracleContext(parent context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.LLM.Timeout > 0 {
		return context.WithTimeout(parent, s.cfg.LLM.Timeout)
	}
	return context.WithCancel(parent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		path := r.URL.Path
		if path == "" {
			path = "/"
		}
		s.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.logger.Error("handler panic", zap.Any("panic", rec), zap.String("path", r.URL.Path), zap.Stack("stack"))
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
