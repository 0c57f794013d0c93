package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"resumeforge/internal/assistant"
	resumeforgeErrors "resumeforge/internal/errors"
	"resumeforge/internal/tailoring"
	"resumeforge/internal/types"

	"go.opentelemetry.io/otel/attribute"
)

// analyzeHandler runs the cached job description analysis. The posting
// arrives as raw text or an uploaded file; uploads go through the extractor
// before analysis.
func (s *Server) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	om := s.Deps.Observability
	tracer := om.Tracer("resumeforge.api")
	ctx, span := tracer.Start(ctx, "api.analyze")
	defer span.End()

	var req AnalyzeRequest
	if err := parseJSONRequest(r, &req); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("error.type", "validation"))
		writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	text := req.Text
	if strings.TrimSpace(text) == "" && len(req.FileContent) > 0 {
		extracted, err := s.Deps.Extractor.ExtractText(req.FileContent, req.Filename)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "extraction"))
			s.writeAppError(w, err)
			return
		}
		text = extracted
		span.SetAttributes(attribute.String("request.filename", req.Filename))
	}

	if strings.TrimSpace(text) == "" {
		writeErrorResponse(w, "Missing job description", "text or fileContent is required", http.StatusBadRequest)
		return
	}

	span.SetAttributes(
		attribute.Int("request.job_length", len(text)),
		attribute.String("operation", "analyze"),
	)

	result, err := s.Deps.Tailoring.AnalyzeJDCached(ctx, tailoring.AnalyzeRequest{
		Text:      text,
		Title:     req.Title,
		Company:   req.Company,
		SourceURL: req.SourceURL,
		UserID:    req.UserID,
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("error.type", resumeforgeErrors.Code(err)))
		s.writeAppError(w, err)
		return
	}

	event := "miss"
	if result.Cached {
		event = "hit"
	}
	om.GetMetrics().RecordCacheEvent(ctx, event, om)

	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.Bool("cache.hit", result.Cached),
		attribute.Int("response.keywords", len(result.JobDescription.Keywords)),
	)

	writeJSONResponse(w, http.StatusOK, AnalyzeResponse{
		JobDescription: result.JobDescription,
		Cached:         result.Cached,
	})
}

// tailorHandler runs the full tailoring pipeline against stored records
func (s *Server) tailorHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	om := s.Deps.Observability
	tracer := om.Tracer("resumeforge.api")
	ctx, span := tracer.Start(ctx, "api.tailor")
	defer span.End()

	var req TailorRequest
	if err := parseJSONRequest(r, &req); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("error.type", "validation"))
		writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.MasterResumeID) == "" {
		writeErrorResponse(w, "Missing master resume id", "masterResumeId field is required", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.JobDescriptionID) == "" {
		writeErrorResponse(w, "Missing job description id", "jobDescriptionId field is required", http.StatusBadRequest)
		return
	}

	span.SetAttributes(
		attribute.String("request.master_resume_id", req.MasterResumeID),
		attribute.String("request.job_description_id", req.JobDescriptionID),
		attribute.String("operation", "tailor"),
	)

	tailored, err := s.Deps.Tailoring.TailorResume(ctx, req.MasterResumeID, req.JobDescriptionID)
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("error.type", resumeforgeErrors.Code(err)))
		s.writeAppError(w, err)
		return
	}

	metrics := om.GetMetrics()
	metrics.RecordMatchScore(ctx, "tailor", tailored.MatchScore, om)
	metrics.RecordMatchScore(ctx, "ats", tailored.ATSScore, om)

	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.Float64("match.score", tailored.MatchScore),
		attribute.Float64("ats.score", tailored.ATSScore),
		attribute.Int("response.optimizations", len(tailored.BulletOptimizations)),
	)

	writeJSONResponse(w, http.StatusOK, tailored)
}

// createResumeHandler stores a master resume. Pre-structured submissions are
// saved as-is; raw text or an uploaded file is structured through the parser
// first. When the resume carries a user id it is also indexed for the
// assistant; indexing failures are logged but do not fail the save.
func (s *Server) createResumeHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	om := s.Deps.Observability
	tracer := om.Tracer("resumeforge.api")
	ctx, span := tracer.Start(ctx, "api.resumes.create")
	defer span.End()

	var req CreateResumeRequest
	if err := parseJSONRequest(r, &req); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("error.type", "validation"))
		writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	resume := req.MasterResume
	rawText := req.RawText
	if strings.TrimSpace(rawText) == "" && len(req.FileContent) > 0 {
		extracted, err := s.Deps.Extractor.ExtractText(req.FileContent, req.Filename)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "extraction"))
			s.writeAppError(w, err)
			return
		}
		rawText = extracted
		span.SetAttributes(attribute.String("request.filename", req.Filename))
	}

	if strings.TrimSpace(rawText) != "" {
		span.SetAttributes(attribute.Bool("request.parsed", true))
		parsed, err := s.Deps.Parser.Parse(ctx, rawText)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", resumeforgeErrors.Code(err)))
			s.writeAppError(w, err)
			return
		}
		// Caller-supplied identity wins over anything the model saw
		parsed.UserID = req.UserID
		if req.ID != "" {
			parsed.ID = req.ID
		}
		resume = *parsed
	}

	if len(resume.Experiences) == 0 {
		writeErrorResponse(w, "Missing experiences", "A master resume needs at least one experience", http.StatusBadRequest)
		return
	}

	if err := s.Deps.Store.MasterResumes.Save(ctx, &resume); err != nil {
		span.RecordError(err)
		s.writeAppError(w, err)
		return
	}

	if resume.UserID != "" && s.Deps.Assistant != nil {
		indexed, err := s.Deps.Assistant.IndexResume(ctx, resume.UserID, &resume)
		if err != nil {
			s.Logger.Warn("Failed to index resume for assistant",
				"resume_id", resume.ID,
				"user_id", resume.UserID,
				"error", err)
		} else {
			span.SetAttributes(attribute.Int("assistant.indexed_bullets", indexed))
		}
	}

	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.String("resume.id", resume.ID),
		attribute.Int("resume.experiences", len(resume.Experiences)),
	)

	writeJSONResponse(w, http.StatusCreated, &resume)
}

// getResumeHandler returns a stored master resume by id
func (s *Server) getResumeHandler(w http.ResponseWriter, r *http.Request) {
	resume, err := s.Deps.Store.MasterResumes.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, resume)
}

// listResumesHandler returns a user's master resumes, newest first
func (s *Server) listResumesHandler(w http.ResponseWriter, r *http.Request) {
	userID, limit, err := listQueryParams(r)
	if err != nil {
		writeErrorResponse(w, "Invalid list query", err.Error(), http.StatusBadRequest)
		return
	}
	resumes, err := s.Deps.Store.MasterResumes.ListByUser(r.Context(), userID, limit)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, resumes)
}

// listJDsHandler returns a user's analyzed job descriptions, newest first
func (s *Server) listJDsHandler(w http.ResponseWriter, r *http.Request) {
	userID, limit, err := listQueryParams(r)
	if err != nil {
		writeErrorResponse(w, "Invalid list query", err.Error(), http.StatusBadRequest)
		return
	}
	jds, err := s.Deps.Store.JobDescriptions.ListByUser(r.Context(), userID, limit)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, jds)
}

// listQueryParams reads the userId and optional limit query parameters.
// limit 0 (or absent) means unlimited.
func listQueryParams(r *http.Request) (string, int, error) {
	userID := strings.TrimSpace(r.URL.Query().Get("userId"))
	if userID == "" {
		return "", 0, fmt.Errorf("userId query parameter is required")
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return "", 0, fmt.Errorf("limit must be a non-negative integer")
		}
		limit = parsed
	}
	return userID, limit, nil
}

// getTailoredHandler returns a stored tailoring result by id
func (s *Server) getTailoredHandler(w http.ResponseWriter, r *http.Request) {
	tailored, err := s.Deps.Store.TailoredResumes.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, tailored)
}

// bulletStatusHandler accepts or rejects one bullet rewrite
func (s *Server) bulletStatusHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	om := s.Deps.Observability
	tracer := om.Tracer("resumeforge.api")
	ctx, span := tracer.Start(ctx, "api.tailored.bullet_status")
	defer span.End()

	var req BulletStatusRequest
	if err := parseJSONRequest(r, &req); err != nil {
		span.RecordError(err)
		writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	tailoredID := r.PathValue("id")
	bulletID := r.PathValue("bulletId")
	span.SetAttributes(
		attribute.String("tailored.id", tailoredID),
		attribute.String("bullet.id", bulletID),
		attribute.String("bullet.status", string(req.Status)),
	)

	tailored, err := s.Deps.Tailoring.UpdateBulletStatus(ctx, tailoredID, bulletID, req.Status)
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("error.type", resumeforgeErrors.Code(err)))
		s.writeAppError(w, err)
		return
	}

	span.SetAttributes(attribute.Bool("success", true))
	writeJSONResponse(w, http.StatusOK, tailored)
}

// assistantHandler answers a career question grounded in the user's
// indexed experience. A stored job description can be referenced to focus
// the reply.
func (s *Server) assistantHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	om := s.Deps.Observability
	tracer := om.Tracer("resumeforge.api")
	ctx, span := tracer.Start(ctx, "api.assistant")
	defer span.End()

	var req AssistantRequest
	if err := parseJSONRequest(r, &req); err != nil {
		span.RecordError(err)
		writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	var jd *types.JobDescription
	if req.JobDescriptionID != "" {
		loaded, err := s.Deps.Store.JobDescriptions.GetByID(ctx, req.JobDescriptionID)
		if err != nil {
			span.RecordError(err)
			s.writeAppError(w, err)
			return
		}
		jd = loaded
	}

	span.SetAttributes(
		attribute.String("operation", "assistant"),
		attribute.Bool("request.has_jd", jd != nil),
	)

	result, err := s.Deps.Assistant.Ask(ctx, assistant.AskRequest{
		UserID:    req.UserID,
		SessionID: req.SessionID,
		Message:   req.Message,
		JD:        jd,
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("error.type", resumeforgeErrors.Code(err)))
		s.writeAppError(w, err)
		return
	}

	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.String("session.id", result.SessionID),
		attribute.Int("response.context_items", len(result.Context)),
	)

	writeJSONResponse(w, http.StatusOK, result)
}

// cacheStatsHandler reports analysis cache statistics
func (s *Server) cacheStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Deps.Cache.Stats(r.Context())
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, stats)
}

// cacheClearHandler drops all cached analyses
func (s *Server) cacheClearHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := s.Deps.Cache.Clear(ctx); err != nil {
		s.writeAppError(w, err)
		return
	}

	om := s.Deps.Observability
	om.GetMetrics().RecordCacheEvent(ctx, "clear", om)
	s.Logger.Info("Analysis cache cleared", "client_ip", getClientIP(r))

	writeJSONResponse(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// gatewayResetHandler forces the AI gateway back to its primary backend
func (s *Server) gatewayResetHandler(w http.ResponseWriter, r *http.Request) {
	s.Deps.Gateway.ResetToPrimary()
	s.Logger.Info("AI gateway reset to primary", "client_ip", getClientIP(r))

	writeJSONResponse(w, http.StatusOK, map[string]string{
		"status":   "reset",
		"provider": s.Deps.Gateway.CurrentProvider(),
	})
}

// createRateLimitMiddleware adds observability to rate limiting
func (s *Server) createRateLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	originalMiddleware := s.rateLimitMiddleware()

	return func(next http.HandlerFunc) http.HandlerFunc {
		return originalMiddleware(func(w http.ResponseWriter, r *http.Request) {
			// Wrap the ResponseWriter to detect rate limit responses
			wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}

			next(wrapper, r)

			if wrapper.statusCode == http.StatusTooManyRequests {
				om := s.Deps.Observability
				om.GetMetrics().RecordRateLimitHit(r.Context(), om,
					attribute.String("endpoint", r.URL.Path),
					attribute.String("method", r.Method))
			}
		})
	}
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
