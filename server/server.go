// Package server exposes the interview API over HTTP. Handlers translate
// between JSON request bodies and the session manager, and map the error
// taxonomy onto status codes without leaking adapter detail: a client sees
// stable codes and messages, never provider names or retry internals.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/intervue/interview-service/config"
	"github.com/intervue/interview-service/errs"
	"github.com/intervue/interview-service/health"
	"github.com/intervue/interview-service/models"
	"github.com/intervue/interview-service/sessions"
)

// maxAudioUpload caps answer uploads at 10 MiB, roughly five minutes of
// 16 kHz 16-bit mono.
const maxAudioUpload = 10 << 20

// Server wires the session manager and health checker to HTTP routes.
type Server struct {
	manager *sessions.Manager
	checker *health.Checker
	limiter *rate.Limiter
	log     *logrus.Entry
	mux     *http.ServeMux
}

// New builds the server with its routes registered.
func New(cfg *config.Config, manager *sessions.Manager, checker *health.Checker) *Server {
	s := &Server{
		manager: manager,
		checker: checker,
		limiter: rate.NewLimiter(rate.Limit(cfg.HTTP.RateLimit), cfg.HTTP.RateBurst),
		log:     logrus.WithField("component", "server"),
		mux:     http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /api/session/start", s.handleStartSession)
	s.mux.HandleFunc("POST /api/question/next", s.handleNextQuestion)
	s.mux.HandleFunc("GET /api/question/audio", s.handleQuestionAudio)
	s.mux.HandleFunc("POST /api/answer/submit", s.handleSubmitAnswer)
	s.mux.HandleFunc("POST /api/answer/audio", s.handleSubmitAudio)
	s.mux.HandleFunc("POST /api/session/end", s.handleEndSession)
	s.mux.HandleFunc("GET /api/session/stats", s.handleStats)
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
}

// Handler wraps the routes with the global rate limiter. The health endpoint
// bypasses it so monitors are never throttled out.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" && !s.limiter.Allow() {
			writeError(w, errs.RateLimited("interview service", 0))
			return
		}
		s.mux.ServeHTTP(w, r)
	})
}

type startSessionRequest struct {
	ResumeText     string `json:"resume_text"`
	JobDescription string `json:"job_description"`
}

type startSessionResponse struct {
	SessionID string `json:"session_id"`
	State     string `json:"state"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := s.manager.StartSession(r.Context(), req.ResumeText, req.JobDescription)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, startSessionResponse{
		SessionID: session.SessionID,
		State:     string(session.State),
	})
}

type sessionRequest struct {
	SessionID string `json:"session_id"`
}

type questionResponse struct {
	SessionID      string `json:"session_id"`
	Question       string `json:"question"`
	QuestionNumber int    `json:"question_number"`
}

func (s *Server) handleNextQuestion(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	question, number, err := s.manager.NextQuestion(r.Context(), req.SessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, questionResponse{
		SessionID:      req.SessionID,
		Question:       question,
		QuestionNumber: number,
	})
}

// handleQuestionAudio streams WAV audio for the current question. When
// synthesis is unavailable the response is 204 and the client falls back to
// displaying the question text.
func (s *Server) handleQuestionAudio(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeError(w, errs.Validation("session_id is required"))
		return
	}

	data, err := s.manager.QuestionAudio(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	if data == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

type submitAnswerRequest struct {
	SessionID       string  `json:"session_id"`
	Answer          string  `json:"answer"`
	DurationSeconds float64 `json:"duration_seconds"`
}

type exchangeResponse struct {
	SessionID  string                   `json:"session_id"`
	Answer     string                   `json:"answer"`
	Evaluation *models.AnswerEvaluation `json:"evaluation,omitempty"`
	Coaching   *models.CoachingFeedback `json:"coaching,omitempty"`
}

func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var req submitAnswerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ex, err := s.manager.SubmitTextAnswer(r.Context(), req.SessionID, req.Answer, req.DurationSeconds)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, exchangeResponse{
		SessionID:  req.SessionID,
		Answer:     ex.Answer,
		Evaluation: ex.Evaluation,
		Coaching:   ex.Coaching,
	})
}

// handleSubmitAudio accepts the raw audio payload as the request body with
// the session id (and optional sample_rate for headerless PCM) in the query
// string, avoiding multipart plumbing for what is a single binary blob.
func (s *Server) handleSubmitAudio(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeError(w, errs.Validation("session_id is required"))
		return
	}

	sampleRate := 0
	if v := r.URL.Query().Get("sample_rate"); v != "" {
		var err error
		sampleRate, err = strconv.Atoi(v)
		if err != nil || sampleRate <= 0 {
			writeError(w, errs.Validation("sample_rate must be a positive integer"))
			return
		}
	}

	audio, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxAudioUpload))
	if err != nil {
		writeError(w, errs.Validation("could not read audio payload"))
		return
	}
	if len(audio) == 0 {
		writeError(w, errs.Validation("audio payload is empty"))
		return
	}

	ex, err := s.manager.SubmitAudioAnswer(r.Context(), sessionID, audio, sampleRate)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, exchangeResponse{
		SessionID:  sessionID,
		Answer:     ex.Answer,
		Evaluation: ex.Evaluation,
		Coaching:   ex.Coaching,
	})
}

type endSessionResponse struct {
	models.SessionSummary
	ClosingRemarks string `json:"closing_remarks,omitempty"`
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	summary, closing, err := s.manager.EndSession(r.Context(), req.SessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, endSessionResponse{
		SessionSummary: summary,
		ClosingRemarks: closing,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeError(w, errs.Validation("session_id is required"))
		return
	}

	summary, err := s.manager.Stats(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.checker.Snapshot(r.Context()))
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// statusFor maps taxonomy codes to HTTP statuses.
func statusFor(code string) int {
	switch code {
	case errs.CodeSessionNotFound:
		return http.StatusNotFound
	case errs.CodeInvalidState:
		return http.StatusConflict
	case errs.CodeRateLimited:
		return http.StatusTooManyRequests
	case errs.CodeTranscription:
		return http.StatusBadGateway
	case errs.CodeValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders a taxonomy error. Only the taxonomy message is exposed;
// wrapped causes stay in the logs.
func writeError(w http.ResponseWriter, err error) {
	code := errs.Code(err)
	status := statusFor(code)

	message := "internal error"
	var e *errs.Error
	if errors.As(err, &e) {
		message = e.Message
		if e.RetryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(e.RetryAfter.Seconds())))
		}
	}

	if status >= http.StatusInternalServerError {
		logrus.WithField("component", "server").WithError(err).Error("request failed")
	}
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithField("component", "server").WithError(err).Error("could not encode response")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, errs.Validation("invalid JSON body"))
		return false
	}
	return true
}
