package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intervue/interview-service/coach"
	"github.com/intervue/interview-service/config"
	"github.com/intervue/interview-service/health"
	"github.com/intervue/interview-service/models"
	"github.com/intervue/interview-service/orchestrator"
	"github.com/intervue/interview-service/repository"
	"github.com/intervue/interview-service/sessions"
)

const (
	testResume = "Senior Go engineer with six years building distributed systems and APIs."
	testJob    = "Backend engineer for a real-time audio platform."
)

type stubInterviewer struct{}

func (stubInterviewer) OpeningQuestion(ctx context.Context, qc *models.QuestionContext) (string, error) {
	return "Tell me about your most recent project.", nil
}

func (stubInterviewer) NextQuestion(ctx context.Context, qc *models.QuestionContext) (string, error) {
	return "How did you test it?", nil
}

func (stubInterviewer) FollowUp(ctx context.Context, answer string) (string, error) {
	return "Why?", nil
}

func (stubInterviewer) EvaluateAnswer(ctx context.Context, question, answer string) (models.AnswerEvaluation, error) {
	return models.AnswerEvaluation{TechnicalAccuracy: 8, Clarity: 8, Depth: 8, Completeness: 8}, nil
}

func (stubInterviewer) Summary(ctx context.Context, transcript string, evaluations []models.AnswerEvaluation) (string, error) {
	return "closing remarks", nil
}

type stubTranscriber struct{}

func (stubTranscriber) Transcribe(ctx context.Context, audio []byte, sampleRate int) (string, error) {
	return "spoken answer", nil
}

type stubSynthesizer struct {
	data []byte
}

func (s stubSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	return s.data, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return newTestServerWithSynth(t, stubSynthesizer{})
}

func newTestServerWithSynth(t *testing.T, synth stubSynthesizer) *httptest.Server {
	t.Helper()

	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.HTTP.RateLimit = 1000
	cfg.HTTP.RateBurst = 1000

	repo, err := repository.New(t.TempDir())
	require.NoError(t, err)

	deps := orchestrator.Deps{
		Interviewer: stubInterviewer{},
		Transcriber: stubTranscriber{},
		Synthesizer: synth,
		Repo:        repo,
		Thresholds: coach.Thresholds{
			VolumeRMS: 0.02, WPMFast: 160, WPMSlow: 100, FillerWarn: 5, FillerCritical: 10,
		},
	}
	manager := sessions.NewManager(deps)
	checker := health.NewChecker(manager, repo, nil, true, true)

	ts := httptest.NewServer(New(cfg, manager, checker).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func startSession(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	resp := postJSON(t, ts.URL+"/api/session/start", map[string]string{
		"resume_text":     testResume,
		"job_description": testJob,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		SessionID string `json:"session_id"`
		State     string `json:"state"`
	}
	decodeBody(t, resp, &out)
	require.NotEmpty(t, out.SessionID)
	assert.Equal(t, "intro", out.State)
	return out.SessionID
}

func TestStartSessionValidation(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/session/start", map[string]string{
		"resume_text":     "too short",
		"job_description": testJob,
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var out struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "validation_failed", out.Error.Code)
}

func TestStartSessionRejectsBadJSON(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/session/start", "application/json", strings.NewReader("{nope"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestInterviewFlowOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	id := startSession(t, ts)

	resp := postJSON(t, ts.URL+"/api/question/next", map[string]string{"session_id": id})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var q struct {
		Question       string `json:"question"`
		QuestionNumber int    `json:"question_number"`
	}
	decodeBody(t, resp, &q)
	assert.NotEmpty(t, q.Question)
	assert.Equal(t, 1, q.QuestionNumber)

	resp = postJSON(t, ts.URL+"/api/answer/submit", map[string]any{
		"session_id":       id,
		"answer":           "I built it with Go and verified it with integration tests.",
		"duration_seconds": 15,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var ex struct {
		Evaluation *models.AnswerEvaluation `json:"evaluation"`
		Coaching   *models.CoachingFeedback `json:"coaching"`
	}
	decodeBody(t, resp, &ex)
	require.NotNil(t, ex.Evaluation)
	require.NotNil(t, ex.Coaching)

	statsResp, err := http.Get(fmt.Sprintf("%s/api/session/stats?session_id=%s", ts.URL, id))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, statsResp.StatusCode)
	var stats models.SessionSummary
	decodeBody(t, statsResp, &stats)
	assert.Equal(t, 1, stats.TotalQuestions)

	endResp := postJSON(t, ts.URL+"/api/session/end", map[string]string{"session_id": id})
	require.Equal(t, http.StatusOK, endResp.StatusCode)
	var end struct {
		models.SessionSummary
		ClosingRemarks string `json:"closing_remarks"`
	}
	decodeBody(t, endResp, &end)
	assert.Equal(t, "closing remarks", end.ClosingRemarks)
	assert.Equal(t, 1, end.TotalQuestions)
}

func TestSubmitAudioAnswer(t *testing.T) {
	ts := newTestServer(t)
	id := startSession(t, ts)

	resp := postJSON(t, ts.URL+"/api/question/next", map[string]string{"session_id": id})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Headerless PCM16 payload, one second at the assumed default rate.
	payload := make([]byte, 32000)
	for i := 0; i < len(payload); i += 2 {
		payload[i+1] = 0x40
	}
	audioResp, err := http.Post(
		fmt.Sprintf("%s/api/answer/audio?session_id=%s&sample_rate=16000", ts.URL, id),
		"application/octet-stream", bytes.NewReader(payload))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, audioResp.StatusCode)

	var ex struct {
		Answer   string                   `json:"answer"`
		Coaching *models.CoachingFeedback `json:"coaching"`
	}
	decodeBody(t, audioResp, &ex)
	assert.Equal(t, "spoken answer", ex.Answer)
	require.NotNil(t, ex.Coaching)
	assert.Equal(t, "OK", ex.Coaching.VolumeStatus)
}

func TestQuestionAudioUnavailableReturnsNoContent(t *testing.T) {
	ts := newTestServer(t)
	id := startSession(t, ts)

	resp := postJSON(t, ts.URL+"/api/question/next", map[string]string{"session_id": id})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	audioResp, err := http.Get(fmt.Sprintf("%s/api/question/audio?session_id=%s", ts.URL, id))
	require.NoError(t, err)
	defer audioResp.Body.Close()
	assert.Equal(t, http.StatusNoContent, audioResp.StatusCode)
}

func TestQuestionAudioServesWAV(t *testing.T) {
	ts := newTestServerWithSynth(t, stubSynthesizer{data: []byte("RIFF-audio")})
	id := startSession(t, ts)

	resp := postJSON(t, ts.URL+"/api/question/next", map[string]string{"session_id": id})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	audioResp, err := http.Get(fmt.Sprintf("%s/api/question/audio?session_id=%s", ts.URL, id))
	require.NoError(t, err)
	defer audioResp.Body.Close()
	assert.Equal(t, http.StatusOK, audioResp.StatusCode)
	assert.Equal(t, "audio/wav", audioResp.Header.Get("Content-Type"))
}

func TestUnknownSessionReturns404(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/question/next", map[string]string{"session_id": "nope"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWrongStateReturns409(t *testing.T) {
	ts := newTestServer(t)
	id := startSession(t, ts)

	// Answer submitted before any question was asked.
	resp := postJSON(t, ts.URL+"/api/answer/submit", map[string]any{
		"session_id":       id,
		"answer":           "premature answer",
		"duration_seconds": 5,
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var st health.Status
	decodeBody(t, resp, &st)
	assert.Equal(t, "ok", st.Status)
	assert.Equal(t, "ok", st.Transcriber)
	assert.Equal(t, "disabled", st.Cache)
}

func TestRateLimitReturns429(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.HTTP.RateLimit = 1
	cfg.HTTP.RateBurst = 1

	repo, err := repository.New(t.TempDir())
	require.NoError(t, err)
	deps := orchestrator.Deps{
		Interviewer: stubInterviewer{},
		Transcriber: stubTranscriber{},
		Synthesizer: stubSynthesizer{},
		Repo:        repo,
		Thresholds:  coach.Thresholds{VolumeRMS: 0.02, WPMFast: 160, WPMSlow: 100, FillerWarn: 5, FillerCritical: 10},
	}
	manager := sessions.NewManager(deps)
	checker := health.NewChecker(manager, repo, nil, true, true)
	ts := httptest.NewServer(New(cfg, manager, checker).Handler())
	t.Cleanup(ts.Close)

	first := postJSON(t, ts.URL+"/api/session/start", map[string]string{
		"resume_text":     testResume,
		"job_description": testJob,
	})
	first.Body.Close()
	require.Equal(t, http.StatusOK, first.StatusCode)

	second := postJSON(t, ts.URL+"/api/session/start", map[string]string{
		"resume_text":     testResume,
		"job_description": testJob,
	})
	defer second.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, second.StatusCode)

	// Health stays reachable under throttling.
	healthResp, err := http.Get(ts.URL + "/api/health")
	require.NoError(t, err)
	healthResp.Body.Close()
	assert.Equal(t, http.StatusOK, healthResp.StatusCode)
}
