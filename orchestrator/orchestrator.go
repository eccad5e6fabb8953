// Package orchestrator drives a single interview session through its state
// machine: setup, intro, questioning, listening, evaluating, and finally
// complete, with error as the sink for failed adapter calls. It owns the
// session aggregate, its coach, and the in-memory question context, and it
// persists the session after every mutation so a crash never loses more than
// the in-flight turn.
//
// An orchestrator is not safe for concurrent use; the session manager
// serializes access per session.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/intervue/interview-service/audio"
	"github.com/intervue/interview-service/cache"
	"github.com/intervue/interview-service/coach"
	"github.com/intervue/interview-service/errs"
	"github.com/intervue/interview-service/interfaces"
	"github.com/intervue/interview-service/metrics"
	"github.com/intervue/interview-service/models"
	"github.com/intervue/interview-service/repository"
)

const (
	minResumeChars = 50
	minJobChars    = 20

	// Assumed rate for headerless PCM uploads.
	defaultSampleRate = 16000
)

// Deps bundles the adapters and stores an orchestrator works against.
type Deps struct {
	Interviewer interfaces.Interviewer
	Transcriber interfaces.Transcriber
	Synthesizer interfaces.Synthesizer
	Repo        *repository.Repository
	AudioCache  *cache.DB
	Thresholds  coach.Thresholds
}

// Orchestrator owns one interview session end to end.
type Orchestrator struct {
	deps    Deps
	session *models.InterviewSession
	qctx    *models.QuestionContext
	coach   *coach.Coach
	log     *logrus.Entry
}

// New starts a fresh session. The resume and job description are validated
// here so every surface gets the same rules.
func New(deps Deps, resumeText, jobDescription string) (*Orchestrator, error) {
	if len(strings.TrimSpace(resumeText)) < minResumeChars {
		return nil, errs.Validation(fmt.Sprintf("resume text must be at least %d characters", minResumeChars))
	}
	if len(strings.TrimSpace(jobDescription)) < minJobChars {
		return nil, errs.Validation(fmt.Sprintf("job description must be at least %d characters", minJobChars))
	}

	id := uuid.NewString()[:8]
	session := models.NewSession(id, resumeText, jobDescription)

	o := &Orchestrator{
		deps:    deps,
		session: session,
		qctx:    models.NewQuestionContext(session),
		coach:   coach.New(deps.Thresholds),
		log:     logrus.WithFields(logrus.Fields{"component": "orchestrator", "session_id": id}),
	}

	// Setup work (capturing inputs) is done; the session is ready for its
	// opening question.
	session.State = models.StateIntro
	if err := deps.Repo.Save(session); err != nil {
		return nil, err
	}

	metrics.IncrementSessionsStarted()
	o.log.Info("session started")
	return o, nil
}

// Restore rebuilds an orchestrator around a session loaded from disk. The
// question context is replayed from the exchange log; coach histories start
// empty because the persisted aggregates are authoritative.
func Restore(deps Deps, session *models.InterviewSession) *Orchestrator {
	return &Orchestrator{
		deps:    deps,
		session: session,
		qctx:    models.NewQuestionContext(session),
		coach:   coach.New(deps.Thresholds),
		log:     logrus.WithFields(logrus.Fields{"component": "orchestrator", "session_id": session.SessionID}),
	}
}

// Session exposes the underlying aggregate for read-only callers.
func (o *Orchestrator) Session() *models.InterviewSession {
	return o.session
}

// NextQuestion generates the next interview question and leaves the session
// listening for an answer. The first call after setup produces the opening
// question; later calls ground the question in the accumulated context.
func (o *Orchestrator) NextQuestion(ctx context.Context) (string, error) {
	s := o.session
	if s.State.Terminal() {
		return "", errs.InvalidState(string(s.State), "generate a question")
	}

	s.State = models.StateQuestioning

	var (
		question string
		err      error
	)
	if len(o.qctx.PreviousQuestions) == 0 {
		question, err = o.deps.Interviewer.OpeningQuestion(ctx, o.qctx)
	} else {
		question, err = o.deps.Interviewer.NextQuestion(ctx, o.qctx)
	}
	if err != nil {
		o.fail("question generation failed", err)
		return "", err
	}

	s.CurrentQuestion = question
	s.QuestionsGenerated++
	s.State = models.StateListening

	if err := o.deps.Repo.Save(s); err != nil {
		o.fail("could not persist generated question", err)
		return "", err
	}

	metrics.IncrementQuestionsGenerated()
	o.log.WithField("question_number", s.QuestionsGenerated).Info("question generated")
	return question, nil
}

// ProcessAudioAnswer transcribes a spoken answer and completes the turn. The
// payload may be a WAV container or headerless 16-bit PCM mono; for the
// latter, sampleRate applies (non-positive values fall back to the default).
func (o *Orchestrator) ProcessAudioAnswer(ctx context.Context, audioData []byte, sampleRate int) (*models.InterviewExchange, error) {
	s := o.session
	if s.State != models.StateListening {
		return nil, errs.InvalidState(string(s.State), "submit an answer")
	}
	s.State = models.StateEvaluating

	if sampleRate <= 0 {
		sampleRate = defaultSampleRate
	}
	samples, sampleRate := audio.Decode(audioData, sampleRate)
	if len(samples) == 0 {
		s.State = models.StateListening
		return nil, errs.Validation("audio payload is empty or malformed")
	}

	transcript, err := o.deps.Transcriber.Transcribe(ctx, audioData, sampleRate)
	if err != nil {
		o.fail("transcription failed", err)
		return nil, err
	}

	metrics.IncrementAudioAnswers()
	return o.completeTurn(ctx, transcript, audio.Duration(samples, sampleRate), samples)
}

// ProcessTextAnswer completes a turn from an already-transcribed answer.
// Volume analysis is skipped; there is no signal to measure.
func (o *Orchestrator) ProcessTextAnswer(ctx context.Context, answer string, durationSeconds float64) (*models.InterviewExchange, error) {
	s := o.session
	if s.State != models.StateListening {
		return nil, errs.InvalidState(string(s.State), "submit an answer")
	}
	s.State = models.StateEvaluating

	return o.completeTurn(ctx, answer, durationSeconds, nil)
}

// completeTurn runs coaching and evaluation, records the exchange, and
// persists. The session stays in the evaluating state until the next
// question is requested or the session ends.
func (o *Orchestrator) completeTurn(ctx context.Context, answer string, durationSeconds float64, samples []float64) (*models.InterviewExchange, error) {
	s := o.session

	feedback := o.coach.Feedback(answer, durationSeconds, samples)

	exchange := &models.InterviewExchange{
		Question:              s.CurrentQuestion,
		Answer:                answer,
		AnswerDurationSeconds: durationSeconds,
		Coaching:              &feedback,
		Timestamp:             time.Now().UTC(),
	}

	eval, err := o.deps.Interviewer.EvaluateAnswer(ctx, s.CurrentQuestion, answer)
	if err != nil {
		// The interviewer contract says evaluation degrades instead of
		// failing; an error here still must not abort the turn.
		o.log.WithError(err).Warn("answer evaluation failed, recording exchange without scores")
	} else {
		exchange.Evaluation = &eval
	}

	s.AddExchange(exchange)
	o.qctx.AddExchange(s.CurrentQuestion, answer)

	if err := o.deps.Repo.Save(s); err != nil {
		o.fail("could not persist exchange", err)
		return nil, err
	}

	metrics.IncrementAnswersProcessed()
	o.log.WithFields(logrus.Fields{
		"exchange":     s.ExchangesCompleted(),
		"filler_count": feedback.FillerCount,
		"wpm":          feedback.WordsPerMinute,
	}).Info("answer processed")
	return exchange, nil
}

// SpeakQuestion synthesizes audio for the current question, serving repeats
// from the cache. A nil payload with a nil error means synthesis is
// unavailable and the caller should fall back to text.
func (o *Orchestrator) SpeakQuestion(ctx context.Context) ([]byte, error) {
	s := o.session
	if s.CurrentQuestion == "" {
		return nil, errs.InvalidState(string(s.State), "speak a question before one is generated")
	}

	if data, err := o.deps.AudioCache.LoadAudio(ctx, s.SessionID, s.QuestionsGenerated); err != nil {
		o.log.WithError(err).Warn("audio cache read failed")
	} else if data != nil {
		return data, nil
	}

	data, err := o.deps.Synthesizer.Synthesize(ctx, s.CurrentQuestion)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}

	if err := o.deps.AudioCache.SaveAudio(ctx, s.SessionID, s.QuestionsGenerated, data); err != nil {
		o.log.WithError(err).Warn("audio cache write failed")
	}
	return data, nil
}

// EndSession closes the interview, returning the stats summary and a
// free-text closing assessment. The assessment is best-effort; completing
// the session never depends on it.
func (o *Orchestrator) EndSession(ctx context.Context) (models.SessionSummary, string, error) {
	s := o.session
	if s.EndedAt != nil {
		return models.SessionSummary{}, "", errs.InvalidState(string(s.State), "end a session twice")
	}

	closing := ""
	if s.ExchangesCompleted() > 0 {
		var err error
		closing, err = o.deps.Interviewer.Summary(ctx, o.transcript(), o.evaluations())
		if err != nil {
			o.log.WithError(err).Warn("closing assessment failed, ending without it")
			closing = ""
		}
	}

	now := time.Now().UTC()
	s.EndedAt = &now
	s.State = models.StateComplete

	if err := o.deps.Repo.Save(s); err != nil {
		return models.SessionSummary{}, "", err
	}

	if _, err := o.deps.AudioCache.CleanSession(ctx, s.SessionID); err != nil {
		o.log.WithError(err).Warn("audio cache cleanup failed")
	}

	metrics.IncrementSessionsCompleted()
	summary := s.Summary()
	o.log.WithFields(logrus.Fields{
		"questions":     summary.TotalQuestions,
		"average_score": summary.AverageScore,
		"duration_min":  summary.DurationMinutes,
	}).Info("session ended")
	return summary, closing, nil
}

// Stats projects the session without changing its state. Valid at any point,
// including after completion.
func (o *Orchestrator) Stats() models.SessionSummary {
	return o.session.Summary()
}

// fail moves the session into the error state. The save is best-effort; the
// original failure is what the caller needs to see.
func (o *Orchestrator) fail(msg string, cause error) {
	o.session.State = models.StateError
	if err := o.deps.Repo.Save(o.session); err != nil {
		o.log.WithError(err).Error("could not persist error state")
	}
	o.log.WithError(cause).Error(msg)
}

func (o *Orchestrator) transcript() string {
	var b strings.Builder
	for i, ex := range o.session.Exchanges {
		fmt.Fprintf(&b, "Q%d: %s\nA%d: %s\n\n", i+1, ex.Question, i+1, ex.Answer)
	}
	return b.String()
}

func (o *Orchestrator) evaluations() []models.AnswerEvaluation {
	evals := make([]models.AnswerEvaluation, 0, len(o.session.Exchanges))
	for _, ex := range o.session.Exchanges {
		if ex.Evaluation != nil {
			evals = append(evals, *ex.Evaluation)
		}
	}
	return evals
}
