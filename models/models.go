package models

import (
	"time"
)

// InterviewState is the single active state of an interview session.
type InterviewState string

const (
	StateIdle        InterviewState = "idle"
	StateSetup       InterviewState = "setup"
	StateIntro       InterviewState = "intro"
	StateQuestioning InterviewState = "questioning"
	StateListening   InterviewState = "listening"
	StateEvaluating  InterviewState = "evaluating"
	StateComplete    InterviewState = "complete"
	StateError       InterviewState = "error"
)

// Terminal reports whether no further interview work is allowed in this state.
func (s InterviewState) Terminal() bool {
	return s == StateComplete || s == StateError
}

// AlertLevel is the severity of a coaching alert.
type AlertLevel string

const (
	AlertOK       AlertLevel = "ok"
	AlertWarning  AlertLevel = "warning"
	AlertCritical AlertLevel = "critical"
)

// CoachingFeedback is the per-answer delivery snapshot produced by the coach.
// Immutable once constructed.
type CoachingFeedback struct {
	VolumeStatus   string     `json:"volume_status"`
	PaceStatus     string     `json:"pace_status"`
	FillerCount    int        `json:"filler_count"`
	WordsPerMinute float64    `json:"words_per_minute"`
	PrimaryAlert   string     `json:"primary_alert"`
	AlertLevel     AlertLevel `json:"alert_level"`
}

// AnswerEvaluation is the structured content score returned by the
// interviewer adapter. Scores are conceptually 1-10 but not enforced here.
type AnswerEvaluation struct {
	TechnicalAccuracy int    `json:"technical_accuracy"`
	Clarity           int    `json:"clarity"`
	Depth             int    `json:"depth"`
	Completeness      int    `json:"completeness"`
	ImprovementTip    string `json:"improvement_tip"`
	PositiveNote      string `json:"positive_note"`
}

// AverageScore is the arithmetic mean of the four score dimensions.
func (e AnswerEvaluation) AverageScore() float64 {
	return float64(e.TechnicalAccuracy+e.Clarity+e.Depth+e.Completeness) / 4.0
}

// InterviewExchange is one question/answer turn. Owned exclusively by its
// parent session; evaluation and coaching are created together with it.
type InterviewExchange struct {
	Question              string            `json:"question"`
	Answer                string            `json:"answer"`
	AnswerDurationSeconds float64           `json:"duration_seconds"`
	Evaluation            *AnswerEvaluation `json:"evaluation,omitempty"`
	Coaching              *CoachingFeedback `json:"coaching,omitempty"`
	Timestamp             time.Time         `json:"timestamp"`
}

// InterviewSession is the aggregate root for one interview.
//
// QuestionsGenerated counts questions handed to the candidate and is
// incremented at generation time; ExchangesCompleted() counts answered
// turns. The two deliberately diverge when a question is asked but never
// answered, so averages must always divide by completed exchanges.
type InterviewSession struct {
	SessionID       string         `json:"session_id"`
	State           InterviewState `json:"state"`
	ResumeText      string         `json:"resume_text"`
	JobDescription  string         `json:"job_description"`
	CurrentQuestion string         `json:"current_question"`

	Exchanges []*InterviewExchange `json:"exchanges"`

	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`

	QuestionsGenerated int     `json:"questions_generated"`
	TotalFillerWords   int     `json:"total_filler_words"`
	AverageWPM         float64 `json:"average_wpm"`
}

// NewSession creates a session in SETUP state with its inputs captured.
func NewSession(id, resumeText, jobDescription string) *InterviewSession {
	return &InterviewSession{
		SessionID:      id,
		State:          StateSetup,
		ResumeText:     resumeText,
		JobDescription: jobDescription,
		StartedAt:      time.Now().UTC(),
	}
}

// AddExchange appends an exchange and recomputes the derived aggregates from
// the exchange log. The log is the source of truth; aggregates are never set
// independently.
func (s *InterviewSession) AddExchange(ex *InterviewExchange) {
	s.Exchanges = append(s.Exchanges, ex)

	total := 0
	wpmSum := 0.0
	wpmCount := 0
	for _, e := range s.Exchanges {
		if e.Coaching == nil {
			continue
		}
		total += e.Coaching.FillerCount
		wpmSum += e.Coaching.WordsPerMinute
		wpmCount++
	}
	s.TotalFillerWords = total
	if wpmCount > 0 {
		s.AverageWPM = wpmSum / float64(wpmCount)
	}
}

// ExchangesCompleted is the number of answered question turns.
func (s *InterviewSession) ExchangesCompleted() int {
	return len(s.Exchanges)
}

// AverageScore is the mean evaluation score across completed exchanges.
func (s *InterviewSession) AverageScore() float64 {
	sum := 0.0
	n := 0
	for _, e := range s.Exchanges {
		if e.Evaluation == nil {
			continue
		}
		sum += e.Evaluation.AverageScore()
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// DurationMinutes is the elapsed session time, using the current time until
// the session has ended.
func (s *InterviewSession) DurationMinutes() float64 {
	if s.StartedAt.IsZero() {
		return 0
	}
	end := time.Now().UTC()
	if s.EndedAt != nil {
		end = *s.EndedAt
	}
	return end.Sub(s.StartedAt).Minutes()
}

// SessionSummary is the projection returned by end-session and stats calls.
type SessionSummary struct {
	SessionID        string  `json:"session_id"`
	DurationMinutes  float64 `json:"duration_minutes"`
	TotalQuestions   int     `json:"total_questions"`
	AverageScore     float64 `json:"average_score"`
	AverageWPM       float64 `json:"average_wpm"`
	TotalFillerWords int     `json:"total_filler_words"`
}

// Summary projects the session into its report form.
func (s *InterviewSession) Summary() SessionSummary {
	return SessionSummary{
		SessionID:        s.SessionID,
		DurationMinutes:  s.DurationMinutes(),
		TotalQuestions:   s.QuestionsGenerated,
		AverageScore:     s.AverageScore(),
		AverageWPM:       s.AverageWPM,
		TotalFillerWords: s.TotalFillerWords,
	}
}

// QuestionContext is the rolling Q&A history used to ground question
// generation. It lives only in memory and is rebuilt from the session's
// exchange log on restore. The two slices grow together, never independently.
type QuestionContext struct {
	ResumeText        string
	JobDescription    string
	PreviousQuestions []string
	PreviousAnswers   []string
}

// NewQuestionContext derives a context from a session by replaying its
// exchanges in chronological order.
func NewQuestionContext(s *InterviewSession) *QuestionContext {
	qc := &QuestionContext{
		ResumeText:     s.ResumeText,
		JobDescription: s.JobDescription,
	}
	for _, ex := range s.Exchanges {
		qc.AddExchange(ex.Question, ex.Answer)
	}
	return qc
}

// AddExchange records one completed Q&A turn.
func (qc *QuestionContext) AddExchange(question, answer string) {
	qc.PreviousQuestions = append(qc.PreviousQuestions, question)
	qc.PreviousAnswers = append(qc.PreviousAnswers, answer)
}
