package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminal(t *testing.T) {
	assert.True(t, StateComplete.Terminal())
	assert.True(t, StateError.Terminal())
	for _, s := range []InterviewState{StateIdle, StateSetup, StateIntro, StateQuestioning, StateListening, StateEvaluating} {
		assert.False(t, s.Terminal(), string(s))
	}
}

func TestNewSession(t *testing.T) {
	s := NewSession("abc123", "resume text", "job description")

	assert.Equal(t, "abc123", s.SessionID)
	assert.Equal(t, StateSetup, s.State)
	assert.Equal(t, "resume text", s.ResumeText)
	assert.Equal(t, "job description", s.JobDescription)
	assert.False(t, s.StartedAt.IsZero())
	assert.Nil(t, s.EndedAt)
	assert.Empty(t, s.Exchanges)
}

func TestAnswerEvaluationAverageScore(t *testing.T) {
	e := AnswerEvaluation{TechnicalAccuracy: 8, Clarity: 6, Depth: 7, Completeness: 9}
	assert.InDelta(t, 7.5, e.AverageScore(), 1e-9)
}

func exchangeWith(fillers int, wpm float64, scores int) *InterviewExchange {
	return &InterviewExchange{
		Question: "q",
		Answer:   "a",
		Coaching: &CoachingFeedback{FillerCount: fillers, WordsPerMinute: wpm},
		Evaluation: &AnswerEvaluation{
			TechnicalAccuracy: scores, Clarity: scores, Depth: scores, Completeness: scores,
		},
		Timestamp: time.Now().UTC(),
	}
}

func TestAddExchangeRecomputesAggregates(t *testing.T) {
	s := NewSession("id", "r", "j")

	s.AddExchange(exchangeWith(3, 120, 8))
	assert.Equal(t, 3, s.TotalFillerWords)
	assert.InDelta(t, 120, s.AverageWPM, 1e-9)

	s.AddExchange(exchangeWith(1, 140, 6))
	assert.Equal(t, 4, s.TotalFillerWords)
	assert.InDelta(t, 130, s.AverageWPM, 1e-9)
	assert.Equal(t, 2, s.ExchangesCompleted())
}

func TestAddExchangeSkipsMissingCoaching(t *testing.T) {
	s := NewSession("id", "r", "j")
	s.AddExchange(exchangeWith(2, 100, 7))
	s.AddExchange(&InterviewExchange{Question: "q", Answer: "a", Timestamp: time.Now().UTC()})

	assert.Equal(t, 2, s.TotalFillerWords)
	assert.InDelta(t, 100, s.AverageWPM, 1e-9)
}

func TestAverageScore(t *testing.T) {
	s := NewSession("id", "r", "j")
	assert.Equal(t, 0.0, s.AverageScore())

	s.AddExchange(exchangeWith(0, 120, 8))
	s.AddExchange(exchangeWith(0, 120, 6))
	assert.InDelta(t, 7.0, s.AverageScore(), 1e-9)

	// An unevaluated exchange is excluded from the mean, not counted as zero.
	s.AddExchange(&InterviewExchange{Question: "q", Answer: "a", Timestamp: time.Now().UTC()})
	assert.InDelta(t, 7.0, s.AverageScore(), 1e-9)
}

func TestSummaryCountsGeneratedQuestions(t *testing.T) {
	s := NewSession("id", "r", "j")
	s.QuestionsGenerated = 3
	s.AddExchange(exchangeWith(1, 110, 7))
	s.AddExchange(exchangeWith(2, 130, 9))

	sum := s.Summary()
	// A question asked but never answered still counts as asked.
	assert.Equal(t, 3, sum.TotalQuestions)
	assert.InDelta(t, 8.0, sum.AverageScore, 1e-9)
	assert.InDelta(t, 120, sum.AverageWPM, 1e-9)
	assert.Equal(t, 3, sum.TotalFillerWords)
}

func TestDurationMinutes(t *testing.T) {
	s := NewSession("id", "r", "j")
	s.StartedAt = time.Now().UTC().Add(-10 * time.Minute)
	assert.InDelta(t, 10, s.DurationMinutes(), 0.1)

	ended := s.StartedAt.Add(5 * time.Minute)
	s.EndedAt = &ended
	assert.InDelta(t, 5, s.DurationMinutes(), 1e-6)
}

func TestQuestionContextReplay(t *testing.T) {
	s := NewSession("id", "resume", "job")
	s.AddExchange(&InterviewExchange{Question: "q1", Answer: "a1", Timestamp: time.Now().UTC()})
	s.AddExchange(&InterviewExchange{Question: "q2", Answer: "a2", Timestamp: time.Now().UTC()})

	qc := NewQuestionContext(s)
	require.Equal(t, []string{"q1", "q2"}, qc.PreviousQuestions)
	require.Equal(t, []string{"a1", "a2"}, qc.PreviousAnswers)
	assert.Equal(t, "resume", qc.ResumeText)
	assert.Equal(t, "job", qc.JobDescription)

	qc.AddExchange("q3", "a3")
	assert.Len(t, qc.PreviousQuestions, 3)
	assert.Len(t, qc.PreviousAnswers, 3)
}
