// Package metrics holds process-lifetime counters for interview operations.
package metrics

import "sync/atomic"

var (
	sessionsStarted    int64
	sessionsCompleted  int64
	questionsGenerated int64
	answersProcessed   int64
	audioAnswers       int64
)

// IncrementSessionsStarted atomically increments the sessions started counter.
func IncrementSessionsStarted() {
	atomic.AddInt64(&sessionsStarted, 1)
}

// IncrementSessionsCompleted atomically increments the sessions completed counter.
func IncrementSessionsCompleted() {
	atomic.AddInt64(&sessionsCompleted, 1)
}

// IncrementQuestionsGenerated atomically increments the questions generated counter.
func IncrementQuestionsGenerated() {
	atomic.AddInt64(&questionsGenerated, 1)
}

// IncrementAnswersProcessed atomically increments the answers processed counter.
func IncrementAnswersProcessed() {
	atomic.AddInt64(&answersProcessed, 1)
}

// IncrementAudioAnswers atomically increments the audio answers counter.
func IncrementAudioAnswers() {
	atomic.AddInt64(&audioAnswers, 1)
}

// Get returns the current counters as a map.
func Get() map[string]int64 {
	return map[string]int64{
		"sessions_started":    atomic.LoadInt64(&sessionsStarted),
		"sessions_completed":  atomic.LoadInt64(&sessionsCompleted),
		"questions_generated": atomic.LoadInt64(&questionsGenerated),
		"answers_processed":   atomic.LoadInt64(&answersProcessed),
		"audio_answers":       atomic.LoadInt64(&audioAnswers),
	}
}
