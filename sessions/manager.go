// Package sessions is the registry of live interviews. Each session gets its
// own orchestrator and its own mutex, so operations on different sessions run
// concurrently while operations on the same session are strictly serialized.
// A session evicted from memory by the idle sweep is transparently restored
// from its persisted document on the next request.
package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/intervue/interview-service/errs"
	"github.com/intervue/interview-service/models"
	"github.com/intervue/interview-service/orchestrator"
)

type entry struct {
	mu       sync.Mutex
	orch     *orchestrator.Orchestrator
	lastUsed time.Time
}

// Manager maps session ids to live orchestrators.
type Manager struct {
	deps orchestrator.Deps
	log  *logrus.Entry

	mu   sync.RWMutex
	live map[string]*entry
}

// NewManager creates an empty registry.
func NewManager(deps orchestrator.Deps) *Manager {
	return &Manager{
		deps: deps,
		log:  logrus.WithField("component", "sessions"),
		live: make(map[string]*entry),
	}
}

// StartSession creates a new interview and registers it as live.
func (m *Manager) StartSession(ctx context.Context, resumeText, jobDescription string) (*models.InterviewSession, error) {
	orch, err := orchestrator.New(m.deps, resumeText, jobDescription)
	if err != nil {
		return nil, err
	}

	s := orch.Session()
	m.mu.Lock()
	m.live[s.SessionID] = &entry{orch: orch, lastUsed: time.Now()}
	m.mu.Unlock()
	return s, nil
}

// lookup returns the live entry for a session, restoring it from disk when
// the idle sweep has evicted it. An unknown id is a not-found error.
func (m *Manager) lookup(sessionID string) (*entry, error) {
	m.mu.RLock()
	e, ok := m.live[sessionID]
	m.mu.RUnlock()
	if ok {
		return e, nil
	}

	s, err := m.deps.Repo.Load(sessionID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, errs.SessionNotFound(sessionID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// A concurrent request may have restored it first.
	if e, ok := m.live[sessionID]; ok {
		return e, nil
	}
	e = &entry{orch: orchestrator.Restore(m.deps, s), lastUsed: time.Now()}
	m.live[sessionID] = e
	m.log.WithField("session_id", sessionID).Info("session restored from disk")
	return e, nil
}

// withSession runs fn while holding the session's mutex.
func (m *Manager) withSession(sessionID string, fn func(*orchestrator.Orchestrator) error) error {
	e, err := m.lookup(sessionID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastUsed = time.Now()
	return fn(e.orch)
}

// NextQuestion advances the session to its next question and reports the
// question's ordinal. Both come from the same locked pass so the number can
// never reflect another request's interleaved generation.
func (m *Manager) NextQuestion(ctx context.Context, sessionID string) (string, int, error) {
	var (
		question string
		number   int
	)
	err := m.withSession(sessionID, func(o *orchestrator.Orchestrator) error {
		var err error
		question, err = o.NextQuestion(ctx)
		if err != nil {
			return err
		}
		number = o.Session().QuestionsGenerated
		return nil
	})
	return question, number, err
}

// QuestionAudio returns synthesized audio for the current question, or nil
// when synthesis is unavailable.
func (m *Manager) QuestionAudio(ctx context.Context, sessionID string) ([]byte, error) {
	var data []byte
	err := m.withSession(sessionID, func(o *orchestrator.Orchestrator) error {
		var err error
		data, err = o.SpeakQuestion(ctx)
		return err
	})
	return data, err
}

// SubmitTextAnswer records a typed answer for the current question.
func (m *Manager) SubmitTextAnswer(ctx context.Context, sessionID, answer string, durationSeconds float64) (*models.InterviewExchange, error) {
	var ex *models.InterviewExchange
	err := m.withSession(sessionID, func(o *orchestrator.Orchestrator) error {
		var err error
		ex, err = o.ProcessTextAnswer(ctx, answer, durationSeconds)
		return err
	})
	return ex, err
}

// SubmitAudioAnswer transcribes and records a spoken answer.
func (m *Manager) SubmitAudioAnswer(ctx context.Context, sessionID string, audio []byte, sampleRate int) (*models.InterviewExchange, error) {
	var ex *models.InterviewExchange
	err := m.withSession(sessionID, func(o *orchestrator.Orchestrator) error {
		var err error
		ex, err = o.ProcessAudioAnswer(ctx, audio, sampleRate)
		return err
	})
	return ex, err
}

// EndSession completes the interview and drops it from the live registry.
// The persisted document remains until the retention sweep removes it.
func (m *Manager) EndSession(ctx context.Context, sessionID string) (models.SessionSummary, string, error) {
	var (
		summary models.SessionSummary
		closing string
	)
	err := m.withSession(sessionID, func(o *orchestrator.Orchestrator) error {
		var err error
		summary, closing, err = o.EndSession(ctx)
		return err
	})
	if err != nil {
		return models.SessionSummary{}, "", err
	}

	m.mu.Lock()
	delete(m.live, sessionID)
	m.mu.Unlock()
	return summary, closing, nil
}

// Stats reports the session's current summary without mutating it.
func (m *Manager) Stats(ctx context.Context, sessionID string) (models.SessionSummary, error) {
	var summary models.SessionSummary
	err := m.withSession(sessionID, func(o *orchestrator.Orchestrator) error {
		summary = o.Stats()
		return nil
	})
	return summary, err
}

// SweepIdle evicts sessions untouched for longer than maxIdle from memory.
// Their persisted documents are untouched, so an evicted session is still
// resumable until the retention sweep deletes it.
//
// Entry mutexes are never awaited under the registry lock: candidates are
// snapshotted first, and an entry whose mutex cannot be acquired has a call
// in flight, which means it is not idle and is skipped.
func (m *Manager) SweepIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	m.mu.RLock()
	candidates := make(map[string]*entry, len(m.live))
	for id, e := range m.live {
		candidates[id] = e
	}
	m.mu.RUnlock()

	evicted := 0
	for id, e := range candidates {
		if !e.mu.TryLock() {
			continue
		}
		if e.lastUsed.Before(cutoff) {
			m.mu.Lock()
			if cur, ok := m.live[id]; ok && cur == e {
				delete(m.live, id)
				evicted++
			}
			m.mu.Unlock()
		}
		e.mu.Unlock()
	}
	if evicted > 0 {
		m.log.WithField("evicted", evicted).Info("idle sessions evicted from memory")
	}
	return evicted
}

// Live is the number of sessions currently held in memory.
func (m *Manager) Live() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.live)
}
