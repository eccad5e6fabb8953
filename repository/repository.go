// Package repository persists interview sessions as one JSON document per
// session with whole-document read/replace semantics. Saves go through a
// temp file plus rename so a reader never observes a partially-written
// document, making the store the crash-safe source of truth across process
// restarts.
package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/intervue/interview-service/models"
)

// schemaVersion is stamped into every document for future migrations.
const schemaVersion = 1

// Repository stores sessions under a single data directory.
type Repository struct {
	dir string
	log *logrus.Entry
}

// New creates the data directory if needed.
func New(dir string) (*Repository, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create session directory %s: %w", dir, err)
	}
	return &Repository{
		dir: dir,
		log: logrus.WithField("component", "repository"),
	}, nil
}

// SanitizeID reduces an externally supplied identifier to an allow-listed
// character set before it is used in any storage path.
func SanitizeID(id string) string {
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (r *Repository) path(sessionID string) string {
	return filepath.Join(r.dir, SanitizeID(sessionID)+".json")
}

// Save atomically replaces the persisted document for the session.
func (r *Repository) Save(s *models.InterviewSession) error {
	data, err := json.MarshalIndent(toDoc(s), "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal session %s: %w", s.SessionID, err)
	}

	path := r.path(s.SessionID)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("could not write session %s: %w", s.SessionID, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("could not replace session %s: %w", s.SessionID, err)
	}

	r.log.WithFields(logrus.Fields{
		"session_id": s.SessionID,
		"exchanges":  len(s.Exchanges),
	}).Debug("session saved")
	return nil
}

// Load reads a previously saved session. A session that was never saved or
// has been cleaned up returns (nil, nil).
func (r *Repository) Load(sessionID string) (*models.InterviewSession, error) {
	data, err := os.ReadFile(r.path(sessionID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not read session %s: %w", sessionID, err)
	}

	var doc sessionDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("could not decode session %s: %w", sessionID, err)
	}
	return fromDoc(&doc)
}

// Delete removes the persisted document, reporting whether one existed.
func (r *Repository) Delete(sessionID string) (bool, error) {
	err := os.Remove(r.path(sessionID))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListSessions returns the ids of all stored sessions.
func (r *Repository) ListSessions() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(r.dir, "*.json"))
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, strings.TrimSuffix(filepath.Base(m), ".json"))
	}
	return ids, nil
}

// CleanupOlderThan deletes documents whose last modification is older than
// maxAge. This retention sweep is independent of the in-memory idle timeout.
func (r *Repository) CleanupOlderThan(maxAge time.Duration) (int, error) {
	matches, err := filepath.Glob(filepath.Join(r.dir, "*.json"))
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	count := 0
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(m); err != nil {
				r.log.WithError(err).WithField("path", m).Error("could not remove expired session")
				continue
			}
			count++
		}
	}
	if count > 0 {
		r.log.WithField("removed", count).Info("expired session documents removed")
	}
	return count, nil
}
