package repository

import (
	"fmt"
	"time"

	"github.com/intervue/interview-service/models"
)

// The persisted document mirrors the session model with a schema version,
// RFC 3339 timestamps and enums as their string values.

type sessionDoc struct {
	Version            int           `json:"version"`
	SessionID          string        `json:"session_id"`
	State              string        `json:"state"`
	ResumeText         string        `json:"resume_text"`
	JobDescription     string        `json:"job_description"`
	CurrentQuestion    string        `json:"current_question"`
	StartedAt          string        `json:"started_at"`
	EndedAt            string        `json:"ended_at,omitempty"`
	QuestionsGenerated int           `json:"questions_generated"`
	TotalFillerWords   int           `json:"total_filler_words"`
	AverageWPM         float64       `json:"average_wpm"`
	Exchanges          []exchangeDoc `json:"exchanges"`
}

type exchangeDoc struct {
	Question        string         `json:"question"`
	Answer          string         `json:"answer"`
	DurationSeconds float64        `json:"duration_seconds"`
	Timestamp       string         `json:"timestamp"`
	Evaluation      *evaluationDoc `json:"evaluation,omitempty"`
	Coaching        *coachingDoc   `json:"coaching,omitempty"`
}

type evaluationDoc struct {
	TechnicalAccuracy int    `json:"technical_accuracy"`
	Clarity           int    `json:"clarity"`
	Depth             int    `json:"depth"`
	Completeness      int    `json:"completeness"`
	ImprovementTip    string `json:"improvement_tip"`
	PositiveNote      string `json:"positive_note"`
}

type coachingDoc struct {
	VolumeStatus   string  `json:"volume_status"`
	PaceStatus     string  `json:"pace_status"`
	FillerCount    int     `json:"filler_count"`
	WordsPerMinute float64 `json:"words_per_minute"`
	PrimaryAlert   string  `json:"primary_alert"`
	AlertLevel     string  `json:"alert_level"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func toDoc(s *models.InterviewSession) *sessionDoc {
	doc := &sessionDoc{
		Version:            schemaVersion,
		SessionID:          s.SessionID,
		State:              string(s.State),
		ResumeText:         s.ResumeText,
		JobDescription:     s.JobDescription,
		CurrentQuestion:    s.CurrentQuestion,
		StartedAt:          formatTime(s.StartedAt),
		QuestionsGenerated: s.QuestionsGenerated,
		TotalFillerWords:   s.TotalFillerWords,
		AverageWPM:         s.AverageWPM,
		Exchanges:          make([]exchangeDoc, 0, len(s.Exchanges)),
	}
	if s.EndedAt != nil {
		doc.EndedAt = formatTime(*s.EndedAt)
	}

	for _, ex := range s.Exchanges {
		ed := exchangeDoc{
			Question:        ex.Question,
			Answer:          ex.Answer,
			DurationSeconds: ex.AnswerDurationSeconds,
			Timestamp:       formatTime(ex.Timestamp),
		}
		if ex.Evaluation != nil {
			ed.Evaluation = &evaluationDoc{
				TechnicalAccuracy: ex.Evaluation.TechnicalAccuracy,
				Clarity:           ex.Evaluation.Clarity,
				Depth:             ex.Evaluation.Depth,
				Completeness:      ex.Evaluation.Completeness,
				ImprovementTip:    ex.Evaluation.ImprovementTip,
				PositiveNote:      ex.Evaluation.PositiveNote,
			}
		}
		if ex.Coaching != nil {
			ed.Coaching = &coachingDoc{
				VolumeStatus:   ex.Coaching.VolumeStatus,
				PaceStatus:     ex.Coaching.PaceStatus,
				FillerCount:    ex.Coaching.FillerCount,
				WordsPerMinute: ex.Coaching.WordsPerMinute,
				PrimaryAlert:   ex.Coaching.PrimaryAlert,
				AlertLevel:     string(ex.Coaching.AlertLevel),
			}
		}
		doc.Exchanges = append(doc.Exchanges, ed)
	}
	return doc
}

func fromDoc(doc *sessionDoc) (*models.InterviewSession, error) {
	startedAt, err := parseTime(doc.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid started_at: %w", err)
	}

	s := &models.InterviewSession{
		SessionID:          doc.SessionID,
		State:              models.InterviewState(doc.State),
		ResumeText:         doc.ResumeText,
		JobDescription:     doc.JobDescription,
		CurrentQuestion:    doc.CurrentQuestion,
		StartedAt:          startedAt,
		QuestionsGenerated: doc.QuestionsGenerated,
		TotalFillerWords:   doc.TotalFillerWords,
		AverageWPM:         doc.AverageWPM,
	}
	if doc.EndedAt != "" {
		endedAt, err := parseTime(doc.EndedAt)
		if err != nil {
			return nil, fmt.Errorf("invalid ended_at: %w", err)
		}
		s.EndedAt = &endedAt
	}

	for _, ed := range doc.Exchanges {
		ts, err := parseTime(ed.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("invalid exchange timestamp: %w", err)
		}
		ex := &models.InterviewExchange{
			Question:              ed.Question,
			Answer:                ed.Answer,
			AnswerDurationSeconds: ed.DurationSeconds,
			Timestamp:             ts,
		}
		if ed.Evaluation != nil {
			ex.Evaluation = &models.AnswerEvaluation{
				TechnicalAccuracy: ed.Evaluation.TechnicalAccuracy,
				Clarity:           ed.Evaluation.Clarity,
				Depth:             ed.Evaluation.Depth,
				Completeness:      ed.Evaluation.Completeness,
				ImprovementTip:    ed.Evaluation.ImprovementTip,
				PositiveNote:      ed.Evaluation.PositiveNote,
			}
		}
		if ed.Coaching != nil {
			ex.Coaching = &models.CoachingFeedback{
				VolumeStatus:   ed.Coaching.VolumeStatus,
				PaceStatus:     ed.Coaching.PaceStatus,
				FillerCount:    ed.Coaching.FillerCount,
				WordsPerMinute: ed.Coaching.WordsPerMinute,
				PrimaryAlert:   ed.Coaching.PrimaryAlert,
				AlertLevel:     models.AlertLevel(ed.Coaching.AlertLevel),
			}
		}
		// Exchanges are appended directly: persisted aggregates are
		// authoritative for a loaded document.
		s.Exchanges = append(s.Exchanges, ex)
	}
	return s, nil
}
