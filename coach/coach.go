// Package coach performs local, zero-latency analysis of speaking delivery:
// volume (RMS), pace (words per minute) and filler-word usage. It looks at
// how an answer was delivered, never at what was said, and it never makes an
// external call.
package coach

import (
	"math"
	"strings"

	"github.com/intervue/interview-service/models"
)

// StatusOK is the sentinel returned when a metric raises no alert.
const StatusOK = "OK"

// Alert messages surfaced to the candidate.
const (
	AlertVolumeLow   = "Speak up! Your voice is a bit quiet."
	AlertPaceFast    = "Slow down! Take a breath between thoughts."
	AlertPaceSlow    = "Pick up the pace! Try to be more concise."
	AlertFillersHigh = "Watch the fillers! Too many 'um' and 'like'."
	AlertGood        = "Great delivery! Keep it up."
)

// fillerWords are counted case-insensitively. Single words match whole
// tokens only ("like" never matches inside "likely"); multi-word phrases
// match as substrings.
var fillerWords = []string{
	"um", "uh", "uhm", "umm",
	"like",
	"you know", "y'know",
	"actually",
	"basically",
	"literally",
	"so", "well",
	"i mean",
	"kind of", "kinda",
	"sort of", "sorta",
}

// Thresholds configure a Coach.
type Thresholds struct {
	VolumeRMS      float64 // below this RMS the volume alert fires
	WPMFast        float64 // above this the slow-down alert fires
	WPMSlow        float64 // below this the pick-up-pace alert fires
	FillerWarn     int     // filler count above this is a warning
	FillerCritical int     // filler count above this is critical
}

// Coach accumulates per-session delivery history. One coach serves exactly
// one session; the orchestrator serializes calls, so no locking is needed
// here. Methods never return errors: degenerate input degrades to OK.
type Coach struct {
	t Thresholds

	wpmHistory    []float64
	volumeHistory []float64
}

// New creates a coach with the given thresholds.
func New(t Thresholds) *Coach {
	return &Coach{t: t}
}

// RMS computes the root mean square of normalized samples in [-1, 1].
func RMS(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range samples {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// AnalyzeVolume checks a chunk of normalized samples against the volume
// threshold. An empty chunk returns OK: absence of signal is not evidence
// of quietness.
func (c *Coach) AnalyzeVolume(samples []float64) string {
	if len(samples) == 0 {
		return StatusOK
	}

	rms := RMS(samples)
	c.volumeHistory = append(c.volumeHistory, rms)

	if rms < c.t.VolumeRMS {
		return AlertVolumeLow
	}
	return StatusOK
}

// AnalyzePace computes words per minute and compares it against the pace
// thresholds. Non-positive durations and blank text return OK without
// recording history.
func (c *Coach) AnalyzePace(text string, durationSeconds float64) string {
	if durationSeconds <= 0 || strings.TrimSpace(text) == "" {
		return StatusOK
	}

	wpm := wordsPerMinute(text, durationSeconds)
	c.wpmHistory = append(c.wpmHistory, wpm)

	if wpm > c.t.WPMFast {
		return AlertPaceFast
	}
	if wpm < c.t.WPMSlow {
		return AlertPaceSlow
	}
	return StatusOK
}

// FillerCount counts filler-word occurrences in text, case-insensitively.
func (c *Coach) FillerCount(text string) int {
	if text == "" {
		return 0
	}

	lower := strings.ToLower(text)
	tokens := strings.Fields(lower)

	count := 0
	for _, filler := range fillerWords {
		if strings.Contains(filler, " ") {
			count += strings.Count(lower, filler)
			continue
		}
		for _, tok := range tokens {
			if tok == filler {
				count++
			}
		}
	}
	return count
}

// Feedback composes the volume, pace and filler analyses into a single
// snapshot.
//
// The alert chain is evaluated flat and in order: volume, then pace, then
// the moderate filler threshold, then the critical one. Because a count
// above the critical threshold also exceeds the moderate one, the critical
// branch only classifies; precedence stays with the earlier alerts. This
// matches the shipped behavior and is kept deliberately.
func (c *Coach) Feedback(text string, durationSeconds float64, samples []float64) models.CoachingFeedback {
	volumeStatus := StatusOK
	if samples != nil {
		volumeStatus = c.AnalyzeVolume(samples)
	}

	paceStatus := c.AnalyzePace(text, durationSeconds)
	fillers := c.FillerCount(text)

	wpm := 0.0
	if durationSeconds > 0 && text != "" {
		wpm = wordsPerMinute(text, durationSeconds)
	}

	primary := ""
	level := models.AlertOK

	switch {
	case volumeStatus != StatusOK:
		primary = volumeStatus
		level = models.AlertWarning
	case paceStatus != StatusOK:
		primary = paceStatus
		level = models.AlertWarning
	case fillers > c.t.FillerWarn:
		primary = AlertFillersHigh
		level = models.AlertWarning
	case fillers > c.t.FillerCritical:
		level = models.AlertCritical
	default:
		primary = AlertGood
	}

	return models.CoachingFeedback{
		VolumeStatus:   volumeStatus,
		PaceStatus:     paceStatus,
		FillerCount:    fillers,
		WordsPerMinute: wpm,
		PrimaryAlert:   primary,
		AlertLevel:     level,
	}
}

// AverageWPM is the mean of all recorded pace measurements.
func (c *Coach) AverageWPM() float64 {
	return mean(c.wpmHistory)
}

// AverageVolume is the mean RMS across all analyzed chunks.
func (c *Coach) AverageVolume() float64 {
	return mean(c.volumeHistory)
}

// Reset clears both histories for a new session.
func (c *Coach) Reset() {
	c.wpmHistory = c.wpmHistory[:0]
	c.volumeHistory = c.volumeHistory[:0]
}

func wordsPerMinute(text string, durationSeconds float64) float64 {
	return float64(len(strings.Fields(text))) / durationSeconds * 60
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
