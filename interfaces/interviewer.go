package interfaces

import (
	"context"

	"github.com/intervue/interview-service/models"
)

// Interviewer is the content-side adapter: question generation and answer
// evaluation. Implementations retry rate-limit signals with bounded backoff
// and recover malformed evaluation payloads with a neutral default rather
// than failing the turn.
type Interviewer interface {
	// OpeningQuestion generates the first question from the resume.
	OpeningQuestion(ctx context.Context, qc *models.QuestionContext) (string, error)

	// NextQuestion generates a question grounded in the accumulated context.
	NextQuestion(ctx context.Context, qc *models.QuestionContext) (string, error)

	// FollowUp generates a probing question from the candidate's last answer.
	FollowUp(ctx context.Context, answer string) (string, error)

	// EvaluateAnswer scores (question, answer) on four dimensions.
	EvaluateAnswer(ctx context.Context, question, answer string) (models.AnswerEvaluation, error)

	// Summary produces the final free-text interview assessment.
	Summary(ctx context.Context, transcript string, evaluations []models.AnswerEvaluation) (string, error)
}
