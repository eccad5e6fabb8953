// Package llm implements the Interviewer contract on top of the OpenAI chat
// completions API. Rate-limit responses are retried with exponential backoff
// up to a small fixed ceiling; malformed evaluation payloads are repaired
// where possible and otherwise replaced with a neutral default so a bad
// model response never aborts an interview turn.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"text/template"
	"time"

	"github.com/kaptinlin/jsonrepair"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/sirupsen/logrus"

	"github.com/intervue/interview-service/config"
	"github.com/intervue/interview-service/errs"
	"github.com/intervue/interview-service/models"
)

const (
	maxAttempts    = 3
	backoffInitial = 2 * time.Second
	backoffMax     = 10 * time.Second

	maxOutputTokens = 1024
)

var (
	openingTmpl    = template.Must(template.New("opening").Parse(openingQuestionTemplate))
	nextTmpl       = template.Must(template.New("next").Parse(nextQuestionTemplate))
	followUpTmpl   = template.Must(template.New("followup").Parse(followUpTemplate))
	evaluationTmpl = template.Must(template.New("evaluation").Parse(evaluationTemplate))
	summaryTmpl    = template.Must(template.New("summary").Parse(summaryTemplate))
)

// Client is the OpenAI-backed interviewer.
type Client struct {
	client openai.Client
	model  string
	log    *logrus.Entry

	// sleep is swapped out in tests to avoid real backoff waits.
	sleep func(time.Duration)
}

// NewClient constructs the interviewer. A missing API key is a configuration
// error, fatal at construction time.
func NewClient(cfg *config.Config) (*Client, error) {
	if cfg.OpenAI.APIKey == "" {
		return nil, errs.MissingKey("INTERVUE_OPENAI_API_KEY")
	}
	return &Client{
		client: openai.NewClient(option.WithAPIKey(cfg.OpenAI.APIKey)),
		model:  cfg.OpenAI.Model,
		log:    logrus.WithField("component", "llm"),
		sleep:  time.Sleep,
	}, nil
}

func (c *Client) OpeningQuestion(ctx context.Context, qc *models.QuestionContext) (string, error) {
	prompt, err := render(openingTmpl, qc)
	if err != nil {
		return "", err
	}
	return c.generate(ctx, prompt)
}

func (c *Client) NextQuestion(ctx context.Context, qc *models.QuestionContext) (string, error) {
	prompt, err := render(nextTmpl, qc)
	if err != nil {
		return "", err
	}
	return c.generate(ctx, prompt)
}

func (c *Client) FollowUp(ctx context.Context, answer string) (string, error) {
	prompt, err := render(followUpTmpl, struct{ Answer string }{answer})
	if err != nil {
		return "", err
	}
	return c.generate(ctx, prompt)
}

// EvaluateAnswer scores an answer. Any failure past the retry budget,
// including a blocked or unparseable response, falls back to mid-range
// default scores instead of propagating.
func (c *Client) EvaluateAnswer(ctx context.Context, question, answer string) (models.AnswerEvaluation, error) {
	prompt, err := render(evaluationTmpl, struct{ Question, Answer string }{question, answer})
	if err != nil {
		return defaultEvaluation(), nil
	}

	resp, err := c.generate(ctx, prompt)
	if err != nil {
		c.log.WithError(err).Warn("evaluation call failed, using default scores")
		return defaultEvaluation(), nil
	}

	eval, err := parseEvaluation(resp)
	if err != nil {
		c.log.WithError(err).Warn("evaluation response unparseable, using default scores")
		return defaultEvaluation(), nil
	}
	return eval, nil
}

func (c *Client) Summary(ctx context.Context, transcript string, evaluations []models.AnswerEvaluation) (string, error) {
	var evalLines strings.Builder
	for i, e := range evaluations {
		fmt.Fprintf(&evalLines, "Q%d: Tech=%d, Clarity=%d, Depth=%d, Completeness=%d\n",
			i+1, e.TechnicalAccuracy, e.Clarity, e.Depth, e.Completeness)
	}

	prompt, err := render(summaryTmpl, struct{ Transcript, Evaluations string }{transcript, evalLines.String()})
	if err != nil {
		return "", err
	}
	return c.generate(ctx, prompt)
}

// generate performs one chat completion with bounded retry on rate limits.
// All other failures propagate immediately.
func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			c.sleep(backoffDelay(attempt))
		}

		resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model:     c.model,
			Messages:  []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
			MaxTokens: openai.Int(maxOutputTokens),
		})
		if err != nil {
			if isRateLimited(err) {
				c.log.WithField("attempt", attempt+1).Warn("rate limited, backing off")
				lastErr = errs.RateLimited("question service", backoffDelay(attempt+1))
				continue
			}
			return "", fmt.Errorf("chat completion: %w", err)
		}

		if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
			return "", errors.New("empty completion response")
		}
		return strings.TrimSpace(resp.Choices[0].Message.Content), nil
	}

	return "", lastErr
}

// backoffDelay doubles from the initial delay and is capped at the maximum.
func backoffDelay(attempt int) time.Duration {
	d := backoffInitial << (attempt - 1)
	if d > backoffMax {
		return backoffMax
	}
	return d
}

func isRateLimited(err error) bool {
	var apierr *openai.Error
	return errors.As(err, &apierr) && apierr.StatusCode == http.StatusTooManyRequests
}

// parseEvaluation extracts the JSON object from a completion and unmarshals
// it, repairing near-JSON (markdown fences, trailing commas) first.
func parseEvaluation(response string) (models.AnswerEvaluation, error) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start < 0 || end <= start {
		return models.AnswerEvaluation{}, errors.New("no JSON object in evaluation response")
	}

	var eval models.AnswerEvaluation
	if err := unmarshalRepaired([]byte(response[start:end+1]), &eval); err != nil {
		return models.AnswerEvaluation{}, fmt.Errorf("decode evaluation: %w", err)
	}
	return eval, nil
}

// unmarshalRepaired retries a failed unmarshal after running the payload
// through jsonrepair.
func unmarshalRepaired(data []byte, v any) error {
	err := json.Unmarshal(data, v)
	if err == nil {
		return nil
	}
	fixed, repairErr := jsonrepair.JSONRepair(string(data))
	if repairErr != nil {
		return err
	}
	return json.Unmarshal([]byte(fixed), v)
}

func defaultEvaluation() models.AnswerEvaluation {
	return models.AnswerEvaluation{
		TechnicalAccuracy: 5,
		Clarity:           5,
		Depth:             5,
		Completeness:      5,
		ImprovementTip:    "Unable to evaluate - please continue.",
		PositiveNote:      "Keep going!",
	}
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return buf.String(), nil
}
