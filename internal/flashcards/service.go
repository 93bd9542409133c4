// Package flashcards generates study flashcards from note content using an
// OpenAI chat model.
package flashcards

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// ErrNoteTooShort is returned when the note does not contain enough material
// for the requested number of flashcards (one card per ~50 words).
var ErrNoteTooShort = errors.New("note too short for requested flashcards")

const (
	modelTemperature = 0.7
	wordsPerCard     = 50
)

// Completer is the slice of the OpenAI client the service needs. Tests
// supply a fake; production wires the real client.
type Completer interface {
	Complete(ctx context.Context, model, systemPrompt string) (string, error)
}

// openAICompleter adapts the OpenAI SDK to the Completer interface.
type openAICompleter struct {
	client openai.Client
}

// NewOpenAICompleter builds a Completer backed by the OpenAI API.
func NewOpenAICompleter(apiKey string) Completer {
	return &openAICompleter{client: openai.NewClient(option.WithAPIKey(apiKey))}
}

func (c *openAICompleter) Complete(ctx context.Context, model, systemPrompt string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(model),
		Temperature: openai.Float(modelTemperature),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: empty completion")
	}
	return resp.Choices[0].Message.Content, nil
}

// Request describes a flashcard generation job: the note body split into
// blocks, its word count, and how many cards to produce in which language.
type Request struct {
	Blocks    []string `json:"blocks"`
	WordCount int      `json:"word_count"`
	NumCards  int      `json:"num_cards"`
	Language  string   `json:"language"`
}

// Service generates flashcards from note text.
type Service struct {
	completer Completer
	model     string
}

func NewService(completer Completer, model string) *Service {
	return &Service{completer: completer, model: model}
}

// Generate validates the request against the word-count gate and asks the
// model for cards. Returns the raw model output; the client renders it.
func (s *Service) Generate(ctx context.Context, req Request) (string, error) {
	if req.NumCards <= 0 {
		return "", errors.New("num_cards must be positive")
	}
	if req.WordCount/wordsPerCard < req.NumCards {
		return "", ErrNoteTooShort
	}
	prompt := buildPrompt(extractText(req.Blocks), req.NumCards, req.Language)
	return s.completer.Complete(ctx, s.model, prompt)
}

// extractText flattens note blocks into a single context string.
func extractText(blocks []string) string {
	var b strings.Builder
	for _, block := range blocks {
		b.WriteString(block)
		b.WriteString(" ")
	}
	return strings.TrimSpace(b.String())
}

// buildPrompt constructs the system instructions for the model.
func buildPrompt(context string, numCards int, language string) string {
	if language == "" {
		language = "English"
	}
	return fmt.Sprintf(
		"You are a study assistant. Create exactly %d flashcards in %s from the note below. "+
			"Answer as a JSON array of objects with \"front\" and \"back\" fields and nothing else.\n\nNote:\n%s",
		numCards, language, context)
}
