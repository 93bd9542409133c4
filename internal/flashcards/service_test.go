package flashcards

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	lastModel  string
	lastPrompt string
	out        string
	err        error
}

func (f *fakeCompleter) Complete(_ context.Context, model, prompt string) (string, error) {
	f.lastModel, f.lastPrompt = model, prompt
	if f.err != nil {
		return "", f.err
	}
	return f.out, nil
}

func TestGenerate(t *testing.T) {
	fc := &fakeCompleter{out: `[{"front":"Q","back":"A"}]`}
	svc := NewService(fc, "gpt-4o-mini")

	out, err := svc.Generate(context.Background(), Request{
		Blocks:    []string{"Mitochondria are the powerhouse of the cell.", "They produce ATP."},
		WordCount: 120,
		NumCards:  2,
		Language:  "English",
	})
	require.NoError(t, err)
	assert.Equal(t, `[{"front":"Q","back":"A"}]`, out)
	assert.Equal(t, "gpt-4o-mini", fc.lastModel)
	assert.Contains(t, fc.lastPrompt, "Mitochondria are the powerhouse of the cell.")
	assert.Contains(t, fc.lastPrompt, "2 flashcards in English")
}

func TestGenerateNoteTooShort(t *testing.T) {
	svc := NewService(&fakeCompleter{}, "gpt-4o-mini")

	// 100 words support at most 2 cards (one per 50 words).
	_, err := svc.Generate(context.Background(), Request{
		Blocks:    []string{"short note"},
		WordCount: 100,
		NumCards:  3,
	})
	assert.ErrorIs(t, err, ErrNoteTooShort)
}

func TestGenerateBoundaryWordCount(t *testing.T) {
	fc := &fakeCompleter{out: "[]"}
	svc := NewService(fc, "gpt-4o-mini")

	_, err := svc.Generate(context.Background(), Request{
		Blocks:    []string{"note"},
		WordCount: 100,
		NumCards:  2,
	})
	assert.NoError(t, err, "exactly wordCount/50 cards is allowed")
}

func TestGenerateZeroCards(t *testing.T) {
	svc := NewService(&fakeCompleter{}, "gpt-4o-mini")
	_, err := svc.Generate(context.Background(), Request{WordCount: 500, NumCards: 0})
	assert.Error(t, err)
}

func TestGenerateCompleterError(t *testing.T) {
	svc := NewService(&fakeCompleter{err: assert.AnError}, "gpt-4o-mini")
	_, err := svc.Generate(context.Background(), Request{
		Blocks:    []string{"long enough note"},
		WordCount: 500,
		NumCards:  1,
	})
	assert.Error(t, err)
}

func TestBuildPromptDefaultsLanguage(t *testing.T) {
	prompt := buildPrompt("some context", 3, "")
	assert.Contains(t, prompt, "3 flashcards in English")
	assert.Contains(t, prompt, "some context")
}
