package data

import (
	"context"

	"github.com/ahlec/Phil-sub000/internal/biz/repo"
	"github.com/ahlec/Phil-sub000/internal/infra/openai"
)

// screenRepo classifies submissions with a chat model
type screenRepo struct {
	client *openai.Client
	prompt string
}

// NewScreenRepo creates a screening repository. Returns nil when no client
// is configured so screening is skipped.
func NewScreenRepo(client *openai.Client, prompt string) repo.ScreenRepo {
	if client == nil {
		return nil
	}
	return &screenRepo{client: client, prompt: prompt}
}

// ShouldFlag asks the model whether the submission needs review
func (r *screenRepo) ShouldFlag(ctx context.Context, text string) (bool, error) {
	return r.client.Classify(ctx, r.prompt, text)
}
