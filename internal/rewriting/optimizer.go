package rewriting

import (
	"context"
	"log"
	"strings"

	"github.com/jonathan/cv-builder/internal/llm"
	"github.com/jonathan/cv-builder/internal/prompts"
	"github.com/jonathan/cv-builder/internal/types"
)

// Optimizer rewrites text with a language model. It backs the optimize endpoint.
type Optimizer struct {
	client llm.Client
}

// NewOptimizer creates an optimizer around client.
func NewOptimizer(client llm.Client) *Optimizer {
	return &Optimizer{client: client}
}

// Optimize rewrites text for field. Unlike Rewrite it reports failures.
func (o *Optimizer) Optimize(ctx context.Context, text, field string) (string, error) {
	template, err := prompts.ForField(prompts.RewriteFile, field)
	if err != nil {
		return "", err
	}
	prompt := prompts.Format(template, map[string]string{"Text": text})

	answer, err := o.client.GenerateContent(ctx, prompt, tierFor(field))
	if err != nil {
		return "", &APICallError{Message: "failed to generate rewrite for " + field, Cause: err}
	}

	rewritten := llm.CleanText(answer)
	if err := checkOutput(field, text, rewritten); err != nil {
		return "", err
	}
	return rewritten, nil
}

// Rewrite implements Gateway for in-process use, falling back to text on failure.
func (o *Optimizer) Rewrite(ctx context.Context, text, field string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	out, err := o.Optimize(ctx, text, field)
	if err != nil {
		log.Printf("[rewrite] %s: falling back to original text: %v", field, err)
		return text
	}
	return out
}

// tierFor picks the lighter model for short single-sentence fields
func tierFor(field string) llm.ModelTier {
	switch field {
	case types.FieldObjective, types.FieldPitch, types.FieldClosing:
		return llm.TierLite
	default:
		return llm.TierStandard
	}
}
