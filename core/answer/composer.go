package answer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/wicketmedia/stumpsearch/helper"
	"github.com/wicketmedia/stumpsearch/model"
)

// Fixed answer for an empty retrieval result. No LLM call happens in
// that case, so nothing can be fabricated.
const noMatchesAnswer = "I could not find any cricket images matching your question. " +
	"Try different player names, events or actions."

// maxFactBlocks caps how many matches are rendered into the prompt
const maxFactBlocks = 5

// Composer builds the grounded prompt and produces the final answer.
// Remote failures degrade to an answer assembled from the retrieved
// facts instead of surfacing an error to the user.
type Composer struct {
	generator Generator
	retrier   *helper.Retrier
	log       *slog.Logger
}

// NewComposer creates a composer. Only service-unavailable failures of
// the generator are retried.
func NewComposer(generator Generator, logger *slog.Logger) *Composer {
	retrier := helper.NewRetrier(3, 500*time.Millisecond, 5*time.Second, func(err error) bool {
		return errors.Is(err, model.ErrServiceUnavailable)
	})

	return &Composer{
		generator: generator,
		retrier:   retrier,
		log:       logger,
	}
}

// Compose produces the answer for a query given its retrieval result
// and the recent session history. An empty result returns the fixed
// no-matches answer without calling the generator. Generator failures
// after the retry budget yield a degraded answer and a nil error;
// only context cancellation propagates.
func (c *Composer) Compose(ctx context.Context, query *model.Query, result *model.RetrievalResult, history []*model.ChatTurn, config *model.QueryConfig) (string, error) {
	if config == nil {
		defaultConfig := model.DefaultQueryConfig()
		config = &defaultConfig
	}

	if result.Empty() {
		return noMatchesAnswer, nil
	}

	prompt := c.buildPrompt(query, result, history, config)
	opts := &GenerateOptions{MaxTokens: config.MaxAnswerTokens}

	var answer string
	err := c.retrier.Do(ctx, func() error {
		generated, err := c.generator.Generate(ctx, prompt, opts)
		if err != nil {
			return err
		}
		answer = generated
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		c.log.Error("Answer generation failed, returning degraded answer", slog.String("error", err.Error()))
		return degradedAnswer(result), nil
	}

	return answer, nil
}

// buildPrompt renders the recent conversation, the retrieved image
// facts and the question into one generation prompt
func (c *Composer) buildPrompt(query *model.Query, result *model.RetrievalResult, history []*model.ChatTurn, config *model.QueryConfig) string {
	var b strings.Builder

	if len(history) > 0 {
		start := 0
		if config.HistoryTurns > 0 && len(history) > config.HistoryTurns {
			start = len(history) - config.HistoryTurns
		}

		b.WriteString("Recent conversation:\n")
		for _, turn := range history[start:] {
			fmt.Fprintf(&b, "User: %s\nAssistant: %s\n", turn.Question, turn.Answer)
		}
		b.WriteString("\n")
	}

	b.WriteString("Here are the cricket images matching the question:\n\n")
	for i, match := range result.Matches {
		if i >= maxFactBlocks {
			break
		}
		fmt.Fprintf(&b, "Image %d:\n", i+1)
		writeFact(&b, "Player", match.Tags.Player)
		writeFact(&b, "Event", match.Tags.Event)
		writeFact(&b, "Action", match.Tags.Action)
		writeFact(&b, "Mood", match.Tags.Mood)
		writeFact(&b, "Location", match.Tags.SubLocation)
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "User Question: %s\n\n", query.Raw)
	b.WriteString("Answer the question using only the image facts listed above. " +
		"Be concise and conversational. Do not mention image numbers or URLs. " +
		"If the facts do not answer the question, say so instead of guessing.")

	return b.String()
}

func writeFact(b *strings.Builder, label string, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	fmt.Fprintf(b, "- %s: %s\n", label, value)
}

// degradedAnswer summarizes the retrieved matches without the LLM
func degradedAnswer(result *model.RetrievalResult) string {
	var descriptions []string
	for i, match := range result.Matches {
		if i >= maxFactBlocks {
			break
		}

		var parts []string
		if match.Tags.Player != "" {
			parts = append(parts, match.Tags.Player)
		}
		if match.Tags.Action != "" {
			parts = append(parts, match.Tags.Action)
		}
		if match.Tags.Event != "" {
			parts = append(parts, "at "+match.Tags.Event)
		}
		if len(parts) == 0 {
			parts = append(parts, match.ImageID)
		}
		descriptions = append(descriptions, strings.Join(parts, ", "))
	}

	return fmt.Sprintf("I found %d matching cricket image(s): %s.",
		len(result.Matches), strings.Join(descriptions, "; "))
}
