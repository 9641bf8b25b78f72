package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// DefaultMaxLength bounds the enhanced prompt before the style suffix is
// appended.
const DefaultMaxLength = 250

const ellipsis = "..."

// ChatClient is the single completion call the enhancer depends on.
type ChatClient interface {
	Chat(ctx context.Context, prompt string) (string, error)
}

// EnhancerOptions tunes the enhancer.
type EnhancerOptions struct {
	MaxLength int
	Logger    zerolog.Logger
}

// Enhancer rewrites short user prompts into richer descriptions via one text
// completion. Enhancement is strictly best effort: it improves quality when
// the remote service cooperates and falls back to the raw prompt when it
// does not.
type Enhancer struct {
	client    ChatClient
	maxLength int
	logger    zerolog.Logger
}

// NewEnhancer wires the enhancer to a chat client.
func NewEnhancer(client ChatClient, opts EnhancerOptions) *Enhancer {
	maxLength := opts.MaxLength
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	return &Enhancer{client: client, maxLength: maxLength, logger: opts.Logger}
}

// Enhance returns the rewritten prompt with the style suffix appended. Every
// failure, from a missing credential to a malformed or empty reply, degrades
// to the original prompt (plus the suffix when one was requested); the caller
// never sees an error.
func (e *Enhancer) Enhance(ctx context.Context, prompt, styleSuffix string) string {
	enhanced, err := e.tryEnhance(ctx, prompt, styleSuffix)
	if err != nil {
		e.logger.Warn().Err(err).Msg("prompt enhancement failed, using original prompt")
		return withSuffix(prompt, styleSuffix)
	}
	return enhanced
}

func (e *Enhancer) tryEnhance(ctx context.Context, prompt, styleSuffix string) (string, error) {
	if e.client == nil {
		return "", errors.New("no chat client configured")
	}
	text, err := e.client.Chat(ctx, buildInstruction(prompt, styleSuffix, e.maxLength))
	if err != nil {
		return "", err
	}
	enhanced := strings.TrimSpace(text)
	if enhanced == "" {
		return "", errors.New("empty completion")
	}
	return withSuffix(truncateAtWord(enhanced, e.maxLength), styleSuffix), nil
}

// buildInstruction embeds the user prompt into the fixed rewrite template.
// The style suffix becomes a mandatory constraint when present.
func buildInstruction(prompt, styleSuffix string, maxLength int) string {
	var b strings.Builder
	b.WriteString("You are an expert at writing prompts for AI image generators.\n")
	b.WriteString("Take the simple prompt below and turn it into a concise but detailed description.\n\n")
	fmt.Fprintf(&b, "IMPORTANT: the answer must not exceed %d characters.\n\n", maxLength)
	b.WriteString("Briefly add:\n")
	b.WriteString("- key composition details\n")
	b.WriteString("- lighting and mood\n")
	b.WriteString("- technical details\n")
	if styleSuffix != "" {
		fmt.Fprintf(&b, "\nThe style is mandatory: %s\n", styleSuffix)
	}
	b.WriteString("\nAnswer ONLY with the improved prompt, without explanations.\n")
	fmt.Fprintf(&b, "\nPrompt: %s\n\nImproved:", prompt)
	return b.String()
}

func withSuffix(prompt, styleSuffix string) string {
	if styleSuffix == "" {
		return prompt
	}
	return prompt + ", " + styleSuffix
}

// truncateAtWord cuts s at the last whole word that keeps the result,
// ellipsis included, within max characters. Strings already within the limit
// pass through untouched. A max too small to hold the ellipsis degrades to a
// hard cut.
func truncateAtWord(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= len(ellipsis) {
		return string(runes[:max])
	}
	cut := string(runes[:max-len(ellipsis)])
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " ") + ellipsis
}
