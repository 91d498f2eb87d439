// Package claude implements the Generator collaborator on the Anthropic API.
// Each call produces a scored candidate entry plus the token cost of
// generating it, which feeds the daily budget ledger.
package claude

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/pezware/mirubato-sub004/internal/config"
	"github.com/pezware/mirubato-sub004/internal/domain"
)

// Generator calls Claude to produce dictionary entries for musical terms.
type Generator struct {
	client anthropic.Client
	cfg    config.GeneratorConfig
	log    *slog.Logger
}

// New creates a Generator from GeneratorConfig.
func New(cfg config.GeneratorConfig, logger *slog.Logger) *Generator {
	return &Generator{
		client: anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		cfg:    cfg,
		log:    logger.With("component", "generator"),
	}
}

// generatedEntry is the JSON schema the model is instructed to emit.
type generatedEntry struct {
	Term         string   `json:"term"`
	KnownTerm    bool     `json:"known_term"`
	Type         string   `json:"type"`
	Definition   string   `json:"definition"`
	Etymology    string   `json:"etymology"`
	Examples     []string `json:"examples"`
	Translations []string `json:"translations"`
	QualityScore int      `json:"quality_score"`
}

// GenerateEntry produces a candidate dictionary entry for (term, lang).
// The per-call timeout comes from configuration; a hung call surfaces as a
// deadline error and is retryable. A term the model does not recognize as a
// musical term is a non-retryable failure.
func (g *Generator) GenerateEntry(ctx context.Context, term string, termType domain.TermType, lang string, extraContext string) (*domain.CandidateEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	prompt := buildGeneratePrompt(term, termType, lang, extraContext)

	msg, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(g.cfg.Model),
		MaxTokens: int64(g.cfg.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("generation for %q timed out: %w", term, err)
		}
		return nil, fmt.Errorf("llm api call for %q: %w", term, err)
	}

	if len(msg.Content) == 0 {
		return nil, fmt.Errorf("llm api call for %q: empty response", term)
	}

	payload, err := parseGenerated(msg.Content[0].Text)
	if err != nil {
		return nil, fmt.Errorf("llm response for %q: %w", term, err)
	}

	if !payload.KnownTerm {
		return nil, fmt.Errorf("invalid term %q: not a recognized musical term: %w", term, domain.ErrNonRetryable)
	}
	if strings.TrimSpace(payload.Definition) == "" {
		return nil, fmt.Errorf("llm response for %q: empty definition", term)
	}

	candidate := toCandidate(term, lang, payload)
	candidate.TokensUsed = int(msg.Usage.InputTokens + msg.Usage.OutputTokens)

	g.log.DebugContext(ctx, "entry generated",
		slog.String("term", term),
		slog.String("lang", lang),
		slog.Int("quality_score", candidate.Entry.QualityScore),
		slog.Int("tokens_used", candidate.TokensUsed),
	)

	return candidate, nil
}

// EnhanceEntry asks the model to improve an existing entry. Returns nil (no
// error) when the model reports nothing to improve.
func (g *Generator) EnhanceEntry(ctx context.Context, e *domain.Entry) (*domain.CandidateEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	current, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal entry %q: %w", e.Term, err)
	}

	msg, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(g.cfg.Model),
		MaxTokens: int64(g.cfg.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildEnhancePrompt(e.Term, e.Lang, string(current)))),
		},
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("enhancement for %q timed out: %w", e.Term, err)
		}
		return nil, fmt.Errorf("llm api call for %q: %w", e.Term, err)
	}

	if len(msg.Content) == 0 {
		return nil, fmt.Errorf("llm api call for %q: empty response", e.Term)
	}

	payload, err := parseGenerated(msg.Content[0].Text)
	if err != nil {
		return nil, fmt.Errorf("llm response for %q: %w", e.Term, err)
	}
	if !payload.KnownTerm {
		// Model sees nothing to improve.
		return nil, nil
	}

	candidate := toCandidate(e.Term, e.Lang, payload)
	candidate.Entry.ID = e.ID
	candidate.TokensUsed = int(msg.Usage.InputTokens + msg.Usage.OutputTokens)
	return candidate, nil
}

// parseGenerated extracts and decodes the JSON object in a model response,
// clamping the self-assessed quality score to [0,100].
func parseGenerated(text string) (*generatedEntry, error) {
	jsonStr, err := extractJSON(text)
	if err != nil {
		return nil, err
	}
	if !json.Valid([]byte(jsonStr)) {
		return nil, fmt.Errorf("response does not contain valid JSON")
	}

	var payload generatedEntry
	if err := json.Unmarshal([]byte(jsonStr), &payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if payload.QualityScore < 0 {
		payload.QualityScore = 0
	}
	if payload.QualityScore > 100 {
		payload.QualityScore = 100
	}
	return &payload, nil
}

func toCandidate(term, lang string, payload *generatedEntry) *domain.CandidateEntry {
	termType := domain.TermType(strings.ToUpper(payload.Type))
	if !termType.IsValid() {
		termType = domain.TermTypeGeneral
	}

	entry := domain.Entry{
		Term:           term,
		TermNormalized: domain.NormalizeTerm(term),
		Lang:           lang,
		Type:           termType,
		Definition:     strings.TrimSpace(payload.Definition),
		Examples:       payload.Examples,
		Translations:   payload.Translations,
		SourceSlug:     "ai-seed",
		QualityScore:   payload.QualityScore,
	}
	if etym := strings.TrimSpace(payload.Etymology); etym != "" {
		entry.Etymology = &etym
	}

	return &domain.CandidateEntry{Entry: entry}
}

// buildGeneratePrompt creates the LLM prompt for a single term.
func buildGeneratePrompt(term string, termType domain.TermType, lang, extraContext string) string {
	contextBlock := ""
	if extraContext != "" {
		contextBlock = fmt.Sprintf("\nAdditional context:\n%s\n", extraContext)
	}

	return fmt.Sprintf(`You are a professional music dictionary editor.

Produce a reference dictionary entry for the musical term "%s" (category hint: %s) with all prose written in language code "%s".
%s
Output ONLY a valid JSON object matching this exact schema:
{
  "term": "<term>",
  "known_term": <true if this is a real musical term, false otherwise>,
  "type": "<TEMPO|DYNAMICS|ARTICULATION|EXPRESSION|FORM|TECHNIQUE|GENERAL>",
  "definition": "<clear definition suitable for music students>",
  "etymology": "<origin of the term, or empty>",
  "examples": ["<usage in a score or performance context>"],
  "translations": ["<literal translation(s) into the target language>"],
  "quality_score": <0-100 self-assessment of completeness and accuracy>
}

Rules:
- If the term is not a recognized musical term, set known_term to false and leave other fields empty
- Keep the definition precise; mention the historical period when relevant
- Provide 1-3 natural examples
- Be conservative with quality_score: reserve 80+ for entries you are certain about
- Output ONLY the JSON, no markdown, no explanations`, term, termType, lang, contextBlock)
}

// buildEnhancePrompt creates the LLM prompt for improving an existing entry.
func buildEnhancePrompt(term, lang, currentJSON string) string {
	return fmt.Sprintf(`You are a professional music dictionary editor.

Improve the existing dictionary entry for the musical term "%s" (language "%s"):

%s

Output ONLY a valid JSON object with the same schema as the input plus
"known_term" (set false if the entry needs no improvement) and
"quality_score" (0-100 self-assessment). No markdown, no explanations.`, term, lang, currentJSON)
}

// extractJSON finds the first complete JSON object in a string.
func extractJSON(s string) (string, error) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no JSON object found in response")
	}
	return s[start : end+1], nil
}
