package ideas

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// Generator produces candidate domain names for a theme, in the order they
// should be presented. Implementations may fail as a whole but must not
// return an empty list without an error.
type Generator interface {
	Generate(ctx context.Context, theme string) ([]string, error)
}

// ErrNoCandidates is returned when the model answers but no usable domain
// names can be extracted from its output.
var ErrNoCandidates = errors.New("no candidates in model output")

// OpenAIGenerator asks an OpenAI chat model for domain name ideas.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
	count  int
	tld    string
}

// NewOpenAIGenerator builds a generator for the given API key. count is the
// number of names requested per theme and tld the extension they should
// carry (without the leading dot).
func NewOpenAIGenerator(apiKey string, count int, tld string) *OpenAIGenerator {
	return &OpenAIGenerator{
		client: openai.NewClient(apiKey),
		model:  openai.GPT4o,
		count:  count,
		tld:    tld,
	}
}

const systemPrompt = "You are a helpful AI domain name generator."

// Generate requests candidate names and returns them cleaned, one per line
// of model output, preserving the model's order.
func (g *OpenAIGenerator) Generate(ctx context.Context, theme string) ([]string, error) {
	prompt := fmt.Sprintf(
		"Generate a list of %d domain names ending in .%s based on the theme: %s.\n"+
			"The names should be closest to the theme. Example theme: english soccer teams\n"+
			"Example domain names: chelsea.%s, liverpool.%s, manchesterunited.%s\n"+
			"Provide each domain name on a new line without any numbering or additional text.",
		g.count, g.tld, theme, g.tld, g.tld, g.tld,
	)

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrNoCandidates
	}

	domains := CleanCandidates(resp.Choices[0].Message.Content)
	if len(domains) == 0 {
		return nil, ErrNoCandidates
	}
	return domains, nil
}
