package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Generator generates content, as genai.Models does.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Advisor comments optimization reports in a single question.
type Advisor struct {
	Models Generator
	Model  string
}

// NewAdvisor returns an advisor using the Gemini client.
func NewAdvisor(client *genai.Client) *Advisor {
	return &Advisor{Models: client.Models, Model: model}
}

const explainPrompt = `You are a quantitative analyst. Below is the report of a stock portfolio optimization.
In a few short paragraphs, explain to an investor the portfolio that was found:
the allocation, the expected return against the risk, and, when there is a rebalancing
table, how the optimized portfolio compares with the fund. Answer in markdown.

`

// Explain returns a short commentary on a markdown report.
func (a *Advisor) Explain(ctx context.Context, report string) (string, error) {
	if strings.TrimSpace(report) == "" {
		return "", errors.New("nothing to explain, the report is empty")
	}
	resp, err := a.Models.GenerateContent(ctx, a.Model, genai.Text(explainPrompt+report), nil)
	if err != nil {
		return "", fmt.Errorf("cannot explain the report: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", errors.New("no response from the advisor")
	}
	return text, nil
}
