package agent

import (
	"context"

	"github.com/etnz/portopt/docs"
	"google.golang.org/genai"
)

const model = "gemini-2.5-pro"

// creates the facilitator
func newFacilitator(experts ...*Expert) *Expert {
	return &Expert{
		Name: "Facilitator",
		// Used by facilitators to know what they can expected from the expert
		Description: ``,
		ModelName:   model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(experts)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			As a facilitator you are in charge of the conversation and solving the user's request.

			Learn about the expert's skill that you can get from the Tools to ask them questions.
			They are at your service and 100% dedicated to you, they keep context of your previous questions.

			The user optimizes stock portfolios, and wants to understand the portfolios
			found by the optimizer, how they compare to a fund, and how to tune the optimizer.

			Devise a plan of questions to ask to each experts and come up with the best reponse to the user's request.
		`}}},
		},
		Library: NewLibrary(experts),
	}
}

func NewTrader() *Expert {
	return &Expert{
		Name: "Trader",
		Description: `This is an expert trader,
		Very well aware of the stock markets, and about the latest news about the different companies.
		Ask the Trader whenever you need recent or grounding information about a stock.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{GoogleSearch: &genai.GoogleSearch{}},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			You are a expert in Trading, you can search and find about anything related to
			companies, stock markets and indices. You Leverage Google Search to
			ground your assertions in a solid truth.
			You can get the latests news too, and you know how to relate them to the user's request.
				`}}},
		},
	}
}

// NewAnalyst returns the expert reading the optimization reports.
//
// 'report' returns the markdown report of the last run.
func NewAnalyst(report func() (string, error)) *Expert {
	lib := []Function{Report(report), Topic}

	return &Expert{
		Name: "Analyst",
		Description: `This is the Analyst. He reads the reports of the portfolio optimizations,
		and knows how the optimizer works: its model, samplers and parameters.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(lib)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
				You are a quantitative analyst in charge of the portfolio optimizer.
				You know how to use the Tools to read the report of the last optimization run,
				and the documentation of the optimizer.
				You are part of a team of experts, yours is everything about the optimization results.
			`}}},
		},
		Library: NewLibrary(lib),
	}
}

// Func implements a simple Function
type Func struct {
	// Declare this function
	Decl *genai.FunctionDeclaration
	// Call this function
	Func func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse
}

func (f *Func) Declaration() *genai.FunctionDeclaration { return f.Decl }
func (f *Func) Call(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
	return f.Func(ctx, id, args)
}

// response builds the response of function 'name' from its output.
func response(id, name, output string, err error) *genai.FunctionResponse {
	if err != nil {
		return &genai.FunctionResponse{ID: id, Name: name, Response: map[string]any{"error": err.Error()}}
	}
	return &genai.FunctionResponse{ID: id, Name: name, Response: map[string]any{"output": output}}
}

// Report returns the function reading the last run report.
func Report(report func() (string, error)) *Func {
	return &Func{
		Decl: &genai.FunctionDeclaration{
			Name:        "Report",
			Description: `Report returns the markdown report of the last optimization run: problem details, solution, allocation and rebalancing steps.`,
			Response: &genai.Schema{
				Type:        genai.TypeString,
				Description: "A markdown-formatted report.",
			},
		},
		Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
			md, err := report()
			return response(id, "Report", md, err)
		},
	}
}

// Topic is the function reading the documentation topics.
var Topic = &Func{
	Decl: &genai.FunctionDeclaration{
		Name:        "Topic",
		Description: `Topic returns a documentation topic of the optimizer. Use "*" to read all topics.`,
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"topic": {
					Type:        genai.TypeString,
					Description: `The name of the topic, one of "solvers", "dashboard" or "*".`,
				},
			},
			Required: []string{"topic"},
		},
		Response: &genai.Schema{
			Type:        genai.TypeString,
			Description: "The markdown documentation.",
		},
	},
	Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
		topic, err := stringArg(args, "topic")
		if err != nil {
			return response(id, "Topic", "", err)
		}
		md, err := docs.GetTopic(topic)
		return response(id, "Topic", md, err)
	},
}
