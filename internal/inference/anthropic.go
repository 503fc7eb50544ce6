package inference

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aws/aws-sdk-go-v2/config"
)

// jsonInstruction is appended to the system prompt for JSON-format requests.
const jsonInstruction = "Respond with a single JSON object and nothing else."

// Client wraps the Anthropic SDK client with usage recording.
type Client struct {
	inner  anthropic.Client
	model  anthropic.Model
	ledger *Ledger
}

// ClientConfig contains configuration for creating a new Client.
type ClientConfig struct {
	// Model is the default model (e.g. anthropic.ModelClaudeSonnet4_20250514).
	Model anthropic.Model
	// APIKey is the Anthropic API key. If empty, uses ANTHROPIC_API_KEY.
	APIKey string
	// UseAWSBedrock routes requests through AWS Bedrock instead of the API.
	UseAWSBedrock bool
	// AWSRegion is the AWS region for Bedrock (e.g. "us-west-2").
	AWSRegion string
	// AWSProfile is the optional AWS profile name to use.
	AWSProfile string
	// Ledger receives usage records. Nil uses the process-wide ledger.
	Ledger *Ledger
}

// NewClient creates a new Anthropic-backed inference client.
func NewClient(cfg ClientConfig) (*Client, error) {
	var opts []option.RequestOption

	if cfg.UseAWSBedrock {
		ctx := context.Background()

		var loadOpts []func(*config.LoadOptions) error
		if cfg.AWSRegion != "" {
			loadOpts = append(loadOpts, config.WithRegion(cfg.AWSRegion))
		}
		if cfg.AWSProfile != "" {
			loadOpts = append(loadOpts, config.WithSharedConfigProfile(cfg.AWSProfile))
		}

		opts = append(opts, bedrock.WithLoadDefaultConfig(ctx, loadOpts...))
	} else {
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is not set")
		}
		opts = append(opts, option.WithAPIKey(apiKey))
	}

	model := cfg.Model
	if model == "" {
		model = anthropic.ModelClaudeSonnet4_20250514
	}
	if cfg.UseAWSBedrock {
		model = translateModelForBedrock(model)
	}

	ledger := cfg.Ledger
	if ledger == nil {
		ledger = DefaultLedger()
	}

	return &Client{
		inner:  anthropic.NewClient(opts...),
		model:  model,
		ledger: ledger,
	}, nil
}

// translateModelForBedrock converts standard Anthropic model names to
// Bedrock cross-region inference profile format.
func translateModelForBedrock(model anthropic.Model) anthropic.Model {
	bedrockModels := map[anthropic.Model]string{
		anthropic.ModelClaudeSonnet4_20250514:  "us.anthropic.claude-sonnet-4-20250514-v1:0",
		anthropic.ModelClaudeHaiku4_5_20251001: "us.anthropic.claude-haiku-4-5-20251001-v1:0",
		anthropic.ModelClaudeOpus4_1_20250805:  "us.anthropic.claude-opus-4-1-20250805-v1:0",
		anthropic.ModelClaude3_5Haiku20241022:  "us.anthropic.claude-3-5-haiku-20241022-v1:0",
	}
	if m, ok := bedrockModels[model]; ok {
		return anthropic.Model(m)
	}
	return model
}

// Model returns the configured default model.
func (c *Client) Model() string {
	return string(c.model)
}

// Complete performs a single completion call and records usage.
func (c *Client) Complete(ctx context.Context, req Request) (Response, error) {
	model := c.model
	if req.Model != "" {
		model = anthropic.Model(req.Model)
		if strings.HasPrefix(string(c.model), "us.anthropic") {
			model = translateModelForBedrock(model)
		}
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	system := req.SystemPrompt
	if req.JSONFormat {
		if system != "" {
			system += "\n\n"
		}
		system += jsonInstruction
	}

	params := anthropic.MessageNewParams{
		Model:     model,
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}

	resp, err := c.inner.Messages.New(ctx, params)
	if err != nil {
		return Response{}, fmt.Errorf("anthropic completion: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(variant.Text)
		}
	}

	c.ledger.Record(string(model), resp.Usage.InputTokens, resp.Usage.OutputTokens)

	return Response{
		Text:         text.String(),
		Model:        string(model),
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	}, nil
}

// Verify Client implements Backend at compile time.
var _ Backend = (*Client)(nil)
