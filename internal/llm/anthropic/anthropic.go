// Package anthropic is the one concrete llm.Oracle binding, calling the
// Anthropic Messages API with forced tool-call output so every decision
// comes back as a structured argument set rather than free text to parse.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/cory-johannsen/textworld/internal/config"
	"github.com/cory-johannsen/textworld/internal/llm"
)

const (
	decideActionTool   = "decide_action"
	decideResponseTool = "decide_response"
)

// Oracle calls the real Anthropic API for every llm.Oracle method.
type Oracle struct {
	client  anthropicsdk.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// New builds an Oracle from the given OracleConfig. APIKey and Model must be
// non-empty; callers should run config.Validate beforehand.
func New(cfg config.OracleConfig, logger *zap.Logger) *Oracle {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Oracle{
		client:  anthropicsdk.NewClient(opts...),
		model:   cfg.Model,
		timeout: cfg.RequestTimeout,
		logger:  logger,
	}
}

func (o *Oracle) DecideAction(ctx context.Context, req llm.DecisionRequest) (*llm.Decision, *llm.Usage, error) {
	ctx, cancel := o.withDeadline(ctx)
	defer cancel()

	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"action":    map[string]any{"type": "string", "description": "the verb to invoke, or \"no-op\" to do nothing"},
			"arguments": map[string]any{"type": "object", "additionalProperties": map[string]any{"type": "string"}},
			"reasoning": map[string]any{"type": "string"},
		},
		"required": []string{"action", "reasoning"},
	}

	raw, usage, err := o.callTool(ctx, req, decideActionTool,
		"Decide this agent's next action, or choose \"no-op\" to do nothing this round.", schema)
	if err != nil {
		return nil, nil, err
	}
	if raw == nil {
		return nil, usage, nil
	}

	var parsed struct {
		Action    string            `json:"action"`
		Arguments map[string]string `json:"arguments"`
		Reasoning string            `json:"reasoning"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, usage, fmt.Errorf("decoding decide_action tool call: %w", err)
	}
	if parsed.Action == "" || strings.EqualFold(parsed.Action, "no-op") {
		return nil, usage, nil
	}
	return &llm.Decision{
		Action:    parsed.Action,
		Arguments: parsed.Arguments,
		Reasoning: parsed.Reasoning,
	}, usage, nil
}

func (o *Oracle) DecideResponse(ctx context.Context, req llm.DecisionRequest) (*llm.ResponseDecision, *llm.Usage, error) {
	ctx, cancel := o.withDeadline(ctx)
	defer cancel()

	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"should_respond": map[string]any{"type": "boolean"},
			"response":       map[string]any{"type": "string"},
			"reasoning":      map[string]any{"type": "string"},
		},
		"required": []string{"should_respond", "reasoning"},
	}

	raw, usage, err := o.callTool(ctx, req, decideResponseTool,
		"Decide whether this agent should respond to what it just perceived, and if so, what to say.", schema)
	if err != nil {
		return nil, nil, err
	}
	if raw == nil {
		return &llm.ResponseDecision{ShouldRespond: false}, usage, nil
	}

	var parsed struct {
		ShouldRespond bool   `json:"should_respond"`
		Response      string `json:"response"`
		Reasoning     string `json:"reasoning"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, usage, fmt.Errorf("decoding decide_response tool call: %w", err)
	}
	return &llm.ResponseDecision{
		ShouldRespond: parsed.ShouldRespond,
		Response:      parsed.Response,
		Reasoning:     parsed.Reasoning,
	}, usage, nil
}

func (o *Oracle) SummariseSpatialMap(ctx context.Context, text string) (string, *llm.Usage, error) {
	ctx, cancel := o.withDeadline(ctx)
	defer cancel()

	message, err := o.client.Messages.New(ctx, anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(o.model),
		MaxTokens: 512,
		System: []anthropicsdk.TextBlockParam{
			{Text: "Compress the following room-by-room notes into a spatial memory summary of at most seven short lines."},
		},
		Messages: []anthropicsdk.MessageParam{
			anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock(text)),
		},
	})
	if err != nil {
		return "", nil, fmt.Errorf("anthropic summarise_spatial_map call: %w", err)
	}

	var out strings.Builder
	for _, block := range message.Content {
		if tb, ok := block.AsAny().(anthropicsdk.TextBlock); ok {
			out.WriteString(tb.Text)
		}
	}
	usage := o.usageFrom(message.Usage, "")
	return strings.TrimSpace(out.String()), usage, nil
}

// callTool issues one forced-tool-call Messages request and returns the raw
// JSON input of the matching tool_use block, or nil if the model declined to
// call the tool at all (treated as a no-op by the caller).
func (o *Oracle) callTool(ctx context.Context, req llm.DecisionRequest, toolName, toolDescription string, schema map[string]any) (json.RawMessage, *llm.Usage, error) {
	properties, _ := schema["properties"].(map[string]any)
	required, _ := schema["required"].([]string)

	message, err := o.client.Messages.New(ctx, anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(o.model),
		MaxTokens: 1024,
		System: []anthropicsdk.TextBlockParam{
			{Text: req.SystemPrompt},
		},
		Messages: []anthropicsdk.MessageParam{
			anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock(buildPrompt(req))),
		},
		Tools: []anthropicsdk.ToolUnionParam{
			{
				OfTool: &anthropicsdk.ToolParam{
					Name:        toolName,
					Description: anthropicsdk.String(toolDescription),
					InputSchema: anthropicsdk.ToolInputSchemaParam{
						Properties: properties,
						Required:   required,
					},
				},
			},
		},
		ToolChoice: anthropicsdk.ToolChoiceUnionParam{
			OfToolChoiceTool: &anthropicsdk.ToolChoiceToolParam{Name: toolName},
		},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("anthropic %s call: %w", toolName, err)
	}

	usage := o.usageFrom(message.Usage, req.AgentID)
	for _, block := range message.Content {
		if tu, ok := block.AsAny().(anthropicsdk.ToolUseBlock); ok && tu.Name == toolName {
			return json.RawMessage(tu.Input), usage, nil
		}
	}
	return nil, usage, nil
}

func (o *Oracle) usageFrom(u anthropicsdk.Usage, agentID string) *llm.Usage {
	_ = agentID
	return &llm.Usage{
		Model:            o.model,
		Provider:         "anthropic",
		PromptTokens:     int(u.InputTokens),
		CompletionTokens: int(u.OutputTokens),
		TotalTokens:      int(u.InputTokens + u.OutputTokens),
		Cost:             costOf(o.model, int(u.InputTokens), int(u.OutputTokens)),
	}
}

func (o *Oracle) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, o.timeout)
}

func buildPrompt(req llm.DecisionRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Agent: %s\n", req.AgentName)
	fmt.Fprintf(&b, "Time since last action: %s\n", req.TimeSinceLastAction)
	fmt.Fprintf(&b, "Room: %s\n", req.RoomContext)
	if req.SpatialMemory != "" {
		fmt.Fprintf(&b, "Spatial memory: %s\n", req.SpatialMemory)
	}
	if len(req.Adjacencies) > 0 {
		fmt.Fprintf(&b, "Adjacent rooms: %s\n", strings.Join(req.Adjacencies, ", "))
	}
	if len(req.Occupants) > 0 {
		fmt.Fprintf(&b, "Characters present: %s\n", strings.Join(req.Occupants, ", "))
	}
	if len(req.Items) > 0 {
		fmt.Fprintf(&b, "Items present: %s\n", strings.Join(req.Items, ", "))
	}
	if len(req.Relationships) > 0 {
		b.WriteString("Relationships:\n")
		for peer, rel := range req.Relationships {
			fmt.Fprintf(&b, "  - %s: sentiment=%d trust=%d familiarity=%d role=%s\n",
				peer, rel.Sentiment, rel.Trust, rel.Familiarity, rel.Role)
		}
	}
	if len(req.FormattedEvents) > 0 {
		b.WriteString("Recent events:\n")
		for _, e := range req.FormattedEvents {
			fmt.Fprintf(&b, "  - %s\n", e)
		}
	}
	return b.String()
}
