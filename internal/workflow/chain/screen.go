package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	einoobs "mockflow-api/internal/observability/eino"
	wfmodel "mockflow-api/internal/workflow/model"
	workflowport "mockflow-api/internal/workflow/port"
	workflowprompt "mockflow-api/internal/workflow/prompt"
	"mockflow-api/pkg/logger"
	"mockflow-api/pkg/metrics"
)

const (
	imageSearchToolName = "search_images"

	defaultMaxToolSteps = 5
)

// ScreenChain 负责渲染单个屏幕的 HTML。
// 模型可在生成过程中调用图片搜索工具补充真实图片 URL；
// 工具循环在应用侧手动驱动，步数受 MaxToolSteps 限制，超限后强制产出最终答案。
type ScreenChain struct {
	factory  workflowport.ChatModelFactory
	searcher workflowport.ImageSearcher
}

func NewScreenChain(factory workflowport.ChatModelFactory, searcher workflowport.ImageSearcher) *ScreenChain {
	return &ScreenChain{factory: factory, searcher: searcher}
}

func (c *ScreenChain) Invoke(ctx context.Context, in *wfmodel.ScreenGenerateInput) (*schema.Message, error) {
	if c == nil || c.factory == nil {
		return nil, fmt.Errorf("llm factory not configured")
	}
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}
	if strings.TrimSpace(in.ScreenSpecBlock) == "" {
		return nil, fmt.Errorf("screen spec is required")
	}

	ctx = einoobs.WithWorkflowProvider(ctx, "screen-gen", strings.TrimSpace(in.Provider))

	chatModel, err := c.factory.Get(ctx, strings.TrimSpace(in.Provider))
	if err != nil {
		return nil, err
	}

	if c.searcher != nil {
		chatModel, err = chatModel.WithTools([]*schema.ToolInfo{imageSearchToolInfo()})
		if err != nil {
			return nil, fmt.Errorf("bind image search tool: %w", err)
		}
	}

	msgs, err := formatScreenMessages(ctx, in)
	if err != nil {
		return nil, err
	}

	maxSteps := in.MaxToolSteps
	if maxSteps <= 0 {
		maxSteps = defaultMaxToolSteps
	}

	opts := buildScreenModelOptions(in)
	for step := 0; step < maxSteps; step++ {
		outMsg, err := chatModel.Generate(ctx, msgs, opts...)
		if err != nil {
			return nil, err
		}
		if outMsg == nil {
			return nil, fmt.Errorf("empty llm response")
		}
		if len(outMsg.ToolCalls) == 0 {
			return outMsg, nil
		}

		msgs = append(msgs, outMsg)
		for _, call := range outMsg.ToolCalls {
			result := c.executeToolCall(ctx, call)
			msgs = append(msgs, schema.ToolMessage(result, call.ID))
		}
	}

	// 步数耗尽：去掉工具绑定再请求一次，保证拿到最终 HTML。
	logger.Warn(ctx, "tool loop budget exhausted, forcing final answer", "max_steps", maxSteps)
	finalModel, err := c.factory.Get(ctx, strings.TrimSpace(in.Provider))
	if err != nil {
		return nil, err
	}
	outMsg, err := finalModel.Generate(ctx, msgs, opts...)
	if err != nil {
		return nil, err
	}
	if outMsg == nil {
		return nil, fmt.Errorf("empty llm response")
	}
	return outMsg, nil
}

type imageSearchArgs struct {
	Query string `json:"query"`
}

// executeToolCall 执行单次工具调用并返回给模型的 JSON 结果。
// 工具失败不终止生成：以 {"success":false} 回传，让模型自行降级为 SVG 占位。
func (c *ScreenChain) executeToolCall(ctx context.Context, call schema.ToolCall) string {
	if call.Function.Name != imageSearchToolName {
		metrics.LLMToolCallTotal.WithLabelValues(call.Function.Name, "unknown").Inc()
		return toolErrorJSON(fmt.Sprintf("unknown tool: %s", call.Function.Name))
	}
	if c.searcher == nil {
		metrics.LLMToolCallTotal.WithLabelValues(imageSearchToolName, "error").Inc()
		return toolErrorJSON("image search not configured")
	}

	var args imageSearchArgs
	if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
		metrics.LLMToolCallTotal.WithLabelValues(imageSearchToolName, "error").Inc()
		return toolErrorJSON(fmt.Sprintf("invalid arguments: %v", err))
	}
	if strings.TrimSpace(args.Query) == "" {
		metrics.LLMToolCallTotal.WithLabelValues(imageSearchToolName, "error").Inc()
		return toolErrorJSON("query is required")
	}

	results, err := c.searcher.Search(ctx, strings.TrimSpace(args.Query))
	if err != nil {
		logger.Warn(ctx, "image search failed", "query", args.Query, "error", err.Error())
		metrics.LLMToolCallTotal.WithLabelValues(imageSearchToolName, "error").Inc()
		return toolErrorJSON(err.Error())
	}

	metrics.LLMToolCallTotal.WithLabelValues(imageSearchToolName, "ok").Inc()
	payload, err := json.Marshal(map[string]any{
		"success": true,
		"results": results,
	})
	if err != nil {
		return toolErrorJSON(err.Error())
	}
	return string(payload)
}

func toolErrorJSON(msg string) string {
	payload, _ := json.Marshal(map[string]any{
		"success": false,
		"error":   msg,
	})
	return string(payload)
}

func imageSearchToolInfo() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: imageSearchToolName,
		Desc: "Search stock photos by keyword. Returns image URLs with dimensions for use in <img> tags.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"query": {
				Type:     schema.String,
				Desc:     "Search keywords describing the desired photo, e.g. 'healthy breakfast bowl'",
				Required: true,
			},
		}),
	}
}

var screenPromptRegistry = workflowprompt.NewRegistry()

func formatScreenMessages(ctx context.Context, in *wfmodel.ScreenGenerateInput) ([]*schema.Message, error) {
	tpl, err := screenPromptRegistry.ChatTemplate(workflowprompt.PromptScreenGenV1)
	if err != nil {
		return nil, err
	}
	vars := map[string]any{
		"screen_spec_block": strings.TrimSpace(in.ScreenSpecBlock),
		"context_block":     strings.TrimSpace(in.ContextBlock),
		"theme_css_block":   strings.TrimSpace(in.ThemeCSSBlock),
		"brand_block":       strings.TrimSpace(in.BrandBlock),
		"negative_block":    strings.TrimSpace(in.NegativeBlock),
		"preset_block":      strings.TrimSpace(in.PresetBlock),
		"paywall_line":      strings.TrimSpace(in.PaywallLine),
		"target_block":      strings.TrimSpace(in.TargetBlock),
	}
	return tpl.Format(ctx, vars)
}

func buildScreenModelOptions(in *wfmodel.ScreenGenerateInput) []model.Option {
	opts := make([]model.Option, 0, 4)
	if in == nil {
		return opts
	}
	if in.Temperature != nil {
		opts = append(opts, model.WithTemperature(*in.Temperature))
	}
	if in.MaxTokens != nil {
		opts = append(opts, model.WithMaxTokens(*in.MaxTokens))
	}
	if strings.TrimSpace(in.Model) != "" {
		opts = append(opts, model.WithModel(strings.TrimSpace(in.Model)))
	}
	return opts
}
