package chain

import (
	"context"
	"fmt"
	"strings"
	"sync"

	openaiopts "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	einoobs "mockflow-api/internal/observability/eino"
	wfmodel "mockflow-api/internal/workflow/model"
	wfnode "mockflow-api/internal/workflow/node"
	workflowport "mockflow-api/internal/workflow/port"
	workflowprompt "mockflow-api/internal/workflow/prompt"
	"mockflow-api/pkg/logger"
)

// PlanChain 负责“需求分析 + 屏幕规划”一步：
// 输入产品描述与约束，输出结构化的屏幕计划 JSON（主题 + 有序屏幕列表）。
type PlanChain struct {
	factory workflowport.ChatModelFactory

	chainOnce sync.Once
	chain     compose.Runnable[*wfmodel.PlanInput, *schema.Message]
	chainErr  error
}

func NewPlanChain(factory workflowport.ChatModelFactory) *PlanChain {
	return &PlanChain{factory: factory}
}

func (c *PlanChain) Invoke(ctx context.Context, in *wfmodel.PlanInput) (*schema.Message, error) {
	if c == nil || c.factory == nil {
		return nil, fmt.Errorf("llm factory not configured")
	}
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}
	if strings.TrimSpace(in.Prompt) == "" {
		return nil, fmt.Errorf("prompt is required")
	}

	chain, err := c.getChain()
	if err != nil {
		return nil, err
	}
	ctx = einoobs.WithWorkflowProvider(ctx, "screen-plan", strings.TrimSpace(in.Provider))
	return chain.Invoke(ctx, in)
}

type planChainState struct {
	In       *wfmodel.PlanInput
	Messages []*schema.Message
	OutMsg   *schema.Message
}

func (c *PlanChain) getChain() (compose.Runnable[*wfmodel.PlanInput, *schema.Message], error) {
	c.chainOnce.Do(func() {
		c.chain, c.chainErr = c.buildChain(context.Background())
	})
	return c.chain, c.chainErr
}

func (c *PlanChain) buildChain(ctx context.Context) (compose.Runnable[*wfmodel.PlanInput, *schema.Message], error) {
	chain := compose.NewChain[*wfmodel.PlanInput, *schema.Message]()

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, in *wfmodel.PlanInput) (*planChainState, error) {
			if in == nil {
				return nil, fmt.Errorf("input is nil")
			}
			return &planChainState{In: in}, nil
		}),
		compose.WithNodeName("plan.init"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *planChainState) (*planChainState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}
			msgs, err := formatPlanMessages(ctx, st.In)
			if err != nil {
				return nil, err
			}
			st.Messages = msgs
			return st, nil
		}),
		compose.WithNodeName("plan.template"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *planChainState) (*planChainState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}
			if c.factory == nil {
				return nil, fmt.Errorf("llm factory not configured")
			}

			chatModel, err := c.factory.Get(ctx, strings.TrimSpace(st.In.Provider))
			if err != nil {
				return nil, err
			}

			outMsg, err := chatModel.Generate(ctx, st.Messages, buildPlanModelOptions(st.In, true)...)
			if err != nil && wfnode.IsResponseFormatUnsupportedError(err) {
				logger.Warn(ctx, "llm json_schema not supported, fallback to prompt-only",
					"provider", strings.TrimSpace(st.In.Provider),
					"model", strings.TrimSpace(st.In.Model),
					"error", err.Error(),
				)
				outMsg, err = chatModel.Generate(ctx, st.Messages, buildPlanModelOptions(st.In, false)...)
			}
			if err != nil {
				return nil, err
			}
			if outMsg == nil {
				return nil, fmt.Errorf("empty llm response")
			}
			st.OutMsg = outMsg
			return st, nil
		}),
		compose.WithNodeName("plan.llm"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, st *planChainState) (*schema.Message, error) {
			if st == nil || st.OutMsg == nil {
				return nil, fmt.Errorf("state is nil")
			}
			return st.OutMsg, nil
		}),
		compose.WithNodeName("plan.finalize"),
	)

	return chain.Compile(ctx)
}

var defaultPromptRegistry = workflowprompt.NewRegistry()

func formatPlanMessages(ctx context.Context, in *wfmodel.PlanInput) ([]*schema.Message, error) {
	tpl, err := defaultPromptRegistry.ChatTemplate(workflowprompt.PromptScreenPlanV1)
	if err != nil {
		return nil, err
	}
	vars := map[string]any{
		"prompt":              strings.TrimSpace(in.Prompt),
		"context_block":       strings.TrimSpace(in.ContextBlock),
		"constraints_block":   strings.TrimSpace(in.ConstraintsBlock),
		"theme_options_block": strings.TrimSpace(in.ThemeOptionsBlock),
	}
	return tpl.Format(ctx, vars)
}

func buildPlanModelOptions(in *wfmodel.PlanInput, enableSchema bool) []model.Option {
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

	if enableSchema {
		opts = append(opts, openaiopts.WithExtraFields(map[string]any{
			"response_format": map[string]any{
				"type": "json_schema",
				"json_schema": map[string]any{
					"name":   "screen_plan",
					"strict": false,
					"schema": screenPlanJSONSchema(),
				},
			},
		}))
	}

	return opts
}

func screenPlanJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"theme", "screens"},
		"properties": map[string]any{
			"theme": map[string]any{"type": "string"},
			"screens": map[string]any{
				"type":     "array",
				"minItems": 1,
				"maxItems": 10,
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []any{"id", "name", "purpose", "visual_description"},
					"properties": map[string]any{
						"id":                 map[string]any{"type": "string"},
						"name":               map[string]any{"type": "string"},
						"purpose":            map[string]any{"type": "string"},
						"visual_description": map[string]any{"type": "string"},
					},
				},
			},
		},
	}
}
