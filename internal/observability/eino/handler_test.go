package eino

import (
	"context"
	"errors"
	"testing"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"mockflow-api/pkg/metrics"
)

func TestWorkflowProviderContext(t *testing.T) {
	ctx := WithWorkflowProvider(context.Background(), "screen-gen", "openai")
	assert.Equal(t, "screen-gen", WorkflowFromContext(ctx))
	assert.Equal(t, "openai", ProviderFromContext(ctx))

	// 缺失时回退 unknown，空白值不覆盖。
	assert.Equal(t, "unknown", WorkflowFromContext(context.Background()))
	assert.Equal(t, "unknown", ProviderFromContext(WithProvider(context.Background(), "   ")))
}

func TestChatModelCallbackRecordsMetricsOnEnd(t *testing.T) {
	h := newChatModelCallbackHandler()
	ctx := WithWorkflowProvider(context.Background(), "screen-gen", "openai")

	callsBefore := testutil.ToFloat64(metrics.LLMCallTotal.WithLabelValues("openai", "gpt-4o", "ok"))
	promptBefore := testutil.ToFloat64(metrics.LLMTokensUsed.WithLabelValues("openai", "gpt-4o", "prompt"))
	completionBefore := testutil.ToFloat64(metrics.LLMTokensUsed.WithLabelValues("openai", "gpt-4o", "completion"))

	ctx = h.OnStart(ctx, &einocb.RunInfo{Name: "screen.llm"}, &model.CallbackInput{
		Config: &model.Config{Model: "gpt-4o"},
	})
	h.OnEnd(ctx, nil, &model.CallbackOutput{
		Config:     &model.Config{Model: "gpt-4o"},
		TokenUsage: &model.TokenUsage{PromptTokens: 120, CompletionTokens: 40},
	})

	assert.Equal(t, callsBefore+1, testutil.ToFloat64(metrics.LLMCallTotal.WithLabelValues("openai", "gpt-4o", "ok")))
	assert.Equal(t, promptBefore+120, testutil.ToFloat64(metrics.LLMTokensUsed.WithLabelValues("openai", "gpt-4o", "prompt")))
	assert.Equal(t, completionBefore+40, testutil.ToFloat64(metrics.LLMTokensUsed.WithLabelValues("openai", "gpt-4o", "completion")))
}

func TestChatModelCallbackRecordsMetricsOnError(t *testing.T) {
	h := newChatModelCallbackHandler()
	ctx := WithWorkflowProvider(context.Background(), "screen-plan", "deepseek")

	before := testutil.ToFloat64(metrics.LLMCallTotal.WithLabelValues("deepseek", "ChatModel", "error"))

	ctx = h.OnStart(ctx, &einocb.RunInfo{Name: "plan.llm", Type: "ChatModel"}, nil)
	h.OnError(ctx, &einocb.RunInfo{Name: "plan.llm", Type: "ChatModel"}, errors.New("rate limited"))

	assert.Equal(t, before+1, testutil.ToFloat64(metrics.LLMCallTotal.WithLabelValues("deepseek", "ChatModel", "error")))
}
