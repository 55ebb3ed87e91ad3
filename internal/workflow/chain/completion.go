package chain

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"

	llmctx "bookgen-ai-api/internal/domain/service"
	wfmodel "bookgen-ai-api/internal/workflow/model"
	workflowport "bookgen-ai-api/internal/workflow/port"
	workflowprompt "bookgen-ai-api/internal/workflow/prompt"
)

// CompletionChain 提示词模板 + ChatModel 的单轮补全链
type CompletionChain struct {
	factory workflowport.ChatModelFactory
}

func NewCompletionChain(factory workflowport.ChatModelFactory) *CompletionChain {
	return &CompletionChain{factory: factory}
}

var completionPromptRegistry = workflowprompt.NewRegistry()

func (c *CompletionChain) Invoke(ctx context.Context, in *wfmodel.CompletionInput) (*wfmodel.CompletionOutput, error) {
	if c == nil || c.factory == nil {
		return nil, fmt.Errorf("llm factory not configured")
	}
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}
	if in.PromptID == "" {
		return nil, fmt.Errorf("prompt id is required")
	}

	workflow := strings.TrimSpace(in.Workflow)
	if workflow == "" {
		workflow = string(in.PromptID)
	}
	ctx = llmctx.WithWorkflowProvider(ctx, workflow, strings.TrimSpace(in.Provider))

	chatModel, err := c.factory.Get(ctx, strings.TrimSpace(in.Provider))
	if err != nil {
		return nil, err
	}

	tpl, err := completionPromptRegistry.ChatTemplate(in.PromptID)
	if err != nil {
		return nil, err
	}
	msgs, err := tpl.Format(ctx, in.Vars)
	if err != nil {
		return nil, fmt.Errorf("failed to format prompt %s: %w", in.PromptID, err)
	}

	outMsg, err := chatModel.Generate(ctx, msgs, buildModelOptions(in)...)
	if err != nil {
		return nil, err
	}
	if outMsg == nil {
		return nil, fmt.Errorf("empty llm response")
	}

	return &wfmodel.CompletionOutput{
		Content: strings.TrimSpace(outMsg.Content),
	}, nil
}

func buildModelOptions(in *wfmodel.CompletionInput) []model.Option {
	opts := make([]model.Option, 0, 3)
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
