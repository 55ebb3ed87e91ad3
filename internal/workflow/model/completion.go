package model

import (
	workflowprompt "bookgen-ai-api/internal/workflow/prompt"
)

// CompletionInput 单次补全调用的输入
// 所有生成阶段共用一条链，通过 PromptID 与 Vars 区分。
type CompletionInput struct {
	PromptID workflowprompt.PromptID
	Vars     map[string]any

	// Workflow 用于指标与追踪归类（如 chapter_writing、book_outline）
	Workflow string

	Provider string
	Model    string

	Temperature *float32
	MaxTokens   *int
}

// CompletionOutput 补全调用的输出
type CompletionOutput struct {
	Content string
}
