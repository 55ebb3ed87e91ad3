// Package service 提供跨层共享的领域辅助能力
package service

import (
	"context"
	"strings"
)

// LLM 调用的归类信息通过 context 传递，供观测回调读取。
// 工作流名如 chapter_writing、book_outline，provider 如 openai。

type llmCtxKey int

const (
	ctxKeyWorkflow llmCtxKey = iota
	ctxKeyProvider
)

func WithWorkflow(ctx context.Context, workflow string) context.Context {
	return withValue(ctx, ctxKeyWorkflow, workflow)
}

func WithProvider(ctx context.Context, provider string) context.Context {
	return withValue(ctx, ctxKeyProvider, provider)
}

// WithWorkflowProvider 同时写入工作流与 provider。
func WithWorkflowProvider(ctx context.Context, workflow, provider string) context.Context {
	return WithProvider(WithWorkflow(ctx, workflow), provider)
}

// WorkflowFromContext 读取工作流名，未设置时返回 "unknown"。
func WorkflowFromContext(ctx context.Context) string {
	return valueOrUnknown(ctx, ctxKeyWorkflow)
}

// ProviderFromContext 读取 provider 名，未设置时返回 "unknown"。
func ProviderFromContext(ctx context.Context) string {
	return valueOrUnknown(ctx, ctxKeyProvider)
}

func withValue(ctx context.Context, key llmCtxKey, value string) context.Context {
	if ctx == nil {
		return nil
	}
	v := strings.TrimSpace(value)
	if v == "" {
		return ctx
	}
	return context.WithValue(ctx, key, v)
}

func valueOrUnknown(ctx context.Context, key llmCtxKey) string {
	if ctx == nil {
		return "unknown"
	}
	if s, ok := ctx.Value(key).(string); ok && s != "" {
		return s
	}
	return "unknown"
}
