// Package llm 提供 ChatModel 客户端的创建与缓存
package llm

import (
	"context"
	"fmt"
	"sync"

	"bookgen-ai-api/internal/config"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
)

// EinoFactory 按 provider 名惰性构建并缓存 ChatModel。
// 写作各环节共享同一工厂，书籍配置决定实际选用的 provider。
type EinoFactory struct {
	cfg *config.LLMConfig

	mu     sync.RWMutex
	models map[string]model.BaseChatModel
}

func NewEinoFactory(cfg *config.Config) *EinoFactory {
	return &EinoFactory{
		cfg:    &cfg.LLM,
		models: make(map[string]model.BaseChatModel),
	}
}

// Get 返回指定 provider 的 ChatModel，name 为空时用默认 provider。
func (f *EinoFactory) Get(ctx context.Context, name string) (model.BaseChatModel, error) {
	if name == "" {
		name = f.cfg.DefaultProvider
	}

	f.mu.RLock()
	cached, ok := f.models[name]
	f.mu.RUnlock()
	if ok {
		return cached, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if cached, ok = f.models[name]; ok {
		return cached, nil
	}

	built, err := f.build(ctx, name)
	if err != nil {
		return nil, err
	}
	f.models[name] = built
	return built, nil
}

// Default 返回默认 ChatModel
func (f *EinoFactory) Default(ctx context.Context) (model.BaseChatModel, error) {
	return f.Get(ctx, "")
}

func (f *EinoFactory) build(ctx context.Context, name string) (model.BaseChatModel, error) {
	providerCfg, ok := f.cfg.Providers[name]
	if !ok {
		return nil, fmt.Errorf("provider %s not found in LLM config", name)
	}

	temperature := float32(providerCfg.Temperature)
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:      providerCfg.APIKey,
		BaseURL:     providerCfg.BaseURL,
		Model:       providerCfg.Model,
		MaxTokens:   &providerCfg.MaxTokens,
		Temperature: &temperature,
		Timeout:     providerCfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create eino chat model for %s: %w", name, err)
	}
	return chatModel, nil
}
