// Package port 定义工作流层对外部能力的依赖接口
package port

import (
	"context"

	"github.com/cloudwego/eino/components/model"
)

// ChatModelFactory 按 provider 名返回可用的 ChatModel。
// name 对应配置中 llm.providers 的键，空值取默认 provider。
type ChatModelFactory interface {
	Get(ctx context.Context, name string) (model.BaseChatModel, error)
}
