package eino

import (
	"sync"

	einocallbacks "github.com/cloudwego/eino/callbacks"
	cbtemplate "github.com/cloudwego/eino/utils/callbacks"
)

var registerOnce sync.Once

// Init 注册全局 Eino 回调，采集各生成工作流的 LLM 指标与日志。
// 幂等，进程内只注册一次。
func Init() {
	registerOnce.Do(register)
}

func register() {
	handler := cbtemplate.NewHandlerHelper().
		ChatModel(newChatModelCallbackHandler()).
		Handler()
	einocallbacks.AppendGlobalHandlers(handler)
}
