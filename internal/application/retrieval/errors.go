package retrieval

import "errors"

// ErrVectorDisabled 表示向量能力不可用（Milvus 连接或 Embedder 未配置）。
// 检索路径将其转为 DisabledReason 降级，索引路径原样返回。
var ErrVectorDisabled = errors.New("vector retrieval is disabled")
