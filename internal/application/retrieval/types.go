package retrieval

// SearchInput 向量检索输入。
type SearchInput struct {
	BookID string
	Query  string
	TopK   int

	// Kind 为空表示不过滤；非空则仅检索指定来源类型。
	Kind string
}

// Snippet 检索命中的研究片段
type Snippet struct {
	ID    string
	Text  string
	Score float64
	URL   string
	Title string
}

// SearchOutput 检索结果
type SearchOutput struct {
	Snippets []Snippet

	// DisabledReason 非空表示向量检索降级（未配置或出错），结果为空。
	DisabledReason string
}

// IndexInput 待索引的研究材料
type IndexInput struct {
	URL   string
	Title string
	Kind  string
	Text  string
}
