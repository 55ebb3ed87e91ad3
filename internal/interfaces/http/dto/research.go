package dto

import (
	"time"

	"bookgen-ai-api/internal/domain/entity"
)

// ResearchRequest 追加资料采集请求
type ResearchRequest struct {
	Topic string `json:"topic" binding:"required,min=2,max=512"`
}

// ResearchResponse 资料采集结果
type ResearchResponse struct {
	SourcesAdded     int `json:"sources_added"`
	SnippetsInserted int `json:"snippets_inserted"`
	QueriesSkipped   int `json:"queries_skipped"`
}

// SourceResponse 来源响应
type SourceResponse struct {
	ID        string    `json:"id"`
	BookID    string    `json:"book_id"`
	URL       string    `json:"url,omitempty"`
	Title     string    `json:"title,omitempty"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

// ToSourceListResponse 实体列表转响应列表
func ToSourceListResponse(sources []*entity.Source) []*SourceResponse {
	resp := make([]*SourceResponse, 0, len(sources))
	for _, s := range sources {
		resp = append(resp, &SourceResponse{
			ID:        s.ID,
			BookID:    s.BookID,
			URL:       s.URL,
			Title:     s.Title,
			Kind:      string(s.Kind),
			CreatedAt: s.CreatedAt,
		})
	}
	return resp
}

// AgentLogResponse 智能体日志响应
type AgentLogResponse struct {
	ID            string    `json:"id"`
	BookID        string    `json:"book_id"`
	ChapterID     string    `json:"chapter_id,omitempty"`
	AgentName     string    `json:"agent_name"`
	Action        string    `json:"action"`
	InputSummary  any       `json:"input_summary,omitempty"`
	OutputSummary any       `json:"output_summary,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ToAgentLogListResponse 实体列表转响应列表
func ToAgentLogListResponse(logs []*entity.AgentLog) []*AgentLogResponse {
	resp := make([]*AgentLogResponse, 0, len(logs))
	for _, l := range logs {
		item := &AgentLogResponse{
			ID:        l.ID,
			BookID:    l.BookID,
			ChapterID: l.ChapterID,
			AgentName: l.AgentName,
			Action:    l.Action,
			CreatedAt: l.CreatedAt,
		}
		if len(l.InputSummary) > 0 {
			item.InputSummary = l.InputSummary
		}
		if len(l.OutputSummary) > 0 {
			item.OutputSummary = l.OutputSummary
		}
		resp = append(resp, item)
	}
	return resp
}
