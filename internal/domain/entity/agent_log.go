// Package entity 定义领域实体
package entity

import (
	"encoding/json"
	"time"
)

// AgentLog 智能体活动日志
// 流水线每个阶段写一条，便于回放一本书的生成过程。
type AgentLog struct {
	ID            string          `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BookID        string          `json:"book_id" gorm:"type:uuid;index;not null"`
	ChapterID     string          `json:"chapter_id,omitempty" gorm:"type:uuid;index"`
	AgentName     string          `json:"agent_name" gorm:"type:varchar(64);not null"`
	Action        string          `json:"action" gorm:"type:varchar(128);not null"`
	InputSummary  json.RawMessage `json:"input_summary,omitempty" gorm:"type:jsonb"`
	OutputSummary json.RawMessage `json:"output_summary,omitempty" gorm:"type:jsonb"`
	CreatedAt     time.Time       `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (AgentLog) TableName() string {
	return "agent_logs"
}

// NewAgentLog 创建日志记录
func NewAgentLog(bookID, chapterID, agentName, action string) *AgentLog {
	return &AgentLog{
		BookID:    bookID,
		ChapterID: chapterID,
		AgentName: agentName,
		Action:    action,
		CreatedAt: time.Now(),
	}
}

// WithInput 记录输入摘要
func (l *AgentLog) WithInput(v any) *AgentLog {
	if b, err := json.Marshal(v); err == nil {
		l.InputSummary = b
	}
	return l
}

// WithOutput 记录输出摘要
func (l *AgentLog) WithOutput(v any) *AgentLog {
	if b, err := json.Marshal(v); err == nil {
		l.OutputSummary = b
	}
	return l
}
