// Package entity 定义领域实体
package entity

import (
	"time"
)

// SourceKind 研究来源类型
type SourceKind string

const (
	SourceKindWebSearch SourceKind = "web_search"
	SourceKindManual    SourceKind = "manual"
)

// Source 研究引用来源
// 研究采集阶段创建，之后只读；随所属书籍级联删除。
type Source struct {
	ID        string     `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BookID    string     `json:"book_id" gorm:"type:uuid;index;not null"`
	ChapterID string     `json:"chapter_id,omitempty" gorm:"type:uuid;index"`
	URL       string     `json:"url" gorm:"type:varchar(2048);not null"`
	Title     string     `json:"title,omitempty" gorm:"type:varchar(512)"`
	Snippet   string     `json:"snippet,omitempty" gorm:"type:text"`
	Kind      SourceKind `json:"kind" gorm:"type:varchar(32);default:'web_search'"`
	CreatedAt time.Time  `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (Source) TableName() string {
	return "sources"
}
