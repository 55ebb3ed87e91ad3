// Package milvus 提供 Milvus 向量数据库访问层实现
package milvus

import (
	"strings"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

const (
	// CollectionResearchChunks 研究材料分块集合
	CollectionResearchChunks = "research_chunks"

	// VectorDimension 向量维度
	VectorDimension = 1024
)

// ResearchChunksSchema 研究分块 Collection Schema
// 所有书籍共用一个集合，按 book 分区做检索隔离。
func ResearchChunksSchema() *entity.Schema {
	return &entity.Schema{
		CollectionName: CollectionResearchChunks,
		Description:    "Research material chunks for retrieval-augmented writing",
		Fields: []*entity.Field{
			{
				Name:       "id",
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				AutoID:     false,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     "vector",
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": "1024",
				},
			},
			{
				Name:     "book_id",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     "chunk_seq",
				DataType: entity.FieldTypeInt64,
			},
			{
				Name:     "url",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "2048",
				},
			},
			{
				Name:     "title",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "512",
				},
			},
			{
				Name:     "kind",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "32",
				},
			},
			{
				Name:     "text_content",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "65535",
				},
			},
		},
	}
}

// ResearchChunk 研究分块数据结构
type ResearchChunk struct {
	ID          string    `json:"id"`
	Vector      []float32 `json:"vector"`
	BookID      string    `json:"book_id"`
	ChunkSeq    int64     `json:"chunk_seq"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Kind        string    `json:"kind"`
	TextContent string    `json:"text_content"`
}

// PartitionName 生成书籍分区名称
// Milvus 分区名只允许字母、数字和下划线，UUID 中的连字符需要替换。
func PartitionName(bookID string) string {
	return "book_" + strings.ReplaceAll(bookID, "-", "_")
}
