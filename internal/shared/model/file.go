// Package model EDMS 领域模型：用户、文件元数据与查询参数
package model

import (
	"fmt"
	"strings"
	"time"
)

// FileCategory 文件分类
type FileCategory string

const (
	CategoryDocuments     FileCategory = "documents"
	CategoryImages        FileCategory = "images"
	CategoryPresentations FileCategory = "presentations"
	CategorySpreadsheets  FileCategory = "spreadsheets"
	CategoryArchives      FileCategory = "archives"
	CategoryOther         FileCategory = "other"
)

// Categories 全部合法分类（按展示顺序）
var Categories = []FileCategory{
	CategoryDocuments,
	CategoryImages,
	CategoryPresentations,
	CategorySpreadsheets,
	CategoryArchives,
	CategoryOther,
}

// Valid 检查分类是否合法
func (c FileCategory) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// FileMeta 文件元数据
//
// Key 即 Mongo 文档 _id，也是对象存储中的存储键，
// 时间戳前缀避免同名文件冲突。UploadedBy 引用 User.UserID（无外键约束）。
type FileMeta struct {
	Key         string       `json:"key" bson:"_id"`
	FileName    string       `json:"file_name" bson:"file_name"`
	URL         string       `json:"url" bson:"url"`
	ContentType string       `json:"content_type" bson:"content_type"`
	Size        int64        `json:"size" bson:"size"`
	UploadedAt  time.Time    `json:"uploaded_at" bson:"uploaded_at"`
	UploadedBy  string       `json:"uploaded_by" bson:"uploaded_by"`
	Description string       `json:"description,omitempty" bson:"description,omitempty"`
	Tags        []string     `json:"tags" bson:"tags"`
	Category    FileCategory `json:"category" bson:"category"`
}

// SortKey 文件列表排序键
type SortKey string

const (
	SortNewest   SortKey = "newest"
	SortOldest   SortKey = "oldest"
	SortName     SortKey = "name"
	SortSize     SortKey = "size"
	SortUploader SortKey = "uploader"
)

// SortKeys 全部排序键（按展示顺序）
var SortKeys = []SortKey{SortNewest, SortOldest, SortName, SortSize, SortUploader}

// ParseSortKey 解析排序键，非法值回落到 newest
func ParseSortKey(s string) SortKey {
	switch SortKey(s) {
	case SortOldest, SortName, SortSize, SortUploader:
		return SortKey(s)
	}
	return SortNewest
}

// FileQuery 仪表盘列表查询参数
//
// Search 为大小写不敏感的子串匹配，覆盖文件名/上传者/标签/描述；
// Category 为相等过滤；两者同时给出时取逻辑与。
type FileQuery struct {
	Search   string
	Category FileCategory
	Sort     SortKey
}

// InferCategory 根据 MIME 类型推断文件分类
func InferCategory(contentType string) FileCategory {
	ct := strings.ToLower(contentType)
	switch {
	case strings.HasPrefix(ct, "image/"):
		return CategoryImages
	case strings.Contains(ct, "presentation"), strings.Contains(ct, "powerpoint"):
		return CategoryPresentations
	// csv 在 text/ 前缀之前判断，text/csv 归为表格
	case strings.Contains(ct, "spreadsheet"), strings.Contains(ct, "excel"), strings.Contains(ct, "csv"):
		return CategorySpreadsheets
	case strings.Contains(ct, "pdf"),
		strings.Contains(ct, "msword"),
		strings.Contains(ct, "wordprocessingml"),
		strings.HasPrefix(ct, "text/"):
		return CategoryDocuments
	case strings.Contains(ct, "zip"), strings.Contains(ct, "tar"),
		strings.Contains(ct, "compressed"), strings.Contains(ct, "archive"):
		return CategoryArchives
	}
	return CategoryOther
}

// ParseTags 解析逗号分隔的标签串：去空白、转小写、去重、丢弃空项
func ParseTags(raw string) []string {
	parts := strings.Split(raw, ",")
	seen := make(map[string]bool, len(parts))
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		tag := strings.ToLower(strings.TrimSpace(p))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}

// NewStorageKey 生成存储键：毫秒时间戳前缀 + 原始文件名
func NewStorageKey(fileName string) string {
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), fileName)
}

// SanitizeFilename 清理用于 Content-Disposition 的文件名，
// 去除控制字符与双引号，防止响应头注入
func SanitizeFilename(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if r < 0x20 || r == 0x7f || r == '"' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
