package model

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferCategory(t *testing.T) {
	tests := []struct {
		contentType string
		want        FileCategory
	}{
		{"image/png", CategoryImages},
		{"image/jpeg", CategoryImages},
		{"application/pdf", CategoryDocuments},
		{"application/msword", CategoryDocuments},
		{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", CategoryDocuments},
		{"text/plain", CategoryDocuments},
		{"application/vnd.ms-powerpoint", CategoryPresentations},
		{"application/vnd.openxmlformats-officedocument.presentationml.presentation", CategoryPresentations},
		{"application/vnd.ms-excel", CategorySpreadsheets},
		{"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", CategorySpreadsheets},
		{"text/csv", CategorySpreadsheets},
		{"application/zip", CategoryArchives},
		{"application/x-tar", CategoryArchives},
		{"application/x-7z-compressed", CategoryArchives},
		{"application/octet-stream", CategoryOther},
		{"", CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			assert.Equal(t, tt.want, InferCategory(tt.contentType))
		})
	}
}

func TestParseSortKey(t *testing.T) {
	assert.Equal(t, SortNewest, ParseSortKey(""))
	assert.Equal(t, SortNewest, ParseSortKey("bogus"))
	assert.Equal(t, SortNewest, ParseSortKey("newest"))
	assert.Equal(t, SortOldest, ParseSortKey("oldest"))
	assert.Equal(t, SortName, ParseSortKey("name"))
	assert.Equal(t, SortSize, ParseSortKey("size"))
	assert.Equal(t, SortUploader, ParseSortKey("uploader"))
}

func TestParseTags(t *testing.T) {
	assert.Equal(t, []string{"go", "web"}, ParseTags("go, web"))
	assert.Equal(t, []string{"go"}, ParseTags("Go, GO , go"))
	assert.Equal(t, []string{"a", "b"}, ParseTags(" a ,, b , "))
	assert.Empty(t, ParseTags(""))
	assert.Empty(t, ParseTags(" , , "))
}

func TestNewStorageKey(t *testing.T) {
	before := time.Now().UnixMilli()
	key := NewStorageKey("report.pdf")
	after := time.Now().UnixMilli()

	require.True(t, strings.HasSuffix(key, "-report.pdf"))
	ts, err := strconv.ParseInt(strings.TrimSuffix(key, "-report.pdf"), 10, 64)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, ts, before)
	assert.LessOrEqual(t, ts, after)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "report.pdf", SanitizeFilename("report.pdf"))
	assert.Equal(t, "evil.pdf", SanitizeFilename("evil\r\n.pdf"))
	assert.Equal(t, "quoted.txt", SanitizeFilename(`"quoted".txt`))
	assert.Equal(t, "noquotes", SanitizeFilename(`no"quotes`))
	assert.Equal(t, "中文文件.txt", SanitizeFilename("中文文件.txt"))
}
