package mongostore

import (
	"context"
	"regexp"

	"edms/internal/shared/model"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ============================================================================
// FileStore
// ============================================================================

func (s *Store) CreateFile(ctx context.Context, meta *model.FileMeta) error {
	return insertOne(ctx, s.col(ColFiles), meta)
}

func (s *Store) GetFile(ctx context.Context, key string) (*model.FileMeta, error) {
	return findOne[model.FileMeta](ctx, s.col(ColFiles), bson.D{{Key: "_id", Value: key}})
}

func (s *Store) DeleteFile(ctx context.Context, key string) error {
	return deleteByID(ctx, s.col(ColFiles), key)
}

func (s *Store) ListFiles(ctx context.Context, q model.FileQuery) ([]*model.FileMeta, error) {
	opts := options.Find().SetSort(sortSpec(q.Sort))
	return findMany[model.FileMeta](ctx, s.col(ColFiles), buildFileFilter(q), opts)
}

func (s *Store) ListFilesByUploader(ctx context.Context, userID string) ([]*model.FileMeta, error) {
	opts := options.Find().SetSort(bson.D{{Key: "uploaded_at", Value: -1}})
	return findMany[model.FileMeta](ctx, s.col(ColFiles), bson.D{{Key: "uploaded_by", Value: userID}}, opts)
}

func (s *Store) DeleteFilesByUploader(ctx context.Context, userID string) error {
	_, err := s.col(ColFiles).DeleteMany(ctx, bson.D{{Key: "uploaded_by", Value: userID}})
	return wrapError(err)
}

// buildFileFilter 构建仪表盘查询过滤器
//
// 搜索词转义后作为大小写不敏感正则，跨文件名/上传者/标签/描述做 $or 子串匹配
// （tags 为数组字段，正则命中任一元素即匹配）；分类过滤为相等匹配；两者取 $and。
func buildFileFilter(q model.FileQuery) bson.D {
	filter := bson.D{}

	if q.Search != "" {
		re := bson.D{
			{Key: "$regex", Value: regexp.QuoteMeta(q.Search)},
			{Key: "$options", Value: "i"},
		}
		filter = append(filter, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: "file_name", Value: re}},
			bson.D{{Key: "uploaded_by", Value: re}},
			bson.D{{Key: "tags", Value: re}},
			bson.D{{Key: "description", Value: re}},
		}})
	}

	if q.Category != "" {
		filter = append(filter, bson.E{Key: "category", Value: q.Category})
	}

	return filter
}

// sortSpec 排序键到 Mongo sort 文档的映射
// name/uploader 升序，size 降序，时间按 newest/oldest
func sortSpec(key model.SortKey) bson.D {
	switch key {
	case model.SortOldest:
		return bson.D{{Key: "uploaded_at", Value: 1}}
	case model.SortName:
		return bson.D{{Key: "file_name", Value: 1}}
	case model.SortSize:
		return bson.D{{Key: "size", Value: -1}}
	case model.SortUploader:
		return bson.D{{Key: "uploaded_by", Value: 1}}
	default:
		return bson.D{{Key: "uploaded_at", Value: -1}}
	}
}
