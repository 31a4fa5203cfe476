package mongostore

import (
	"context"
	"time"

	"edms/internal/shared/model"
	"edms/internal/shared/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ============================================================================
// UserStore
// ============================================================================

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	return insertOne(ctx, s.col(ColUsers), user)
}

func (s *Store) GetUserByID(ctx context.Context, userID string) (*model.User, error) {
	return findOne[model.User](ctx, s.col(ColUsers), bson.D{{Key: "_id", Value: userID}})
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return findOne[model.User](ctx, s.col(ColUsers), bson.D{{Key: "email", Value: email}})
}

// notProtected 过滤条件：排除受保护的系统账号
func notProtected(userID string) bson.D {
	return bson.D{
		{Key: "_id", Value: userID},
		{Key: "protected", Value: bson.D{{Key: "$ne", Value: true}}},
	}
}

// protectedOrNotFound 区分零命中的原因：账号存在即是受保护
func (s *Store) protectedOrNotFound(ctx context.Context, userID string) error {
	u, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return storage.ErrNotFound
	}
	return storage.ErrProtected
}

// UpdateUserRole 调整角色，受保护账号在存储层即被拒绝
func (s *Store) UpdateUserRole(ctx context.Context, userID string, role model.UserRole) error {
	res, err := s.col(ColUsers).UpdateOne(ctx, notProtected(userID), bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "role", Value: role},
			{Key: "updated_at", Value: time.Now()},
		}},
	})
	if err != nil {
		return wrapError(err)
	}
	if res.MatchedCount == 0 {
		return s.protectedOrNotFound(ctx, userID)
	}
	return nil
}

// DeleteUser 删除用户，受保护账号在存储层即被拒绝
func (s *Store) DeleteUser(ctx context.Context, userID string) error {
	res, err := s.col(ColUsers).DeleteOne(ctx, notProtected(userID))
	if err != nil {
		return wrapError(err)
	}
	if res.DeletedCount == 0 {
		return s.protectedOrNotFound(ctx, userID)
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]*model.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return findMany[model.User](ctx, s.col(ColUsers), bson.D{}, opts)
}
