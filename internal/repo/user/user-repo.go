package user_repo

import (
	"context"
	"errors"
	"time"

	"github.com/tipurk/neechat/internal/entity"
	app_error "github.com/tipurk/neechat/internal/errors"
	"github.com/tipurk/neechat/state"
	"gorm.io/gorm"
)

type UserRepo struct {
	AppState *state.AppState
}

func NewUserRepo(appState *state.AppState) UserRepoContract {
	return &UserRepo{
		AppState: appState,
	}
}

func (r *UserRepo) SaveUser(ctx context.Context, user *entity.User) *app_error.AppError {
	if err := r.AppState.DB.WithContext(ctx).Create(user).Error; err != nil {
		return app_error.Store("unexpected error occur when trying to create user", "db-create")
	}
	return nil
}

func (r *UserRepo) FindUserByID(ctx context.Context, userID int64) (*entity.User, *app_error.AppError) {
	var user entity.User
	if err := r.AppState.DB.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, app_error.NotFound("cannot find user", "user-id")
		}
		return nil, app_error.Store("unexpected error occur when fetch user", "db-error")
	}
	return &user, nil
}

func (r *UserRepo) FindUserByUsername(ctx context.Context, username string) (*entity.User, *app_error.AppError) {
	var user entity.User
	if err := r.AppState.DB.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, app_error.NotFound("cannot find user", "user-credential")
		}
		return nil, app_error.Store("unexpected error occur when fetch user", "db-error")
	}
	return &user, nil
}

func (r *UserRepo) CountByUsername(ctx context.Context, username string) (int64, *app_error.AppError) {
	var count int64
	err := r.AppState.DB.WithContext(ctx).
		Model(&entity.User{}).
		Where("username = ?", username).
		Count(&count).Error
	if err != nil {
		return 0, app_error.Store("unexpected server error", "db-count")
	}
	return count, nil
}

func (r *UserRepo) UpdateProfile(ctx context.Context, userID int64, name, avatar string) *app_error.AppError {
	err := r.AppState.DB.WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{"name": name, "avatar": avatar}).Error
	if err != nil {
		return app_error.Store("failed to update profile", "db-update")
	}
	return nil
}

func (r *UserRepo) ListUsersExcept(ctx context.Context, userID int64) ([]*entity.User, *app_error.AppError) {
	var users []*entity.User
	err := r.AppState.DB.WithContext(ctx).
		Where("id != ?", userID).
		Order("id ASC").
		Find(&users).Error
	if err != nil {
		return nil, app_error.Store("failed to list users", "db-error")
	}
	return users, nil
}

// TouchLastSeen persists the last-activity instant. Presence queries go
// through the redis tracker; this column is the durable copy.
func (r *UserRepo) TouchLastSeen(ctx context.Context, userID int64) *app_error.AppError {
	err := r.AppState.DB.WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ?", userID).
		Update("last_seen", time.Now()).Error
	if err != nil {
		return app_error.Store("failed to update last seen", "db-update")
	}
	return nil
}
