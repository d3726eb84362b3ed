package user_repo

import (
	"context"

	"github.com/tipurk/neechat/internal/entity"
	app_error "github.com/tipurk/neechat/internal/errors"
)

type UserRepoContract interface {
	SaveUser(ctx context.Context, user *entity.User) *app_error.AppError
	FindUserByID(ctx context.Context, userID int64) (*entity.User, *app_error.AppError)
	FindUserByUsername(ctx context.Context, username string) (*entity.User, *app_error.AppError)
	CountByUsername(ctx context.Context, username string) (int64, *app_error.AppError)
	UpdateProfile(ctx context.Context, userID int64, name, avatar string) *app_error.AppError
	ListUsersExcept(ctx context.Context, userID int64) ([]*entity.User, *app_error.AppError)
	TouchLastSeen(ctx context.Context, userID int64) *app_error.AppError
}
