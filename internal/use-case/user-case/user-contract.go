package user_service

import (
	"context"

	"github.com/tipurk/neechat/internal/dtos/user_dto"
	app_error "github.com/tipurk/neechat/internal/errors"
)

type UserServiceContract interface {
	Register(ctx context.Context, req user_dto.RegisterRequest) (*user_dto.AuthResponse, *app_error.AppError)
	Login(ctx context.Context, req user_dto.LoginRequest) (*user_dto.AuthResponse, *app_error.AppError)
	GetProfile(ctx context.Context, userID int64) (*user_dto.UserResponse, *app_error.AppError)
	UpdateProfile(ctx context.Context, userID int64, req user_dto.UpdateProfileRequest) (*user_dto.UserResponse, *app_error.AppError)
	ListUsers(ctx context.Context, userID int64) ([]user_dto.UserResponse, *app_error.AppError)
	OnlineStatus(ctx context.Context, userID int64) (*user_dto.OnlineResponse, *app_error.AppError)
}
