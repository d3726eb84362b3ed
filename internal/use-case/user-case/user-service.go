package user_service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tipurk/neechat/internal/dtos/user_dto"
	"github.com/tipurk/neechat/internal/entity"
	app_error "github.com/tipurk/neechat/internal/errors"
	"github.com/tipurk/neechat/internal/presence"
	chat_repo "github.com/tipurk/neechat/internal/repo/chat"
	user_repo "github.com/tipurk/neechat/internal/repo/user"
	"github.com/tipurk/neechat/internal/utils"
	"github.com/tipurk/neechat/state"
)

const profileCacheTTL = 5 * time.Minute

type UserService struct {
	AppState *state.AppState
	UserRepo user_repo.UserRepoContract
	ChatRepo chat_repo.ChatRepoContract
	Tracker  *presence.Tracker
}

func NewUserService(appState *state.AppState, tracker *presence.Tracker) UserServiceContract {
	return &UserService{
		AppState: appState,
		UserRepo: user_repo.NewUserRepo(appState),
		ChatRepo: chat_repo.NewChatRepo(appState),
		Tracker:  tracker,
	}
}

func profileCacheKey(userID int64) string {
	return fmt.Sprintf("user:%d", userID)
}

// Register creates the account, drops the new user into the general chat
// and provisions their single-member personal chat, then signs them in.
func (u *UserService) Register(ctx context.Context, req user_dto.RegisterRequest) (*user_dto.AuthResponse, *app_error.AppError) {
	count, err := u.UserRepo.CountByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, app_error.Validation("username is already taken", "username")
	}

	hash, hashErr := utils.GenerateHash(req.Password)
	if hashErr != nil {
		return nil, app_error.Store("failed to hash password", "password")
	}

	user := &entity.User{
		Username:     req.Username,
		PasswordHash: hash,
		Name:         req.Name,
		Avatar:       entity.DefaultAvatar,
		CreatedAt:    time.Now(),
	}
	if err := u.UserRepo.SaveUser(ctx, user); err != nil {
		return nil, err
	}

	if err := u.joinDefaultChats(ctx, user); err != nil {
		return nil, err
	}

	token, signErr := utils.IssueToken(user.ID, user.Username, u.AppState.JwtSecret.Private)
	if signErr != nil {
		log.Error().Err(signErr).Msg("failed to sign token")
		return nil, app_error.Store("failed to issue token", "token")
	}

	return &user_dto.AuthResponse{
		Token: token,
		User:  toUserResponse(user),
	}, nil
}

func (u *UserService) joinDefaultChats(ctx context.Context, user *entity.User) *app_error.AppError {
	general, err := u.ChatRepo.FindGeneralChat(ctx)
	if err != nil {
		return err
	}
	if err := u.ChatRepo.AddMember(ctx, general.ID, user.ID); err != nil {
		return err
	}

	// Personal notes chat: non-group, the user is its only member.
	personal, err := u.ChatRepo.CreateChat(ctx, user.Name, false)
	if err != nil {
		return err
	}
	return u.ChatRepo.AddMember(ctx, personal.ID, user.ID)
}

func (u *UserService) Login(ctx context.Context, req user_dto.LoginRequest) (*user_dto.AuthResponse, *app_error.AppError) {
	user, err := u.UserRepo.FindUserByUsername(ctx, req.Username)
	if err != nil {
		return nil, app_error.Unauthorized("invalid username or password", "credentials")
	}

	ok, verifyErr := utils.VerifyHash(user.PasswordHash, req.Password)
	if verifyErr != nil || !ok {
		return nil, app_error.Unauthorized("invalid username or password", "credentials")
	}

	token, signErr := utils.IssueToken(user.ID, user.Username, u.AppState.JwtSecret.Private)
	if signErr != nil {
		log.Error().Err(signErr).Msg("failed to sign token")
		return nil, app_error.Store("failed to issue token", "token")
	}

	if err := u.UserRepo.TouchLastSeen(ctx, user.ID); err != nil {
		log.Warn().Int64("userID", user.ID).Msg("failed to record last seen on login")
	}

	return &user_dto.AuthResponse{
		Token: token,
		User:  toUserResponse(user),
	}, nil
}

func (u *UserService) GetProfile(ctx context.Context, userID int64) (*user_dto.UserResponse, *app_error.AppError) {
	cached, err := utils.GetCacheData[user_dto.UserResponse](ctx, u.AppState.Redis, profileCacheKey(userID))
	if err != nil {
		log.Warn().Int64("userID", userID).Msg("profile cache lookup failed, hitting store")
	}
	if cached != nil {
		return cached, nil
	}

	user, err := u.UserRepo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := toUserResponse(user)
	if cacheErr := utils.SetCacheData(ctx, u.AppState.Redis, profileCacheKey(userID), &resp, profileCacheTTL); cacheErr != nil {
		log.Warn().Err(cacheErr).Int64("userID", userID).Msg("failed to cache profile")
	}

	return &resp, nil
}

func (u *UserService) UpdateProfile(ctx context.Context, userID int64, req user_dto.UpdateProfileRequest) (*user_dto.UserResponse, *app_error.AppError) {
	if err := u.UserRepo.UpdateProfile(ctx, userID, req.Name, req.Avatar); err != nil {
		return nil, err
	}

	if cacheErr := utils.DeleteCacheData(ctx, u.AppState.Redis, profileCacheKey(userID)); cacheErr != nil {
		log.Warn().Err(cacheErr).Int64("userID", userID).Msg("failed to invalidate profile cache")
	}

	user, err := u.UserRepo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := toUserResponse(user)
	return &resp, nil
}

func (u *UserService) ListUsers(ctx context.Context, userID int64) ([]user_dto.UserResponse, *app_error.AppError) {
	users, err := u.UserRepo.ListUsersExcept(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := make([]user_dto.UserResponse, 0, len(users))
	for _, user := range users {
		resp = append(resp, toUserResponse(user))
	}
	return resp, nil
}

func (u *UserService) OnlineStatus(ctx context.Context, userID int64) (*user_dto.OnlineResponse, *app_error.AppError) {
	if _, err := u.UserRepo.FindUserByID(ctx, userID); err != nil {
		return nil, err
	}

	online, err := u.Tracker.IsOnline(ctx, userID)
	if err != nil {
		return nil, app_error.Store("failed to query presence", "presence")
	}

	return &user_dto.OnlineResponse{Online: online}, nil
}

func toUserResponse(user *entity.User) user_dto.UserResponse {
	return user_dto.UserResponse{
		ID:       user.ID,
		Username: user.Username,
		Name:     user.Name,
		Avatar:   user.Avatar,
	}
}
