package user_handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/tipurk/neechat/internal/dtos/user_dto"
	app_error "github.com/tipurk/neechat/internal/errors"
	"github.com/tipurk/neechat/internal/handlers"
	"github.com/tipurk/neechat/internal/middleware"
	"github.com/tipurk/neechat/internal/presence"
	user_service "github.com/tipurk/neechat/internal/use-case/user-case"
	"github.com/tipurk/neechat/state"
)

type UserHandler struct {
	State    *state.AppState
	Validate *validator.Validate
	Service  user_service.UserServiceContract
}

func NewUserHandler(state *state.AppState, tracker *presence.Tracker) *UserHandler {
	return &UserHandler{
		State:    state,
		Validate: validator.New(),
		Service:  user_service.NewUserService(state, tracker),
	}
}

func requestID(r *http.Request) string {
	reqID, ok := r.Context().Value(middleware.RequestIdKey).(string)
	if !ok {
		return "unknown"
	}
	return reqID
}

func authedUserID(r *http.Request) (int64, *app_error.AppError) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok {
		return 0, app_error.NewAppError(http.StatusUnauthorized, "Missing authenticated user", "auth")
	}
	return userID, nil
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	var req user_dto.RegisterRequest
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return app_error.NewAppError(http.StatusBadRequest, "Invalid JSON", "body")
	}

	if err := h.Validate.Struct(req); err != nil {
		return app_error.NewAppError(http.StatusBadRequest, fmt.Sprintf("Invalid fields: %v", err), "validation")
	}

	resp, err := h.Service.Register(r.Context(), req)
	if err != nil {
		return err
	}

	handlers.WriteJSON(w, http.StatusCreated, handlers.CreateResponse("user registered successfully", *resp, requestID(r)))
	return nil
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	var req user_dto.LoginRequest
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return app_error.NewAppError(http.StatusBadRequest, "Invalid JSON", "body")
	}

	if err := h.Validate.Struct(req); err != nil {
		return app_error.NewAppError(http.StatusBadRequest, fmt.Sprintf("Invalid fields: %v", err), "validation")
	}

	resp, err := h.Service.Login(r.Context(), req)
	if err != nil {
		return err
	}

	handlers.WriteJSON(w, http.StatusOK, handlers.CreateResponse("login successful", *resp, requestID(r)))
	return nil
}

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	userID, err := authedUserID(r)
	if err != nil {
		return err
	}

	resp, err := h.Service.GetProfile(r.Context(), userID)
	if err != nil {
		return err
	}

	handlers.WriteJSON(w, http.StatusOK, handlers.CreateResponse("profile fetched", *resp, requestID(r)))
	return nil
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	userID, err := authedUserID(r)
	if err != nil {
		return err
	}

	var req user_dto.UpdateProfileRequest
	defer r.Body.Close()

	if jsonErr := json.NewDecoder(r.Body).Decode(&req); jsonErr != nil {
		return app_error.NewAppError(http.StatusBadRequest, "Invalid JSON", "body")
	}

	if valErr := h.Validate.Struct(req); valErr != nil {
		return app_error.NewAppError(http.StatusBadRequest, fmt.Sprintf("Invalid fields: %v", valErr), "validation")
	}

	resp, err := h.Service.UpdateProfile(r.Context(), userID, req)
	if err != nil {
		return err
	}

	handlers.WriteJSON(w, http.StatusOK, handlers.CreateResponse("profile updated", *resp, requestID(r)))
	return nil
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	userID, err := authedUserID(r)
	if err != nil {
		return err
	}

	resp, err := h.Service.ListUsers(r.Context(), userID)
	if err != nil {
		return err
	}

	handlers.WriteJSON(w, http.StatusOK, handlers.CreateResponse("users fetched", resp, requestID(r)))
	return nil
}

func (h *UserHandler) OnlineStatus(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	if _, err := authedUserID(r); err != nil {
		return err
	}

	targetID, parseErr := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
	if parseErr != nil {
		return app_error.Validation("invalid user id", "user-id")
	}

	resp, err := h.Service.OnlineStatus(r.Context(), targetID)
	if err != nil {
		return err
	}

	handlers.WriteJSON(w, http.StatusOK, handlers.CreateResponse("online status fetched", *resp, requestID(r)))
	return nil
}
