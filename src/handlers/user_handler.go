package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/username/corretaje/src/logger"
	"github.com/username/corretaje/src/model"
	"github.com/username/corretaje/src/security"
	"github.com/username/corretaje/src/utils"
)

type UserHandler struct {
	db          *sql.DB
	authService *security.AuthService
}

func NewUserHandler(db *sql.DB, authService *security.AuthService) *UserHandler {
	return &UserHandler{
		db:          db,
		authService: authService,
	}
}

type credentialsPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *UserHandler) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	var payload credentialsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	payload.Username = strings.TrimSpace(payload.Username)
	if payload.Username == "" || len(payload.Password) < 8 {
		utils.SendJSONError(w, "username and a password of at least 8 characters are required", http.StatusBadRequest)
		return
	}

	hashed, err := h.authService.HashPassword(payload.Password)
	if err != nil {
		logger.L.Error("Failed to hash password", "error", err)
		utils.SendJSONError(w, "could not register user", http.StatusInternalServerError)
		return
	}

	user := &model.User{Username: payload.Username, Password: hashed}
	if err := user.CreateUser(h.db); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique constraint failed") {
			utils.SendJSONError(w, "username already taken", http.StatusConflict)
			return
		}
		logger.L.Error("Failed to create user", "username", payload.Username, "error", err)
		utils.SendJSONError(w, "could not register user", http.StatusInternalServerError)
		return
	}

	logger.L.Info("User registered", "username", user.Username, "userID", user.ID)
	utils.SendJSON(w, user, http.StatusCreated)
}

func (h *UserHandler) LoginUserHandler(w http.ResponseWriter, r *http.Request) {
	var payload credentialsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, err := model.GetUserByUsername(h.db, strings.TrimSpace(payload.Username))
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			utils.SendJSONError(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		logger.L.Error("Failed to look up user", "error", err)
		utils.SendJSONError(w, "could not log in", http.StatusInternalServerError)
		return
	}

	if err := h.authService.CompareHashAndPassword(user.Password, payload.Password); err != nil {
		utils.SendJSONError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := h.authService.GenerateToken(strconv.FormatInt(user.ID, 10))
	if err != nil {
		logger.L.Error("Failed to generate token", "userID", user.ID, "error", err)
		utils.SendJSONError(w, "could not log in", http.StatusInternalServerError)
		return
	}

	logger.L.Info("User logged in", "username", user.Username, "userID", user.ID)
	utils.SendJSON(w, map[string]string{"token": token}, http.StatusOK)
}
