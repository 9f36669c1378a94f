package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"tush00nka/coachly_messaging/internal/model"
	"tush00nka/coachly_messaging/internal/pkg/auth"
	"tush00nka/coachly_messaging/internal/pkg/httputils"
	"tush00nka/coachly_messaging/internal/service"

	"github.com/gorilla/mux"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/login", h.loginUser).Methods("POST", "OPTIONS")
	router.HandleFunc("/register", h.registerUser).Methods("POST", "OPTIONS")
}

// RegisterAuthedRoutes маршруты, требующие токена
func (h *UserHandler) RegisterAuthedRoutes(router *mux.Router) {
	router.HandleFunc("/user/{id}", h.getUser).Methods("GET", "OPTIONS")
	router.HandleFunc("/search/{prompt}", h.searchUser).Methods("GET", "OPTIONS")
}

type TokenResponse struct {
	Token string `json:"token"`
}

type RegisterRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Role            string `json:"role"`
	DisplayName     string `json:"display_name"`
}

// @Summary Register
// @Description Register an account
// @ID register
// @Accept json
// @Produce json
// @Success 201 {object} TokenResponse
// @Failure 400 {object} httputils.ErrorResponse
// @Failure 409 {object} httputils.ErrorResponse
// @Failure 500 {object} httputils.ErrorResponse
// @Param registerData body RegisterRequest true "Register data"
// @Router /register [post]
func (h *UserHandler) registerUser(w http.ResponseWriter, r *http.Request) {
	var request RegisterRequest
	if err := decodeJSON(r, &request); err != nil {
		httputils.ResponseError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	if request.Username == "" || request.Password == "" {
		httputils.ResponseError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	if request.Password != request.ConfirmPassword {
		httputils.ResponseError(w, http.StatusBadRequest, "Passwords do not match")
		return
	}

	if request.Role == "" {
		request.Role = model.RoleClient
	}
	if !model.ValidRole(request.Role) {
		httputils.ResponseError(w, http.StatusBadRequest, "Unknown role")
		return
	}

	exists, err := h.userService.UsernameExists(request.Username)
	if err != nil {
		httputils.ResponseError(w, http.StatusInternalServerError, "Failed to check username availability")
		return
	}
	if exists {
		httputils.ResponseError(w, http.StatusConflict, fmt.Sprintf("User with username %s exists", request.Username))
		return
	}

	hash, err := auth.HashPassword(request.Password)
	if err != nil {
		httputils.ResponseError(w, http.StatusInternalServerError, "Failed to generate password hash")
		return
	}

	user := &model.User{
		Username:    request.Username,
		Password:    hash,
		Role:        request.Role,
		DisplayName: request.DisplayName,
	}
	if err = h.userService.CreateUser(user); err != nil {
		httputils.ResponseError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Role)
	if err != nil {
		httputils.ResponseError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	httputils.ResponseJSON(w, http.StatusCreated, TokenResponse{
		Token: token,
	})
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// @Summary Login
// @Description Login into account
// @ID login
// @Accept json
// @Produce json
// @Success 201 {object} TokenResponse
// @Failure 400 {object} httputils.ErrorResponse
// @Failure 409 {object} httputils.ErrorResponse
// @Failure 500 {object} httputils.ErrorResponse
// @Param loginData body LoginRequest true "Login data"
// @Router /login [post]
func (h *UserHandler) loginUser(w http.ResponseWriter, r *http.Request) {
	var request LoginRequest
	if err := decodeJSON(r, &request); err != nil {
		httputils.ResponseError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	if request.Username == "" || request.Password == "" {
		httputils.ResponseError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	user, err := h.userService.GetUserByUsername(request.Username)
	if err != nil {
		httputils.ResponseError(w, http.StatusConflict, fmt.Sprintf("User %s does not exist", request.Username))
		return
	}

	if !auth.CheckPasswordHash(request.Password, user.Password) {
		httputils.ResponseError(w, http.StatusConflict, "Wrong password")
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Role)
	if err != nil {
		httputils.ResponseError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	httputils.ResponseJSON(w, http.StatusCreated, TokenResponse{
		Token: token,
	})
}

// @Summary Get user
// @Description Get user by id
// @ID get-user
// @Produce  json
// @Param Authorization header string true "Bearer token"
// @Success 200 {object} model.User
// @Failure 404 {object} httputils.ErrorResponse
// @Failure 500 {object} httputils.ErrorResponse
// @Param id path int true "User ID"
// @Router /user/{id} [get]
func (h *UserHandler) getUser(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID, err := strconv.Atoi(vars["id"])
	if err != nil {
		httputils.ResponseError(w, http.StatusBadRequest, "Failed to parse user ID")
		return
	}

	user, err := h.userService.GetUserByID(uint(userID))
	if err != nil {
		httputils.ResponseError(w, http.StatusNotFound, "No such user")
		return
	}

	user.SanitizePassword()
	user.EnsureDisplayName()
	httputils.ResponseJSON(w, http.StatusOK, user)
}

// @Summary Search users
// @Description Search users by username
// @ID search-user
// @Produce  json
// @Param Authorization header string true "Bearer token"
// @Success 200 {object} []model.User
// @Failure 404 {object} httputils.ErrorResponse
// @Param prompt path string true "Search Prompt"
// @Router /search/{prompt} [get]
func (h *UserHandler) searchUser(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	prompt := vars["prompt"]

	users, err := h.userService.SearchUsers(prompt)
	if err != nil {
		httputils.ResponseError(w, http.StatusNotFound, "failed to search for users")
		return
	}

	for _, user := range users {
		user.SanitizePassword()
		user.EnsureDisplayName()
	}

	httputils.ResponseJSON(w, http.StatusOK, users)
}
