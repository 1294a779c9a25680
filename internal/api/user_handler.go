package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"timetracker/internal/model"
	"timetracker/internal/service"
)

type UserHandler struct {
	userService *service.UserService
	validate    *validator.Validate
}

func NewUserHandler(userService *service.UserService, validate *validator.Validate) *UserHandler {
	return &UserHandler{userService: userService, validate: validate}
}

func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeUser(w, r)
	if !ok {
		return
	}

	user := model.NewUser(req.Username, req.Password, req.Firstname, req.Lastname)
	if _, err := h.userService.CreateUser(r.Context(), user); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	req, ok := h.decodeUser(w, r)
	if !ok {
		return
	}

	update := model.NewUser(req.Username, req.Password, req.Firstname, req.Lastname)
	if _, err := h.userService.UpdateUser(r.Context(), username, update); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if err := h.userService.DeleteUser(r.Context(), username); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *UserHandler) decodeUser(w http.ResponseWriter, r *http.Request) (UserDto, bool) {
	var req UserDto
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return req, false
	}
	if err := h.validate.Struct(req); err != nil {
		var verr validator.ValidationErrors
		if errors.As(err, &verr) {
			writeValidationError(w, verr)
			return req, false
		}
		http.Error(w, "invalid request", http.StatusBadRequest)
		return req, false
	}
	return req, true
}
