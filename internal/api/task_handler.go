package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"timetracker/internal/model"
	"timetracker/internal/service"
)

const dateLayout = "2006-01-02"

type TaskHandler struct {
	taskService *service.TaskService
	validate    *validator.Validate
}

func NewTaskHandler(taskService *service.TaskService, validate *validator.Validate) *TaskHandler {
	return &TaskHandler{taskService: taskService, validate: validate}
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	username, ok := h.username(w, r)
	if !ok {
		return
	}

	var req CreateTaskDto
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeValidationError(w, err)
		return
	}

	task, err := h.taskService.CreateTask(r.Context(), username, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(TaskCreatedDto{ID: task.ID})
}

func (h *TaskHandler) StartTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := h.taskID(w, r)
	if !ok {
		return
	}
	if err := h.taskService.StartTime(r.Context(), taskID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *TaskHandler) FinishTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := h.taskID(w, r)
	if !ok {
		return
	}
	if err := h.taskService.FinishTask(r.Context(), taskID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *TaskHandler) FindUserTasks(w http.ResponseWriter, r *http.Request) {
	username, ok := h.username(w, r)
	if !ok {
		return
	}
	from, to, ok := parseWindow(w, r)
	if !ok {
		return
	}

	tasks, err := h.taskService.FindUserTasks(r.Context(), username, from, to)
	if err != nil {
		writeError(w, err)
		return
	}

	response := make([]TaskDto, 0, len(tasks))
	for _, task := range tasks {
		response = append(response, newTaskDto(task))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *TaskHandler) FindUserIntervals(w http.ResponseWriter, r *http.Request) {
	username, ok := h.username(w, r)
	if !ok {
		return
	}
	from, to, ok := parseWindow(w, r)
	if !ok {
		return
	}

	tasks, err := h.taskService.FindUserIntervals(r.Context(), username, from, to)
	if err != nil {
		writeError(w, err)
		return
	}

	response := make([]TimeIntervalDto, 0, len(tasks))
	for _, task := range tasks {
		response = append(response, newTimeIntervalDto(task))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *TaskHandler) FindUserWorkTime(w http.ResponseWriter, r *http.Request) {
	username, ok := h.username(w, r)
	if !ok {
		return
	}
	from, to, ok := parseWindow(w, r)
	if !ok {
		return
	}

	sum, err := h.taskService.FindUserWorkTime(r.Context(), username, from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TimeSumDto{Time: formatDuration(sum)})
}

func (h *TaskHandler) DeleteUserTasks(w http.ResponseWriter, r *http.Request) {
	username, ok := h.username(w, r)
	if !ok {
		return
	}
	if err := h.taskService.ClearUserTasks(r.Context(), username); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *TaskHandler) username(w http.ResponseWriter, r *http.Request) (string, bool) {
	username := chi.URLParam(r, "username")
	if err := h.validate.Var(username, "required,max=255"); err != nil {
		writeValidationError(w, err)
		return "", false
	}
	return username, true
}

func (h *TaskHandler) taskID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	raw := chi.URLParam(r, "task-id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		http.Error(w, "invalid task id", http.StatusBadRequest)
		return 0, false
	}
	return uint(id), true
}

// parseWindow reads the optional from/to calendar dates. A missing
// bound stays nil and falls back to the service's boundary sentinels.
func parseWindow(w http.ResponseWriter, r *http.Request) (from, to *time.Time, ok bool) {
	from, ok = parseDate(w, r.URL.Query().Get("from"))
	if !ok {
		return nil, nil, false
	}
	to, ok = parseDate(w, r.URL.Query().Get("to"))
	if !ok {
		return nil, nil, false
	}
	return from, to, true
}

func parseDate(w http.ResponseWriter, raw string) (*time.Time, bool) {
	if raw == "" {
		return nil, true
	}
	date, err := time.Parse(dateLayout, raw)
	if err != nil {
		http.Error(w, "invalid date, expected "+dateLayout, http.StatusBadRequest)
		return nil, false
	}
	return &date, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func errorsIsAny(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errorsIsAny(err, model.ErrTaskNotFound, model.ErrUserNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errorsIsAny(err, model.ErrTaskExists, model.ErrUserExists):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		// invalid transitions included, matching the reference mapping
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeValidationError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, ValidationErrorDto{
		Code:    http.StatusBadRequest,
		Title:   "Bad Request",
		Details: "validation errors: " + err.Error(),
	})
}
