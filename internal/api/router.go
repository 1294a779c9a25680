package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"timetracker/internal/service"
)

func NewRouter(taskService *service.TaskService, userService *service.UserService) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	validate := validator.New()
	taskHandler := NewTaskHandler(taskService, validate)
	userHandler := NewUserHandler(userService, validate)

	r.Route("/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/", userHandler.CreateUser)
			r.Put("/{username}", userHandler.UpdateUser)
			r.Delete("/{username}", userHandler.DeleteUser)
		})

		r.Route("/{username}/tasks", func(r chi.Router) {
			r.Post("/new", taskHandler.CreateTask)
			r.Get("/", taskHandler.FindUserTasks)
			r.Delete("/", taskHandler.DeleteUserTasks)
			r.Get("/work-intervals", taskHandler.FindUserIntervals)
			r.Get("/work-time", taskHandler.FindUserWorkTime)
			r.Route("/{task-id}", func(r chi.Router) {
				r.Post("/start", taskHandler.StartTask)
				r.Post("/stop", taskHandler.FinishTask)
			})
		})
	})

	return r
}
