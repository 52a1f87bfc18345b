package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kainbear/interface-service/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Authenticator     middleware.Authenticator
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter // nilの場合はレート制限しない
	Logger            *slog.Logger

	// 認証・通知
	Accounts AccountService
	Notifier NotificationTrigger

	// 透過ルート
	Employees EmployeeService
	Tasks     TaskService

	// GraphQL・運用
	GraphQL http.Handler
	Metrics http.Handler // nilの場合は /metrics を公開しない
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → Recovery → Logging → SecurityHeaders → CORS → (保護ルートのみ) Auth → RateLimit
//
// /authentication/register と /authentication/token、/health、/metrics は認証不要。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewRecoveryMiddleware(deps.Logger))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.Accounts, deps.Notifier, deps.Logger)
	employeeHandler := NewEmployeeHandler(deps.Employees, deps.Logger)
	taskHandler := NewTaskHandler(deps.Tasks, deps.Logger)

	limit := func(next http.Handler) http.Handler { return next }
	if deps.RateLimiter != nil {
		limit = deps.RateLimiter.Middleware()
	}

	// --- 認証不要のルート ---
	r.Get("/health", Health)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}
	r.Group(func(r chi.Router) {
		r.Use(limit)
		r.Post("/authentication/register", authHandler.Register)
		r.Post("/authentication/token", authHandler.Token)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.Authenticator))
		r.Use(limit)

		r.Get("/authentication/users/me", authHandler.Me)
		r.Post("/authentication/notify_due_tasks", authHandler.NotifyDueTasks)

		r.Route("/employee-service", func(r chi.Router) {
			r.Get("/employees", employeeHandler.ListEmployees)
			r.Route("/employee", func(r chi.Router) {
				r.Post("/add", employeeHandler.CreateEmployee)
				r.Put("/update", employeeHandler.UpdateEmployee)
				r.Get("/{id}", employeeHandler.GetEmployee)
				r.Delete("/{id}", employeeHandler.DeleteEmployee)
			})
			r.Route("/subdivision", func(r chi.Router) {
				r.Get("/get_all", employeeHandler.ListSubdivisions)
				r.Post("/add", employeeHandler.CreateSubdivision)
				r.Put("/update/{id}", employeeHandler.RenameSubdivision)
				r.Put("/assign_employee", employeeHandler.AssignEmployee)
				r.Get("/{id}", employeeHandler.GetSubdivision)
				r.Delete("/{id}", employeeHandler.DeleteSubdivision)
				r.Put("/{id}/assign_leader/{leader_id}", employeeHandler.AssignLeader)
				r.Delete("/{id}/employee/{employee_id}", employeeHandler.RemoveEmployee)
			})
			r.Route("/vacation", func(r chi.Router) {
				r.Get("/get_all", employeeHandler.ListVacations)
				r.Get("/search", employeeHandler.SearchVacations)
				r.Post("/add", employeeHandler.CreateVacation)
				r.Put("/update", employeeHandler.UpdateVacation)
				r.Delete("/{id}", employeeHandler.DeleteVacation)
			})
		})

		r.Route("/task-service", func(r chi.Router) {
			r.Route("/project", func(r chi.Router) {
				r.Get("/read_all", taskHandler.ListProjects)
				r.Post("/add", taskHandler.CreateProject)
				r.Put("/update", taskHandler.UpdateProject)
				r.Delete("/{id}", taskHandler.DeleteProject)
			})
			r.Route("/task", func(r chi.Router) {
				r.Get("/read_all", taskHandler.ListTasks)
				r.Post("/add", taskHandler.CreateTask)
				r.Get("/search", taskHandler.SearchTasks)
				r.Put("/update", taskHandler.UpdateTask)
				r.Delete("/{id}", taskHandler.DeleteTask)
			})
		})

		if deps.GraphQL != nil {
			r.Handle("/graphql", deps.GraphQL)
		}
	})

	return r
}

// Health は GET /health。プロセスが応答可能であることのみを示す。
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
