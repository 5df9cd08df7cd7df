package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"anoa.com/classhub/internal/config"
	"anoa.com/classhub/internal/jobs"
	"anoa.com/classhub/internal/middleware"
	"anoa.com/classhub/internal/modules/note/search"
	"anoa.com/classhub/internal/modules/realtime"
	"anoa.com/classhub/pkg/ratelimiter"
	"anoa.com/classhub/pkg/storage"

	adminHttp "anoa.com/classhub/internal/modules/admin/delivery/http"
	adminService "anoa.com/classhub/internal/modules/admin/service"

	attachmentHttp "anoa.com/classhub/internal/modules/attachment/delivery/http"
	attachmentRepo "anoa.com/classhub/internal/modules/attachment/repository"
	attachmentService "anoa.com/classhub/internal/modules/attachment/service"

	chatHttp "anoa.com/classhub/internal/modules/chat/delivery/http"
	chatRepo "anoa.com/classhub/internal/modules/chat/repository"
	chatService "anoa.com/classhub/internal/modules/chat/service"

	classroomHttp "anoa.com/classhub/internal/modules/classroom/delivery/http"
	classroomRepo "anoa.com/classhub/internal/modules/classroom/repository"
	classroomService "anoa.com/classhub/internal/modules/classroom/service"

	messageHttp "anoa.com/classhub/internal/modules/message/delivery/http"
	messageRepo "anoa.com/classhub/internal/modules/message/repository"
	messageService "anoa.com/classhub/internal/modules/message/service"

	noteHttp "anoa.com/classhub/internal/modules/note/delivery/http"
	noteRepo "anoa.com/classhub/internal/modules/note/repository"
	noteService "anoa.com/classhub/internal/modules/note/service"

	pollHttp "anoa.com/classhub/internal/modules/poll/delivery/http"
	pollRepo "anoa.com/classhub/internal/modules/poll/repository"
	pollService "anoa.com/classhub/internal/modules/poll/service"

	realtimeHttp "anoa.com/classhub/internal/modules/realtime/delivery/http"

	userHttp "anoa.com/classhub/internal/modules/user/delivery/http"
	userRepo "anoa.com/classhub/internal/modules/user/repository"
	userService "anoa.com/classhub/internal/modules/user/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the external services the server is built on. RedisClient and Indexer may be nil.
type Deps struct {
	DB          *gorm.DB
	RedisClient *redis.Client
	FileStorage storage.FileStorage
	Indexer     search.Indexer
}

type Server struct {
	engine    *gin.Engine
	http      *http.Server
	scheduler *jobs.Scheduler
}

func NewServer(cfg *config.Config, deps Deps) (*Server, error) {
	db := deps.DB
	broker := realtime.NewBroker(deps.RedisClient)
	limiter := ratelimiter.New(deps.RedisClient)

	userRepository := userRepo.NewUserRepository(db)
	userSvc := userService.NewService(userRepository, cfg.JWTSecret, cfg.JWTExpiration)
	userHandler := userHttp.NewUserHandler(userSvc)

	messageSvc := messageService.NewService(messageRepo.NewMessageRepository(db), userRepository, broker)
	messageHandler := messageHttp.NewMessageHandler(messageSvc)

	classroomRepository := classroomRepo.NewClassroomRepository(db)
	guard := classroomService.NewGuard(classroomRepository, userRepository)
	classroomSvc := classroomService.NewService(classroomRepository, userRepository, guard, broker)
	classroomHandler := classroomHttp.NewClassroomHandler(classroomSvc)

	chatSvc := chatService.NewService(chatRepo.NewChatRepository(db), guard, broker)
	chatHandler := chatHttp.NewChatHandler(chatSvc)

	pollSvc := pollService.NewService(pollRepo.NewPollRepository(db), guard, broker)
	pollHandler := pollHttp.NewPollHandler(pollSvc)

	noteRepository := noteRepo.NewNoteRepository(db)
	noteSvc := noteService.NewService(noteRepository, userRepository, deps.FileStorage, deps.Indexer, limiter, noteService.RateLimits{
		Global:  cfg.RateLimitGlobal,
		Note:    cfg.RateLimitNote,
		Comment: cfg.RateLimitComment,
	})
	noteHandler := noteHttp.NewNoteHandler(noteSvc)

	attachmentSvc := attachmentService.NewService(attachmentRepo.NewAttachmentRepository(db), noteRepository, userRepository, deps.FileStorage, cfg.CloudinaryUploadFolder)
	attachmentHandler := attachmentHttp.NewAttachmentHandler(attachmentSvc)

	scheduler := jobs.NewScheduler()
	if err := scheduler.Register(jobs.NewOrphanCleanupJob(attachmentSvc, cfg.OrphanCleanupSchedule)); err != nil {
		return nil, err
	}

	adminSvc := adminService.NewAdminService(userRepository, noteRepository, scheduler)
	adminHandler := adminHttp.NewAdminHandler(adminSvc)

	socketServer := realtimeHttp.NewSocketServer(broker, classroomSvc)

	router := gin.New()

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/api/ws/me", "/api/messages/unread-summary"},
	}))

	authMiddleware := middleware.NewAuthMiddleware(userRepository, cfg.JWTSecret)

	api := router.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/signup", userHandler.Signup)
		auth.POST("/login", userHandler.Login)
	}

	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		adminGroup := protected.Group("/admin")
		adminGroup.Use(authMiddleware.RequireAdmin())
		{
			adminGroup.GET("/dashboard", adminHandler.Dashboard)
			adminGroup.DELETE("/users/:id", adminHandler.DeleteUser)
			adminGroup.GET("/jobs", adminHandler.ListJobs)
			adminGroup.POST("/jobs/:name/run", adminHandler.RunJob)
		}

		// User routes
		protected.GET("/users/me", userHandler.Me)
		protected.GET("/users/search", userHandler.SearchUsers)

		// Direct messages
		protected.GET("/messages/contacts", messageHandler.ListContacts)
		protected.GET("/messages/unread-summary", messageHandler.UnreadSummary)
		protected.GET("/messages/:user_id", messageHandler.OpenConversation)
		protected.POST("/messages/:user_id", messageHandler.Send)
		protected.GET("/messages/:user_id/feed", messageHandler.Feed)
		protected.POST("/messages/:user_id/read", messageHandler.MarkRead)

		// Classrooms
		protected.POST("/classes", classroomHandler.Create)
		protected.GET("/classes", classroomHandler.List)
		protected.POST("/classes/join", classroomHandler.Join)
		protected.GET("/classes/feed", classroomHandler.HomeFeed)
		protected.GET("/classes/:class_id", classroomHandler.Get)
		protected.DELETE("/classes/:class_id", classroomHandler.Delete)
		protected.POST("/classes/:class_id/posts", classroomHandler.CreatePost)
		protected.DELETE("/classes/:class_id/students/:user_id", classroomHandler.RemoveStudent)
		protected.GET("/classes/:class_id/chat", chatHandler.History)
		protected.POST("/classes/:class_id/chat", chatHandler.Send)
		protected.GET("/classes/:class_id/chat/feed", chatHandler.Feed)
		protected.GET("/classes/:class_id/polls", pollHandler.List)
		protected.POST("/classes/:class_id/polls", pollHandler.Create)
		protected.POST("/classes/:class_id/polls/:poll_id/vote", pollHandler.Vote)

		// Notes
		protected.POST("/notes", noteHandler.Create)
		protected.GET("/notes", noteHandler.List)
		protected.GET("/notes/search", noteHandler.Search)
		protected.GET("/notes/:note_id", noteHandler.Get)
		protected.PUT("/notes/:note_id", noteHandler.Update)
		protected.DELETE("/notes/:note_id", noteHandler.Delete)
		protected.GET("/notes/:note_id/history", noteHandler.History)
		protected.POST("/notes/:note_id/comments", noteHandler.AddComment)
		protected.POST("/notes/:note_id/reactions", noteHandler.React)

		protected.POST("/attachments", attachmentHandler.UploadAttachment)
		protected.GET("/attachments/:id", attachmentHandler.GetAttachment)

		// Live updates
		protected.GET("/ws/me", socketServer.ServeMe)
		protected.GET("/ws/messages/:user_id", socketServer.ServeDirect)
		protected.GET("/ws/classes/:class_id", socketServer.ServeClass)
	}

	return &Server{
		engine:    router,
		scheduler: scheduler,
	}, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run starts the background jobs and serves HTTP until Shutdown is called.
func (s *Server) Run(addr string) error {
	s.scheduler.Start()
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.scheduler.Stop()
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func setupCORS(router *gin.Engine, allowedOrigins string) {
	var origins []string
	for _, o := range strings.Split(allowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
