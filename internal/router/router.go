package router

import (
	"github.com/wb-go/wbf/ginext"
	"go.uber.org/zap"

	"github.com/iffydopsqueen/backend-blog-project/internal/router/handlers"
	"github.com/iffydopsqueen/backend-blog-project/internal/router/middleware"
)

type Router struct {
	rout    *ginext.Engine
	handler *handlers.CommentHandler
	log     *zap.Logger
}

func NewRouter(mode string, handler *handlers.CommentHandler, log *zap.Logger) *Router {
	router := Router{
		rout:    ginext.New(mode),
		handler: handler,
		log:     log.Named("router"),
	}
	router.setupRouter()
	return &router
}

func (r *Router) setupRouter() {
	r.rout.Use(middleware.LoggingMiddleware(r.log))
	r.rout.Use(middleware.Identity())

	blogs := r.rout.Group("/blogs")
	blogs.GET("/:id/comments", r.handler.ListComments)
	blogs.GET("/:id/comments/search", r.handler.SearchComments)
	blogs.POST("/:id/comments", middleware.RequireIdentity(), r.handler.AddComment)
	blogs.POST("/:id/like", middleware.RequireIdentity(), r.handler.ToggleLike)

	comments := r.rout.Group("/comments")
	comments.GET("/:id/replies", r.handler.ListReplies)
	comments.GET("/:id/tree", r.handler.GetCommentTree)
	comments.DELETE("/:id", middleware.RequireIdentity(), r.handler.DeleteComment)

	r.rout.GET("/notifications", middleware.RequireIdentity(), r.handler.ListNotifications)
}

func (r *Router) GetEngine() *ginext.Engine {
	return r.rout
}

func (r *Router) Start(addr string) error {
	return r.rout.Run(addr)
}
