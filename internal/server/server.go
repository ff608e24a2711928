package server

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/iceymoss/og-prank/internal/conf"
	"github.com/iceymoss/og-prank/internal/engine"
	"github.com/iceymoss/og-prank/internal/service"
	"github.com/iceymoss/og-prank/pkg/logger"
	"github.com/iceymoss/og-prank/web"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// LegacyUploadsRoute 旧版本地上传目录的访问路径
const LegacyUploadsRoute = "/static/uploads"

// ArticleService 页面依赖的业务接口
type ArticleService interface {
	Create(ctx context.Context, in service.CreateInput) (string, error)
	View(ctx context.Context, id string) (*service.ArticleView, error)
}

type Server struct {
	engine    *gin.Engine
	http      *http.Server
	scheduler *engine.Scheduler
}

func NewServer(cfg *conf.Config, svc ArticleService, scheduler *engine.Scheduler) *Server {
	router := gin.New()
	router.Use(gin.Recovery(), zapLogger(logger.Named("http")), prometheusMetrics())
	router.MaxMultipartMemory = 8 << 20
	router.SetHTMLTemplate(template.Must(template.ParseFS(web.Templates, "templates/*.html")))

	h := &articleHandler{svc: svc, maxUploadBytes: cfg.Server.MaxUploadBytes}

	router.GET("/", h.form)
	router.POST("/", limitBody(cfg.Server.MaxUploadBytes), h.create)
	router.GET("/a/:id", h.view)

	router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if cfg.Storage.Driver == conf.StorageDriverLocal && cfg.Storage.ServePath != "" {
		router.Static(cfg.Storage.ServePath, cfg.Storage.BasePath)
	}
	if cfg.Legacy.Dir != "" {
		router.Static(LegacyUploadsRoute, cfg.Legacy.Dir)
	}

	api := router.Group("/api")
	{
		api.GET("/tasks", func(c *gin.Context) {
			if scheduler == nil {
				c.JSON(http.StatusOK, gin.H{"data": []engine.JobStats{}})
				return
			}
			c.JSON(http.StatusOK, gin.H{"data": scheduler.Stats.GetAll()})
		})

		api.POST("/tasks/:name/run", func(c *gin.Context) {
			if scheduler == nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "scheduler disabled"})
				return
			}
			if err := scheduler.ManualRun(c.Param("name")); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"message": "Triggered"})
		})
	}

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{"error": "API not found"})
			return
		}
		c.String(http.StatusNotFound, "404 page not found")
	})

	return &Server{
		engine:    router,
		scheduler: scheduler,
		http: &http.Server{
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}
}

// Handler 供测试直接使用
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run 启动调度器和 web server，Shutdown 后返回 nil
func (s *Server) Run(addr string) error {
	if s.scheduler != nil {
		s.scheduler.Start()
	}

	s.http.Addr = addr
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown 先停止接收请求，再等待正在执行的任务
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.http.Shutdown(ctx)
	if s.scheduler != nil {
		select {
		case <-s.scheduler.Stop().Done():
		case <-ctx.Done():
		}
	}
	return err
}
