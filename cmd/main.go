package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tahsinmert/AgendaGenius/internal/config"
	"github.com/tahsinmert/AgendaGenius/internal/handler"
	"github.com/tahsinmert/AgendaGenius/internal/model"
	"github.com/tahsinmert/AgendaGenius/internal/notice"
	"github.com/tahsinmert/AgendaGenius/internal/service"
	"github.com/tahsinmert/AgendaGenius/internal/storage"
	"github.com/tahsinmert/AgendaGenius/pkg/logger"

	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "./configs/config.yaml", "配置文件路径")
	flag.Parse()

	// 加载配置
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	if err := logger.Init(logger.Options{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	}); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	store := storage.New(cfg.Storage)

	// 没有凭证时不创建模型，真实模式请求会返回配置错误
	var cm einoModel.ChatModel
	if cfg.HasCredential() {
		cm, err = model.NewChatModel(ctx, cfg)
		if err != nil {
			logger.Errorf("Failed to create chat model, live mode disabled: %v", err)
			cm = nil
		}
	} else {
		logger.Warnf("No API key configured for provider %s", cfg.Model.Provider)
	}

	mode := initialMode(cfg, cm)
	logger.Infof("Demo mode: %v", mode.IsDemo())

	svc, err := service.NewAssistantService(ctx, cfg, store, notice.NewCenter(cfg.Notice.TTL), mode, cm)
	if err != nil {
		logger.Fatalf("Failed to init assistant service: %v", err)
	}
	go svc.CleanupLoop(ctx)

	// 创建路由
	router := setupRouter(cfg, svc)

	// 创建HTTP服务器
	server := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	// 启动服务器
	go func() {
		logger.Infof("服务器启动在端口 %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("服务器启动失败: %v", err)
		}
	}()

	// 等待信号优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("服务器正在关闭...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("服务器关闭失败: %v", err)
	}
	if err := store.Close(); err != nil {
		logger.Errorf("存储关闭失败: %v", err)
	}
	logger.Info("服务器已关闭")
}

// initialMode 模型不可用时只能使用演示模式
func initialMode(cfg *config.Config, cm einoModel.ChatModel) *service.ModeSelector {
	mode := service.NewModeSelector(cfg.DemoModeDefault())
	if cm == nil && !mode.IsDemo() {
		logger.Warnf("Chat model unavailable, falling back to demo mode")
		mode.Set(true)
	}
	return mode
}

func setupRouter(cfg *config.Config, svc *service.AssistantService) *gin.Engine {
	// 设置gin模式
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// 中间件
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// CORS配置
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           time.Duration(cfg.CORS.MaxAge) * time.Second,
	}
	router.Use(cors.New(corsConfig))

	// 上传文件在内存中编码，超过上限的部分落盘
	router.MaxMultipartMemory = cfg.Server.MaxUploadBytes

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"demo_mode": svc.Mode().IsDemo(),
			"timestamp": time.Now().Unix(),
		})
	})

	// API路由
	handler.RegisterRoutes(router.Group("/api"), svc)

	return router
}
