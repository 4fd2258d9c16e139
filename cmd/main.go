package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"interview-agent-go/internal/agent"
	"interview-agent-go/internal/api/handler"
	"interview-agent-go/internal/api/router"
	"interview-agent-go/internal/config"
	"interview-agent-go/internal/interview"
	appCoreLogger "interview-agent-go/internal/logger"
	"interview-agent-go/internal/parser"
	"interview-agent-go/internal/storage"
	"interview-agent-go/internal/tracing"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/spf13/pflag"
)

func main() {
	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "internal/config/config.yaml", "Path to config file")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	initLogger(cfg)
	glog.Info("配置加载成功")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 初始化链路追踪
	shutdownTracing, err := tracing.InitTracerProvider(ctx, &cfg.Tracing)
	if err != nil {
		glog.Fatalf("初始化链路追踪失败: %v", err)
	}
	if cfg.Tracing.Enabled {
		glog.Infof("链路追踪已启用, OTLP endpoint: %s", cfg.Tracing.Endpoint)
	}

	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		glog.Fatalf("初始化存储失败: %v", err)
	}
	defer storageManager.Close()
	glog.Info("存储服务初始化成功")

	// 声明评估完成事件的exchange和持久化队列，
	// 消费方尚未上线时事件也不会丢失
	if storageManager.RabbitMQ != nil {
		if err := storageManager.RabbitMQ.EnsureExchange(cfg.RabbitMQ.InterviewEventsExchange, "topic", true); err != nil {
			glog.Fatalf("声明面试事件exchange失败: %v", err)
		}
		eventsQueue := "interview.answer.evaluated.queue"
		if err := storageManager.RabbitMQ.EnsureQueue(eventsQueue, true); err != nil {
			glog.Fatalf("声明面试事件队列失败: %v", err)
		}
		if err := storageManager.RabbitMQ.BindQueue(eventsQueue, cfg.RabbitMQ.InterviewEventsExchange, cfg.RabbitMQ.AnswerEvaluatedRoutingKey); err != nil {
			glog.Fatalf("绑定面试事件队列失败: %v", err)
		}
		glog.Info("面试事件exchange与队列就绪")
	}

	// 初始化通义千问模型客户端
	llmChatModel, err := agent.NewAliyunQwenChatModel(cfg.Aliyun.APIKey, cfg.Aliyun.Model, cfg.Aliyun.APIURL)
	if err != nil {
		glog.Fatalf("初始化通义千问模型失败: %v", err)
	}
	glog.Info("通义千问模型客户端初始化成功")

	// 为评估器创建 Logger
	var evaluatorLogger *log.Logger
	if cfg.Logger.Level == "debug" {
		evaluatorLogger = log.New(os.Stderr, "[EvaluatorMain] ", log.LstdFlags|log.Lshortfile)
	} else {
		evaluatorLogger = log.New(io.Discard, "", 0)
	}

	answerEvaluator := parser.NewLLMAnswerEvaluator(llmChatModel, evaluatorLogger)
	glog.Info("LLM回答评估器初始化成功 (使用默认prompts)")

	orchestrator, err := interview.NewOrchestrator(answerEvaluator, storageManager, cfg)
	if err != nil {
		glog.Fatalf("初始化面试编排器失败: %v", err)
	}
	glog.Info("面试编排器初始化成功")

	interviewHandler := handler.NewInterviewHandler(cfg, orchestrator)
	glog.Info("InterviewHandler初始化成功")

	// HTTP层的span由obs-opentelemetry中间件生成，与存储层span串联
	tracer, tracerCfg := hertztracing.NewServerTracer()
	h := server.New(
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
		tracer,
	)
	h.Use(hertztracing.ServerMiddleware(tracerCfg))
	h.Use(func(c context.Context, ctx *app.RequestContext) {
		glog.CtxInfof(c, "Request: %s %s", string(ctx.Method()), string(ctx.Path()))
		ctx.Next(c)
		glog.CtxInfof(c, "Response: status %d", ctx.Response.StatusCode())
	})

	router.RegisterRoutes(h, interviewHandler)
	glog.Info("HTTP路由注册成功")

	glog.Infof("HTTP 服务器启动中，监听地址: %s", cfg.Server.Address)

	go func() {
		if err := h.Run(); err != nil {
			glog.Fatalf("启动HTTP服务器失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	glog.Info("接收到终止信号，正在优雅退出...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		glog.Errorf("服务器关闭失败: %v", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		glog.Errorf("关闭链路追踪失败: %v", err)
	}
	glog.Info("优雅退出完成")
}

// initLogger 按配置初始化zerolog，并将Hertz的日志接到同一个logger上
func initLogger(cfg *config.Config) {
	appCoreLogger.Init(appCoreLogger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
	})

	hertzCompatibleLogger := hertzadapter.From(appCoreLogger.Logger)
	glog.SetLogger(hertzCompatibleLogger)
	switch cfg.Logger.Level {
	case "debug":
		glog.SetLevel(glog.LevelDebug)
	case "warn":
		glog.SetLevel(glog.LevelWarn)
	case "error":
		glog.SetLevel(glog.LevelError)
	default:
		glog.SetLevel(glog.LevelInfo)
	}
}
