package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/palemoky/ninety-nine/internal/config"
	"github.com/palemoky/ninety-nine/internal/logger"
	"github.com/palemoky/ninety-nine/internal/server"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	logDir := flag.String("log-dir", "", "日志目录，为空时输出到标准错误")
	flag.Parse()

	if *logDir != "" {
		if err := logger.Init(*logDir); err != nil {
			log.Fatalf("初始化日志失败: %v", err)
		}
		defer logger.Close()
	}
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
			os.Exit(1)
		}
	}()

	// 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("加载配置文件失败，使用默认配置: %v", err)
		cfg = config.Default()
	}

	// 创建服务器
	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("创建服务器失败: %v", err)
	}

	// 优雅关闭：等待进行中的对局结束，超时后保存并退出
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		<-quit
		log.Println("正在关闭服务器...")
		srv.GracefulShutdown(cfg.Game.ShutdownWaitDuration())
		close(done)
	}()

	// 启动服务器
	log.Println("🎮 九十九服务器启动中...")
	if err := srv.Start(); err != nil {
		log.Fatalf("服务器启动失败: %v", err)
	}
	<-done
}
