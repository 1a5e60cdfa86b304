package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"
)

// maxLogSize 超过该大小时轮转日志
const maxLogSize = 10 * 1024 * 1024

var (
	debugLog *os.File
	logPath  string
)

// DefaultDir 返回默认日志目录 ~/.ninety-nine
func DefaultDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".ninety-nine"), nil
}

// Init 将标准日志输出重定向到 dir/debug.log，dir 为空时使用默认目录
func Init(dir string) error {
	if dir == "" {
		var err error
		if dir, err = DefaultDir(); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	logPath = filepath.Join(dir, "debug.log")
	var err error
	debugLog, err = os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	if info, err := debugLog.Stat(); err == nil && info.Size() > maxLogSize {
		_ = debugLog.Close()
		backupPath := filepath.Join(dir, fmt.Sprintf("debug.log.%d", time.Now().Unix()))
		_ = os.Rename(logPath, backupPath)
		debugLog, err = os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to create new log file: %w", err)
		}
	}

	log.SetOutput(debugLog)
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)

	LogInfo("Logger initialized, log file: %s", logPath)
	return nil
}

// Close 关闭日志文件并恢复标准错误输出
func Close() {
	if debugLog != nil {
		log.SetOutput(os.Stderr)
		_ = debugLog.Close()
		debugLog = nil
	}
}

// LogInfo 记录普通信息
func LogInfo(format string, args ...any) {
	log.Printf("[INFO] "+format, args...)
}

// LogError 记录错误
func LogError(format string, args ...any) {
	log.Printf("[ERROR] "+format, args...)
}

// LogPanic 记录 panic 及调用栈
func LogPanic(r any) {
	log.Printf("[PANIC] %v\n%s", r, debug.Stack())
}

// GetLogPath 返回当前日志文件路径
func GetLogPath() string {
	return logPath
}
