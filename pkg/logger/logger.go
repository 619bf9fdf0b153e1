package logger

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/severusraj/gradverify-mono/config"
)

const serviceName = "gradverify"

// NewLogger 按配置构建 Zap 日志器
// format=json 时可开启采样（每秒同一条消息前 100 条全量，之后每 100 条记 1 条）；
// format=console 为彩色级别输出，便于本地调试
func NewLogger(cfg *config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("无效的日志级别 %q: %w", cfg.Level, err)
	}

	out, err := openOutput(cfg.Output)
	if err != nil {
		return nil, err
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeDuration = zapcore.StringDurationEncoder

	var core zapcore.Core
	switch cfg.Format {
	case "", "json":
		core = zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), out, level)
		if cfg.Sampling {
			core = zapcore.NewSamplerWithOptions(core, time.Second, 100, 100)
		}
	case "console":
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		core = zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), out, level)
	default:
		return nil, fmt.Errorf("无效的日志格式 %q（可选 json / console）", cfg.Format)
	}

	return zap.New(core,
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Fields(zap.String("service", serviceName)),
	), nil
}

// openOutput stdout / stderr 或文件路径
func openOutput(output string) (zapcore.WriteSyncer, error) {
	switch output {
	case "", "stdout":
		return zapcore.Lock(os.Stdout), nil
	case "stderr":
		return zapcore.Lock(os.Stderr), nil
	}
	ws, _, err := zap.Open(output)
	if err != nil {
		return nil, fmt.Errorf("打开日志输出 %q 失败: %w", output, err)
	}
	return ws, nil
}
