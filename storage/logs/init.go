package logs

import (
	"github.com/Trinoooo/eggie_redis/utils"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	Logger *zap.Logger
	level  zap.AtomicLevel

	// 包装函数多了一层调用栈，caller 需要跳过一层才能指向真正的调用方
	skipLogger *zap.Logger
)

func init() {
	var cfg zap.Config
	if utils.IsTest() {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	level = cfg.Level

	var err error
	Logger, err = cfg.Build(zap.AddCaller())
	if err != nil {
		panic(err)
	}
	skipLogger = Logger.WithOptions(zap.AddCallerSkip(1))
}

// SetLevel 运行时调整日志级别，取值同 zapcore.Level 的文本形式（debug/info/warn/error）
func SetLevel(text string) error {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(text)); err != nil {
		return err
	}
	level.SetLevel(l)
	return nil
}

func Level() string {
	return level.Level().String()
}
