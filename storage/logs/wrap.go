package logs

import "go.uber.org/zap"

func With(fields ...zap.Field) *zap.Logger {
	return Logger.With(fields...)
}

func Debug(msg string, fields ...zap.Field) {
	skipLogger.Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	skipLogger.Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	skipLogger.Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	skipLogger.Error(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	skipLogger.Fatal(msg, fields...)
}

func Sync() error {
	return Logger.Sync()
}
