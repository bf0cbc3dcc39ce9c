package conf

import (
	"errors"
	"strings"

	"github.com/Trinoooo/eggie_redis/consts"
	"github.com/Trinoooo/eggie_redis/errs"
	"github.com/Trinoooo/eggie_redis/storage/logs"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Keys 所有对外暴露的配置项，顺序即 CONFIG GET 返回的顺序
var Keys = []string{
	consts.ConfigBind,
	consts.ConfigPort,
	consts.ConfigDatabases,
	consts.ConfigMaxClients,
	consts.ConfigTimeout,
	consts.ConfigReadBufferSize,
	consts.ConfigWriteBufferSize,
	consts.ConfigMetricsAddr,
	consts.ConfigMetricsPushURL,
	consts.ConfigMetricsPushInterval,
	consts.ConfigLogLevel,
}

// New 读取 dir 下的 config.yaml，优先级：显式 Set > 环境变量 > 配置文件 > 默认值。
// dir 为空时使用 ~/eggie_redis/config，配置文件不存在不算错误。
func New(dir string) (*viper.Viper, error) {
	if dir == "" {
		dir = consts.DefaultConfigPath
	}

	cfg := Default()
	cfg.AddConfigPath(dir)
	cfg.SetConfigName("config")
	cfg.SetConfigType("yaml")
	err := cfg.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			e := errs.NewReadConfigErr().WithErr(err)
			logs.Error(e.Error(), zap.String(consts.LogFieldParams, "dir"), zap.String(consts.LogFieldValue, dir))
			return nil, e
		}
		logs.Info("config file not found, use default", zap.String(consts.LogFieldParams, dir))
	}

	if err = Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default 只有默认值和环境变量，不读文件
func Default() *viper.Viper {
	cfg := viper.New()
	cfg.SetDefault(consts.ConfigBind, consts.DefaultBind)
	cfg.SetDefault(consts.ConfigPort, consts.DefaultPort)
	cfg.SetDefault(consts.ConfigDatabases, consts.DefaultDatabases)
	cfg.SetDefault(consts.ConfigMaxClients, consts.DefaultMaxClients)
	cfg.SetDefault(consts.ConfigTimeout, 0)
	cfg.SetDefault(consts.ConfigReadBufferSize, consts.DefaultReadBufferSize)
	cfg.SetDefault(consts.ConfigWriteBufferSize, consts.DefaultWriteBufferSize)
	cfg.SetDefault(consts.ConfigMetricsAddr, "")
	cfg.SetDefault(consts.ConfigMetricsPushURL, "")
	cfg.SetDefault(consts.ConfigMetricsPushInterval, consts.DefaultMetricsInterval)
	cfg.SetDefault(consts.ConfigLogLevel, consts.DefaultLogLevel)

	cfg.SetEnvPrefix(consts.EnvPrefix)
	cfg.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	cfg.AutomaticEnv()
	return cfg
}

// Validate 检查取值范围，不合法时返回 InvalidParamErrCode
func Validate(cfg *viper.Viper) error {
	checks := []struct {
		key string
		ok  bool
	}{
		{consts.ConfigPort, cfg.GetInt(consts.ConfigPort) > 0 && cfg.GetInt(consts.ConfigPort) <= 65535},
		{consts.ConfigDatabases, cfg.GetInt(consts.ConfigDatabases) > 0},
		{consts.ConfigMaxClients, cfg.GetInt(consts.ConfigMaxClients) > 0},
		{consts.ConfigTimeout, cfg.GetInt(consts.ConfigTimeout) >= 0},
		{consts.ConfigReadBufferSize, cfg.GetInt(consts.ConfigReadBufferSize) > 0},
		{consts.ConfigWriteBufferSize, cfg.GetInt(consts.ConfigWriteBufferSize) > 0},
		{consts.ConfigMetricsPushInterval, cfg.GetDuration(consts.ConfigMetricsPushInterval) > 0},
	}

	for _, check := range checks {
		if !check.ok {
			e := errs.NewInvalidParamErr()
			logs.Error(e.Error(), zap.String(consts.LogFieldParams, check.key), zap.Any(consts.LogFieldValue, cfg.Get(check.key)))
			return e
		}
	}
	return nil
}
