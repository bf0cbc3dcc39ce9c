package consts

import (
	"fmt"

	"github.com/mitchellh/go-homedir"
)

// 配置项，同时也是 CONFIG GET 能查到的参数名
const (
	ConfigBind                = "bind"
	ConfigPort                = "port"
	ConfigDatabases           = "databases"
	ConfigMaxClients          = "maxclients"
	ConfigTimeout             = "timeout"
	ConfigReadBufferSize      = "read-buffer-size"
	ConfigWriteBufferSize     = "write-buffer-size"
	ConfigMetricsAddr         = "metrics-addr"
	ConfigMetricsPushURL      = "metrics-push-url"
	ConfigMetricsPushInterval = "metrics-push-interval"
	ConfigLogLevel            = "loglevel"
)

const (
	DefaultBind            = "127.0.0.1"
	DefaultPort            = 6380
	DefaultDatabases       = 16
	DefaultMaxClients      = 10000
	DefaultReadBufferSize  = 4 * KB
	DefaultWriteBufferSize = 4 * KB
	DefaultMetricsInterval = "15s"
	DefaultLogLevel        = "info"
)

func init() {
	home, _ := homedir.Dir()
	BaseDir = fmt.Sprintf("%s/eggie_redis", home)
	DefaultConfigPath = fmt.Sprintf("%s/config", BaseDir)
}

var (
	BaseDir           string
	DefaultConfigPath string
)
