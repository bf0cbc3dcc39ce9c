package consts

const (
	Host   = "EGGIE_REDIS_HOST"   // 主机名，目前只支持ip，后续考虑域名/dns
	Port   = "EGGIE_REDIS_PORT"   // 端口
	Config = "EGGIE_REDIS_CONFIG" // 配置文件目录
	Env    = "EGGIE_REDIS_ENV"    // 运行环境，test 时日志使用 development 配置
	Home   = "HOME"               // 家目录

	EnvPrefix = "EGGIE_REDIS" // viper 环境变量前缀
)
