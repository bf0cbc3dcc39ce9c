package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/Trinoooo/eggie_redis/consts"
	"github.com/Trinoooo/eggie_redis/errs"
	"github.com/Trinoooo/eggie_redis/storage/conf"
	"github.com/Trinoooo/eggie_redis/storage/logs"
	"github.com/Trinoooo/eggie_redis/storage/server"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

var (
	flagHost = &cli.StringFlag{
		Name:    "host",
		Aliases: []string{"h"},
		Value:   consts.DefaultBind,
		Usage:   "server host name.",
		EnvVars: []string{consts.Host},
	}
	flagPort = &cli.Int64Flag{
		Name:    "port",
		Aliases: []string{"p"},
		Value:   consts.DefaultPort,
		Usage:   "server port number, 0 < port < 65535 are available.",
		Action: func(c *cli.Context, port int64) error {
			if port <= 0 || port > 65535 {
				e := errs.NewInvalidParamErr()
				logs.Error(e.Error(), zap.String(consts.LogFieldParams, "port"), zap.Int64(consts.LogFieldValue, port))
				return e
			}
			return nil
		},
		EnvVars: []string{consts.Port},
	}
	flagConfig = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Value:   consts.DefaultConfigPath,
		Usage:   "directory containing config.yaml.",
		EnvVars: []string{consts.Config},
	}
	flagDatabases = &cli.Int64Flag{
		Name:  "databases",
		Value: consts.DefaultDatabases,
		Usage: "number of databases, SELECT accepts index in [0, databases).",
		Action: func(c *cli.Context, number int64) error {
			if number <= 0 {
				e := errs.NewInvalidParamErr()
				logs.Error(e.Error(), zap.String(consts.LogFieldParams, "databases"), zap.Int64(consts.LogFieldValue, number))
				return e
			}
			return nil
		},
	}
	flagMaxClients = &cli.Int64Flag{
		Name:  "maxclients",
		Value: consts.DefaultMaxClients,
		Usage: "max connection number, 0 < number are available.",
		Action: func(c *cli.Context, number int64) error {
			if number <= 0 {
				e := errs.NewInvalidParamErr()
				logs.Error(e.Error(), zap.String(consts.LogFieldParams, "maxclients"), zap.Int64(consts.LogFieldValue, number))
				return e
			}
			return nil
		},
	}
	flagTimeout = &cli.Int64Flag{
		Name:  "timeout",
		Value: 0,
		Usage: "close the connection after a client is idle for N seconds (0 to disable).",
		Action: func(c *cli.Context, seconds int64) error {
			if seconds < 0 {
				e := errs.NewInvalidParamErr()
				logs.Error(e.Error(), zap.String(consts.LogFieldParams, "timeout"), zap.Int64(consts.LogFieldValue, seconds))
				return e
			}
			return nil
		},
	}
	flagMetricsAddr = &cli.StringFlag{
		Name:  "metrics-addr",
		Usage: "address to expose prometheus metrics on, e.g. :9121. empty to disable.",
	}
)

type Wrapper struct {
	app *cli.App
}

func NewWrapper() *Wrapper {
	wrapper := &Wrapper{
		app: &cli.App{
			Name:    consts.ServerName,
			Usage:   "a RESP speaking server",
			Version: consts.Version,
		},
	}
	wrapper.modifyDefaultHelp()
	wrapper.withFlags()
	wrapper.withAction()
	wrapper.withAuthor()
	return wrapper
}

func (wrapper *Wrapper) Run(args []string) error {
	return wrapper.app.Run(args)
}

func (wrapper *Wrapper) modifyDefaultHelp() {
	cli.HelpFlag = &cli.BoolFlag{
		Name: "help",
	}
	cli.AppHelpTemplate = consts.HelpTemplate
}

func (wrapper *Wrapper) withFlags() {
	wrapper.app.Flags = []cli.Flag{
		flagHost,
		flagPort,
		flagConfig,
		flagDatabases,
		flagMaxClients,
		flagTimeout,
		flagMetricsAddr,
	}
}

func (wrapper *Wrapper) withAction() {
	wrapper.app.Action = func(ctx *cli.Context) error {
		cfg, err := loadConfig(ctx)
		if err != nil {
			return err
		}

		srv, err := server.NewServer(cfg)
		if err != nil {
			return err
		}

		go func() {
			// bugfix: 使用缓冲通道避免执行信号处理程序（下面的for）之前有信号到达会被丢弃
			sig := make(chan os.Signal, 5)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			for range sig {
				logs.Info("shutdown...")
				if err := srv.Close(); err != nil {
					logs.Error("server shutdown failed", zap.Error(err))
				}
			}
		}()

		defer func() {
			_ = logs.Sync()
		}()
		return srv.Serve()
	}
}

// loadConfig 命令行里显式指定的参数覆盖配置文件和环境变量
func loadConfig(ctx *cli.Context) (*viper.Viper, error) {
	cfg, err := conf.New(ctx.String(flagConfig.Name))
	if err != nil {
		return nil, err
	}

	if ctx.IsSet(flagHost.Name) {
		cfg.Set(consts.ConfigBind, ctx.String(flagHost.Name))
	}
	overrides := map[string]string{
		flagPort.Name:       consts.ConfigPort,
		flagDatabases.Name:  consts.ConfigDatabases,
		flagMaxClients.Name: consts.ConfigMaxClients,
		flagTimeout.Name:    consts.ConfigTimeout,
	}
	for flag, key := range overrides {
		if ctx.IsSet(flag) {
			cfg.Set(key, ctx.Int64(flag))
		}
	}
	if ctx.IsSet(flagMetricsAddr.Name) {
		cfg.Set(consts.ConfigMetricsAddr, ctx.String(flagMetricsAddr.Name))
	}

	if err = conf.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (wrapper *Wrapper) withAuthor() {
	wrapper.app.Authors = []*cli.Author{
		{
			Name:  "Trino",
			Email: "sujun.trinoooo@gmail.com",
		},
	}
}
