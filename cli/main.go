//go:build unix

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/Trinoooo/eggie_redis/cli/handle"
	"github.com/Trinoooo/eggie_redis/consts"
	"github.com/Trinoooo/eggie_redis/errs"
	"github.com/Trinoooo/eggie_redis/storage/client"
	"github.com/Trinoooo/eggie_redis/utils"
	"github.com/chzyer/readline"
	"github.com/urfave/cli/v2"
)

const dialTimeout = 3 * time.Second

func main() {
	wrapper := NewCliWrapper()
	if err := wrapper.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

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
				return errs.NewInvalidParamErr()
			}
			return nil
		},
		EnvVars: []string{consts.Port},
	}
)

type CliWrapper struct {
	app *cli.App
}

func NewCliWrapper() *CliWrapper {
	wrapper := &CliWrapper{
		app: &cli.App{
			Name:    consts.CliName,
			Usage:   "interactive client for " + consts.ServerName,
			Version: consts.Version,
		},
	}
	wrapper.modifyDefaultHelp()
	wrapper.withFlags()
	wrapper.withAction()
	wrapper.withAuthor()
	return wrapper
}

func (wrapper *CliWrapper) Run(args []string) error {
	return wrapper.app.Run(args)
}

func (wrapper *CliWrapper) modifyDefaultHelp() {
	cli.HelpFlag = &cli.BoolFlag{
		Name: "help",
	}
}

func (wrapper *CliWrapper) withFlags() {
	wrapper.app.Flags = []cli.Flag{
		flagHost,
		flagPort,
	}
}

func (wrapper *CliWrapper) withAction() {
	wrapper.app.Action = func(ctx *cli.Context) error {
		cancelCtx, cancel := context.WithCancel(context.Background())
		defer cancel()

		addr := net.JoinHostPort(ctx.String(flagHost.Name), strconv.FormatInt(ctx.Int64(flagPort.Name), 10))
		dialCtx, dialCancel := context.WithTimeout(cancelCtx, dialTimeout)
		c, err := client.Dial(dialCtx, addr)
		dialCancel()
		if err != nil {
			return err
		}

		cw := &handle.ClientWrapper{
			Client: c,
			Ctx:    cancelCtx,
			Out:    os.Stdout,
		}
		defer cw.Client.Close()

		historyFile := filepath.Join(consts.TmpDir, "cli", fmt.Sprintf("cmd_history_%s", time.Now().Format("20060102")))
		if err = utils.EnsureFile(historyFile); err != nil {
			// 历史记录不可用不影响使用
			log.Println(utils.WrapWarn("history disabled: %s", err))
			historyFile = ""
		}

		input, err := readline.NewEx(&readline.Config{
			Prompt: addr + "> ",
			AutoComplete: readline.NewPrefixCompleter(
				readline.PcItem("PING"),
				readline.PcItem("ECHO"),
				readline.PcItem("SELECT"),
				readline.PcItem("CONFIG",
					readline.PcItem("GET"),
					readline.PcItem("SET"),
				),
				readline.PcItem("COMMAND"),
				readline.PcItem("QUIT"),
			),
			HistoryFile: historyFile,
		})
		if err != nil {
			return err
		}
		defer input.Close()

		cSignal := make(chan os.Signal, 1)
		signal.Notify(cSignal, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-cSignal
			cancel()
			_ = input.Close()
		}()

		for {
			select {
			case <-cancelCtx.Done():
				return nil
			default:
				str, err := input.Readline()
				if err != nil {
					if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
						return nil
					}
					log.Println(err)
					continue
				}
				str = strings.TrimSpace(str)
				if strings.EqualFold(str, "exit") {
					return nil
				}
				cw.HandleInput(str)
				if strings.EqualFold(str, "quit") {
					return nil
				}
			}
		}
	}
}

func (wrapper *CliWrapper) withAuthor() {
	wrapper.app.Authors = []*cli.Author{
		{
			Name:  "Trino",
			Email: "sujun.trinoooo@gmail.com",
		},
	}
}
