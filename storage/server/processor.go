package server

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Trinoooo/eggie_redis/errs"
	"github.com/Trinoooo/eggie_redis/storage/server/protocol"
)

var _ IProcessor = &CommandProcessor{}

// IProcessor 处理一个请求帧，返回需要回复的帧，返回 nil 表示不需要回复
type IProcessor interface {
	Process(ctx context.Context, sess *Session, frame protocol.Frame) protocol.Frame
}

// Request 一次命令调用，Args 已经跳过了命令名
type Request struct {
	Name    string
	Args    *protocol.Parse
	Session *Session
}

type CommandProcessor struct {
	registerMap map[string]HandleFunc
	mws         []MiddlewareFunc
}

func NewCommandProcessor(mws ...MiddlewareFunc) *CommandProcessor {
	return &CommandProcessor{
		registerMap: make(map[string]HandleFunc),
		mws:         mws,
	}
}

// Register 命令名不区分大小写，中间件在注册时包装好
func (p *CommandProcessor) Register(name string, handleFn HandleFunc) {
	wrapped := handleFn
	for _, mw := range p.mws {
		wrapped = mw(wrapped)
	}
	p.registerMap[strings.ToUpper(name)] = wrapped
}

func (p *CommandProcessor) Process(ctx context.Context, sess *Session, frame protocol.Frame) protocol.Frame {
	args, err := protocol.NewParse(frame)
	if err != nil {
		return protocol.Error("ERR Protocol error: expected array")
	}
	// 和 redis 一样，空数组直接忽略
	if args.Remaining() == 0 {
		return nil
	}

	name, err := args.NextString()
	if err != nil {
		return protocol.Error("ERR Protocol error: invalid command name")
	}

	handleFn, ok := p.registerMap[strings.ToUpper(name)]
	if !ok {
		return toErrorFrame(name, unknownCommand(name, args))
	}

	resp, err := handleFn(ctx, &Request{
		Name:    strings.ToUpper(name),
		Args:    args,
		Session: sess,
	})
	if err != nil {
		return toErrorFrame(name, err)
	}
	return resp
}

func unknownCommand(name string, args *protocol.Parse) error {
	var sb strings.Builder
	for args.Remaining() > 0 {
		arg, err := args.NextString()
		if err != nil {
			break
		}
		_, _ = fmt.Fprintf(&sb, "'%s' ", arg)
	}
	return errs.NewUnknownCommandErr().WithErr(fmt.Errorf("'%s', with args beginning with: %s", name, sb.String()))
}

// toErrorFrame 把处理函数返回的错误转换成回复给客户端的 Error 帧
func toErrorFrame(name string, err error) protocol.Frame {
	var frame protocol.Error
	if errors.As(err, &frame) {
		return frame
	}

	switch errs.GetCode(err) {
	case errs.EndOfStreamErrCode, errs.TooManyArgumentsErrCode:
		return protocol.NewErrorf("ERR wrong number of arguments for '%s' command", strings.ToLower(name))
	case errs.InvalidIntegerErrCode, errs.NotIntegerErrCode:
		return protocol.Error("ERR value is not an integer or out of range")
	case errs.DBIndexOutOfRangeErrCode:
		return protocol.Error("ERR DB index is out of range")
	case errs.UnknownCommandErrCode:
		return protocol.NewErrorf("ERR unknown command %s", detail(err))
	case errs.UnknownSubCommandErrCode:
		return protocol.NewErrorf("ERR unknown subcommand %s", detail(err))
	}

	var ke *errs.KvErr
	if errors.As(err, &ke) {
		return protocol.NewErrorf("ERR %s", ke.Msg())
	}
	return protocol.NewErrorf("ERR %s", err)
}

// detail 错误码对应错误里包着的具体描述
func detail(err error) string {
	var ke *errs.KvErr
	if errors.As(err, &ke) && ke.Unwrap() != nil {
		return ke.Unwrap().Error()
	}
	return ""
}
