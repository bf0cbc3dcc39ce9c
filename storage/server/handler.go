package server

import (
	"context"
	"strings"

	"github.com/Trinoooo/eggie_redis/consts"
	"github.com/Trinoooo/eggie_redis/errs"
	"github.com/Trinoooo/eggie_redis/storage/server/protocol"
	"github.com/pkg/errors"
)

// Handler 内置命令的实现
type Handler struct {
	settings *Settings
}

func NewHandler(settings *Settings) *Handler {
	return &Handler{settings: settings}
}

// Register 把所有命令注册到 processor 上
func (h *Handler) Register(p *CommandProcessor) {
	p.Register("PING", ArityMw(-1)(h.HandlePing))
	p.Register("ECHO", ArityMw(2)(h.HandleEcho))
	p.Register("SELECT", ArityMw(2)(h.HandleSelect))
	p.Register("CONFIG", ArityMw(-2)(h.HandleConfig))
	p.Register("COMMAND", h.HandleCommand)
	p.Register("QUIT", h.HandleQuit)
}

// HandlePing PING [message]
func (h *Handler) HandlePing(ctx context.Context, req *Request) (protocol.Frame, error) {
	if req.Args.Remaining() == 0 {
		return protocol.Simple("PONG"), nil
	}

	msg, err := req.Args.NextBytes()
	if err != nil {
		return nil, err
	}
	if err = req.Args.Finish(); err != nil {
		return nil, err
	}
	return protocol.Bulk(msg), nil
}

// HandleEcho ECHO message
func (h *Handler) HandleEcho(ctx context.Context, req *Request) (protocol.Frame, error) {
	msg, err := req.Args.NextBytes()
	if err != nil {
		return nil, err
	}
	if err = req.Args.Finish(); err != nil {
		return nil, err
	}
	return protocol.Bulk(msg), nil
}

// HandleSelect SELECT index，index 的范围是 [0, databases)
func (h *Handler) HandleSelect(ctx context.Context, req *Request) (protocol.Frame, error) {
	idx, err := req.Args.NextInt()
	if err != nil {
		if errs.GetCode(err) == errs.InvalidIntegerErrCode {
			return nil, errs.NewNotIntegerErr().WithErr(err)
		}
		return nil, err
	}
	if err = req.Args.Finish(); err != nil {
		return nil, err
	}

	if idx < 0 || idx >= int64(h.settings.GetInt(consts.ConfigDatabases)) {
		return nil, errs.NewDBIndexOutOfRangeErr()
	}
	req.Session.Select(int(idx))
	return protocol.Simple("OK"), nil
}

// HandleConfig CONFIG GET pattern [pattern ...] | CONFIG SET parameter value
func (h *Handler) HandleConfig(ctx context.Context, req *Request) (protocol.Frame, error) {
	sub, err := req.Args.NextString()
	if err != nil {
		return nil, err
	}

	switch strings.ToUpper(sub) {
	case "GET":
		return h.configGet(req)
	case "SET":
		return h.configSet(req)
	default:
		return nil, errs.NewUnknownSubCommandErr().WithErr(errors.Errorf("'%s'. Try CONFIG HELP.", sub))
	}
}

func (h *Handler) configGet(req *Request) (protocol.Frame, error) {
	if req.Args.Remaining() == 0 {
		return nil, errs.NewEndOfStreamErr()
	}

	patterns := make([]string, 0, req.Args.Remaining())
	for req.Args.Remaining() > 0 {
		pattern, err := req.Args.NextString()
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, pattern)
	}

	pairs := h.settings.Match(patterns)
	resp := make(protocol.Array, 0, len(pairs))
	for _, item := range pairs {
		resp = append(resp, protocol.Bulk(item))
	}
	return resp, nil
}

func (h *Handler) configSet(req *Request) (protocol.Frame, error) {
	key, err := req.Args.NextString()
	if err != nil {
		return nil, err
	}
	value, err := req.Args.NextString()
	if err != nil {
		return nil, err
	}
	if err = req.Args.Finish(); err != nil {
		return nil, err
	}

	if err = h.settings.Set(key, value); err != nil {
		var ke *errs.KvErr
		if errors.As(err, &ke) && ke.Unwrap() != nil {
			return protocol.NewErrorf("ERR CONFIG SET failed (possibly related to argument '%s') - %s", key, ke.Unwrap()), nil
		}
		return nil, err
	}
	return protocol.Simple("OK"), nil
}

// HandleCommand redis-cli 连接时会发送 COMMAND DOCS，回复空数组即可
func (h *Handler) HandleCommand(ctx context.Context, req *Request) (protocol.Frame, error) {
	return protocol.Array{}, nil
}

// HandleQuit 回复 OK 后由服务端关闭连接
func (h *Handler) HandleQuit(ctx context.Context, req *Request) (protocol.Frame, error) {
	req.Session.CloseAfterReply()
	return protocol.Simple("OK"), nil
}
