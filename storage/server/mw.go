package server

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Trinoooo/eggie_redis/consts"
	"github.com/Trinoooo/eggie_redis/errs"
	"github.com/Trinoooo/eggie_redis/storage/logs"
	"github.com/Trinoooo/eggie_redis/storage/server/protocol"
	"github.com/Trinoooo/eggie_redis/utils"
	"github.com/luci/go-render/render"
	"go.uber.org/zap"
)

type HandleFunc func(ctx context.Context, req *Request) (protocol.Frame, error)

type MiddlewareFunc func(handleFn HandleFunc) HandleFunc

func LogMw(handleFn HandleFunc) HandleFunc {
	return func(ctx context.Context, req *Request) (protocol.Frame, error) {
		logger := logs.With(
			zap.Int64(consts.LogFieldSessionId, req.Session.Id()),
			zap.String(consts.LogFieldCommand, req.Name),
		)
		logger.Debug("req", zap.String(consts.LogFieldArgs, render.Render(req.Args)))

		start := time.Now()
		resp, err := handleFn(ctx, req)
		cost := time.Since(start)
		if err != nil {
			logger.Warn("handle failed", zap.Error(err), zap.Duration(consts.LogFieldCost, cost))
			return resp, err
		}
		logger.Debug("resp", zap.String(consts.LogFieldValue, render.Render(resp)), zap.Duration(consts.LogFieldCost, cost))
		return resp, err
	}
}

// ArityMw 参数个数不对时直接拒绝，arity 的含义和 redis 一致：
// 正数表示参数个数（含命令名）必须相等，负数表示至少 -arity 个
func ArityMw(arity int) MiddlewareFunc {
	return func(handleFn HandleFunc) HandleFunc {
		return func(ctx context.Context, req *Request) (protocol.Frame, error) {
			n := req.Args.Remaining() + 1
			if (arity > 0 && n != arity) || (arity < 0 && n < -arity) {
				return protocol.NewErrorf("ERR wrong number of arguments for '%s' command", strings.ToLower(req.Name)), nil
			}
			return handleFn(ctx, req)
		}
	}
}

// RecoverMw 命令处理 panic 时只影响当前请求，连接和服务继续工作
func RecoverMw(handleFn HandleFunc) HandleFunc {
	return func(ctx context.Context, req *Request) (resp protocol.Frame, err error) {
		defer utils.HandlePanic(func(r any) {
			logs.Error("handler panic",
				zap.String(consts.LogFieldCommand, req.Name),
				zap.Any(consts.LogFieldValue, r),
				zap.Stack("stack"),
			)
			resp, err = nil, errs.NewUnknownErr().WithErr(fmt.Errorf("panic: %v", r))
		})
		return handleFn(ctx, req)
	}
}
