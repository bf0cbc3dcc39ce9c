package server

import (
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Trinoooo/eggie_redis/consts"
	"github.com/Trinoooo/eggie_redis/errs"
	"github.com/Trinoooo/eggie_redis/storage/logs"
	"github.com/Trinoooo/eggie_redis/storage/server/connections"
	"github.com/Trinoooo/eggie_redis/storage/server/protocol"
	"github.com/Trinoooo/eggie_redis/utils"
	"github.com/bytedance/gopkg/util/gopool"
	pkgerrors "github.com/pkg/errors"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	ServerStopTimeout = 5 * time.Second
	// 拒绝连接时的回复在 accept 协程里写，不能让慢客户端卡住 accept
	rejectWriteTimeout = 100 * time.Millisecond
)

var rejectReply = protocol.Encode(protocol.Error("ERR max number of clients reached"))

// Server 每个连接一个协程（由 gopool 调度），连接上的读写都在这个协程里串行执行
type Server struct {
	settings        *Settings
	serverTransport IServerTransport
	protFactory     protocol.IProtocolFactory
	processor       IProcessor
	metrics         *MetricsHelper
	pool            gopool.Pool
	stopTimeout     time.Duration

	// ctx 在 Close 时取消，用来打断阻塞在 ReadFrame 上的连接
	ctx    context.Context
	cancel context.CancelFunc

	mutex   sync.Mutex
	closed  bool
	conns   map[int64]connections.IConnection
	done    sync.WaitGroup
	nextId  atomic.Int64
	clients atomic.Int64
}

func NewServer(cfg *viper.Viper) (*Server, error) {
	if err := logs.SetLevel(cfg.GetString(consts.ConfigLogLevel)); err != nil {
		e := errs.NewInvalidParamErr().WithErr(err)
		logs.Error(e.Error(), zap.String(consts.LogFieldParams, consts.ConfigLogLevel))
		return nil, e
	}

	addr := net.JoinHostPort(cfg.GetString(consts.ConfigBind), strconv.Itoa(cfg.GetInt(consts.ConfigPort)))
	serverTransport, err := NewBaseServerTransport(addr)
	if err != nil {
		logs.Error(err.Error(), zap.String(consts.LogFieldAddr, addr))
		return nil, err
	}

	settings := NewSettings(cfg)
	metrics := NewMetricsHelper()
	processor := NewCommandProcessor(RecoverMw, LogMw, metrics.Mw)
	NewHandler(settings).Register(processor)

	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		settings:        settings,
		serverTransport: serverTransport,
		protFactory:     protocol.NewRespProtocolFactory(cfg.GetInt(consts.ConfigReadBufferSize), cfg.GetInt(consts.ConfigWriteBufferSize)),
		processor:       processor,
		metrics:         metrics,
		pool:            gopool.NewPool("handlers", int32(cfg.GetInt(consts.ConfigMaxClients)), gopool.NewConfig()),
		stopTimeout:     ServerStopTimeout,
		ctx:             ctx,
		cancel:          cancel,
		conns:           make(map[int64]connections.IConnection),
	}, nil
}

// Listen 可以在 Serve 之前单独调用，用来提前拿到监听地址
func (s *Server) Listen() error {
	return s.serverTransport.Listen()
}

func (s *Server) Addr() net.Addr {
	return s.serverTransport.Addr()
}

func (s *Server) Metrics() *MetricsHelper {
	return s.metrics
}

func (s *Server) Serve() error {
	if err := s.Listen(); err != nil {
		logs.Error(err.Error())
		return err
	}
	if addr := s.settings.GetString(consts.ConfigMetricsAddr); addr != "" {
		s.metrics.Serve(addr)
	}
	if url := s.settings.GetString(consts.ConfigMetricsPushURL); url != "" {
		s.metrics.StartPush(url, s.settings.GetDuration(consts.ConfigMetricsPushInterval))
	}

	logs.Info("server started", zap.String(consts.LogFieldAddr, s.Addr().String()))
	return s.acceptLoop()
}

func (s *Server) acceptLoop() error {
	for {
		conn, err := s.serverTransport.Accept()
		if err != nil {
			if s.isClosed() {
				return nil
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				logs.Warn("accept timeout", zap.Error(err))
				continue
			}
			e := errs.NewAcceptErr().WithErr(err)
			logs.Error(e.Error())
			return e
		}

		s.metrics.ConnectionAcceptCounter.Inc()
		if s.clients.Load() >= int64(s.settings.GetInt(consts.ConfigMaxClients)) {
			s.metrics.ConnectionRejectCounter.Inc()
			s.reject(conn)
			continue
		}

		sess := NewSession(s.nextId.Add(1), conn.RemoteAddr())
		prot := s.protFactory.Build(conn)
		if !s.track(sess.Id(), conn) {
			_ = prot.Close()
			return nil
		}
		s.pool.Go(func() {
			defer s.done.Done()
			s.serve(sess, prot)
		})
	}
}

// reject 连接数已满，回复错误后立即关闭
func (s *Server) reject(conn connections.IConnection) {
	e := errs.NewMaxClientsErr()
	logs.Warn(e.Error(), zap.String(consts.LogFieldRemoteAddr, conn.RemoteAddr().String()))

	if wd, ok := conn.(interface{ SetWriteDeadline(t time.Time) error }); ok {
		_ = wd.SetWriteDeadline(time.Now().Add(rejectWriteTimeout))
	}
	_, _ = conn.Write(rejectReply)
	_ = conn.Close()
}

// track 记录新连接，服务已经关闭时返回 false
func (s *Server) track(id int64, conn connections.IConnection) (ok bool) {
	utils.WrapLock(&s.mutex, func() {
		if s.closed {
			return
		}
		s.conns[id] = conn
		s.clients.Add(1)
		s.metrics.ActiveConnectionGauge.Inc()
		s.done.Add(1)
		ok = true
	})
	return
}

func (s *Server) untrack(id int64) {
	utils.WrapLock(&s.mutex, func() {
		delete(s.conns, id)
		s.clients.Add(-1)
		s.metrics.ActiveConnectionGauge.Dec()
	})
}

func (s *Server) isClosed() (closed bool) {
	utils.WrapLock(&s.mutex, func() {
		closed = s.closed
	})
	return
}

func (s *Server) serve(sess *Session, prot protocol.IProtocol) {
	logger := logs.With(
		zap.Int64(consts.LogFieldSessionId, sess.Id()),
		zap.String(consts.LogFieldRemoteAddr, sess.RemoteAddr()),
	)
	logger.Debug("connection accepted")

	defer func() {
		s.untrack(sess.Id())
		if err := prot.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			logger.Debug("close connection failed", zap.Error(err))
		}
		logger.Debug("connection closed")
	}()

	for {
		frame, err := s.readFrame(prot)
		if err != nil {
			s.handleReadErr(logger, prot, err)
			return
		}

		resp := s.processor.Process(s.ctx, sess, frame)
		if resp != nil {
			if err = prot.WriteFrame(resp); err != nil {
				logger.Warn("write reply failed", zap.Error(err))
				return
			}
		}
		if sess.Closing() {
			return
		}
	}
}

// readFrame timeout 配置大于 0 时，空闲超过这么多秒的连接会被关闭
func (s *Server) readFrame(prot protocol.IProtocol) (protocol.Frame, error) {
	ctx := s.ctx
	if timeout := s.settings.GetInt(consts.ConfigTimeout); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
		defer cancel()
	}
	return prot.ReadFrame(ctx)
}

func (s *Server) handleReadErr(logger *zap.Logger, prot protocol.IProtocol, err error) {
	switch {
	case errors.Is(err, io.EOF):
		logger.Debug("client closed connection")
	case errors.Is(err, context.Canceled):
		logger.Debug("server shutting down")
	case errors.Is(err, context.DeadlineExceeded):
		logger.Info("client idle timeout")
	case errs.GetCode(err) == errs.InvalidIntegerErrCode || errs.GetCode(err) == errs.BadFormatErrCode:
		s.metrics.IncProtocolError(err)
		logger.Warn("protocol error", zap.Error(err))
		var ke *errs.KvErr
		errors.As(err, &ke)
		_ = prot.WriteFrame(protocol.NewErrorf("ERR Protocol error: %s", ke.Msg()))
	case errs.GetCode(err) == errs.ConnectionResetErrCode:
		s.metrics.IncProtocolError(err)
		logger.Warn(err.Error())
	default:
		logger.Error("read frame failed", zap.Error(err))
	}
}

// Close 停止接收新连接，通知所有连接退出；超过 stopTimeout 仍未退出的连接会被强制关闭
func (s *Server) Close() error {
	var already bool
	utils.WrapLock(&s.mutex, func() {
		already = s.closed
		s.closed = true
	})
	if already {
		return nil
	}

	err := s.serverTransport.Close()
	s.cancel()

	waitCh := make(chan struct{})
	go func() {
		s.done.Wait()
		close(waitCh)
	}()

	timer := time.NewTimer(s.stopTimeout)
	defer timer.Stop()
	select {
	case <-waitCh:
	case <-timer.C:
		logs.Warn("server stop timeout, force close connections")
		utils.WrapLock(&s.mutex, func() {
			// 只关闭底层连接，写缓冲归处理协程所有
			for _, conn := range s.conns {
				_ = conn.Close()
			}
		})
		<-waitCh
	}

	if mErr := s.metrics.Close(); mErr != nil {
		if err == nil {
			err = mErr
		} else {
			err = pkgerrors.Wrap(err, mErr.Error())
		}
	}
	logs.Info("server closed")
	return err
}
