package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/Trinoooo/eggie_redis/consts"
	"github.com/Trinoooo/eggie_redis/errs"
	"github.com/Trinoooo/eggie_redis/storage/logs"
	"github.com/Trinoooo/eggie_redis/storage/server/protocol"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
	"go.uber.org/zap"
)

type MetricsHelper struct {
	registry *prometheus.Registry

	ConnectionAcceptCounter prometheus.Counter     // socket accept qps
	ConnectionRejectCounter prometheus.Counter     // 超过 maxclients 被拒绝的连接
	ActiveConnectionGauge   prometheus.Gauge       // 当前连接数
	ProtocolErrorCounter    *prometheus.CounterVec // 按错误码统计的协议错误
	CommandCounter          *prometheus.CounterVec
	CommandDuration         *prometheus.HistogramVec

	stop     chan struct{}
	wg       sync.WaitGroup
	httpSrv  *http.Server
	stopOnce sync.Once
}

func NewMetricsHelper() *MetricsHelper {
	m := &MetricsHelper{
		registry: prometheus.NewRegistry(),
		ConnectionAcceptCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eggie_redis_connection_accept_counter",
		}),
		ConnectionRejectCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eggie_redis_connection_reject_counter",
		}),
		ActiveConnectionGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "eggie_redis_active_connections",
		}),
		ProtocolErrorCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eggie_redis_protocol_error_counter",
		}, []string{"code"}),
		CommandCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eggie_redis_command_counter",
		}, []string{"command", "result"}),
		CommandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "eggie_redis_command_duration_seconds",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"command"}),
		stop: make(chan struct{}),
	}
	m.registry.MustRegister(
		m.ConnectionAcceptCounter,
		m.ConnectionRejectCounter,
		m.ActiveConnectionGauge,
		m.ProtocolErrorCounter,
		m.CommandCounter,
		m.CommandDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *MetricsHelper) Registry() *prometheus.Registry {
	return m.registry
}

func (m *MetricsHelper) IncProtocolError(err error) {
	m.ProtocolErrorCounter.WithLabelValues(strconv.FormatInt(errs.GetCode(err), 10)).Inc()
}

// Mw 统计每个命令的耗时和结果，Error 帧也算失败
func (m *MetricsHelper) Mw(handleFn HandleFunc) HandleFunc {
	return func(ctx context.Context, req *Request) (protocol.Frame, error) {
		start := time.Now()
		resp, err := handleFn(ctx, req)
		m.CommandDuration.WithLabelValues(req.Name).Observe(time.Since(start).Seconds())

		result := "ok"
		if _, isErrFrame := resp.(protocol.Error); err != nil || isErrFrame {
			result = "err"
		}
		m.CommandCounter.WithLabelValues(req.Name, result).Inc()
		return resp, err
	}
}

// Serve 在 addr 上暴露 /metrics
func (m *MetricsHelper) Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry}))
	m.httpSrv = &http.Server{Addr: addr, Handler: mux}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		logs.Info("metrics server started", zap.String(consts.LogFieldAddr, addr))
		if err := m.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logs.Error("metrics server failed", zap.Error(err))
		}
	}()
}

// StartPush 定时推送到 pushgateway
func (m *MetricsHelper) StartPush(url string, interval time.Duration) {
	pusher := push.New(url, consts.ServerName).Gatherer(m.registry)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-m.stop:
				return
			case <-ticker.C:
				if err := pusher.Add(); err != nil {
					logs.Warn("prometheus pusher push failed", zap.Error(err), zap.String(consts.LogFieldAddr, url))
				}
			}
		}
	}()
}

func (m *MetricsHelper) Close() error {
	var err error
	m.stopOnce.Do(func() {
		close(m.stop)
		if m.httpSrv != nil {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			err = m.httpSrv.Shutdown(ctx)
		}
		m.wg.Wait()
	})
	return err
}
