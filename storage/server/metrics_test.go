package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Trinoooo/eggie_redis/errs"
	"github.com/Trinoooo/eggie_redis/storage/server/protocol"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsHelper_Mw(t *testing.T) {
	m := NewMetricsHelper()
	p := NewCommandProcessor(m.Mw)
	p.Register("OK", func(ctx context.Context, req *Request) (protocol.Frame, error) {
		return protocol.Simple("OK"), nil
	})
	p.Register("FAIL", func(ctx context.Context, req *Request) (protocol.Frame, error) {
		return nil, errs.NewInvalidParamErr()
	})

	sess := NewSession(1, nil)
	process(p, sess, "OK")
	process(p, sess, "ok")
	assert.Equal(t, protocol.Error("ERR invalid params"), process(p, sess, "FAIL"))

	assert.Equal(t, float64(2), testutil.ToFloat64(m.CommandCounter.WithLabelValues("OK", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CommandCounter.WithLabelValues("FAIL", "err")))
}

func TestMetricsHelper_Export(t *testing.T) {
	m := NewMetricsHelper()
	defer m.Close()
	m.ConnectionAcceptCounter.Inc()
	m.IncProtocolError(errs.NewBadFormatErr())

	srv := httptest.NewServer(promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{}))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.Nil(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.Nil(t, err)

	assert.True(t, strings.Contains(string(body), "eggie_redis_connection_accept_counter 1"))
	assert.True(t, strings.Contains(string(body), `eggie_redis_protocol_error_counter{code="300003"} 1`))
}
