package client

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/Trinoooo/eggie_redis/errs"
	"github.com/Trinoooo/eggie_redis/storage/server/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer 依次读取请求，用 replies 里的帧回复，然后关闭连接
func fakeServer(t *testing.T, conn net.Conn, replies ...protocol.Frame) <-chan []protocol.Frame {
	received := make(chan []protocol.Frame, 1)
	go func() {
		srv := protocol.NewConnection(conn)
		defer srv.Close()

		requests := make([]protocol.Frame, 0, len(replies))
		for _, reply := range replies {
			req, err := srv.ReadFrame(context.Background())
			if err != nil {
				break
			}
			requests = append(requests, req)
			if err = srv.WriteFrame(reply); err != nil {
				break
			}
		}
		received <- requests
	}()
	return received
}

func TestClient_Do(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	received := fakeServer(t, serverConn, protocol.Simple("PONG"), protocol.Bulk("hi"), protocol.Error("ERR boom"))
	c := NewClient(clientConn)
	defer c.Close()
	ctx := context.Background()

	pong, err := c.Ping(ctx)
	assert.Nil(t, err)
	assert.Equal(t, "PONG", pong)

	echo, err := c.Echo(ctx, "hi")
	assert.Nil(t, err)
	assert.Equal(t, "hi", echo)

	frame, err := c.Do(ctx, "FOO")
	assert.Nil(t, err)
	assert.Equal(t, protocol.Error("ERR boom"), frame)

	requests := <-received
	assert.Equal(t, []protocol.Frame{
		protocol.NewCommand("PING"),
		protocol.NewCommand("ECHO", "hi"),
		protocol.NewCommand("FOO"),
	}, requests)
}

func TestClient_ServerError(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	_ = fakeServer(t, serverConn, protocol.Error("ERR DB index is out of range"))
	c := NewClient(clientConn)
	defer c.Close()

	err := c.Select(context.Background(), 100)
	assert.Equal(t, protocol.Error("ERR DB index is out of range"), err)
}

// TestClient_ServerClosed 服务端没有回复就关闭了连接
func TestClient_ServerClosed(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	go func() {
		srv := protocol.NewConnection(serverConn)
		_, _ = srv.ReadFrame(context.Background())
		_ = srv.Close()
	}()
	c := NewClient(clientConn)
	defer c.Close()

	_, err := c.Do(context.Background(), "QUIT")
	assert.Equal(t, int64(errs.ServerClosedErrCode), errs.GetCode(err))
}

// TestClient_LateReply 等回复超时之后连接不再可用，迟到的回复不会被下一个请求读到
func TestClient_LateReply(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	go func() {
		srv := protocol.NewConnection(serverConn)
		defer srv.Close()
		for {
			req, err := srv.ReadFrame(context.Background())
			if err != nil {
				return
			}
			time.Sleep(100 * time.Millisecond)
			if err = srv.WriteFrame(req.(protocol.Array)[1]); err != nil {
				return
			}
		}
	}()
	c := NewClient(clientConn)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.Echo(ctx, "first")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	echo, err := c.Echo(context.Background(), "second")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "", echo)

	assert.Nil(t, c.Close())
}

func TestClient_ConfigGet(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	_ = fakeServer(t, serverConn,
		protocol.Array{protocol.Bulk("port"), protocol.Bulk("6380"), protocol.Bulk("databases"), protocol.Bulk("16")},
		protocol.Array{protocol.Bulk("port")},
	)
	c := NewClient(clientConn)
	defer c.Close()

	values, err := c.ConfigGet(context.Background(), "*")
	require.Nil(t, err)
	assert.Equal(t, map[string]string{"port": "6380", "databases": "16"}, values)

	_, err = c.ConfigGet(context.Background(), "*")
	assert.Equal(t, int64(errs.UnexpectedReplyErrCode), errs.GetCode(err))
}

func TestDial_Failed(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.Nil(t, err)
	addr := listener.Addr().String()
	_ = listener.Close()

	_, err = Dial(context.Background(), addr)
	assert.Equal(t, int64(errs.DialErrCode), errs.GetCode(err))
}
