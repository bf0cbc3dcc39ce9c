package client

import (
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"sync"

	"github.com/Trinoooo/eggie_redis/consts"
	"github.com/Trinoooo/eggie_redis/errs"
	"github.com/Trinoooo/eggie_redis/storage/server/connections"
	"github.com/Trinoooo/eggie_redis/storage/server/protocol"
	pkgerrors "github.com/pkg/errors"
)

// Client 一问一答的客户端，并发调用 Do 会被串行化。
// 请求发出去之后没能读到回复（超时、取消、连接出错），迟到的回复会和下一个请求错位，
// 所以这种情况下连接直接关闭，之后的调用都返回同一个错误
type Client struct {
	mutex  sync.Mutex
	prot   protocol.IProtocol
	broken error
	closed bool
}

func Dial(ctx context.Context, addr string) (*Client, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, errs.NewDialErr().WithErr(pkgerrors.Wrapf(err, "dial %s", addr))
	}
	return NewClient(conn), nil
}

func NewClient(conn connections.IConnection) *Client {
	return &Client{
		prot: protocol.NewRespProtocolFactory(consts.DefaultReadBufferSize, consts.DefaultWriteBufferSize).Build(conn),
	}
}

// Do 发送一条命令并等待回复，服务端返回的 Error 帧原样作为结果返回
func (c *Client) Do(ctx context.Context, args ...string) (protocol.Frame, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.broken != nil {
		return nil, c.broken
	}
	if c.closed {
		return nil, errs.NewServerClosedErr().WithErr(net.ErrClosed)
	}

	if err := c.prot.WriteFrame(protocol.NewCommand(args...)); err != nil {
		c.markBroken(err)
		return nil, err
	}
	frame, err := c.prot.ReadFrame(ctx)
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = errs.NewServerClosedErr().WithErr(err)
		}
		c.markBroken(err)
		return nil, err
	}
	return frame, nil
}

// markBroken 调用方需要持有 mutex
func (c *Client) markBroken(err error) {
	c.broken = err
	if !c.closed {
		c.closed = true
		_ = c.prot.Close()
	}
}

// call 和 Do 一样，但 Error 帧会转换成 error
func (c *Client) call(ctx context.Context, args ...string) (protocol.Frame, error) {
	frame, err := c.Do(ctx, args...)
	if err != nil {
		return nil, err
	}
	if e, ok := frame.(protocol.Error); ok {
		return nil, e
	}
	return frame, nil
}

func (c *Client) Ping(ctx context.Context, msg ...string) (string, error) {
	frame, err := c.call(ctx, append([]string{"PING"}, msg...)...)
	if err != nil {
		return "", err
	}
	switch f := frame.(type) {
	case protocol.Simple:
		return string(f), nil
	case protocol.Bulk:
		return string(f), nil
	default:
		return "", unexpected(frame)
	}
}

func (c *Client) Echo(ctx context.Context, msg string) (string, error) {
	frame, err := c.call(ctx, "ECHO", msg)
	if err != nil {
		return "", err
	}
	if bulk, ok := frame.(protocol.Bulk); ok {
		return string(bulk), nil
	}
	return "", unexpected(frame)
}

func (c *Client) Select(ctx context.Context, db int) error {
	frame, err := c.call(ctx, "SELECT", strconv.Itoa(db))
	if err != nil {
		return err
	}
	if frame != protocol.Simple("OK") {
		return unexpected(frame)
	}
	return nil
}

// ConfigGet 返回匹配 pattern 的所有配置
func (c *Client) ConfigGet(ctx context.Context, pattern string) (map[string]string, error) {
	frame, err := c.call(ctx, "CONFIG", "GET", pattern)
	if err != nil {
		return nil, err
	}
	arr, ok := frame.(protocol.Array)
	if !ok || len(arr)%2 != 0 {
		return nil, unexpected(frame)
	}

	result := make(map[string]string, len(arr)/2)
	for i := 0; i < len(arr); i += 2 {
		key, ok1 := arr[i].(protocol.Bulk)
		value, ok2 := arr[i+1].(protocol.Bulk)
		if !ok1 || !ok2 {
			return nil, unexpected(frame)
		}
		result[string(key)] = string(value)
	}
	return result, nil
}

func (c *Client) Close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	return c.prot.Close()
}

func unexpected(frame protocol.Frame) error {
	return errs.NewUnexpectedReplyErr().WithErr(pkgerrors.Errorf("got %s", frame))
}
