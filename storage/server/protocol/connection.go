package protocol

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"time"

	"github.com/Trinoooo/eggie_redis/consts"
	"github.com/Trinoooo/eggie_redis/errs"
	"github.com/Trinoooo/eggie_redis/storage/server/connections"
)

var _ IProtocol = &Connection{}

// Connection 把字节流转换成帧序列。
// 读缓冲只在完整解析出一个帧之后才前移，被打断的读取不会丢数据；
// 同一个 Connection 不支持并发 ReadFrame。
type Connection struct {
	trans connections.ITransport

	// buf[start:] 是还没有被消费的数据
	buf   []byte
	start int

	// 解析失败后数据流已经不可信，之后的读取都直接返回这个错误
	fatal error
}

func NewConnection(conn connections.IConnection) *Connection {
	return newConnection(connections.NewBufferedTransportFactory(consts.DefaultWriteBufferSize).Build(conn), consts.DefaultReadBufferSize)
}

func newConnection(trans connections.ITransport, readBufSize int) *Connection {
	if readBufSize <= 0 {
		readBufSize = consts.DefaultReadBufferSize
	}
	return &Connection{
		trans: trans,
		buf:   make([]byte, 0, readBufSize),
	}
}

// ReadFrame 读取下一个帧。
// 对端在帧边界正常关闭时返回 io.EOF；帧只收到一部分就关闭时返回 ConnectionResetErrCode 错误。
// ctx 被取消时返回 ctx.Err()，已经收到的数据留在缓冲里，下一次调用可以继续。
func (c *Connection) ReadFrame(ctx context.Context) (Frame, error) {
	if c.fatal != nil {
		return nil, c.fatal
	}

	stop := c.watch(ctx)
	defer stop()

	for {
		frame, n, err := Decode(c.buf[c.start:])
		if err == nil {
			c.consume(n)
			return frame, nil
		}
		if errs.GetCode(err) != errs.IncompleteErrCode {
			c.fatal = err
			return nil, err
		}

		if err = ctx.Err(); err != nil {
			return nil, err
		}

		n, err = c.fill()
		if n > 0 {
			continue
		}
		if errors.Is(err, io.EOF) {
			if len(c.buf) == c.start {
				return nil, io.EOF
			}
			return nil, errs.NewConnectionResetErr()
		}
		if errors.Is(err, os.ErrDeadlineExceeded) {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if _, ok := ctx.Deadline(); ok {
				return nil, context.DeadlineExceeded
			}
		}
		if err != nil {
			return nil, errs.NewReadSocketErr().WithErr(err)
		}
	}
}

// watch 把 ctx 的截止时间和取消同步到底层连接的读超时上
func (c *Connection) watch(ctx context.Context) func() {
	if ctx.Done() == nil {
		return func() {}
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = c.trans.SetReadDeadline(deadline)
	}
	fired := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		defer close(fired)
		_ = c.trans.SetReadDeadline(time.Now())
	})
	return func() {
		// 回调已经开始执行时要等它结束，否则清除超时之后可能又被它设置上
		if !stop() {
			<-fired
		}
		_ = c.trans.SetReadDeadline(time.Time{})
	}
}

// fill 从底层连接读一次数据追加到缓冲末尾，空间不够时先挪动再扩容
func (c *Connection) fill() (int, error) {
	if len(c.buf) == cap(c.buf) {
		if c.start > 0 {
			n := copy(c.buf, c.buf[c.start:])
			c.buf = c.buf[:n]
			c.start = 0
		} else {
			grown := make([]byte, len(c.buf), 2*cap(c.buf))
			copy(grown, c.buf)
			c.buf = grown
		}
	}

	n, err := c.trans.Read(c.buf[len(c.buf):cap(c.buf)])
	c.buf = c.buf[:len(c.buf)+n]
	return n, err
}

func (c *Connection) consume(n int) {
	c.start += n
	if c.start == len(c.buf) {
		c.buf = c.buf[:0]
		c.start = 0
	}
}

// Buffered 缓冲里还没有消费的字节数
func (c *Connection) Buffered() int {
	return len(c.buf) - c.start
}

// WriteFrame 编码后写入缓冲并立即 Flush，返回时数据已经交给了底层连接
func (c *Connection) WriteFrame(frame Frame) error {
	if _, err := c.trans.Write(Encode(frame)); err != nil {
		return errs.NewWriteSocketErr().WithErr(err)
	}
	if err := c.trans.Flush(); err != nil {
		return errs.NewWriteSocketErr().WithErr(err)
	}
	return nil
}

func (c *Connection) Close() error {
	return c.trans.Close()
}

func (c *Connection) RemoteAddr() net.Addr {
	return c.trans.RemoteAddr()
}

func (c *Connection) LocalAddr() net.Addr {
	return c.trans.LocalAddr()
}
