package connections

import (
	"bufio"
	"net"
	"time"

	"github.com/Trinoooo/eggie_redis/consts"
)

var _ ITransport = &BufferedTransport{}
var _ ITransportFactory = &BufferedTransportFactory{}

// BufferedTransport 只缓冲写，读直接透传给底层连接，
// 读缓冲由上层的 protocol.Connection 自己管理
type BufferedTransport struct {
	conn   IConnection
	writer *bufio.Writer
}

func (bt *BufferedTransport) Read(buf []byte) (int, error) {
	return bt.conn.Read(buf)
}

func (bt *BufferedTransport) Write(buf []byte) (int, error) {
	return bt.writer.Write(buf)
}

func (bt *BufferedTransport) Flush() error {
	return bt.writer.Flush()
}

// Close 先尽量把缓冲里的数据发出去，再关闭连接
func (bt *BufferedTransport) Close() error {
	flushErr := bt.writer.Flush()
	if err := bt.conn.Close(); err != nil {
		return err
	}
	return flushErr
}

func (bt *BufferedTransport) RemoteAddr() net.Addr {
	return bt.conn.RemoteAddr()
}

func (bt *BufferedTransport) LocalAddr() net.Addr {
	return bt.conn.LocalAddr()
}

func (bt *BufferedTransport) SetReadDeadline(t time.Time) error {
	return bt.conn.SetReadDeadline(t)
}

type BufferedTransportFactory struct {
	bufSize int
}

func NewBufferedTransportFactory(bufSize int) *BufferedTransportFactory {
	if bufSize <= 0 {
		bufSize = consts.DefaultWriteBufferSize
	}
	return &BufferedTransportFactory{
		bufSize: bufSize,
	}
}

func (b *BufferedTransportFactory) Build(conn IConnection) ITransport {
	return &BufferedTransport{
		conn:   conn,
		writer: bufio.NewWriterSize(conn, b.bufSize),
	}
}
