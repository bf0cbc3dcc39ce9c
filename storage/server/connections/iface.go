package connections

import (
	"io"
	"net"
	"time"
)

// IConnection 双工字节流，net.Conn 天然满足
type IConnection interface {
	io.ReadWriteCloser
	RemoteAddr() net.Addr
	LocalAddr() net.Addr
	// SetReadDeadline 用来打断阻塞中的 Read，零值表示取消超时
	SetReadDeadline(t time.Time) error
}

// ITransport 在 IConnection 之上带写缓冲，Write 之后需要 Flush 才真正发出去
type ITransport interface {
	IConnection
	Flush() error
}

type ITransportFactory interface {
	Build(conn IConnection) ITransport
}
