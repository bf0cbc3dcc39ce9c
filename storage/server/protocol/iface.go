package protocol

import (
	"context"
	"net"

	"github.com/Trinoooo/eggie_redis/consts"
	"github.com/Trinoooo/eggie_redis/storage/server/connections"
)

// IProtocol 以帧为单位收发数据，服务端和客户端都只依赖这个接口
type IProtocol interface {
	ReadFrame(ctx context.Context) (Frame, error)
	WriteFrame(frame Frame) error
	RemoteAddr() net.Addr
	LocalAddr() net.Addr
	Close() error
}

type IProtocolFactory interface {
	Build(conn connections.IConnection) IProtocol
}

var _ IProtocolFactory = &RespProtocolFactory{}

type RespProtocolFactory struct {
	readBufSize  int
	transFactory connections.ITransportFactory
}

func NewRespProtocolFactory(readBufSize, writeBufSize int) *RespProtocolFactory {
	if readBufSize <= 0 {
		readBufSize = consts.DefaultReadBufferSize
	}
	return &RespProtocolFactory{
		readBufSize:  readBufSize,
		transFactory: connections.NewBufferedTransportFactory(writeBufSize),
	}
}

func (f *RespProtocolFactory) Build(conn connections.IConnection) IProtocol {
	return newConnection(f.transFactory.Build(conn), f.readBufSize)
}
