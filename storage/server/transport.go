package server

import (
	"net"

	"github.com/Trinoooo/eggie_redis/errs"
	"github.com/Trinoooo/eggie_redis/storage/server/connections"
)

var _ IServerTransport = &BaseServerTransport{}

type IServerTransport interface {
	Listen() error
	Accept() (connections.IConnection, error)
	Addr() net.Addr
	Close() error
}

type BaseServerTransport struct {
	addr     net.Addr
	listener net.Listener
}

func NewBaseServerTransport(addr string) (*BaseServerTransport, error) {
	address, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, errs.NewInvalidParamErr().WithErr(err)
	}

	return &BaseServerTransport{
		addr: address,
	}, nil
}

func (bst *BaseServerTransport) Listen() error {
	if bst.listener != nil {
		return nil
	}

	listener, err := net.Listen(bst.addr.Network(), bst.addr.String())
	if err != nil {
		return errs.NewListenErr().WithErr(err)
	}

	bst.listener = listener
	return nil
}

func (bst *BaseServerTransport) Accept() (connections.IConnection, error) {
	conn, err := bst.listener.Accept()
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Addr 监听之后返回实际地址（端口为 0 时由系统分配）
func (bst *BaseServerTransport) Addr() net.Addr {
	if bst.listener != nil {
		return bst.listener.Addr()
	}
	return bst.addr
}

func (bst *BaseServerTransport) Close() error {
	if bst.listener == nil {
		return nil
	}
	return bst.listener.Close()
}
