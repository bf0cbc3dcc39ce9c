package connections

import (
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestBufferedTransport_Flush 不 Flush 的话对端读不到数据
func TestBufferedTransport_Flush(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	trans := NewBufferedTransportFactory(1024).Build(server)
	defer trans.Close()

	n, err := trans.Write([]byte("+PONG\r\n"))
	assert.Nil(t, err)
	assert.Equal(t, 7, n)

	done := make(chan []byte)
	go func() {
		buf := make([]byte, 7)
		_, _ = io.ReadFull(client, buf)
		done <- buf
	}()

	assert.Nil(t, trans.Flush())
	assert.Equal(t, "+PONG\r\n", string(<-done))
}

func TestBufferedTransport_Read(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	trans := NewBufferedTransportFactory(0).Build(server)
	defer trans.Close()

	go func() {
		_, _ = client.Write([]byte(":1\r\n"))
	}()

	buf := make([]byte, 16)
	n, err := trans.Read(buf)
	assert.Nil(t, err)
	assert.Equal(t, ":1\r\n", string(buf[:n]))
	assert.Equal(t, server.RemoteAddr(), trans.RemoteAddr())
}
