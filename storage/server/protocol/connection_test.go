package protocol

import (
	"bytes"
	"context"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/Trinoooo/eggie_redis/errs"
	"github.com/Trinoooo/eggie_redis/storage/server/connections"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ connections.IConnection = &chunkConn{}

// chunkConn 每次 Read 最多返回一个分片，分片读完之后返回 io.EOF
type chunkConn struct {
	chunks  [][]byte
	reads   int
	written bytes.Buffer
}

func newChunkConn(chunks ...string) *chunkConn {
	c := &chunkConn{}
	for _, chunk := range chunks {
		c.chunks = append(c.chunks, []byte(chunk))
	}
	return c
}

func (c *chunkConn) Read(p []byte) (int, error) {
	c.reads++
	if len(c.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, c.chunks[0])
	c.chunks[0] = c.chunks[0][n:]
	if len(c.chunks[0]) == 0 {
		c.chunks = c.chunks[1:]
	}
	return n, nil
}

func (c *chunkConn) Write(p []byte) (int, error) { return c.written.Write(p) }
func (c *chunkConn) Close() error { return nil }
func (c *chunkConn) RemoteAddr() net.Addr { return &net.TCPAddr{} }
func (c *chunkConn) LocalAddr() net.Addr { return &net.TCPAddr{} }
func (c *chunkConn) SetReadDeadline(_ time.Time) error { return nil }

func splitBytes(s string) []string {
	parts := make([]string, 0, len(s))
	for i := 0; i < len(s); i++ {
		parts = append(parts, s[i:i+1])
	}
	return parts
}

// TestConnection_ReadFrameByteByByte 每次只到一个字节，帧依然按顺序完整交付
func TestConnection_ReadFrameByteByByte(t *testing.T) {
	wire := "*2\r\n$3\r\nfoo\r\n:1\r\n+OK\r\n$-1\r\n"
	conn := NewConnection(newChunkConn(splitBytes(wire)...))
	ctx := context.Background()

	f, err := conn.ReadFrame(ctx)
	assert.Nil(t, err)
	assert.Equal(t, Array{Bulk("foo"), Integer(1)}, f)

	f, err = conn.ReadFrame(ctx)
	assert.Nil(t, err)
	assert.Equal(t, Simple("OK"), f)

	f, err = conn.ReadFrame(ctx)
	assert.Nil(t, err)
	assert.Equal(t, Null{}, f)

	_, err = conn.ReadFrame(ctx)
	assert.Equal(t, io.EOF, err)
}

// TestConnection_PipelinedFrames 一次读到多个帧时，后面的帧不需要再读连接
func TestConnection_PipelinedFrames(t *testing.T) {
	raw := newChunkConn("+PING\r\n+PING\r\n:3\r\n")
	conn := NewConnection(raw)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		f, err := conn.ReadFrame(ctx)
		assert.Nil(t, err)
		assert.Equal(t, Simple("PING"), f)
	}
	f, err := conn.ReadFrame(ctx)
	assert.Nil(t, err)
	assert.Equal(t, Integer(3), f)
	assert.Equal(t, 1, raw.reads)
	assert.Equal(t, 0, conn.Buffered())
}

func TestConnection_CleanClose(t *testing.T) {
	conn := NewConnection(newChunkConn())
	f, err := conn.ReadFrame(context.Background())
	assert.Nil(t, f)
	assert.Equal(t, io.EOF, err)
}

// TestConnection_ResetByPeer 声明了两个元素只收到一个就断开
func TestConnection_ResetByPeer(t *testing.T) {
	conn := NewConnection(newChunkConn("*2\r\n:1\r\n"))
	f, err := conn.ReadFrame(context.Background())
	assert.Nil(t, f)
	assert.Equal(t, int64(errs.ConnectionResetErrCode), errs.GetCode(err))
}

// TestConnection_FatalLatched 格式错误之后不再尝试解析
func TestConnection_FatalLatched(t *testing.T) {
	raw := newChunkConn("$3\r\nfooXX", "+OK\r\n")
	conn := NewConnection(raw)

	_, err := conn.ReadFrame(context.Background())
	assert.Equal(t, int64(errs.BadFormatErrCode), errs.GetCode(err))

	_, err = conn.ReadFrame(context.Background())
	assert.Equal(t, int64(errs.BadFormatErrCode), errs.GetCode(err))
	assert.Equal(t, 1, raw.reads)
}

// TestConnection_BufferGrow 帧比初始读缓冲大很多
func TestConnection_BufferGrow(t *testing.T) {
	payload := strings.Repeat("x", 10000)
	wire := string(Encode(Array{Bulk(payload), Simple("tail")})) + ":9\r\n"

	chunks := make([]string, 0)
	for i := 0; i < len(wire); i += 7 {
		end := i + 7
		if end > len(wire) {
			end = len(wire)
		}
		chunks = append(chunks, wire[i:end])
	}

	factory := NewRespProtocolFactory(16, 16)
	conn := factory.Build(newChunkConn(chunks...))

	f, err := conn.ReadFrame(context.Background())
	require.Nil(t, err)
	assert.Equal(t, Array{Bulk(payload), Simple("tail")}, f)

	f, err = conn.ReadFrame(context.Background())
	require.Nil(t, err)
	assert.Equal(t, Integer(9), f)
}

func TestConnection_WriteFrame(t *testing.T) {
	raw := newChunkConn()
	conn := NewConnection(raw)

	assert.Nil(t, conn.WriteFrame(Simple("OK")))
	assert.Equal(t, "+OK\r\n", raw.written.String())

	assert.Nil(t, conn.WriteFrame(Array{Bulk("a"), Null{}}))
	assert.Equal(t, "+OK\r\n*2\r\n$1\r\na\r\n$-1\r\n", raw.written.String())
}

// TestConnection_Pipe 通过 net.Pipe 双向收发
func TestConnection_Pipe(t *testing.T) {
	client, server := net.Pipe()
	cc, sc := NewConnection(client), NewConnection(server)
	defer cc.Close()
	defer sc.Close()

	go func() {
		_ = cc.WriteFrame(NewCommand("ECHO", "hello"))
	}()

	f, err := sc.ReadFrame(context.Background())
	require.Nil(t, err)
	assert.Equal(t, NewCommand("ECHO", "hello"), f)

	go func() {
		_ = sc.WriteFrame(Bulk("hello"))
	}()

	f, err = cc.ReadFrame(context.Background())
	require.Nil(t, err)
	assert.Equal(t, Bulk("hello"), f)
}

// TestConnection_Cancel 取消之后缓冲里的半个帧还在，下一次读取可以接着解析
func TestConnection_Cancel(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	conn := NewConnection(server)
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		_, _ = client.Write([]byte("+PO"))
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := conn.ReadFrame(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, conn.Buffered())

	go func() {
		_, _ = client.Write([]byte("NG\r\n"))
	}()
	f, err := conn.ReadFrame(context.Background())
	assert.Nil(t, err)
	assert.Equal(t, Simple("PONG"), f)
}

func TestConnection_Timeout(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	conn := NewConnection(server)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := conn.ReadFrame(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}
