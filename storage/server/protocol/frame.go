package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// 类型标识，帧的第一个字节
const (
	TypeSimple  = '+'
	TypeError   = '-'
	TypeInteger = ':'
	TypeBulk    = '$'
	TypeArray   = '*'
)

const CRLF = "\r\n"

// Frame 协议的一个完整单元，只有本包内的类型可以实现
type Frame interface {
	// Type 返回帧在线上的类型标识，Null 也是 '$'
	Type() byte
	String() string
	frame()
}

// Simple 不能包含 CRLF，编码时会被替换成空格
type Simple string

// Error 同时实现了 error，方便命令层直接返回
type Error string

type Integer int64

// Bulk 和 Null 是两种帧，长度为 0 的 Bulk 不是 Null
type Bulk []byte

type Null struct{}

type Array []Frame

func (Simple) Type() byte  { return TypeSimple }
func (Error) Type() byte   { return TypeError }
func (Integer) Type() byte { return TypeInteger }
func (Bulk) Type() byte    { return TypeBulk }
func (Null) Type() byte    { return TypeBulk }
func (Array) Type() byte   { return TypeArray }

func (Simple) frame()  {}
func (Error) frame()   {}
func (Integer) frame() {}
func (Bulk) frame()    {}
func (Null) frame()    {}
func (Array) frame()   {}

func (s Simple) String() string {
	return string(s)
}

func (e Error) String() string {
	return "error: " + string(e)
}

func (e Error) Error() string {
	return string(e)
}

func (i Integer) String() string {
	return strconv.FormatInt(int64(i), 10)
}

func (b Bulk) String() string {
	return strconv.Quote(string(b))
}

func (Null) String() string {
	return "(nil)"
}

func (a Array) String() string {
	parts := make([]string, 0, len(a))
	for _, f := range a {
		parts = append(parts, f.String())
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// NewCommand 把参数组装成 Array(Bulk...)，客户端发请求都是这个格式
func NewCommand(args ...string) Array {
	arr := make(Array, 0, len(args))
	for _, arg := range args {
		arr = append(arr, Bulk(arg))
	}
	return arr
}

func NewErrorf(format string, args ...any) Error {
	return Error(fmt.Sprintf(format, args...))
}
