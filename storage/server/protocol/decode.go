package protocol

import (
	"bytes"
	"strconv"

	"github.com/Trinoooo/eggie_redis/consts"
	"github.com/Trinoooo/eggie_redis/errs"
	"github.com/pkg/errors"
)

// 与 redis 的 proto-max-bulk-len 以及单层数组上限保持一致，
// 超过的长度声明直接视为格式错误，避免按声明长度预分配内存。
// 数组按递归解析，嵌套层数也要限制，否则对端可以用 "*1\r\n" 撑爆调用栈
const (
	MaxBulkLength   = 512 * consts.MB
	MaxArrayLength  = 1 << 20
	MaxNestingDepth = 512
)

// Check 校验 buf 开头是否是一个完整的帧，返回帧占用的字节数，不拷贝任何数据。
// buf 只是帧的前缀时返回 IncompleteErrCode 错误，调用方读入更多数据后重试即可；
// InvalidIntegerErrCode 和 BadFormatErrCode 说明数据流已经不可信。
func Check(buf []byte) (int, error) {
	d := &decoder{buf: buf}
	if _, err := d.next(); err != nil {
		return 0, err
	}
	return d.pos, nil
}

// Decode 解析 buf 开头的一个帧，返回的帧不引用 buf 的内存。
// 先用 Check 在原始数据上校验，通过后才拷贝出载荷，
// 所以失败的尝试（包括 Incomplete）不会产生分配。
func Decode(buf []byte) (Frame, int, error) {
	n, err := Check(buf)
	if err != nil {
		return nil, 0, err
	}

	d := &decoder{buf: buf[:n], materialize: true}
	frame, err := d.next()
	if err != nil {
		return nil, 0, err
	}
	return frame, n, nil
}

// decoder 校验和解析共用同一套规则，materialize 为 false 时只移动游标
type decoder struct {
	buf         []byte
	pos         int
	depth       int
	materialize bool
}

func (d *decoder) next() (Frame, error) {
	if d.pos >= len(d.buf) {
		return nil, errs.NewIncompleteErr()
	}

	tag := d.buf[d.pos]
	d.pos++
	switch tag {
	case TypeSimple:
		line, err := d.readLine()
		if err != nil || !d.materialize {
			return nil, err
		}
		return Simple(line), nil
	case TypeError:
		line, err := d.readLine()
		if err != nil || !d.materialize {
			return nil, err
		}
		return Error(line), nil
	case TypeInteger:
		n, err := d.readInt()
		if err != nil || !d.materialize {
			return nil, err
		}
		return Integer(n), nil
	case TypeBulk:
		return d.readBulk()
	case TypeArray:
		return d.readArray()
	default:
		return nil, errs.NewBadFormatErr().WithErr(errors.Errorf("unknown type byte %q", tag))
	}
}

func (d *decoder) readBulk() (Frame, error) {
	n, err := d.readInt()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return Null{}, nil
	}
	if n > MaxBulkLength {
		return nil, errs.NewBadFormatErr().WithErr(errors.Errorf("invalid bulk length %d", n))
	}

	end := d.pos + int(n)
	// 载荷后面第一个字节已经到了但不是 '\r'，不必再等
	if len(d.buf) > end && d.buf[end] != '\r' {
		return nil, errs.NewBadFormatErr().WithErr(errors.New("bulk payload not terminated by CRLF"))
	}
	if len(d.buf) < end+len(CRLF) {
		return nil, errs.NewIncompleteErr()
	}
	if d.buf[end] != '\r' || d.buf[end+1] != '\n' {
		return nil, errs.NewBadFormatErr().WithErr(errors.New("bulk payload not terminated by CRLF"))
	}

	payload := d.buf[d.pos:end]
	d.pos = end + len(CRLF)
	if !d.materialize {
		return nil, nil
	}
	owned := make([]byte, len(payload))
	copy(owned, payload)
	return Bulk(owned), nil
}

func (d *decoder) readArray() (Frame, error) {
	n, err := d.readInt()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return Null{}, nil
	}
	if n > MaxArrayLength {
		return nil, errs.NewBadFormatErr().WithErr(errors.Errorf("invalid multibulk length %d", n))
	}
	if n > 0 && d.depth >= MaxNestingDepth {
		return nil, errs.NewBadFormatErr().WithErr(errors.Errorf("nesting deeper than %d", MaxNestingDepth))
	}
	d.depth++
	defer func() { d.depth-- }()

	var arr Array
	if d.materialize {
		arr = make(Array, 0, n)
	}
	for i := int64(0); i < n; i++ {
		elem, err := d.next()
		if err != nil {
			return nil, err
		}
		if d.materialize {
			arr = append(arr, elem)
		}
	}
	if !d.materialize {
		return nil, nil
	}
	return arr, nil
}

// readLine 返回到第一个 CRLF 为止的内容（不含 CRLF），游标移到 CRLF 之后
func (d *decoder) readLine() ([]byte, error) {
	idx := seekNewline(d.buf[d.pos:])
	if idx < 0 {
		return nil, errs.NewIncompleteErr()
	}
	line := d.buf[d.pos : d.pos+idx]
	d.pos += idx + len(CRLF)
	return line, nil
}

func (d *decoder) readInt() (int64, error) {
	line, err := d.readLine()
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(string(line), 10, 64)
	if err != nil {
		return 0, errs.NewInvalidIntegerErr().WithErr(err)
	}
	return n, nil
}

// seekNewline 找到第一个 '\r' 且下一个字节是 '\n' 的位置，没有则返回 -1
func seekNewline(s []byte) int {
	pos := 0
	for pos < len(s)-1 {
		i := bytes.IndexByte(s[pos:len(s)-1], '\r')
		if i < 0 {
			return -1
		}
		pos += i
		if s[pos+1] == '\n' {
			return pos
		}
		pos++
	}
	return -1
}
