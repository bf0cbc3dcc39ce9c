package protocol

import (
	"strconv"

	"github.com/Trinoooo/eggie_redis/errs"
	"github.com/pkg/errors"
)

// Parse 按顺序读取 Array 帧中的元素，命令用它解析参数。
// 参数读完返回 EndOfStreamErrCode，类型不对返回 FrameTypeMismatchErrCode，
// 两者可以用 errs.GetCode 区分。
type Parse struct {
	parts Array
	pos   int
}

func NewParse(frame Frame) (*Parse, error) {
	arr, ok := frame.(Array)
	if !ok {
		return nil, errs.NewFrameTypeMismatchErr().WithErr(errors.Errorf("expected array, got %s", frame))
	}
	return &Parse{parts: arr}, nil
}

func (p *Parse) next() (Frame, error) {
	if p.pos >= len(p.parts) {
		return nil, errs.NewEndOfStreamErr()
	}
	f := p.parts[p.pos]
	p.pos++
	return f, nil
}

// NextString Simple 和 Bulk 都可以当作字符串
func (p *Parse) NextString() (string, error) {
	f, err := p.next()
	if err != nil {
		return "", err
	}
	switch v := f.(type) {
	case Simple:
		return string(v), nil
	case Bulk:
		return string(v), nil
	default:
		return "", errs.NewFrameTypeMismatchErr().WithErr(errors.Errorf("expected simple or bulk frame, got %s", f))
	}
}

func (p *Parse) NextBytes() ([]byte, error) {
	f, err := p.next()
	if err != nil {
		return nil, err
	}
	switch v := f.(type) {
	case Simple:
		return []byte(v), nil
	case Bulk:
		return v, nil
	default:
		return nil, errs.NewFrameTypeMismatchErr().WithErr(errors.Errorf("expected simple or bulk frame, got %s", f))
	}
}

// NextInt 除了 Integer，内容是十进制整数的 Simple/Bulk 也可以
func (p *Parse) NextInt() (int64, error) {
	f, err := p.next()
	if err != nil {
		return 0, err
	}

	var text string
	switch v := f.(type) {
	case Integer:
		return int64(v), nil
	case Simple:
		text = string(v)
	case Bulk:
		text = string(v)
	default:
		return 0, errs.NewFrameTypeMismatchErr().WithErr(errors.Errorf("expected integer frame, got %s", f))
	}

	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, errs.NewInvalidIntegerErr().WithErr(err)
	}
	return n, nil
}

// Remaining 还没读取的元素个数
func (p *Parse) Remaining() int {
	return len(p.parts) - p.pos
}

// Finish 确认所有元素都已经读完
func (p *Parse) Finish() error {
	if p.Remaining() > 0 {
		return errs.NewTooManyArgumentsErr()
	}
	return nil
}
