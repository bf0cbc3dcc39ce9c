package protocol

import (
	"testing"

	"github.com/Trinoooo/eggie_redis/errs"
	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	p, err := NewParse(Array{Bulk("SELECT"), Bulk("3"), Integer(7), Simple("raw")})
	assert.Nil(t, err)
	assert.Equal(t, 4, p.Remaining())

	name, err := p.NextString()
	assert.Nil(t, err)
	assert.Equal(t, "SELECT", name)

	idx, err := p.NextInt()
	assert.Nil(t, err)
	assert.Equal(t, int64(3), idx)

	n, err := p.NextInt()
	assert.Nil(t, err)
	assert.Equal(t, int64(7), n)

	raw, err := p.NextBytes()
	assert.Nil(t, err)
	assert.Equal(t, []byte("raw"), raw)

	assert.Nil(t, p.Finish())

	// 读完之后是 end of stream，不是类型错误
	_, err = p.NextString()
	assert.Equal(t, int64(errs.EndOfStreamErrCode), errs.GetCode(err))
}

func TestParse_TypeMismatch(t *testing.T) {
	_, err := NewParse(Simple("PING"))
	assert.Equal(t, int64(errs.FrameTypeMismatchErrCode), errs.GetCode(err))

	p, err := NewParse(Array{Integer(1), Array{}, Null{}, Bulk("abc")})
	assert.Nil(t, err)

	_, err = p.NextString()
	assert.Equal(t, int64(errs.FrameTypeMismatchErrCode), errs.GetCode(err))
	_, err = p.NextInt()
	assert.Equal(t, int64(errs.FrameTypeMismatchErrCode), errs.GetCode(err))
	_, err = p.NextBytes()
	assert.Equal(t, int64(errs.FrameTypeMismatchErrCode), errs.GetCode(err))
	_, err = p.NextInt()
	assert.Equal(t, int64(errs.InvalidIntegerErrCode), errs.GetCode(err))
}

func TestParse_Finish(t *testing.T) {
	p, err := NewParse(NewCommand("PING", "a", "b"))
	assert.Nil(t, err)

	_, err = p.NextString()
	assert.Nil(t, err)
	assert.Equal(t, int64(errs.TooManyArgumentsErrCode), errs.GetCode(p.Finish()))
}
