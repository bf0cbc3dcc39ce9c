package handle

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Trinoooo/eggie_redis/errs"
	"github.com/Trinoooo/eggie_redis/storage/client"
	"github.com/Trinoooo/eggie_redis/storage/server/protocol"
	"github.com/Trinoooo/eggie_redis/utils"
	"github.com/pkg/errors"
)

type ClientWrapper struct {
	Client *client.Client
	Ctx    context.Context
	Out    io.Writer
}

// HandleInput 执行一行输入，把回复按 redis-cli 的格式输出
func (c *ClientWrapper) HandleInput(line string) {
	args, err := SplitArgs(line)
	if err != nil {
		_, _ = fmt.Fprintln(c.Out, utils.WrapError("(error) %s", err))
		return
	}
	if len(args) == 0 {
		return
	}

	frame, err := c.Client.Do(c.Ctx, args...)
	if err != nil {
		_, _ = fmt.Fprintln(c.Out, utils.WrapError("(error) %s", err))
		return
	}
	_, _ = fmt.Fprintln(c.Out, Format(frame))
}

// SplitArgs 按空白切分参数，支持单引号和双引号，双引号内支持 \" \\ \n \r \t 转义
func SplitArgs(line string) ([]string, error) {
	args := make([]string, 0)
	var (
		current strings.Builder
		inArg   bool
		quote   byte
	)

	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case quote == '"' && ch == '\\' && i+1 < len(line):
			i++
			switch line[i] {
			case 'n':
				current.WriteByte('\n')
			case 'r':
				current.WriteByte('\r')
			case 't':
				current.WriteByte('\t')
			default:
				current.WriteByte(line[i])
			}
		case quote != 0 && ch == quote:
			quote = 0
			if i+1 < len(line) && line[i+1] != ' ' && line[i+1] != '\t' {
				return nil, errs.NewInvalidParamErr().WithErr(errors.New("closing quote must be followed by a space"))
			}
		case quote != 0:
			current.WriteByte(ch)
		case ch == '"' || ch == '\'':
			quote = ch
			inArg = true
		case ch == ' ' || ch == '\t':
			if inArg {
				args = append(args, current.String())
				current.Reset()
				inArg = false
			}
		default:
			current.WriteByte(ch)
			inArg = true
		}
	}

	if quote != 0 {
		return nil, errs.NewInvalidParamErr().WithErr(errors.New("unbalanced quotes"))
	}
	if inArg {
		args = append(args, current.String())
	}
	return args, nil
}

func Format(frame protocol.Frame) string {
	return format(frame, 0)
}

func format(frame protocol.Frame, indent int) string {
	switch f := frame.(type) {
	case protocol.Simple:
		return string(f)
	case protocol.Error:
		return utils.WrapError("(error) %s", string(f))
	case protocol.Integer:
		return fmt.Sprintf("(integer) %d", int64(f))
	case protocol.Bulk:
		return strconv.Quote(string(f))
	case protocol.Array:
		if len(f) == 0 {
			return "(empty array)"
		}
		width := len(strconv.Itoa(len(f)))
		lines := make([]string, 0, len(f))
		for i, elem := range f {
			prefix := fmt.Sprintf("%*d) ", width, i+1)
			item := format(elem, indent+len(prefix))
			if i > 0 {
				prefix = strings.Repeat(" ", indent) + prefix
			}
			lines = append(lines, prefix+item)
		}
		return strings.Join(lines, "\n")
	default:
		return utils.WrapWarn("(nil)")
	}
}
