package utils

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
)

const (
	ERROR = "\033[1;31m%s\033[0m"
	WARN  = "\033[1;33m%s\033[0m"
	INFO  = "\033[1;34m%s\033[0m"
)

// 输出不是终端（管道、重定向）时不加颜色
var colorful = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

func SetColorful(enable bool) {
	colorful = enable
}

func WrapError(format string, args ...any) string {
	return wrap(ERROR, format, args...)
}

func WrapWarn(format string, args ...any) string {
	return wrap(WARN, format, args...)
}

func WrapInfo(format string, args ...any) string {
	return wrap(INFO, format, args...)
}

func wrap(color, format string, args ...any) string {
	content := fmt.Sprintf(format, args...)
	if !colorful {
		return content
	}
	return fmt.Sprintf(color, content)
}
