package protocol

import "strconv"

// Encode 返回帧的线上格式
func Encode(frame Frame) []byte {
	return AppendFrame(make([]byte, 0, 64), frame)
}

// AppendFrame 把帧的线上格式追加到 dst 后面。nil 按 Null 处理。
func AppendFrame(dst []byte, frame Frame) []byte {
	switch f := frame.(type) {
	case Simple:
		dst = append(dst, TypeSimple)
		dst = appendToken(dst, string(f))
		return append(dst, CRLF...)
	case Error:
		dst = append(dst, TypeError)
		dst = appendToken(dst, string(f))
		return append(dst, CRLF...)
	case Integer:
		dst = append(dst, TypeInteger)
		dst = strconv.AppendInt(dst, int64(f), 10)
		return append(dst, CRLF...)
	case Bulk:
		dst = append(dst, TypeBulk)
		dst = strconv.AppendInt(dst, int64(len(f)), 10)
		dst = append(dst, CRLF...)
		dst = append(dst, f...)
		return append(dst, CRLF...)
	case Array:
		dst = append(dst, TypeArray)
		dst = strconv.AppendInt(dst, int64(len(f)), 10)
		dst = append(dst, CRLF...)
		for _, elem := range f {
			dst = AppendFrame(dst, elem)
		}
		return dst
	default:
		return append(dst, "$-1\r\n"...)
	}
}

// appendToken simple/error 的内容原样写出，只有 CRLF 会被对端当成帧结束，
// 所以其中的 '\r' 换成空格，单独出现的 '\r' 或 '\n' 不受影响
func appendToken(dst []byte, s string) []byte {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\r' && i+1 < len(s) && s[i+1] == '\n' {
			c = ' '
		}
		dst = append(dst, c)
	}
	return dst
}
