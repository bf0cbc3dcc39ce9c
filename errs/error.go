package errs

import (
	"errors"
	"fmt"
)

type KvErr struct {
	msg  string
	code int64
	err  error
}

// Error 输出格式：
// [错误码] 错误类型描述 ( => 包含错误详细描述 )
// 解释：(xxx) 表示可选内容
func (ke *KvErr) Error() string {
	details := fmt.Sprintf("[%d] %s", ke.code, ke.msg)
	if ke.err != nil {
		details += fmt.Sprintf(" => %s", ke.err)
	}

	return details
}

func (ke *KvErr) Code() int64 {
	return ke.code
}

// Msg 不带错误码和下游错误的描述，用于回复给客户端
func (ke *KvErr) Msg() string {
	if ke.err != nil {
		return fmt.Sprintf("%s: %s", ke.msg, ke.err)
	}
	return ke.msg
}

func (ke *KvErr) WithErr(err error) *KvErr {
	ke.err = err
	return ke
}

func (ke *KvErr) Unwrap() error {
	return ke.err
}

// Is 错误码相同即视为同一种错误
func (ke *KvErr) Is(target error) bool {
	var other *KvErr
	if !errors.As(target, &other) {
		return false
	}
	return ke.code == other.code
}

func GetCode(err error) int64 {
	var ke *KvErr
	if errors.As(err, &ke) {
		return ke.code
	}
	return UnknownErrCode
}

const (
	UnknownErrCode          = 0
	InvalidParamErrCode     = 100001
	OpenFileErrCode         = 100005
	FileNoPermissionErrCode = 100007
	FileStatErrCode         = 100008
	MkdirErrCode            = 100009
	ReadSocketErrCode       = 100036
	WriteSocketErrCode      = 100037
	ReadConfigErrCode       = 100038
	ListenErrCode           = 100039
	AcceptErrCode           = 100040
	DialErrCode             = 100041
	ServerClosedErrCode     = 100042
	MaxClientsErrCode       = 100043

	// 协议层
	IncompleteErrCode        = 300001
	InvalidIntegerErrCode    = 300002
	BadFormatErrCode         = 300003
	ConnectionResetErrCode   = 300004
	EndOfStreamErrCode       = 300005
	FrameTypeMismatchErrCode = 300006
	TooManyArgumentsErrCode  = 300007

	// 命令层
	UnknownCommandErrCode    = 400001
	DBIndexOutOfRangeErrCode = 400002
	NotIntegerErrCode        = 400003
	UnknownSubCommandErrCode = 400004
	UnexpectedReplyErrCode   = 400005
)

func NewUnknownErr() *KvErr {
	return &KvErr{msg: "unknown error", code: UnknownErrCode}
}

func NewInvalidParamErr() *KvErr {
	return &KvErr{msg: "invalid params", code: InvalidParamErrCode}
}

func NewOpenFileErr() *KvErr {
	return &KvErr{msg: "open file failed", code: OpenFileErrCode}
}

func NewFileNoPermissionErr() *KvErr {
	return &KvErr{msg: "file no permission", code: FileNoPermissionErrCode}
}

func NewFileStatErr() *KvErr {
	return &KvErr{msg: "file stat failed", code: FileStatErrCode}
}

func NewMkdirErr() *KvErr {
	return &KvErr{msg: "mkdir failed", code: MkdirErrCode}
}

func NewReadSocketErr() *KvErr {
	return &KvErr{msg: "read socket failed", code: ReadSocketErrCode}
}

func NewWriteSocketErr() *KvErr {
	return &KvErr{msg: "write socket failed", code: WriteSocketErrCode}
}

func NewReadConfigErr() *KvErr {
	return &KvErr{msg: "read config failed", code: ReadConfigErrCode}
}

func NewListenErr() *KvErr {
	return &KvErr{msg: "listen failed", code: ListenErrCode}
}

func NewAcceptErr() *KvErr {
	return &KvErr{msg: "accept connection failed", code: AcceptErrCode}
}

func NewDialErr() *KvErr {
	return &KvErr{msg: "dial server failed", code: DialErrCode}
}

func NewServerClosedErr() *KvErr {
	return &KvErr{msg: "server closed", code: ServerClosedErrCode}
}

func NewMaxClientsErr() *KvErr {
	return &KvErr{msg: "max number of clients reached", code: MaxClientsErrCode}
}

func NewIncompleteErr() *KvErr {
	return &KvErr{msg: "frame requires more bytes", code: IncompleteErrCode}
}

func NewInvalidIntegerErr() *KvErr {
	return &KvErr{msg: "frame contains invalid integer", code: InvalidIntegerErrCode}
}

func NewBadFormatErr() *KvErr {
	return &KvErr{msg: "frame contains bad format", code: BadFormatErrCode}
}

func NewConnectionResetErr() *KvErr {
	return &KvErr{msg: "connection reset by peer", code: ConnectionResetErrCode}
}

func NewEndOfStreamErr() *KvErr {
	return &KvErr{msg: "unexpected end of stream", code: EndOfStreamErrCode}
}

func NewFrameTypeMismatchErr() *KvErr {
	return &KvErr{msg: "unexpected frame type", code: FrameTypeMismatchErrCode}
}

func NewTooManyArgumentsErr() *KvErr {
	return &KvErr{msg: "expected end of frame, but there was more", code: TooManyArgumentsErrCode}
}

func NewUnknownCommandErr() *KvErr {
	return &KvErr{msg: "unknown command", code: UnknownCommandErrCode}
}

func NewDBIndexOutOfRangeErr() *KvErr {
	return &KvErr{msg: "DB index is out of range", code: DBIndexOutOfRangeErrCode}
}

func NewNotIntegerErr() *KvErr {
	return &KvErr{msg: "value is not an integer or out of range", code: NotIntegerErrCode}
}

func NewUnknownSubCommandErr() *KvErr {
	return &KvErr{msg: "unknown subcommand", code: UnknownSubCommandErrCode}
}

func NewUnexpectedReplyErr() *KvErr {
	return &KvErr{msg: "unexpected reply", code: UnexpectedReplyErrCode}
}
