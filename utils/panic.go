package utils

// HandlePanic 需要直接 defer 调用，捕获到 panic 时交给 fn 处理
func HandlePanic(fn func(r any)) {
	if r := recover(); r != nil {
		fn(r)
	}
}
