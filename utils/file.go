package utils

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/Trinoooo/eggie_redis/errs"
)

// CheckAndCreateFile 父目录不存在时先创建目录再打开文件
func CheckAndCreateFile(filePath string, flag int, perm os.FileMode) (*os.File, error) {
	dir := filepath.Dir(filePath)
	_, err := os.Stat(dir)
	if errors.Is(err, os.ErrNotExist) {
		if err = os.MkdirAll(dir, 0770); err != nil {
			return nil, errs.NewMkdirErr().WithErr(err)
		}
	} else if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return nil, errs.NewFileNoPermissionErr().WithErr(err)
		}
		return nil, errs.NewFileStatErr().WithErr(err)
	}

	fd, err := os.OpenFile(filePath, flag, perm)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return nil, errs.NewFileNoPermissionErr().WithErr(err)
		}
		return nil, errs.NewOpenFileErr().WithErr(err)
	}
	return fd, nil
}

// EnsureFile 确保文件存在，只关心路径不关心句柄，例如 readline 的历史文件
func EnsureFile(filePath string) error {
	fd, err := CheckAndCreateFile(filePath, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0660)
	if err != nil {
		return err
	}
	return fd.Close()
}
