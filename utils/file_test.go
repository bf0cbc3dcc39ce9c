package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Trinoooo/eggie_redis/errs"
	"github.com/stretchr/testify/assert"
)

type TestFile struct {
	Description string
	Path        string
}

func TestCheckAndCreateFile(t *testing.T) {
	base := t.TempDir()
	testList := []*TestFile{
		{
			Description: "dir not exist",
			Path:        filepath.Join(base, "a", "b", "f1"),
		},
		{
			Description: "dir exist",
			Path:        filepath.Join(base, "f2"),
		},
		{
			Description: "file exist",
			Path:        filepath.Join(base, "f2"),
		},
	}

	for _, item := range testList {
		fd, err := CheckAndCreateFile(item.Path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0660)
		assert.Nil(t, err, item.Description)
		assert.Nil(t, fd.Close(), item.Description)
		t.Log(item.Description, "pass")
	}
}

// TestCheckAndCreateFile_NotDir 父路径是普通文件时无法创建
func TestCheckAndCreateFile_NotDir(t *testing.T) {
	base := t.TempDir()
	plain := filepath.Join(base, "plain")
	assert.Nil(t, EnsureFile(plain))

	_, err := CheckAndCreateFile(filepath.Join(plain, "child"), os.O_CREATE|os.O_RDWR, 0660)
	assert.NotNil(t, err)
	assert.NotEqual(t, int64(errs.UnknownErrCode), errs.GetCode(err))
}

func TestEnsureFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history", "cli")
	assert.Nil(t, EnsureFile(path))
	_, err := os.Stat(path)
	assert.Nil(t, err)
}
