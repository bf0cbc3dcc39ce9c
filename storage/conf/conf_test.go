package conf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Trinoooo/eggie_redis/consts"
	"github.com/Trinoooo/eggie_redis/errs"
	"github.com/stretchr/testify/assert"
)

// TestNew_Default 目录下没有配置文件时全部取默认值
func TestNew_Default(t *testing.T) {
	cfg, err := New(t.TempDir())
	assert.Nil(t, err)
	assert.Equal(t, consts.DefaultBind, cfg.GetString(consts.ConfigBind))
	assert.Equal(t, consts.DefaultPort, cfg.GetInt(consts.ConfigPort))
	assert.Equal(t, consts.DefaultDatabases, cfg.GetInt(consts.ConfigDatabases))
	assert.Equal(t, 0, cfg.GetInt(consts.ConfigTimeout))
}

func TestNew_File(t *testing.T) {
	dir := t.TempDir()
	content := "port: 7000\ndatabases: 4\nloglevel: debug\n"
	assert.Nil(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0660))

	cfg, err := New(dir)
	assert.Nil(t, err)
	assert.Equal(t, 7000, cfg.GetInt(consts.ConfigPort))
	assert.Equal(t, 4, cfg.GetInt(consts.ConfigDatabases))
	assert.Equal(t, "debug", cfg.GetString(consts.ConfigLogLevel))
	assert.Equal(t, consts.DefaultMaxClients, cfg.GetInt(consts.ConfigMaxClients))
}

// TestNew_Env 环境变量覆盖配置文件
func TestNew_Env(t *testing.T) {
	dir := t.TempDir()
	assert.Nil(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("maxclients: 10\n"), 0660))
	t.Setenv("EGGIE_REDIS_MAXCLIENTS", "20")
	t.Setenv("EGGIE_REDIS_READ_BUFFER_SIZE", "128")

	cfg, err := New(dir)
	assert.Nil(t, err)
	assert.Equal(t, 20, cfg.GetInt(consts.ConfigMaxClients))
	assert.Equal(t, 128, cfg.GetInt(consts.ConfigReadBufferSize))
}

func TestNew_Malformed(t *testing.T) {
	dir := t.TempDir()
	assert.Nil(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("port: [1, 2\n"), 0660))

	_, err := New(dir)
	assert.Equal(t, int64(errs.ReadConfigErrCode), errs.GetCode(err))
}

func TestValidate(t *testing.T) {
	cfg := Default()
	assert.Nil(t, Validate(cfg))

	cfg.Set(consts.ConfigPort, 70000)
	assert.Equal(t, int64(errs.InvalidParamErrCode), errs.GetCode(Validate(cfg)))

	cfg = Default()
	cfg.Set(consts.ConfigDatabases, 0)
	assert.Equal(t, int64(errs.InvalidParamErrCode), errs.GetCode(Validate(cfg)))
}
