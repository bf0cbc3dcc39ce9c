package server

import (
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Trinoooo/eggie_redis/consts"
	"github.com/Trinoooo/eggie_redis/errs"
	"github.com/Trinoooo/eggie_redis/storage/conf"
	"github.com/Trinoooo/eggie_redis/storage/logs"
	"github.com/Trinoooo/eggie_redis/utils"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Settings viper 不是并发安全的，运行期间的读写都经过这里加锁
type Settings struct {
	mu  sync.RWMutex
	cfg *viper.Viper
}

func NewSettings(cfg *viper.Viper) *Settings {
	return &Settings{cfg: cfg}
}

func (s *Settings) GetInt(key string) (v int) {
	utils.WrapRLock(&s.mu, func() {
		v = s.cfg.GetInt(key)
	})
	return
}

func (s *Settings) GetString(key string) (v string) {
	utils.WrapRLock(&s.mu, func() {
		v = s.cfg.GetString(key)
	})
	return
}

func (s *Settings) GetDuration(key string) (v time.Duration) {
	utils.WrapRLock(&s.mu, func() {
		v = s.cfg.GetDuration(key)
	})
	return
}

// Match 按 glob 模式匹配配置名，返回 名字、取值 交替排列的结果，同一个配置只出现一次
func (s *Settings) Match(patterns []string) []string {
	result := make([]string, 0)
	utils.WrapRLock(&s.mu, func() {
		for _, key := range conf.Keys {
			for _, pattern := range patterns {
				if ok, _ := path.Match(strings.ToLower(pattern), key); ok {
					result = append(result, key, s.cfg.GetString(key))
					break
				}
			}
		}
	})
	return result
}

// Set 只有部分配置可以在运行时修改
func (s *Settings) Set(key, value string) error {
	key = strings.ToLower(key)
	var err error
	switch key {
	case consts.ConfigLogLevel:
		err = logs.SetLevel(value)
	case consts.ConfigTimeout:
		var n int
		n, err = strconv.Atoi(value)
		if err == nil && n < 0 {
			err = errors.Errorf("negative timeout %d", n)
		}
	default:
		e := errs.NewInvalidParamErr().WithErr(errors.Errorf("unsupported CONFIG parameter: %s", key))
		logs.Warn(e.Error())
		return e
	}
	if err != nil {
		e := errs.NewInvalidParamErr().WithErr(err)
		logs.Warn(e.Error(), zap.String(consts.LogFieldParams, key), zap.String(consts.LogFieldValue, value))
		return e
	}

	utils.WrapLock(&s.mu, func() {
		s.cfg.Set(key, value)
	})
	logs.Info("config updated", zap.String(consts.LogFieldParams, key), zap.String(consts.LogFieldValue, value))
	return nil
}
