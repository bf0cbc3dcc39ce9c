package utils

import (
	"os"

	"github.com/Trinoooo/eggie_redis/consts"
)

func Env() string {
	return os.Getenv(consts.Env)
}

func IsTest() bool {
	return Env() == "test"
}
