package logs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetLevel(t *testing.T) {
	origin := Level()
	defer func() {
		_ = SetLevel(origin)
	}()

	assert.Nil(t, SetLevel("warn"))
	assert.Equal(t, "warn", Level())
	assert.NotNil(t, SetLevel("verbose"))
	assert.Equal(t, "warn", Level())

	Info("should be dropped")
	Warn("should be kept")
}
