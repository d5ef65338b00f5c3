package safeconv_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/repohealth/pkg/safeconv"
)

func TestMustInt64ToUint64(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint64(0), safeconv.MustInt64ToUint64(0))
	assert.Equal(t, uint64(2048), safeconv.MustInt64ToUint64(2048))
	assert.Panics(t, func() { safeconv.MustInt64ToUint64(-1) })
}
