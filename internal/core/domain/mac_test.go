package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeMAC(t *testing.T) {
	for in, want := range map[string]string{
		"AA:BB:CC:DD:EE:FF":   "AA:BB:CC:DD:EE:FF",
		" aa-bb-cc-dd-ee-ff ": "AA:BB:CC:DD:EE:FF",
		"aabb.ccdd.eeff":      "AA:BB:CC:DD:EE:FF",
		"0:1:2:3:4:5":         "",
	} {
		got, err := NormalizeMAC(in)
		if want == "" {
			assert.ErrorIs(t, err, ErrInvalidMAC, in)
			continue
		}
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	for _, in := range []string{"", "invalid", "AA:BB:CC:DD:EE", "00:00:5e:10:00:00:00:01"} {
		_, err := NormalizeMAC(in)
		assert.ErrorIs(t, err, ErrInvalidMAC, in)
	}
}
