package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arc-language/nouzen/pkg/store"
)

func TestNormalize(t *testing.T) {
	for in, want := range map[string]Architecture{
		"x86_64":  ArchAmd64,
		"aarch64": ArchArm64,
		"i686":    ArchI386,
		"arm":     ArchArmel,
		"noarch":  ArchAll,
	} {
		got, err := Normalize(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := Normalize("vax")
	assert.Error(t, err)
}

func TestName(t *testing.T) {
	assert.Equal(t, "x86_64", ArchAmd64.Name(store.APK))
	assert.Equal(t, "amd64", ArchAmd64.Name(store.APT))
	assert.Equal(t, "mips", ArchMips.Name(store.APK))
}
