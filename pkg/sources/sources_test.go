package sources

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arc-language/nouzen/pkg/store"
)

const doc = `
[[repository]]
name = "debian"
type = "apt"
uri = "http://deb.debian.org/debian/"
release = "bookworm"
resources = ["main", "contrib"]
platform = "amd64"

[[repository]]
name = "alpine"
type = "apk"
uri = "https://dl-cdn.alpinelinux.org/alpine"
release = "v3.19"
resources = ["main"]
platform = "x86_64"
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.toml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	f, err := Load(path)
	require.NoError(t, err)
	require.Len(t, f.Repository, 2)

	repos, err := f.Repositories()
	require.NoError(t, err)
	require.Len(t, repos, 3)

	assert.Equal(t, store.APT, repos[0].Type)
	assert.Equal(t, "bookworm-main-amd64", repos[0].Name)
	assert.Equal(t, "http://deb.debian.org/debian", repos[0].BaseURI)
	assert.Equal(t, "contrib", repos[1].Resource)

	assert.Equal(t, store.APK, repos[2].Type)
	assert.Equal(t, "x86_64", repos[2].Platform)
}

func TestParseRejectsIncompleteEntries(t *testing.T) {
	for name, data := range map[string]string{
		"no uri":       "[[repository]]\ntype = \"apt\"\nrelease = \"x\"\nresources = [\"main\"]\n",
		"bad type":     "[[repository]]\ntype = \"rpm\"\nuri = \"http://x\"\nrelease = \"x\"\nresources = [\"main\"]\n",
		"bad platform": "[[repository]]\ntype = \"apt\"\nuri = \"http://x\"\nrelease = \"x\"\nresources = [\"main\"]\nplatform = \"vax\"\n",
		"no resources": "[[repository]]\ntype = \"apt\"\nuri = \"http://x\"\nrelease = \"x\"\n",
		"not toml":     "[[repository",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(data)
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}
