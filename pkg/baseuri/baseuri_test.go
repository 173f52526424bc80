package baseuri

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveURL(t *testing.T) {
	got, err := Resolve("http://deb.debian.org/debian", "pool/main/c/curl/curl_8.5.0-2_amd64.deb")
	require.NoError(t, err)
	assert.Equal(t, "http://deb.debian.org/debian/pool/main/c/curl/curl_8.5.0-2_amd64.deb", got)

	got, err = Resolve("https://dl-cdn.alpinelinux.org/alpine/", "v3.19/main/x86_64/curl-8.5.0-r0.apk")
	require.NoError(t, err)
	assert.Equal(t, "https://dl-cdn.alpinelinux.org/alpine/v3.19/main/x86_64/curl-8.5.0-r0.apk", got)
}

func TestResolveLocal(t *testing.T) {
	dir := t.TempDir()
	index := filepath.Join(dir, "Packages")
	require.NoError(t, os.WriteFile(index, nil, 0644))

	b, err := Parse(index)
	require.NoError(t, err)
	assert.Equal(t, LocalFile, b.Kind)

	got, err := b.Resolve("pool/a.deb")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "pool", "a.deb"), got)

	got, err = b.Resolve("/srv/a.deb")
	require.NoError(t, err)
	assert.Equal(t, "/srv/a.deb", got)

	b, err = Parse("file://" + dir)
	require.NoError(t, err)
	assert.Equal(t, LocalDirectory, b.Kind)

	got, err = b.Resolve("pool/a.deb")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "pool", "a.deb"), got)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse("")
	assert.Error(t, err)

	_, err = BaseURI{Kind: URL, Value: "http://example.org"}.Resolve("")
	assert.Error(t, err)
}
