package downhost_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artistgrid/gridtracker/internal/downhost"
)

func TestLog(t *testing.T) {
	t.Run("AppendAndRead", func(t *testing.T) {
		log := downhost.New(filepath.Join(t.TempDir(), "host", "down.txt"))

		require.NoError(t, log.Append("https://one/export?format=xlsx"))
		require.NoError(t, log.Append("https://two/export?format=zip"))

		data, err := log.Read()
		require.NoError(t, err)
		assert.Equal(t, "https://one/export?format=xlsx\nhttps://two/export?format=zip\n", string(data))
	})

	t.Run("NoDedup", func(t *testing.T) {
		log := downhost.New(filepath.Join(t.TempDir(), "down.txt"))
		require.NoError(t, log.Append("https://same/"))
		require.NoError(t, log.Append("https://same/"))

		data, err := log.Read()
		require.NoError(t, err)
		assert.Equal(t, "https://same/\nhttps://same/\n", string(data))
	})

	t.Run("MissingFileReadsEmpty", func(t *testing.T) {
		log := downhost.New(filepath.Join(t.TempDir(), "absent.txt"))
		data, err := log.Read()
		require.NoError(t, err)
		assert.Empty(t, data)
	})
}
