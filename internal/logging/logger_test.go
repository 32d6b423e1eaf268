package logging_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artistgrid/gridtracker/internal/logging"
)

func TestNew(t *testing.T) {
	t.Run("Development", func(t *testing.T) {
		logger, err := logging.New(true)
		require.NoError(t, err)
		assert.NotNil(t, logger)
	})

	t.Run("Production", func(t *testing.T) {
		logger, err := logging.New(false)
		require.NoError(t, err)
		assert.NotNil(t, logger)
	})
}
