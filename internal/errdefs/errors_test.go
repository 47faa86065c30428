package errdefs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	t.Run("Wrapped errors match their kind", func(t *testing.T) {
		err := Wrap(ErrQuery, errors.New("boom"), "failed to search")
		assert.True(t, errors.Is(err, ErrQuery))
		assert.False(t, errors.Is(err, ErrConnection))
	})

	t.Run("The cause stays on the chain", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := Wrap(ErrConnection, cause, "server unreachable")
		assert.True(t, errors.Is(err, cause))
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("A nil cause still carries the kind", func(t *testing.T) {
		err := Wrap(ErrTimeRange, nil, "start after end")
		assert.True(t, errors.Is(err, ErrTimeRange))
	})

	t.Run("Wrapf formats the message", func(t *testing.T) {
		err := Wrapf(ErrNotFound, nil, "id file %s", "/tmp/ids.csv")
		assert.Contains(t, err.Error(), "/tmp/ids.csv")
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("Kinds survive another layer of wrapping", func(t *testing.T) {
		err := fmt.Errorf("while listing ids: %w", Wrap(ErrQuery, nil, "bad index"))
		assert.True(t, errors.Is(err, ErrQuery))
	})
}
