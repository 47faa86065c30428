package bootstrapper

import (
	"errors"
	"testing"

	"github.com/mobiledna/datakit/internal/errdefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeField(t *testing.T) {
	t.Run("Each index has its own timestamp field", func(t *testing.T) {
		expected := map[string]string{
			"appevents":     "startTime",
			"notifications": "time",
			"sessions":      "timestamp",
			"logs":          "date",
			"connectivity":  "timestamp",
		}
		for index, field := range expected {
			got, err := TimeField(index)
			require.NoError(t, err)
			assert.Equal(t, field, got)
		}
	})

	t.Run("Unknown index fails with query kind", func(t *testing.T) {
		_, err := TimeField("surveys")
		assert.True(t, errors.Is(err, errdefs.ErrQuery))
	})
}

func TestValidateIndex(t *testing.T) {
	assert.NoError(t, ValidateIndex(AppeventsIndexName))
	assert.Error(t, ValidateIndex(AllIndexName)) // the wildcard alias is not a queryable event type
}

func TestIndexMapping(t *testing.T) {
	mapping := indexMapping(AppeventsIndexName)

	mappings, ok := mapping["mappings"].(map[string]interface{})
	require.True(t, ok)
	properties, ok := mappings["properties"].(map[string]interface{})
	require.True(t, ok)

	idField, ok := properties["id"].(map[string]interface{})
	require.True(t, ok)
	fields, ok := idField["fields"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, fields, "keyword")

	assert.Contains(t, properties, "startTime")
}

func TestIndices(t *testing.T) {
	assert.Len(t, Indices(), 5)
	for _, index := range Indices() {
		assert.NoError(t, ValidateIndex(index))
	}
}
