package service

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/mobiledna/datakit/internal/db/elasticsearch/model"
	idsService "github.com/mobiledna/datakit/internal/ids/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"
	"go.uber.org/zap"
)

func appeventHit(id string, application string, battery float64) model.HitSource {
	return model.HitSource{
		ID: "doc-" + id,
		Source: map[string]interface{}{
			"id":          id,
			"application": application,
			"battery":     battery,
			"model":       "test-device",
		},
	}
}

func TestExportIdSet(t *testing.T) {
	logger := zap.NewNop()
	s := NewExportService(logger)

	t.Run("Round trips through IdsFromFile", func(t *testing.T) {
		dir := t.TempDir()
		ids := map[string]struct{}{"id1": {}, "id2": {}, "id3": {}}

		require.NoError(t, s.ExportIdSet(dir, "ids", ids))

		readBack, err := idsService.IdsFromFile(dir, "ids", "csv")
		require.NoError(t, err)
		assert.Equal(t, ids, readBack)
	})

	t.Run("Writes ids sorted one per line", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, s.ExportIdSet(dir, "ids", map[string]struct{}{"b": {}, "a": {}}))

		content, err := os.ReadFile(filepath.Join(dir, "ids.csv"))
		require.NoError(t, err)
		assert.Equal(t, "a\nb\n", string(content))
	})
}

func TestExportDocumentsCsv(t *testing.T) {
	logger := zap.NewNop()
	s := NewExportService(logger)

	t.Run("Writes a header and one row per document", func(t *testing.T) {
		dir := t.TempDir()
		documents := map[string][]model.HitSource{
			"id1": {appeventHit("id1", "mail", 80), appeventHit("id1", "maps", 79)},
			"id2": {appeventHit("id2", "chat", 50)},
		}

		require.NoError(t, s.ExportDocuments(dir, "study", "appevents", documents, FormatCSV))

		file, err := os.Open(filepath.Join(dir, "study_appevents.csv"))
		require.NoError(t, err)
		defer file.Close()

		records, err := csv.NewReader(file).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 4)

		header := records[0]
		assert.Contains(t, header, "application")
		assert.Contains(t, header, "startTime")

		applicationCol := -1
		for i, field := range header {
			if field == "application" {
				applicationCol = i
			}
		}
		require.GreaterOrEqual(t, applicationCol, 0)

		var applications []string
		for _, record := range records[1:] {
			applications = append(applications, record[applicationCol])
		}
		assert.ElementsMatch(t, []string{"mail", "maps", "chat"}, applications)
	})

	t.Run("Skips ids without documents", func(t *testing.T) {
		dir := t.TempDir()
		documents := map[string][]model.HitSource{
			"id1":   {appeventHit("id1", "mail", 80)},
			"empty": {},
		}

		require.NoError(t, s.ExportDocuments(dir, "study", "appevents", documents, FormatCSV))

		file, err := os.Open(filepath.Join(dir, "study_appevents.csv"))
		require.NoError(t, err)
		defer file.Close()

		records, err := csv.NewReader(file).ReadAll()
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("Rejects an unknown index", func(t *testing.T) {
		err := s.ExportDocuments(t.TempDir(), "study", "surveys", map[string][]model.HitSource{}, FormatCSV)
		assert.Error(t, err)
	})

	t.Run("Rejects nil data", func(t *testing.T) {
		err := s.ExportDocuments(t.TempDir(), "study", "appevents", nil, FormatCSV)
		assert.Error(t, err)
	})

	t.Run("Rejects an unsupported format", func(t *testing.T) {
		documents := map[string][]model.HitSource{"id1": {appeventHit("id1", "mail", 80)}}
		err := s.ExportDocuments(t.TempDir(), "study", "appevents", documents, Format("pickle"))
		assert.Error(t, err)
	})
}

func TestExportDocumentsParquet(t *testing.T) {
	logger := zap.NewNop()
	s := NewExportService(logger)

	dir := t.TempDir()
	documents := map[string][]model.HitSource{
		"id1": {appeventHit("id1", "mail", 80), appeventHit("id1", "maps", 79)},
	}

	require.NoError(t, s.ExportDocuments(dir, "study", "appevents", documents, FormatParquet))

	path := filepath.Join(dir, "study_appevents.parquet")
	fr, err := local.NewLocalFileReader(path)
	require.NoError(t, err)
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, nil, 1)
	require.NoError(t, err)
	defer pr.ReadStop()

	assert.Equal(t, int64(2), pr.GetNumRows())
}

func TestStringifyValue(t *testing.T) {
	assert.Equal(t, "", stringifyValue(nil))
	assert.Equal(t, "mail", stringifyValue("mail"))
	assert.Equal(t, "80", stringifyValue(float64(80)))
	assert.Equal(t, "79.5", stringifyValue(79.5))
	assert.Equal(t, "true", stringifyValue(true))
}
