// Package service writes fetched datasets to local files, either as
// plain CSV or as parquet for downstream columnar tooling.
package service

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mobiledna/datakit/internal/db/elasticsearch/bootstrapper"
	"github.com/mobiledna/datakit/internal/db/elasticsearch/model"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
	"go.uber.org/zap"
)

// Format selects the on-disk representation of an exported dataset.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
)

const parquetRowGroupSize = 16 * 1024 * 1024 // 16M

type ExportService struct {
	logger *zap.Logger
}

func NewExportService(logger *zap.Logger) *ExportService {
	return &ExportService{logger: logger}
}

// ExportDocuments writes the fetched documents of one index to
// <dir>/<name>_<index>.<format>. Column order follows the index's field
// catalog. IDs that produced no documents are skipped with a warning.
func (s *ExportService) ExportDocuments(
	dir string,
	name string,
	index string,
	documents map[string][]model.HitSource,
	format Format,
) error {
	if err := bootstrapper.ValidateIndex(index); err != nil {
		return err
	}
	if documents == nil {
		return fmt.Errorf("received no data to export for index %s", index)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create export directory %s: %w", dir, err)
	}

	rows := s.flatten(index, documents)
	if len(rows) == 0 {
		s.logger.Warn("No data to export", zap.String("index", index), zap.String("name", name))
		return nil
	}

	fields := bootstrapper.IndexFields[index]
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.%s", name, index, format))

	switch format {
	case FormatCSV:
		return s.writeCsv(path, fields, rows)
	case FormatParquet:
		return s.writeParquet(path, fields, rows)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

// ExportIdSet writes an identifier set back to a single-column CSV file
// at <dir>/<name>.csv, sorted for stable output.
func (s *ExportService) ExportIdSet(dir string, name string, ids map[string]struct{}) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create export directory %s: %w", dir, err)
	}

	sorted := make([]string, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)

	path := filepath.Join(dir, fmt.Sprintf("%s.csv", name))
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create id file %s: %w", path, err)
	}
	defer file.Close()

	csvWriter := csv.NewWriter(file)
	for _, id := range sorted {
		if err := csvWriter.Write([]string{id}); err != nil {
			return fmt.Errorf("failed to write id file %s: %w", path, err)
		}
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

func (s *ExportService) flatten(index string, documents map[string][]model.HitSource) []map[string]string {
	fields := bootstrapper.IndexFields[index]
	var rows []map[string]string
	for id, hits := range documents {
		if len(hits) == 0 {
			s.logger.Warn("Did not receive data for ID", zap.String("id", id))
			continue
		}
		for _, hit := range hits {
			row := make(map[string]string, len(fields))
			for _, field := range fields {
				row[field] = stringifyValue(hit.Source[field])
			}
			rows = append(rows, row)
		}
	}
	return rows
}

func (s *ExportService) writeCsv(path string, fields []string, rows []map[string]string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file %s: %w", path, err)
	}
	defer file.Close()

	csvWriter := csv.NewWriter(file)
	if err := csvWriter.Write(fields); err != nil {
		return fmt.Errorf("failed to write header to %s: %w", path, err)
	}
	record := make([]string, len(fields))
	for _, row := range rows {
		for i, field := range fields {
			record[i] = row[field]
		}
		if err := csvWriter.Write(record); err != nil {
			return fmt.Errorf("failed to write row to %s: %w", path, err)
		}
	}
	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return fmt.Errorf("failed to flush export file %s: %w", path, err)
	}

	s.logger.Info("Exported dataset", zap.String("path", path), zap.Int("rows", len(rows)))
	return nil
}

func (s *ExportService) writeParquet(path string, fields []string, rows []map[string]string) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("failed to create parquet file %s: %w", path, err)
	}

	pw, err := writer.NewJSONWriter(parquetSchema(fields), fw, 4)
	if err != nil {
		fw.Close()
		return fmt.Errorf("failed to create parquet writer for %s: %w", path, err)
	}
	pw.RowGroupSize = parquetRowGroupSize
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, row := range rows {
		rowJson, err := json.Marshal(row)
		if err != nil {
			fw.Close()
			return fmt.Errorf("failed to marshal row for %s: %w", path, err)
		}
		if err := pw.Write(string(rowJson)); err != nil {
			fw.Close()
			return fmt.Errorf("failed to write row to %s: %w", path, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		fw.Close()
		return fmt.Errorf("failed to finalize parquet file %s: %w", path, err)
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("failed to close parquet file %s: %w", path, err)
	}

	s.logger.Info("Exported dataset", zap.String("path", path), zap.Int("rows", len(rows)))
	return nil
}

func parquetSchema(fields []string) string {
	schema := struct {
		Tag    string `json:"Tag"`
		Fields []struct {
			Tag string `json:"Tag"`
		} `json:"Fields"`
	}{Tag: "name=parquet_go_root, repetitiontype=REQUIRED"}

	for _, field := range fields {
		schema.Fields = append(schema.Fields, struct {
			Tag string `json:"Tag"`
		}{Tag: fmt.Sprintf("name=%s, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL", field)})
	}

	out, _ := json.Marshal(schema)
	return string(out)
}

func stringifyValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		// JSON numbers decode as float64, render integers without a suffix
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	case bool:
		return fmt.Sprintf("%t", v)
	default:
		out, err := json.Marshal(v)
		if err != nil {
			return strings.TrimSpace(fmt.Sprintf("%v", v))
		}
		return string(out)
	}
}
