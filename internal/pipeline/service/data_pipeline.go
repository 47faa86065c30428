// Package service chains fetch and export across indices into local
// datasets, mirroring how study data is pulled for analysis.
package service

import (
	"context"
	"path/filepath"

	"github.com/mobiledna/datakit/internal/db/elasticsearch/bootstrapper"
	exportService "github.com/mobiledna/datakit/internal/export/service"
	fetchService "github.com/mobiledna/datakit/internal/fetch/service"
	idsModel "github.com/mobiledna/datakit/internal/ids/model"
	"go.uber.org/zap"
)

// Options controls one pipeline run.
type Options struct {
	// Name prefixes every exported file.
	Name string
	// Dir is the export target directory.
	Dir string
	// Indices to pull; nil means all known event indices.
	Indices []string
	// Subfolder places each index's dataset in its own subdirectory.
	Subfolder bool
	// Format of the exported files.
	Format exportService.Format
}

type DataPipeline struct {
	fetchService  *fetchService.FetchService
	exportService *exportService.ExportService
	logger        *zap.Logger
}

func NewDataPipeline(
	fetchService *fetchService.FetchService,
	exportService *exportService.ExportService,
	logger *zap.Logger,
) *DataPipeline {
	return &DataPipeline{
		fetchService:  fetchService,
		exportService: exportService,
		logger:        logger,
	}
}

// Run pulls data for the given IDs across the requested indices and
// exports one dataset per index. IDs that fail to fetch are reported
// but do not abort the run.
func (dp *DataPipeline) Run(
	ctx context.Context,
	ids []string,
	timeRange idsModel.TimeRange,
	opts Options,
) ([]string, error) {
	if opts.Indices == nil {
		opts.Indices = bootstrapper.Indices()
	}

	dp.logger.Info(
		"Beginning pipeline",
		zap.Int("ids", len(ids)),
		zap.Time("start", timeRange.Start),
		zap.Time("end", timeRange.End),
	)

	var failed []string
	for _, index := range opts.Indices {
		dp.logger.Info("Getting started on index", zap.String("index", index))

		documents, failedIds, err := dp.fetchService.FetchIds(ctx, index, ids, timeRange)
		if err != nil {
			return nil, err
		}
		failed = append(failed, failedIds...)

		dir := opts.Dir
		if opts.Subfolder {
			dir = filepath.Join(opts.Dir, index)
		}
		if err := dp.exportService.ExportDocuments(dir, opts.Name, index, documents, opts.Format); err != nil {
			return nil, err
		}
	}

	dp.logger.Info("Pipeline done", zap.Int("failed_ids", len(failed)))
	return failed, nil
}

// RunSplit runs the pipeline once per ID, writing per-ID datasets named
// after the ID. It returns the IDs that could not be pulled.
func (dp *DataPipeline) RunSplit(
	ctx context.Context,
	ids []string,
	timeRange idsModel.TimeRange,
	opts Options,
) ([]string, error) {
	var failed []string
	for i, id := range ids {
		dp.logger.Info(
			"Getting started on ID",
			zap.String("id", id),
			zap.Int("position", i+1),
			zap.Int("total", len(ids)),
		)

		idOpts := opts
		idOpts.Name = id
		if _, err := dp.Run(ctx, []string{id}, timeRange, idOpts); err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			dp.logger.Warn("Failed to get data for ID", zap.String("id", id), zap.Error(err))
			failed = append(failed, id)
		}
	}

	dp.logger.Info("Split pipeline done", zap.Int("failed_ids", len(failed)))
	return failed, nil
}
