package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"

	"github.com/mobiledna/datakit/internal/db/elasticsearch/bootstrapper"
	"github.com/mobiledna/datakit/internal/db/elasticsearch/client"
	"github.com/mobiledna/datakit/internal/errdefs"
	"github.com/mobiledna/datakit/internal/ids/model"
	"go.uber.org/zap"
)

const (
	DefaultIdsFileName = "ids"
	DefaultIdsFileType = "csv"

	idsPageSize = 1000
)

// IdsService enumerates subject identifiers, either from a local
// single-column CSV file or from the log store itself.
type IdsService struct {
	sc     client.StoreClient
	logger *zap.Logger
}

func NewIdsService(sc client.StoreClient, logger *zap.Logger) *IdsService {
	return &IdsService{
		sc:     sc,
		logger: logger,
	}
}

// IdsFromFile reads identifiers from a single-column CSV file. Empty
// fileName or fileType fall back to "ids" and "csv". Duplicate rows
// collapse into one set entry.
func (s *IdsService) IdsFromFile(dir string, fileName string, fileType string) (map[string]struct{}, error) {
	return IdsFromFile(dir, fileName, fileType)
}

// IdsFromFile is the connectionless form; reading a local id list does
// not require a store session.
func IdsFromFile(dir string, fileName string, fileType string) (map[string]struct{}, error) {
	if fileName == "" {
		fileName = DefaultIdsFileName
	}
	if fileType == "" {
		fileType = DefaultIdsFileType
	}
	path := filepath.Join(dir, fmt.Sprintf("%s.%s", fileName, fileType))

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errdefs.Wrapf(errdefs.ErrNotFound, err, "id file %s", path)
		}
		return nil, fmt.Errorf("failed to open id file %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = 1

	idSet := make(map[string]struct{})
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errdefs.Wrapf(errdefs.ErrFormat, err, "id file %s must have exactly one column", path)
		}
		idSet[record[0]] = struct{}{}
	}

	return idSet, nil
}

// IdsFromServer lists the identifiers that logged documents of the given
// index within the time range, with their document counts. The listing
// is paginated on the store side; the result holds every page.
func (s *IdsService) IdsFromServer(
	ctx context.Context,
	index string,
	timeRange model.TimeRange,
) (map[string]int64, error) {
	timeField, err := bootstrapper.TimeField(index)
	if err != nil {
		return nil, err
	}
	if err := timeRange.Validate(); err != nil {
		return nil, err
	}

	s.logger.Info(
		"Getting IDs with logged documents",
		zap.String("index", index),
		zap.Time("start", timeRange.Start),
		zap.Time("end", timeRange.End),
	)

	query := buildTimeRangeQuery(timeField, timeRange)
	ids := make(map[string]int64)
	for page := range s.sc.CompositeAggregate(ctx, index, query, idsPageSize) {
		if page.Err != nil {
			return nil, page.Err
		}
		for _, bucket := range page.Buckets {
			ids[bucket.Id] = bucket.DocCount
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, errdefs.Wrap(errdefs.ErrQuery, err, "id listing interrupted")
	}

	s.logger.Info("Found active IDs", zap.Int("count", len(ids)), zap.String("index", index))
	return ids, nil
}

// coreIndices are the event types every well-behaved subject logs to.
// The logs index only receives a document when logging starts, so it
// drops out of most time ranges and is not part of the intersection.
var coreIndices = []string{
	bootstrapper.SessionsIndexName,
	bootstrapper.NotificationsIndexName,
	bootstrapper.AppeventsIndexName,
}

// CommonIds returns the identifiers present in sessions, notifications
// and appevents within the range, with counts taken from the given index.
func (s *IdsService) CommonIds(
	ctx context.Context,
	index string,
	timeRange model.TimeRange,
) (map[string]int64, error) {
	if err := bootstrapper.ValidateIndex(index); err != nil {
		return nil, err
	}

	perIndex := make(map[string]map[string]int64, len(coreIndices))
	for _, coreIndex := range coreIndices {
		ids, err := s.IdsFromServer(ctx, coreIndex, timeRange)
		if err != nil {
			return nil, err
		}
		perIndex[coreIndex] = ids
	}

	counts, ok := perIndex[index]
	if !ok {
		var err error
		counts, err = s.IdsFromServer(ctx, index, timeRange)
		if err != nil {
			return nil, err
		}
	}

	common := make(map[string]int64)
	for id := range perIndex[coreIndices[0]] {
		inAll := true
		for _, coreIndex := range coreIndices[1:] {
			if _, found := perIndex[coreIndex][id]; !found {
				inAll = false
				break
			}
		}
		if !inAll {
			continue
		}
		if count, found := counts[id]; found {
			common[id] = count
		}
	}

	s.logger.Info("Found IDs common to all core indices", zap.Int("count", len(common)))
	return common, nil
}

// RichestIds returns the top IDs by document count in descending order.
// top == 0 means the full sorted listing.
func RichestIds(ids map[string]int64, top int) []model.IdCount {
	ranked := make([]model.IdCount, 0, len(ids))
	for id, count := range ids {
		ranked = append(ranked, model.IdCount{Id: id, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Id < ranked[j].Id
	})
	if top > 0 && top < len(ranked) {
		ranked = ranked[:top]
	}
	return ranked
}

// RandomIds returns a uniform sample of n IDs with their counts.
func RandomIds(ids map[string]int64, n int) (map[string]int64, error) {
	if n > len(ids) {
		return nil, fmt.Errorf("cannot sample %d ids from a population of %d", n, len(ids))
	}
	population := make([]string, 0, len(ids))
	for id := range ids {
		population = append(population, id)
	}
	sort.Strings(population)
	rand.Shuffle(len(population), func(i, j int) {
		population[i], population[j] = population[j], population[i]
	})

	sample := make(map[string]int64, n)
	for _, id := range population[:n] {
		sample[id] = ids[id]
	}
	return sample, nil
}
