package main

import (
	"sort"
	"time"

	"github.com/mobiledna/datakit/internal/db/elasticsearch/client"
	"github.com/mobiledna/datakit/internal/errdefs"
	idsModel "github.com/mobiledna/datakit/internal/ids/model"
	idsService "github.com/mobiledna/datakit/internal/ids/service"
)

// Default window mirrors the historical study range: everything.
const (
	defaultStart = "2018-01-01T00:00:00.000"
	defaultEnd   = "2030-01-01T00:00:00.000"
)

var timestampLayouts = []string{
	client.StoreTimeFormat,
	time.RFC3339,
	"2006-01-02",
}

func parseTimeArg(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errdefs.Wrapf(errdefs.ErrFormat, nil, "unparsable timestamp %q", value)
}

func parseTimeRangeArgs(start string, end string) (idsModel.TimeRange, error) {
	startTime, err := parseTimeArg(start)
	if err != nil {
		return idsModel.TimeRange{}, err
	}
	endTime, err := parseTimeArg(end)
	if err != nil {
		return idsModel.TimeRange{}, err
	}
	return idsModel.NewTimeRange(startTime, endTime)
}

// selectIds applies optional random sampling, then ranks the remaining
// ids richest first and truncates to top (0 means all).
func selectIds(ids map[string]int64, randomN int, top int) ([]idsModel.IdCount, error) {
	if randomN > 0 {
		sampled, err := idsService.RandomIds(ids, randomN)
		if err != nil {
			return nil, err
		}
		ids = sampled
	}
	return idsService.RichestIds(ids, top), nil
}

// resolveIds returns the explicit ids when given, otherwise the sorted
// contents of the id file in dir.
func resolveIds(explicit []string, dir string, fileName string) ([]string, error) {
	if len(explicit) > 0 {
		return explicit, nil
	}
	idSet, err := idsService.IdsFromFile(dir, fileName, "")
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
