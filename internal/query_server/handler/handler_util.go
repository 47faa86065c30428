package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/mobiledna/datakit/internal/db/elasticsearch/client"
	"github.com/mobiledna/datakit/internal/errdefs"
	idsModel "github.com/mobiledna/datakit/internal/ids/model"
	"go.uber.org/zap"
)

func HttpError(w http.ResponseWriter, message string, code int, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(ErrorMessage{Message: message}); err != nil {
		logger.Error("Error encountered when encoding error response", zap.Error(err))
	}
}

// statusForError maps the data-layer error kinds onto HTTP codes:
// caller mistakes are 400, remote store trouble is 502.
func statusForError(err error) int {
	switch {
	case errors.Is(err, errdefs.ErrTimeRange), errors.Is(err, errdefs.ErrFormat):
		return http.StatusBadRequest
	case errors.Is(err, errdefs.ErrQuery), errors.Is(err, errdefs.ErrConnection):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func parseTimeRange(startTime string, endTime string) (idsModel.TimeRange, error) {
	start, err := parseTimestamp(startTime)
	if err != nil {
		return idsModel.TimeRange{}, err
	}
	end, err := parseTimestamp(endTime)
	if err != nil {
		return idsModel.TimeRange{}, err
	}
	return idsModel.NewTimeRange(start, end)
}

func parseTimestamp(value string) (time.Time, error) {
	if t, err := time.Parse(client.StoreTimeFormat, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, errdefs.Wrapf(errdefs.ErrFormat, err, "unparsable timestamp %q", value)
	}
	return t, nil
}
