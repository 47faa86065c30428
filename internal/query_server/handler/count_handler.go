package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/mobiledna/datakit/internal/db/elasticsearch/bootstrapper"
	"github.com/mobiledna/datakit/internal/query_server/metrics"
	"github.com/mobiledna/datakit/internal/query_server/service"
	"go.uber.org/zap"
)

// CountHandler creates a handler counting the documents a set of
// identifiers logged in an index over a time range.
func CountHandler(
	ctx context.Context,
	qs service.IdsQueryService,
	logger *zap.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		failed := true
		defer func() {
			metrics.GetQueryMetrics().ObserveRequest("count", start, failed)
		}()

		var req CountRequestDTO
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			logger.Error("Error encountered when decoding request body", zap.Error(err))
			HttpError(w, "Invalid request payload", http.StatusBadRequest, logger)
			return
		}

		defer func(Body io.ReadCloser) {
			err := Body.Close()
			if err != nil {
				logger.Error("Error encountered when closing request body", zap.Error(err))
			}
		}(r.Body)

		if len(req.Ids) == 0 {
			HttpError(w, "At least one id is required", http.StatusBadRequest, logger)
			return
		}

		if err := bootstrapper.ValidateIndex(req.Index); err != nil {
			logger.Error("Rejected unknown index", zap.String("index", req.Index), zap.Error(err))
			HttpError(w, err.Error(), http.StatusBadRequest, logger)
			return
		}

		timeRange, err := parseTimeRange(req.StartTime, req.EndTime)
		if err != nil {
			logger.Error("Error encountered when parsing time range", zap.Error(err))
			HttpError(w, err.Error(), http.StatusBadRequest, logger)
			return
		}

		count, err := qs.CountDocuments(ctx, req.Index, req.Ids, timeRange)
		if err != nil {
			logger.Error("Error encountered when counting documents", zap.Error(err))
			HttpError(w, err.Error(), statusForError(err), logger)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(CountResponseDTO{Count: count}); err != nil {
			logger.Error("Error encountered when encoding response", zap.Error(err))
			HttpError(w, "Internal server error", http.StatusInternalServerError, logger)
			return
		}
		failed = false
	}
}
