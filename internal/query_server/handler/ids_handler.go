package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/mobiledna/datakit/internal/db/elasticsearch/bootstrapper"
	idsService "github.com/mobiledna/datakit/internal/ids/service"
	"github.com/mobiledna/datakit/internal/query_server/metrics"
	"github.com/mobiledna/datakit/internal/query_server/service"
	"go.uber.org/zap"
)

// IdsHandler creates a handler listing the identifiers active in an
// index over a time range, richest first.
func IdsHandler(
	ctx context.Context,
	qs service.IdsQueryService,
	logger *zap.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		failed := true
		defer func() {
			metrics.GetQueryMetrics().ObserveRequest("ids", start, failed)
		}()

		var req IdsRequestDTO
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

		ids, err := qs.IdsInRange(ctx, req.Index, timeRange)
		if err != nil {
			logger.Error("Error encountered when listing ids", zap.Error(err))
			HttpError(w, err.Error(), statusForError(err), logger)
			return
		}

		response := IdsResponseDTO{Ids: make([]IdCountDTO, 0, len(ids)), Total: len(ids)}
		for _, idCount := range idsService.RichestIds(ids, 0) {
			response.Ids = append(response.Ids, IdCountDTO{Id: idCount.Id, Count: idCount.Count})
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(response); err != nil {
			logger.Error("Error encountered when encoding response", zap.Error(err))
			HttpError(w, "Internal server error", http.StatusInternalServerError, logger)
			return
		}
		failed = false
	}
}
