package router

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/mobiledna/datakit/internal/query_server/handler"
	"github.com/mobiledna/datakit/internal/query_server/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func CreateRouter(
	ctx context.Context,
	idsQueryService service.IdsQueryService,
	logger *zap.Logger,
) http.Handler {
	r := mux.NewRouter()

	r.Handle(
		"/ids", handler.IdsHandler(
			ctx,
			idsQueryService,
			logger,
		),
	).Methods("POST")

	r.Handle(
		"/count", handler.CountHandler(
			ctx,
			idsQueryService,
			logger,
		),
	).Methods("POST")

	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	return r
}
