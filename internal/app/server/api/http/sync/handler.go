package sync

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"wellnest/internal/domain/outbox"
	"wellnest/internal/domain/sync"
)

type Handler struct {
	service    sync.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service sync.Servicer, log *slog.Logger, middleware huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log,
		middleware: middleware,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.pushOp(), h.push)
	huma.Register(api, h.listRowsOp(), h.listRows)
}

func (h *Handler) push(ctx context.Context, input *pushInput) (*pushOutput, error) {
	result, err := h.service.ProcessBatch(ctx, input.Body)
	if err != nil {
		return nil, h.toHTTPError(err)
	}

	return &pushOutput{
		Body: outbox.SyncResponse{Data: *result},
	}, nil
}

func (h *Handler) listRows(ctx context.Context, input *listRowsInput) (*listRowsOutput, error) {
	response, err := h.service.ListRows(ctx, input.Table)
	if err != nil {
		return nil, h.toHTTPError(err)
	}

	return &listRowsOutput{
		Body: *response,
	}, nil
}

func (h *Handler) toHTTPError(err error) error {
	switch {
	case errors.Is(err, sync.ErrUnauthenticated):
		return huma.Error401Unauthorized("unauthorized")
	case errors.Is(err, sync.ErrUnknownTable):
		return huma.Error404NotFound(err.Error())
	default:
		h.log.Error("sync request failed", slog.Any("error", err))
		return huma.Error500InternalServerError("internal error")
	}
}
