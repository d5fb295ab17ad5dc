package handlers

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/zhuliguang/Sidekick/internal/engine"
	"github.com/zhuliguang/Sidekick/internal/trade"
)

// apiError maps engine and trade errors onto HTTP status codes.
func apiError(err error) error {
	switch {
	case errors.Is(err, engine.ErrNotReady), errors.Is(err, engine.ErrNotInitialized):
		return huma.Error503ServiceUnavailable(err.Error())
	case errors.Is(err, trade.ErrNoLeagueSelected):
		return huma.Error412PreconditionFailed(err.Error())
	case errors.Is(err, engine.ErrUnknownLeague):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, trade.ErrUnsupportedItem):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, trade.ErrDispatchFailed):
		return huma.Error502BadGateway(err.Error())
	default:
		return huma.Error500InternalServerError(err.Error())
	}
}
