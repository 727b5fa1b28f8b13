package api

import (
	"errors"

	"RiskPulse/internal/domain/models"
	"RiskPulse/internal/usecase"
	xhttp "RiskPulse/pkg/http"
	applogger "RiskPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RiskEchoHandler exposes the risk engine to the presentation layer.
type RiskEchoHandler struct {
	logger *applogger.Logger
	engine *usecase.Engine
}

func NewRiskEchoHandler(logger *applogger.Logger, engine *usecase.Engine) *RiskEchoHandler {
	return &RiskEchoHandler{logger: logger, engine: engine}
}

func (h *RiskEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/risk")
	g.GET("/history", h.History)
	g.GET("/multifactor", h.MultiFactor)
	g.GET("/confidence", h.Confidence)
	g.DELETE("/cache", h.ClearCache)
}

func (h *RiskEchoHandler) History(c echo.Context) error {
	req := &models.RiskHistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.engine.RiskHistory(c.Request().Context(), req.Asset, req.Days)
	if err != nil {
		return h.errorResponse(c, "risk history", req.Asset, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *RiskEchoHandler) MultiFactor(c echo.Context) error {
	req := &models.MultiFactorRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.engine.MultiFactorRisk(c.Request().Context(), req.Asset, req.Refresh)
	if err != nil {
		return h.errorResponse(c, "multifactor risk", req.Asset, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *RiskEchoHandler) Confidence(c echo.Context) error {
	req := &models.ConfidenceRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.engine.Confidence(c.Request().Context(), req.Asset)
	if err != nil {
		return h.errorResponse(c, "confidence", req.Asset, err)
	}
	return xhttp.SuccessResponse(c, res)
}

// ClearCache drops one asset's cached results, or everything when no asset
// is given.
func (h *RiskEchoHandler) ClearCache(c echo.Context) error {
	req := &models.ClearCacheRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	var err error
	if req.Asset == "" {
		err = h.engine.ClearAll(c.Request().Context())
	} else {
		err = h.engine.ClearAsset(c.Request().Context(), req.Asset)
	}
	if err != nil {
		return h.errorResponse(c, "clear cache", req.Asset, err)
	}
	return xhttp.NoContentResponse(c)
}

func (h *RiskEchoHandler) errorResponse(c echo.Context, op, asset string, err error) error {
	switch {
	case errors.Is(err, models.ErrConfigMissing):
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("unknown asset %q", asset))
	case errors.Is(err, models.ErrDataInsufficient):
		return xhttp.AppErrorResponse(c, xhttp.UnprocessableError("not enough price data for a regression fit"))
	}
	h.logger.Error(op+" failed",
		applogger.String("asset", asset),
		applogger.Error(err),
	)
	return xhttp.AppErrorResponse(c, err)
}
