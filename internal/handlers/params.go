package handlers

import (
	"tablekeep/internal/common"
	"tablekeep/internal/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// PageRequest represents pagination query parameters
type PageRequest struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

func bindPage(c echo.Context) (PageRequest, error) {
	var req PageRequest
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &req); err != nil {
		return req, common.NewError(common.KindInvalid, "Invalid query parameters")
	}
	limit, offset, err := common.ValidatePaginationParams(req.Limit, req.Offset)
	if err != nil {
		return req, common.WrapError(common.KindInvalid, "Invalid query parameters", err)
	}
	return PageRequest{Limit: limit, Offset: offset}, nil
}

func pathID(c echo.Context, name string) (uuid.UUID, error) {
	return common.ValidateUUID(c.Param(name), name)
}

func queryDate(c echo.Context) (models.Date, error) {
	raw := c.QueryParam("date")
	if raw == "" {
		return models.Date{}, common.NewError(common.KindInvalid, "date is required")
	}
	date, err := models.ParseDate(raw)
	if err != nil {
		return models.Date{}, common.WrapError(common.KindInvalid, "invalid date", err)
	}
	return date, nil
}

func bindBody(c echo.Context, dest interface{}) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, dest); err != nil {
		return common.WrapError(common.KindInvalid, "Invalid request format", err)
	}
	return nil
}
