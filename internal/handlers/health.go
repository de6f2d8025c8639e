package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type healthResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

func Health() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, &healthResponse{
			Status:    "ok",
			Message:   "API is running",
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		})
	}
}
