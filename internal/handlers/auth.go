package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"uk.co.dudmesh.profiles/internal/model"
)

type AuthService interface {
	Login(ctx context.Context, params *model.LoginParams) (*model.LoginResult, error)
}

func Login(authService AuthService) echo.HandlerFunc {
	return func(c echo.Context) error {
		params := &model.LoginParams{}
		if err := c.Bind(params); err != nil {
			log.Warnf("binding login request: %v", err)
			return model.NewValidationError([]string{model.MessageInvalidBody})
		}

		log.Infof("received login request for email: %s", params.Email)

		result, err := authService.Login(c.Request().Context(), params)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, result)
	}
}
