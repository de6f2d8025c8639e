package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"uk.co.dudmesh.profiles/internal/model"
)

type errorResponse struct {
	Success           bool     `json:"success"`
	Message           string   `json:"message"`
	Errors            []string `json:"errors,omitempty"`
	RemainingAttempts *int     `json:"remainingAttempts,omitempty"`
	Error             string   `json:"error,omitempty"`
}

var kindStatus = map[model.ErrorKind]int{
	model.KindValidation:   http.StatusBadRequest,
	model.KindNotFound:     http.StatusNotFound,
	model.KindLocked:       http.StatusLocked,
	model.KindUnauthorized: http.StatusUnauthorized,
	model.KindConflict:     http.StatusBadRequest,
	model.KindInternal:     http.StatusInternalServerError,
}

func StatusFor(kind model.ErrorKind) int {
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// responseStatus is the status a request ends with, whether the handler wrote
// the response itself or returned err for ErrorHandler to render.
func responseStatus(c echo.Context, err error) int {
	if err == nil {
		return c.Response().Status
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return StatusFor(model.KindOf(err))
}

// ErrorHandler renders every error returned by a handler or by echo itself.
// Internal error detail is only included when showDetail is set.
func ErrorHandler(showDetail bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := renderError(err, c, showDetail)

		var respErr error
		if c.Request().Method == http.MethodHead {
			respErr = c.NoContent(status)
		} else {
			respErr = c.JSON(status, body)
		}
		if respErr != nil {
			log.Errorf("writing error response: %v", respErr)
		}
	}
}

func renderError(err error, c echo.Context, showDetail bool) (int, *errorResponse) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		switch he.Code {
		case http.StatusNotFound, http.StatusMethodNotAllowed:
			return http.StatusNotFound, &errorResponse{
				Message: fmt.Sprintf("Route %s not found", c.Request().URL.RequestURI()),
			}
		case http.StatusRequestEntityTooLarge:
			return he.Code, &errorResponse{Message: "Request body too large"}
		}
		if he.Code >= http.StatusInternalServerError {
			log.Errorf("unhandled error: %v", he)
			return he.Code, &errorResponse{Message: model.MessageInternal}
		}
		return he.Code, &errorResponse{Message: fmt.Sprint(he.Message)}
	}

	e := model.AsError(err)
	body := &errorResponse{
		Message: e.Message,
		Errors:  e.Errors,
	}
	switch e.Kind {
	case model.KindUnauthorized:
		remaining := e.Remaining
		body.RemainingAttempts = &remaining
	case model.KindInternal:
		// services log their own internal errors before wrapping them
		var me *model.Error
		if !errors.As(err, &me) {
			log.Errorf("unhandled error: %v", err)
		}
		if showDetail && e.Err != nil {
			body.Error = e.Err.Error()
		}
	}
	return StatusFor(e.Kind), body
}
