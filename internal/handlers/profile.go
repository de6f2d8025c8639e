package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"uk.co.dudmesh.profiles/internal/model"
	"uk.co.dudmesh.profiles/internal/validate"
	"uk.co.dudmesh.profiles/pkg/dataurl"
)

type ProfileService interface {
	Create(ctx context.Context, params *model.CreateProfileParams) (model.ProfileID, error)
}

type createProfileResponse struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	ProfileID model.ProfileID `json:"profileId"`
}

func CreateProfile(profileService ProfileService) echo.HandlerFunc {
	return func(c echo.Context) error {
		params := &model.CreateProfileParams{}
		if err := c.Bind(params); err != nil {
			log.Warnf("binding profile request: %v", err)
			return model.NewValidationError([]string{model.MessageInvalidBody})
		}

		if isForm(c) {
			params.Interests = splitInterests(params.Interests)
		}
		if isMultipart(c) && params.ProfilePicture == "" {
			picture, err := pictureFromFile(c)
			if err != nil {
				return err
			}
			params.ProfilePicture = picture
		}

		log.Infof("received profile creation request: email=%s firstName=%s lastName=%s", params.Email, params.FirstName, params.LastName)

		id, err := profileService.Create(c.Request().Context(), params)
		if err != nil {
			return err
		}

		return c.JSON(http.StatusCreated, &createProfileResponse{
			Success:   true,
			Message:   model.MessageProfileCreated,
			ProfileID: id,
		})
	}
}

func isForm(c echo.Context) bool {
	ctype := c.Request().Header.Get(echo.HeaderContentType)
	return strings.HasPrefix(ctype, echo.MIMEApplicationForm) || strings.HasPrefix(ctype, echo.MIMEMultipartForm)
}

func isMultipart(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}

// splitInterests accepts a single comma separated form value as well as
// repeated fields.
func splitInterests(interests model.Interests) model.Interests {
	if len(interests) != 1 || !strings.Contains(interests[0], ",") {
		return interests
	}
	parts := strings.Split(interests[0], ",")
	out := make(model.Interests, 0, len(parts))
	for _, part := range parts {
		out = append(out, strings.TrimSpace(part))
	}
	return out
}

// pictureFromFile turns an uploaded profilePicture file part into a data URL.
// Reading stops one byte past the size limit so validation can reject it.
func pictureFromFile(c echo.Context) (string, error) {
	fileHeader, err := c.FormFile("profilePicture")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", fmt.Errorf("reading profile picture part: %w", err)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("opening profile picture part: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, validate.MaxImageBytes+1))
	if err != nil {
		return "", fmt.Errorf("reading profile picture part: %w", err)
	}

	mediaType := http.DetectContentType(data)
	if ctype := fileHeader.Header.Get(echo.HeaderContentType); validate.IsImageType(ctype) {
		mediaType = ctype
	}
	return dataurl.Encode(mediaType, data), nil
}
