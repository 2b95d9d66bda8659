package main

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/flibisk/lowther-loudspeakers-sub001/internal/middleware"
	"github.com/flibisk/lowther-loudspeakers-sub001/internal/services"
)

type completeProfileRequest struct {
	DisplayName string  `json:"displayName"`
	FullName    *string `json:"fullName,omitempty"`
	Address     *string `json:"address,omitempty"`
	Country     *string `json:"country,omitempty"`
	Equipment   *string `json:"equipment,omitempty"`
}

type setPasswordRequest struct {
	Password string `json:"password"`
}

// completeProfileHandler finishes first-time signup: the display name is
// required and must be unique; the rest is optional. The session cookies
// are reissued so the readable profile cookie picks up the new name.
func completeProfileHandler(profileSvc *services.ProfileService, sessions *middleware.SessionManager) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req completeProfileRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"success": false,
				"error":   "validation",
				"message": "invalid request",
			})
		}

		id, ok := middleware.UserID(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, echo.Map{
				"success": false,
				"error":   "unauthorized",
				"message": "sign in required",
			})
		}

		u, err := profileSvc.Complete(c.Request().Context(), id, services.CompleteProfileRequest{
			DisplayName: req.DisplayName,
			FullName:    req.FullName,
			Address:     req.Address,
			Country:     req.Country,
			Equipment:   req.Equipment,
		})
		if err != nil {
			return errorJSON(c, err)
		}

		if err := sessions.Issue(c, u); err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{
			"success": true,
			"user":    userJSON(u),
		})
	}
}

func setPasswordHandler(profileSvc *services.ProfileService) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req setPasswordRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"success": false,
				"error":   "validation",
				"message": "invalid request",
			})
		}

		id, ok := middleware.UserID(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, echo.Map{
				"success": false,
				"error":   "unauthorized",
				"message": "sign in required",
			})
		}

		if err := profileSvc.SetPassword(c.Request().Context(), id, req.Password); err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{
			"success": true,
			"message": "password set",
		})
	}
}

func registerProfileRoutes(g *echo.Group, profileSvc *services.ProfileService, sessions *middleware.SessionManager) {
	profile := g.Group("/profile")
	profile.Use(sessions.Require())

	profile.POST("/complete", completeProfileHandler(profileSvc, sessions))
	profile.POST("/password", setPasswordHandler(profileSvc))
}
