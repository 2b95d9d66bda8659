package main

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/flibisk/lowther-loudspeakers-sub001/internal/middleware"
	"github.com/flibisk/lowther-loudspeakers-sub001/internal/model"
	"github.com/flibisk/lowther-loudspeakers-sub001/internal/services"
)

type authRequest struct {
	Action string `json:"action"`
	Email  string `json:"email"`
	Code   string `json:"code,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func userJSON(u *model.User) echo.Map {
	return echo.Map{
		"id":          u.ID,
		"email":       u.Email,
		"displayName": u.DisplayName,
	}
}

// errorJSON maps service errors onto the closed error-kind set. Internal
// details never reach the client.
func errorJSON(c echo.Context, err error) error {
	kind := services.ErrorKind(err)

	status := http.StatusBadRequest
	message := err.Error()
	switch kind {
	case "service_unavailable":
		status = http.StatusServiceUnavailable
	case "conflict":
		status = http.StatusConflict
	case "unauthorized":
		status = http.StatusUnauthorized
	case "internal":
		status = http.StatusInternalServerError
		message = "something went wrong, please try again"
	}

	return c.JSON(status, echo.Map{
		"success": false,
		"error":   kind,
		"message": message,
	})
}

// authHandler is the single passwordless-auth endpoint: send-code issues
// and emails a one-time code, verify-code consumes it and signs the
// caller in.
func authHandler(authSvc *services.AuthService, sessions *middleware.SessionManager) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req authRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"success": false,
				"error":   "validation",
				"message": "invalid request",
			})
		}

		switch req.Action {
		case "send-code":
			if err := authSvc.RequestCode(c.Request().Context(), req.Email); err != nil {
				return errorJSON(c, err)
			}
			return c.JSON(http.StatusOK, echo.Map{
				"success": true,
				"message": "verification code sent",
			})

		case "verify-code":
			res, err := authSvc.VerifyCode(c.Request().Context(), req.Email, req.Code)
			if err != nil {
				return errorJSON(c, err)
			}
			if err := sessions.Issue(c, res.User); err != nil {
				return errorJSON(c, err)
			}
			resp := echo.Map{
				"success":       true,
				"isNewUser":     res.IsNewUser,
				"needsUsername": res.NeedsUsername,
				"user":          userJSON(res.User),
			}
			if res.IsNewUser {
				resp["discountCode"] = res.DiscountCode
				resp["discountPercent"] = res.DiscountPercent
			}
			return c.JSON(http.StatusOK, resp)

		default:
			return c.JSON(http.StatusBadRequest, echo.Map{
				"success": false,
				"error":   "validation",
				"message": "unknown action",
			})
		}
	}
}

func loginHandler(authSvc *services.AuthService, sessions *middleware.SessionManager) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req loginRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"success": false,
				"error":   "validation",
				"message": "invalid request",
			})
		}

		user, err := authSvc.LoginWithPassword(c.Request().Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, services.ErrInvalidCredentials) {
				// do not reveal whether the email exists
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"success": false,
					"error":   "unauthorized",
					"message": "invalid credentials",
				})
			}
			return errorJSON(c, err)
		}

		if err := sessions.Issue(c, user); err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{
			"success": true,
			"user":    userJSON(user),
		})
	}
}

func signoutHandler(sessions *middleware.SessionManager) echo.HandlerFunc {
	return func(c echo.Context) error {
		sessions.Clear(c)
		return c.JSON(http.StatusOK, echo.Map{
			"success": true,
			"message": "signed out",
		})
	}
}

// meHandler returns the signed-in user's profile.
func meHandler(userSvc *services.UserService) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := middleware.UserID(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, echo.Map{
				"success": false,
				"error":   "unauthorized",
				"message": "sign in required",
			})
		}
		u, err := userSvc.GetByID(c.Request().Context(), id)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{
			"success": true,
			"user":    userJSON(u),
		})
	}
}

func registerAuthRoutes(g *echo.Group, authSvc *services.AuthService, userSvc *services.UserService,
	sessions *middleware.SessionManager) {
	auth := g.Group("/auth")

	// public
	auth.POST("", authHandler(authSvc, sessions))
	auth.POST("/login", loginHandler(authSvc, sessions))
	auth.POST("/signout", signoutHandler(sessions))

	// authenticated
	auth.GET("/me", meHandler(userSvc), sessions.Require())
}
