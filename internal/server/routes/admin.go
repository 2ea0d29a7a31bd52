package routes

import (
	"crypto/hmac"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/jmelnik/ingestgate/internal/app/ports"
)

// AdminRoutes is the out-of-band provisioning surface for subscription
// records. Accounts are only ever created and topped up here; the ingest
// path never mutates anything except quota debits, and nothing deletes a
// record.
type AdminRoutes struct {
	store ports.SubscriptionStore
	token string
}

type createSubscriptionRequest struct {
	MunchkinID string `json:"munchkinId"`
	APIKey     string `json:"apiKey"`
	Quota      int64  `json:"quota"`
}

type addCreditsRequest struct {
	Credits int64 `json:"credits"`
}

type subscriptionResponse struct {
	MunchkinID string `json:"munchkinId"`
	HasAPIKey  bool   `json:"hasApiKey"`
	Quota      int64  `json:"quota"`
}

// NewAdminRoutes constructs the provisioning routes. An empty token disables
// the whole surface.
func NewAdminRoutes(store ports.SubscriptionStore, token string) *AdminRoutes {
	return &AdminRoutes{store: store, token: strings.TrimSpace(token)}
}

// RegisterRoutes registers admin endpoints.
func (a *AdminRoutes) RegisterRoutes(s *echo.Echo) {
	if a.token == "" {
		return
	}
	g := s.Group("/admin", a.requireToken)
	g.POST("/subscriptions", a.createSubscription)
	g.GET("/subscriptions/:id", a.getSubscription)
	g.POST("/subscriptions/:id/credits", a.addCredits)
}

func (a *AdminRoutes) requireToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		presented := strings.TrimSpace(strings.TrimPrefix(c.Request().Header.Get("Authorization"), "Bearer "))
		if presented == "" || !hmac.Equal([]byte(presented), []byte(a.token)) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid admin token")
		}
		return next(c)
	}
}

func (a *AdminRoutes) createSubscription(c echo.Context) error {
	var req createSubscriptionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.MunchkinID = strings.TrimSpace(req.MunchkinID)
	if req.MunchkinID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "munchkinId is required")
	}
	if req.Quota < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "quota must not be negative")
	}

	sub, err := a.store.Create(c.Request().Context(), req.MunchkinID, strings.TrimSpace(req.APIKey), req.Quota)
	if err != nil {
		if errors.Is(err, ports.ErrSubscriptionExists) {
			return echo.NewHTTPError(http.StatusConflict, "subscription already exists")
		}
		return err
	}
	return c.JSON(http.StatusCreated, toResponse(sub))
}

func (a *AdminRoutes) getSubscription(c echo.Context) error {
	sub, err := a.store.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ports.ErrSubscriptionNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "subscription not found")
		}
		return err
	}
	return c.JSON(http.StatusOK, toResponse(sub))
}

func (a *AdminRoutes) addCredits(c echo.Context) error {
	var req addCreditsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Credits < 1 {
		return echo.NewHTTPError(http.StatusBadRequest, "credits must be positive")
	}

	balance, err := a.store.AddCredits(c.Request().Context(), c.Param("id"), req.Credits)
	if err != nil {
		if errors.Is(err, ports.ErrSubscriptionNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "subscription not found")
		}
		return err
	}
	return c.JSON(http.StatusOK, map[string]int64{"quota": balance})
}

func toResponse(sub ports.Subscription) subscriptionResponse {
	return subscriptionResponse{
		MunchkinID: sub.MunchkinID,
		HasAPIKey:  sub.HasAPIKey,
		Quota:      sub.Quota,
	}
}
