package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"satoshi-drop/src/analysis"
	"satoshi-drop/src/helpers"
	"satoshi-drop/src/models"
	"satoshi-drop/src/state"
)

const (
	defaultHistoryLimit = 60
	defaultCandleWindow = 60
)

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *DisplayServer) getState(c *gin.Context) {
	c.JSON(http.StatusOK, s.snapshot())
}

// -----------------------------------------------------------------------------

func (s *DisplayServer) getCountdown(c *gin.Context) {
	view := s.snapshot()
	c.JSON(http.StatusOK, gin.H{
		"countdown":         view.Countdown,
		"remaining_seconds": view.Countdown.TotalSeconds(),
		"finished":          view.Countdown.IsZero(),
		"timestamp":         view.Timestamp,
	})
}

// -----------------------------------------------------------------------------

func (s *DisplayServer) getPrice(c *gin.Context) {
	view := s.snapshot()
	c.JSON(http.StatusOK, gin.H{
		"price":             view.Price,
		"sat_price_display": view.SatPriceDisplay,
		"timestamp":         view.Timestamp,
	})
}

// -----------------------------------------------------------------------------

func (s *DisplayServer) getPriceHistory(c *gin.Context) {
	limit, ok := queryPositiveInt(c, "limit", defaultHistoryLimit)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": s.history(limit)})
}

// -----------------------------------------------------------------------------

func (s *DisplayServer) getPriceStats(c *gin.Context) {
	c.JSON(http.StatusOK, analysis.ComputePriceStats(s.history(0)))
}

// -----------------------------------------------------------------------------

func (s *DisplayServer) getPriceCandles(c *gin.Context) {
	window, ok := queryPositiveInt(c, "window", defaultCandleWindow)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"window":  window,
		"candles": analysis.Resample(s.history(0), int64(window)),
	})
}

// -----------------------------------------------------------------------------

type productView struct {
	models.MProduct
	UsdValue *string `json:"usd_value"` // null until the price is loaded
}

func (s *DisplayServer) getProducts(c *gin.Context) {
	price := s.snapshot().Price

	products := make([]productView, 0, len(s.Config.Products))
	for _, p := range s.Config.Products {
		view := productView{MProduct: p}
		if usd, ok := state.UsdForSats(price, p.Sats); ok {
			v := usd.StringFixed(2)
			view.UsdValue = &v
		}
		products = append(products, view)
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// -----------------------------------------------------------------------------

type newsletterRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func (s *DisplayServer) postNewsletter(c *gin.Context) {
	if s.db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "newsletter unavailable"})
		return
	}

	var req newsletterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.metrics.ObserveSignup("invalid")
		c.JSON(http.StatusBadRequest, gin.H{"error": "a valid email is required"})
		return
	}

	sub, created, err := s.db.SaveSubscriber(c.Request.Context(), normalizeEmail(req.Email))
	if err != nil {
		var validation *helpers.ValidationError
		if errors.As(err, &validation) {
			s.metrics.ObserveSignup("invalid")
			c.JSON(http.StatusBadRequest, gin.H{"error": validation.Message})
			return
		}
		s.Logger.Error("Failed to save subscriber: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save subscription"})
		return
	}

	if !created {
		s.metrics.ObserveSignup("existing")
		c.JSON(http.StatusOK, gin.H{"subscriber": sub, "created": false})
		return
	}
	s.metrics.ObserveSignup("created")
	c.JSON(http.StatusCreated, gin.H{"subscriber": sub, "created": true})
}

// -----------------------------------------------------------------------------

func (s *DisplayServer) getHealth(c *gin.Context) {
	view := s.snapshot()

	failures, totalFailures := 0, 0
	lastSuccess := view.Price.UpdatedAt
	if s.health != nil {
		failures = s.health.ConsecutiveFailures()
		totalFailures = s.health.TotalFailures()
		lastSuccess = s.health.LastSuccess()
	}

	// -1 when the newsletter store is disabled or unreachable
	subscribers := -1
	if s.db != nil {
		if n, err := s.db.CountSubscribers(c.Request.Context()); err == nil {
			subscribers = n
		} else {
			s.Logger.Warning("Failed to count subscribers: %v", err)
		}
	}

	status := "ok"
	if !view.Price.Loaded {
		status = "loading"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":               status,
		"connections":          s.clientCount.Load(),
		"price_loaded":         view.Price.Loaded,
		"latest_update":        lastSuccess,
		"consecutive_failures": failures,
		"total_failures":       totalFailures,
		"subscribers":          subscribers,
	})
}

// -----------------------------------------------------------------------------

func (s *DisplayServer) getConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":                    s.Config.Name,
		"countdown_mode":          s.Config.Countdown.Mode,
		"update_interval_seconds": s.Config.DataSource.UpdateIntervalSeconds,
		"currency":                s.Config.DataSource.Currency,
		"history_size":            s.Config.DataSource.HistorySize,
	})
}

// -----------------------------------------------------------------------------

func (s *DisplayServer) history(n int) []models.MPricePoint {
	if s.store == nil {
		return []models.MPricePoint{}
	}
	return s.store.History(n)
}

// -----------------------------------------------------------------------------

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
