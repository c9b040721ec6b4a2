package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/trogers1052/mandi-price-service/internal/agmarknet"
	"github.com/trogers1052/mandi-price-service/internal/database"
	"github.com/trogers1052/mandi-price-service/internal/forecast"
	"github.com/trogers1052/mandi-price-service/internal/market"
	"github.com/trogers1052/mandi-price-service/internal/models"
	"github.com/trogers1052/mandi-price-service/internal/trainer"
)

// PriceStore is the read side of the price history store
type PriceStore interface {
	GetRecentPriceHistory(ctx context.Context, crop, mandi string, limit int) ([]models.PriceRecord, error)
	GetLatestPriceRecord(ctx context.Context, crop, mandi string) (*models.PriceRecord, error)
	CountPriceRecords(ctx context.Context) (int64, error)
	Ping() error
}

// Forecaster produces price forecasts
type Forecaster interface {
	Predict(ctx context.Context, crop, mandi string, days int) (*models.ForecastResponse, error)
}

// Syncer refreshes the store from the government feed
type Syncer interface {
	Sync(ctx context.Context, crop, mandi string) models.SyncResult
}

// Retrainer replaces the cached model snapshot
type Retrainer interface {
	Retrain(ctx context.Context) (*trainer.TrainingSnapshot, error)
}

// MarketService serves live mandi prices
type MarketService interface {
	Rates(ctx context.Context, commodity, market string) (*models.MandiRates, error)
	BestMandi(ctx context.Context, commodity string) (*models.BestMandi, error)
	Distance(lat, lon float64, mandi string) (*models.MandiDistance, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	store     PriceStore
	forecasts Forecaster
	syncer    Syncer
	retrainer Retrainer
	market    MarketService
}

// NewHandler creates a new Handler
func NewHandler(store PriceStore, forecasts Forecaster, syncer Syncer, retrainer Retrainer, ms MarketService) *Handler {
	return &Handler{
		store:     store,
		forecasts: forecasts,
		syncer:    syncer,
		retrainer: retrainer,
		market:    ms,
	}
}

type errorResponse struct {
	Error   string            `json:"error"`
	Details []ValidationError `json:"details,omitempty"`
}

type trendResponse struct {
	Crop    string               `json:"crop"`
	Mandi   string               `json:"mandi"`
	Count   int                  `json:"count"`
	History []models.PriceRecord `json:"history"`
}

type retrainResponse struct {
	Rows      int       `json:"rows"`
	Crops     int       `json:"crops"`
	Mandis    int       `json:"mandis"`
	Score     float64   `json:"mae"`
	TrainedAt time.Time `json:"trained_at"`
}

// Predict handles GET /api/v1/market/predict
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	var req forecastRequest
	if errs := bindQuery(r, &req); errs != nil {
		respondValidation(w, errs)
		return
	}

	resp, err := h.forecasts.Predict(r.Context(), req.Crop, req.Mandi, *req.Days)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// SyncLive handles GET /api/v1/market/sync-live. Upstream failures are
// reported in the body with status 200.
func (h *Handler) SyncLive(w http.ResponseWriter, r *http.Request) {
	var req pairRequest
	if errs := bindQuery(r, &req); errs != nil {
		respondValidation(w, errs)
		return
	}

	respondJSON(w, http.StatusOK, h.syncer.Sync(r.Context(), req.Crop, req.Mandi))
}

// Trend handles GET /api/v1/market/trend
func (h *Handler) Trend(w http.ResponseWriter, r *http.Request) {
	var req trendRequest
	if errs := bindQuery(r, &req); errs != nil {
		respondValidation(w, errs)
		return
	}

	history, err := h.store.GetRecentPriceHistory(r.Context(), req.Crop, req.Mandi, *req.Limit)
	if err != nil {
		respondError(w, err)
		return
	}
	if history == nil {
		history = []models.PriceRecord{}
	}

	respondJSON(w, http.StatusOK, trendResponse{
		Crop:    req.Crop,
		Mandi:   req.Mandi,
		Count:   len(history),
		History: history,
	})
}

// Latest handles GET /api/v1/market/latest
func (h *Handler) Latest(w http.ResponseWriter, r *http.Request) {
	var req pairRequest
	if errs := bindQuery(r, &req); errs != nil {
		respondValidation(w, errs)
		return
	}

	rec, err := h.store.GetLatestPriceRecord(r.Context(), req.Crop, req.Mandi)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, rec)
}

// Retrain handles POST /api/v1/market/retrain
func (h *Handler) Retrain(w http.ResponseWriter, r *http.Request) {
	snap, err := h.retrainer.Retrain(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, retrainResponse{
		Rows:      snap.Rows,
		Crops:     snap.Encoding.NumCrops(),
		Mandis:    snap.Encoding.NumMandis(),
		Score:     snap.Score,
		TrainedAt: snap.TrainedAt,
	})
}

// Rates handles GET /api/v1/mandi/rates
func (h *Handler) Rates(w http.ResponseWriter, r *http.Request) {
	var req ratesRequest
	if errs := bindQuery(r, &req); errs != nil {
		respondValidation(w, errs)
		return
	}

	rates, err := h.market.Rates(r.Context(), req.Commodity, req.Market)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, rates)
}

// BestMandi handles GET /api/v1/mandi/best
func (h *Handler) BestMandi(w http.ResponseWriter, r *http.Request) {
	var req bestMandiRequest
	if errs := bindQuery(r, &req); errs != nil {
		respondValidation(w, errs)
		return
	}

	best, err := h.market.BestMandi(r.Context(), req.Commodity)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, best)
}

// Distance handles GET /api/v1/mandi/distance
func (h *Handler) Distance(w http.ResponseWriter, r *http.Request) {
	var req distanceRequest
	if errs := bindQuery(r, &req); errs != nil {
		respondValidation(w, errs)
		return
	}

	d, err := h.market.Distance(*req.Lat, *req.Lon, req.Mandi)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, d)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "error": err.Error()})
		return
	}

	n, err := h.store.CountPriceRecords(r.Context())
	if err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "error": err.Error()})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"status": "healthy", "price_records": n})
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, forecast.ErrInsufficientHistory), errors.Is(err, database.ErrNoPriceData),
		errors.Is(err, market.ErrUnknownMandi):
		return http.StatusNotFound
	case errors.Is(err, trainer.ErrInsufficientData), errors.Is(err, forecast.ErrModelUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, forecast.ErrInvalidHorizon):
		return http.StatusBadRequest
	case errors.Is(err, agmarknet.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("Request failed")
	}
	respondJSON(w, status, errorResponse{Error: err.Error()})
}

func respondValidation(w http.ResponseWriter, errs []ValidationError) {
	respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request", Details: errs})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
