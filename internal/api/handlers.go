package api

import (
	"net/http"
	"time"

	"confidence-engine/internal/candle"
	"confidence-engine/internal/engine"
	"confidence-engine/internal/signal"
	"confidence-engine/internal/vsa"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// analyzeRequest is the body of POST /api/analyze
type analyzeRequest struct {
	Bars  []candle.Bar `json:"bars" binding:"required"`
	MvrvZ []float64    `json:"mvrvZ"`
	// Weights, when present, override the configured weights for this run only
	Weights *weightsPayload `json:"weights"`
}

// analyzeResponse summarizes one analysis run. The full per-bar series are
// included so a frontend can chart them directly.
type analyzeResponse struct {
	RunID      string            `json:"runId"`
	Bars       int               `json:"bars"`
	Confidence []float64         `json:"confidence"`
	Scores     []signal.BarScore `json:"scores"`
	VsaScore   []float64         `json:"vsaScore"`
	Events     []signal.BuyEvent `json:"events"`
	ElapsedMs  int64             `json:"elapsedMs"`
}

// handleAnalyze runs the analysis pipeline over a posted bar sequence
func (s *Server) handleAnalyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	cfg := s.EngineConfig()
	if req.Weights != nil {
		if err := req.Weights.Vsa.Validate(); err != nil {
			errorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		if err := req.Weights.Score.Validate(); err != nil {
			errorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		cfg.VsaWeights = req.Weights.Vsa
		cfg.ScoreWeights = req.Weights.Score
	}

	runID := uuid.New().String()
	log := s.log.With().Str("run_id", runID).Logger()
	start := time.Now()

	s.eventBus.PublishAnalysisStarted(runID, len(req.Bars))

	res, err := engine.Run(req.Bars, req.MvrvZ, cfg)
	if err != nil {
		log.Error().Err(err).Int("bars", len(req.Bars)).Msg("analysis failed")
		s.eventBus.PublishError("api", "analysis failed", err)
		errorResponse(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	elapsed := time.Since(start)
	log.Info().
		Int("bars", len(req.Bars)).
		Int("buy_events", len(res.Events)).
		Dur("elapsed", elapsed).
		Msg("analysis complete")

	for _, ev := range res.Events {
		s.eventBus.PublishBuySignal(runID, ev.Timestamp, ev.Confidence)
	}
	s.eventBus.PublishAnalysisComplete(runID, len(req.Bars), len(res.Events), elapsed)

	successResponse(c, analyzeResponse{
		RunID:      runID,
		Bars:       len(req.Bars),
		Confidence: res.Confidence,
		Scores:     res.Scores,
		VsaScore:   res.Vsa.Score,
		Events:     res.Events,
		ElapsedMs:  elapsed.Milliseconds(),
	})
}

// weightsPayload is the wire shape of GET and PUT /api/config/weights
type weightsPayload struct {
	Vsa   vsa.Weights         `json:"vsa"`
	Score signal.ScoreWeights `json:"score"`
}

// handleGetWeights returns the current detector and scoring weights
func (s *Server) handleGetWeights(c *gin.Context) {
	s.mu.RLock()
	payload := weightsPayload{
		Vsa:   s.engineCfg.VsaWeights,
		Score: s.engineCfg.ScoreWeights,
	}
	s.mu.RUnlock()

	successResponse(c, payload)
}

// handleUpdateWeights replaces the detector and scoring weights. The update
// applies to subsequent analysis runs only.
func (s *Server) handleUpdateWeights(c *gin.Context) {
	var payload weightsPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := payload.Vsa.Validate(); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := payload.Score.Validate(); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	s.engineCfg.VsaWeights = payload.Vsa
	s.engineCfg.ScoreWeights = payload.Score
	s.mu.Unlock()

	s.log.Info().Msg("scoring weights updated")
	s.eventBus.PublishWeightsUpdated("api")

	successResponse(c, payload)
}
