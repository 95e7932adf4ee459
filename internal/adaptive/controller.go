// Package adaptive implements AdaptiveController: watching the stream
// of verification results and perturbing pipeline thresholds to keep
// the rolling pass rate inside a target band.
package adaptive

import "sync"

// Config bundles AdaptiveController's named tunables.
type Config struct {
	SuccessRateWindowSize int `yaml:"success_rate_window_size"` // default 100
	LowBand float64 `yaml:"low_band"` // default 0.6
	HighBand float64 `yaml:"high_band"` // default 0.85
	AdjustStep float64 `yaml:"adjust_step"` // default 0.02
	AtomicityThresholdCap float64 `yaml:"atomicity_threshold_cap"` // default 0.95
	SimilarityThresholdCap float64 `yaml:"similarity_threshold_cap"` // default 0.85
	ThresholdFloor float64 `yaml:"threshold_floor"` // default 0.5
	MinBatchSize int `yaml:"min_batch_size"` // default 1
	MaxBatchSize int `yaml:"max_batch_size"` // default 20
}

// DefaultConfig returns the named defaults.
func DefaultConfig() Config {
	return Config{
		SuccessRateWindowSize:  100,
		LowBand:                0.6,
		HighBand:               0.85,
		AdjustStep:             0.02,
		AtomicityThresholdCap:  0.95,
		SimilarityThresholdCap: 0.85,
		ThresholdFloor:         0.5,
		MinBatchSize:           1,
		MaxBatchSize:           20,
	}
}

// Controller tracks a sliding window of verification pass/fail outcomes
// and adjusts atomicity_threshold / semantic_similarity_threshold to
// keep the rolling pass rate inside [LowBand, HighBand].
type Controller struct {
	mu     sync.Mutex
	cfg    Config
	window []bool // the last SuccessRateWindowSize outcomes, oldest first

	atomicityThreshold  float64
	similarityThreshold float64
}

// New builds a Controller seeded with the pipeline's starting
// atomicity and semantic-similarity thresholds.
func New(cfg Config, initialAtomicityThreshold, initialSimilarityThreshold float64) *Controller {
	return &Controller{
		cfg:                 cfg,
		atomicityThreshold:  initialAtomicityThreshold,
		similarityThreshold: initialSimilarityThreshold,
	}
}

// RecordResult appends one verification outcome to the sliding window,
// evicting the oldest entry once the window reaches
// cfg.SuccessRateWindowSize.
func (c *Controller) RecordResult(passed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.window = append(c.window, passed)
	if over := len(c.window) - c.cfg.SuccessRateWindowSize; over > 0 {
		c.window = c.window[over:]
	}
}

// PassRate returns the fraction of passing outcomes in the current
// window, or 0 if the window is empty.
func (c *Controller) PassRate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.passRateLocked()
}

func (c *Controller) passRateLocked() float64 {
	if len(c.window) == 0 {
		return 0
	}
	passed := 0
	for _, p := range c.window {
		if p {
			passed++
		}
	}
	return float64(passed) / float64(len(c.window))
}

// AdjustThresholds runs the per-batch adjustment: a rolling
// pass-rate above HighBand raises both thresholds (capped); below
// LowBand lowers both (floored). Returns the thresholds after
// adjustment.
func (c *Controller) AdjustThresholds() (atomicityThreshold, similarityThreshold float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rate := c.passRateLocked()
	switch {
	case rate > c.cfg.HighBand:
		c.atomicityThreshold = min(c.atomicityThreshold+c.cfg.AdjustStep, c.cfg.AtomicityThresholdCap)
		c.similarityThreshold = min(c.similarityThreshold+c.cfg.AdjustStep, c.cfg.SimilarityThresholdCap)
	case rate < c.cfg.LowBand:
		c.atomicityThreshold = max(c.atomicityThreshold-c.cfg.AdjustStep, c.cfg.ThresholdFloor)
		c.similarityThreshold = max(c.similarityThreshold-c.cfg.AdjustStep, c.cfg.ThresholdFloor)
	}
	return c.atomicityThreshold, c.similarityThreshold
}

// Thresholds returns the controller's current thresholds without
// recomputing them.
func (c *Controller) Thresholds() (atomicityThreshold, similarityThreshold float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.atomicityThreshold, c.similarityThreshold
}

// BatchSize scales linearly with queue depth, clamped to
// [cfg.MinBatchSize, cfg.MaxBatchSize]. The divisor of 10 is an
// invented proportionality constant: a queue depth of 200 or more
// saturates the batch size at the max.
func (c *Controller) BatchSize(queueDepth int) int {
	size := queueDepth / 10
	if size < c.cfg.MinBatchSize {
		size = c.cfg.MinBatchSize
	}
	if size > c.cfg.MaxBatchSize {
		size = c.cfg.MaxBatchSize
	}
	return size
}
