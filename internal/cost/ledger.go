package cost

import (
	"sync"
	"time"
)

// Breakdown is the per-phase cost attribution persisted alongside each
// seed task, matching the synthesis_breakdown record exactly.
// DepthExtensionUSD and WidthExtensionUSD are omitted from the sum when
// the task never went through the corresponding extender.
type Breakdown struct {
	SeedExtractionUSD    float64  `json:"seed_extraction_cost_usd"`
	TaskExpansionUSD     float64  `json:"task_expansion_cost_usd"`
	QualityValidationUSD float64  `json:"quality_validation_cost_usd"`
	DepthExtensionUSD    *float64 `json:"depth_extension_cost_usd,omitempty"`
	WidthExtensionUSD    *float64 `json:"width_extension_cost_usd,omitempty"`
}

// TotalUSD sums the populated phases.
func (b Breakdown) TotalUSD() float64 {
	total := b.SeedExtractionUSD + b.TaskExpansionUSD + b.QualityValidationUSD
	if b.DepthExtensionUSD != nil {
		total += *b.DepthExtensionUSD
	}
	if b.WidthExtensionUSD != nil {
		total += *b.WidthExtensionUSD
	}
	return total
}

// entry is one recorded cost line, keyed to the seed task it belongs to.
type entry struct {
	seedTaskID string
	recordedAt time.Time
	record     CostRecord
}

// CostRecord is the cost package's own accounting record (distinct from
// models.CostRecord, which is the wire/persisted shape); kept separate
// so this package has no import-cycle dependency on pkg/models.
type CostRecord struct {
	Phase        string
	InputTokens  int
	OutputTokens int
	Model        string
	USD          float64
	Measured     bool
}

// Ledger accumulates CostRecords per seed task and produces the
// Breakdown persisted with each emitted task, adapted from the
// teacher's usage.Tracker (same record/prune/summarize shape, grouped
// by seed task instead of by user).
type Ledger struct {
	mu       sync.Mutex
	entries  []entry
	maxAge   time.Duration
	maxCount int
}

// NewLedger mirrors usage.NewTracker's defaulting behavior.
func NewLedger(maxAge time.Duration, maxCount int) *Ledger {
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}
	if maxCount <= 0 {
		maxCount = 10000
	}
	return &Ledger{maxAge: maxAge, maxCount: maxCount}
}

// Record attributes a cost to a seed task's running breakdown.
func (l *Ledger) Record(seedTaskID string, r CostRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, entry{seedTaskID: seedTaskID, recordedAt: time.Now(), record: r})
	l.pruneLocked()
}

func (l *Ledger) pruneLocked() {
	cutoff := time.Now().Add(-l.maxAge)
	startIdx := 0
	for i, e := range l.entries {
		if e.recordedAt.After(cutoff) {
			startIdx = i
			break
		}
		startIdx = i + 1
	}
	if startIdx > 0 {
		l.entries = l.entries[startIdx:]
	}
	if len(l.entries) > l.maxCount {
		l.entries = l.entries[len(l.entries)-l.maxCount:]
	}
}

// Breakdown aggregates every recorded entry for seedTaskID into the
// persisted synthesis_breakdown shape. Phases outside the known set
// (seed_extraction, task_expansion, quality_validation, depth_extension,
// width_extension) are folded into quality_validation as a conservative
// default so no cost is ever dropped from the total.
func (l *Ledger) Breakdown(seedTaskID string) Breakdown {
	l.mu.Lock()
	defer l.mu.Unlock()

	var b Breakdown
	var depthSeen, widthSeen bool
	var depthTotal, widthTotal float64

	for _, e := range l.entries {
		if e.seedTaskID != seedTaskID {
			continue
		}
		switch e.record.Phase {
		case "seed_extraction":
			b.SeedExtractionUSD += e.record.USD
		case "task_expansion":
			b.TaskExpansionUSD += e.record.USD
		case "depth_extension":
			depthSeen = true
			depthTotal += e.record.USD
		case "width_extension":
			widthSeen = true
			widthTotal += e.record.USD
		default:
			b.QualityValidationUSD += e.record.USD
		}
	}
	if depthSeen {
		b.DepthExtensionUSD = &depthTotal
	}
	if widthSeen {
		b.WidthExtensionUSD = &widthTotal
	}
	return b
}

// TotalInputOutputTokens sums raw token counts for seedTaskID, used for
// the persisted total_synthesis_tokens field.
func (l *Ledger) TotalInputOutputTokens(seedTaskID string) (input, output int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, e := range l.entries {
		if e.seedTaskID != seedTaskID {
			continue
		}
		input += e.record.InputTokens
		output += e.record.OutputTokens
	}
	return input, output
}
