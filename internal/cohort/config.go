package cohort

import (
	"fmt"
	"time"
)

// Config holds the seeder settings.
type Config struct {
	BaseURL      string        // base URL of the lifeline service
	Workers      int           // concurrent submitters
	Timeout      time.Duration // per-request HTTP timeout
	SettleWithin time.Duration // how long to wait for queued records to reach the store
	Output       string        // optional file the submitted records are written to
}

// SyntheticConfig describes a generated cohort.
type SyntheticConfig struct {
	Groups     []string
	Subjects   int     // subjects per group
	Scale      float64 // Weibull scale of the first group
	ScaleStep  float64 // scale added for each following group
	Shape      float64 // Weibull shape shared by all groups
	CensorRate float64 // probability that a subject is censored, in [0, 1)
	Seed       int64
}

// Record is the POST /records payload.
type Record struct {
	RecordID      string  `json:"record_id"`
	SubjectID     string  `json:"subject_id"`
	Time          float64 `json:"time"`
	EventObserved bool    `json:"event_observed"`
	Group         string  `json:"group"`
}

// Ack is the POST /records response body.
type Ack struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
	RecordID  string `json:"record_id"`
}

// GroupSummary mirrors one entry of GET /groups.
type GroupSummary struct {
	Group   string `json:"group"`
	Records int    `json:"records"`
	Events  int    `json:"events"`
}

// Stats summarises one seeding run.
type Stats struct {
	Generated  int
	Accepted   int
	Duplicate  int
	Failed     int
	Verified   int // groups whose curves passed verification
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	ChartItems int
}

func (c *Config) validate() error {
	switch {
	case c.BaseURL == "":
		return fmt.Errorf("%w: base url must not be empty", ErrInvalidConfig)
	case c.Workers <= 0:
		return fmt.Errorf("%w: workers must be positive", ErrInvalidConfig)
	case c.Timeout <= 0:
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	case c.SettleWithin <= 0:
		return fmt.Errorf("%w: settle window must be positive", ErrInvalidConfig)
	}
	return nil
}

func (c *SyntheticConfig) validate() error {
	switch {
	case len(c.Groups) == 0:
		return fmt.Errorf("%w: at least one group is required", ErrInvalidConfig)
	case c.Subjects <= 0:
		return fmt.Errorf("%w: subjects must be positive", ErrInvalidConfig)
	case c.Scale <= 0 || c.Shape <= 0:
		return fmt.Errorf("%w: weibull scale and shape must be positive", ErrInvalidConfig)
	case c.ScaleStep < 0:
		return fmt.Errorf("%w: scale step must not be negative", ErrInvalidConfig)
	case c.CensorRate < 0 || c.CensorRate >= 1:
		return fmt.Errorf("%w: censor rate must be in [0, 1)", ErrInvalidConfig)
	}
	return nil
}
