package cohort

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/lifeline/internal/domain/model"
	"github.com/okian/lifeline/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

const settlePollInterval = 50 * time.Millisecond

// Run seeds records into the service, waits for them to be stored, then
// fetches every group's curves and a comparative chart and verifies them.
// overlay, when set, is appended to the chart as the last series.
func Run(ctx context.Context, cfg *Config, records []Record, overlay *ChartItem) (*Stats, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log := logger.Named("cohort")
	stats := &Stats{Generated: len(records), StartTime: time.Now()}
	client := NewClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting cohort seeding",
		logger.String("base_url", cfg.BaseURL),
		logger.Int("records", len(records)),
		logger.Int("workers", cfg.Workers))

	if err := client.Healthz(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	baseline, err := groupCounts(ctx, client)
	if err != nil {
		return stats, err
	}

	accepted, err := submitRecords(ctx, client, records, cfg.Workers, stats)
	if err != nil {
		return stats, fmt.Errorf("record submission failed: %w", err)
	}

	want := make(map[string]int, len(baseline))
	for g, n := range baseline {
		want[g] = n
	}
	for _, r := range accepted {
		want[r.Group]++
	}
	if err := waitSettled(ctx, client, want, cfg.SettleWithin); err != nil {
		return stats, err
	}

	groups := Groups(records)
	markers := make([]model.Marker, 0, len(groups))
	for _, g := range groups {
		km, err := client.Survival(ctx, g)
		if err != nil {
			return stats, err
		}
		na, err := client.Hazard(ctx, g)
		if err != nil {
			return stats, err
		}
		if err := VerifySurvival(km); err != nil {
			return stats, err
		}
		if err := VerifyHazard(na); err != nil {
			return stats, err
		}
		if baseline[g] == 0 {
			if err := VerifyAgainst(accepted, km, na); err != nil {
				return stats, err
			}
		} else {
			log.Warn(ctx, "group held records before seeding; skipping local re-estimation",
				logger.String("group", g), logger.Int("existing", baseline[g]))
		}
		if t, ok := km.Median(); ok {
			markers = append(markers, model.Marker{X: t, Label: "median " + g})
		}
		stats.Verified++
	}

	req, labels := chartRequest(groups, markers, overlay)
	spec, err := client.Chart(ctx, req)
	if err != nil {
		return stats, err
	}
	if err := VerifyChart(spec, labels); err != nil {
		return stats, err
	}
	stats.ChartItems = len(spec.Series)

	if cfg.Output != "" {
		if err := saveRecords(cfg.Output, accepted); err != nil {
			log.Warn(ctx, "failed to save records", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	log.Info(ctx, "cohort verified",
		logger.Int("groups", stats.Verified),
		logger.Int("series", stats.ChartItems),
		logger.Duration("duration", stats.Duration))
	return stats, nil
}

func chartRequest(groups []string, markers []model.Marker, overlay *ChartItem) (ChartRequest, []string) {
	req := ChartRequest{Title: "Survival by group", Markers: markers}
	labels := make([]string, 0, len(groups)+1)
	for _, g := range groups {
		req.Items = append(req.Items, ChartItem{Source: model.SourceKaplanMeier, Group: g})
		labels = append(labels, g)
	}
	if overlay != nil {
		req.Items = append(req.Items, *overlay)
		label := overlay.Group
		if overlay.Parametric != nil && overlay.Parametric.Group != "" {
			label = overlay.Parametric.Group
		}
		labels = append(labels, label)
	}
	return req, labels
}

func groupCounts(ctx context.Context, client *Client) (map[string]int, error) {
	summaries, err := client.Groups(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(summaries))
	for _, s := range summaries {
		out[s.Group] = s.Records
	}
	return out, nil
}

// waitSettled polls GET /groups until every group holds at least want records.
func waitSettled(ctx context.Context, client *Client, want map[string]int, within time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, within)
	defer cancel()

	ticker := time.NewTicker(settlePollInterval)
	defer ticker.Stop()
	for {
		got, err := groupCounts(ctx, client)
		if err == nil && covers(got, want) {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w after %s", ErrNotSettled, within)
		case <-ticker.C:
		}
	}
}

func covers(got, want map[string]int) bool {
	for g, n := range want {
		if got[g] < n {
			return false
		}
	}
	return true
}

func saveRecords(path string, records []Record) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal records: %w", err)
	}
	return os.WriteFile(path, data, filePermission)
}
