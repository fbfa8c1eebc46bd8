// Package bulk applies one license action to many keys, one call at a time,
// paced by a token bucket so a long key list doesn't hammer the API.
package bulk

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/alekostrader/alkadmin/pkg/licensesdk"
	"github.com/alekostrader/alkadmin/pkg/slogx"
	"golang.org/x/time/rate"
)

// Action is a single-key license call such as Session.ActivateLicense.
type Action func(ctx context.Context, licenseKey string) (*licensesdk.License, error)

// Result is the outcome for one key. Exactly one of License and Err is set.
type Result struct {
	Key     string
	License *licensesdk.License
	Err     error
}

// Runner runs actions sequentially under a rate limit.
type Runner struct {
	limiter *rate.Limiter
}

// NewRunner allows perSecond calls per second with bursts of burst. A
// non-positive perSecond disables pacing.
func NewRunner(perSecond float64, burst int) *Runner {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	return &Runner{limiter: rate.NewLimiter(limit, max(burst, 1))}
}

// Run calls action for each distinct non-blank key in order. A failing key does
// not stop the run. If ctx is cancelled, the remaining keys get ctx's error
// without being attempted.
func (r *Runner) Run(ctx context.Context, name string, keys []string, action Action) []Result {
	log := slogx.FromContext(ctx).With(slog.String("action", name))

	keys = UniqueKeys(keys)
	results := make([]Result, 0, len(keys))

	for _, key := range keys {
		if err := r.limiter.Wait(ctx); err != nil {
			results = append(results, Result{Key: key, Err: err})
			continue
		}

		license, err := action(ctx, key)
		if err != nil {
			log.Warn("bulk action failed", slog.String("license", licensesdk.MaskLicenseKey(key)), slog.Any("err", err))
			results = append(results, Result{Key: key, Err: err})
			continue
		}

		log.Debug("bulk action applied", slog.String("license", licensesdk.MaskLicenseKey(key)))
		results = append(results, Result{Key: key, License: license})
	}

	return results
}

// ErrNoKeys is returned when a key list holds no usable keys.
var ErrNoKeys = errors.New("no license keys given")

// Failed counts results with an error.
func Failed(results []Result) int {
	n := 0
	for _, res := range results {
		if res.Err != nil {
			n++
		}
	}
	return n
}

// UniqueKeys trims keys and drops blanks and repeats, keeping first-seen order.
func UniqueKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))

	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}

	return out
}
