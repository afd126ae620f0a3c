// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ratelimit

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
)

// progressInterval is how often the waiter logs remaining wait time.
const progressInterval = 30 * time.Second

// Waiter blocks until a throttling penalty window has passed. It honors
// context cancellation so interrupted fetches do not hang.
type Waiter struct {
	showProgress bool
	sleep        func(ctx context.Context, d time.Duration) error
}

// NewWaiter creates a Waiter. When showProgress is set, the remaining wait
// time is logged periodically during long waits.
func NewWaiter(showProgress bool) *Waiter {
	return &Waiter{
		showProgress: showProgress,
		sleep:        sleepContext,
	}
}

// Wait blocks until info.RetryAfter has elapsed or the context is canceled.
func (w *Waiter) Wait(ctx context.Context, info *Info) error {
	remaining := info.RetryAfter
	if remaining <= 0 {
		return nil
	}

	if w.showProgress {
		if info.Reset.IsZero() {
			log.Warn("Throttled by Azure DevOps, waiting", "wait", remaining.Round(time.Second))
		} else {
			log.Warn("Throttled by Azure DevOps, waiting",
				"wait", remaining.Round(time.Second),
				"resumes", humanize.Time(info.Reset))
		}
	}

	for remaining > 0 {
		step := remaining
		if w.showProgress && step > progressInterval {
			step = progressInterval
		}

		if err := w.sleep(ctx, step); err != nil {
			return err
		}
		remaining -= step

		if w.showProgress && remaining > 0 {
			log.Info("Still waiting on rate limit", "remaining", remaining.Round(time.Second))
		}
	}

	return nil
}

// sleepContext sleeps for d unless the context is canceled first.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
