/*
Package stresstest implements the counted-request harness used to
reconcile request totals against database counters.

# Overview

Harness.Run issues exactly concurrency*repetitions GET requests against
one URL and reports how many succeeded and how many failed. Query-count
verification depends on this total being exact, never more and never
fewer.

# Worker Pool

  - Fixed pool sized to runtime.NumCPU() (Options.Workers overrides)
  - One sweep per repetition; sweeps run sequentially
  - Each sweep shares one atomic counter initialized to concurrency
  - A worker claims a request by decrementing the counter and stops as
    soon as the decremented value is negative
  - Outcome counters are atomic; no locks are taken while requests run

# Outcomes

  - 2xx: success
  - any other status: failure
  - transport error: failure

# Statistics

Each worker records durations into its own Stats value. Values are
merged after the pool drains and the percentiles (P50, P95, P99) are
logged with the totals.
*/
package stresstest
