/*
Package verifier checks a running target against the benchmark test
contracts.

# Test Types

  - json: hello world object
  - db: one world row
  - query: 1..500 world rows, driven by the queries parameter
  - cached_query: same shape as query, served from a cache
  - fortune: HTML table of the fortune rows
  - update: query rows written back with new random numbers
  - plaintext: hello world text

Resolve never fails. Unknown names produce a verifier that records an
Unknown Test error.

# Findings

Every check raises warnings or errors on a message.Messages value. The
only error returned by Verify is *executor.URLError.

# Database Counters

Database-backed types run the stresstest harness between two counter
reads and reconcile the deltas. Fewer than expected is an error; more
than 5% above is a warning. Backend.Margin compensates vendors that
under-report updates.

# Fortunes

Both the response and the reference are tokenized with x/net/html and
re-emitted in canonical form before a case-folded comparison. Attributes,
comments and whitespace between tags do not count.
*/
package verifier
