/*
Package executor is the HTTP client used to talk to the target.

# Requests

Fetch:
  - GET with the shared pooled transport
  - Returns status, headers and body as types.RequestResult
  - Non-200 responses return *StatusError with the result attached

Status:
  - GET that discards the body
  - Used by the counted-request harness where only the outcome matters

# Errors

  - *URLError: the URL cannot be turned into a request; this is the only
    failure that propagates out of a verification run
  - *TransportError: connect, timeout, protocol or read failure
  - *StatusError: the target answered with a status other than 200

# Headers

Compression is disabled so Content-Length reaches the header validator
as the target sent it. Transfer-Encoding is removed from the header map
by net/http and is restored from Response.TransferEncoding.
*/
package executor
