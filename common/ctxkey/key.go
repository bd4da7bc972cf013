package ctxkey

const (
	// RequestId is a per-request unique identifier, also sent back as a response header.
	// Set in: middleware.RequestId.
	RequestId = "X-Hamming-Request-Id"

	// RunId is the test run addressed by the request path.
	// Set in: stub handlers for /test-runs/:id/*, read by the access log fields.
	RunId = "run_id"
)
