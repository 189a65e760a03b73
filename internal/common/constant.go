package common

// Transport-level header names shared with the backend.
const (
	// AuthHeaderName carries the caller's access token on outbound requests.
	AuthHeaderName = "Authorization"

	// UploadLocatorHeaderName is the response header on job creation that
	// carries a time-limited, write-capable storage locator for the
	// large-dataset bulk-copy path.
	UploadLocatorHeaderName = "X-Upload-Locator"

	// BulkCommandHeaderName is the response header on job creation that
	// carries a ready-to-run bulk-copy command line equivalent to the
	// locator above.
	BulkCommandHeaderName = "X-Bulk-Command"
)
