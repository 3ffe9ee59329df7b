package api

// Cache-Control header values.
const (
	// Generated audio never changes once written.
	CacheOneDayPrivate = "private, max-age=86400"
)
