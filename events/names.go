package events

// Hook names published by pagebricks components.
const (
	CacheBeforeClear     = "cache.before_clear"
	CacheAfterClear      = "cache.after_clear"
	PageContentRaw       = "page.content_raw"
	PageContentProcessed = "page.content_processed"
	PageContent          = "page.content"
	PageHeaders          = "page.headers"
	PageError            = "page.error"
	SchedulerInitialized = "scheduler.initialized"
)
