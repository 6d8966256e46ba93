// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Catalog Source - these keys govern the authoritative metadata catalog and its re-sync policy.
const (
	CatalogEndpoint        = "catalog.endpoint"
	CatalogResyncReleasing = "catalog.resync_releasing_hours"
	CatalogResyncCompleted = "catalog.resync_completed_hours"
)

// Relay Network - these keys configure the redundant relay instances and per-call timeout budgets.
const (
	RelayInstances     = "relay.instances"
	RelaySearchTimeout = "relay.search_timeout_ms"
	RelayStreamTimeout = "relay.stream_timeout_ms"
	RelayMetaTimeout   = "relay.meta_timeout_ms"
	RelaySpoofTLS      = "relay.spoof_tls"
)

// Delivery Providers - these keys manage the ordered provider waterfall.
const (
	ProvidersOrder = "providers.order"
)

// Playback - these keys maintain the state machine budgets and the external player binary.
const (
	PlaybackDirectWait           = "playback.direct_wait_ms"
	PlaybackPlayer               = "playback.player"
	PlaybackSkipIntro            = "playback.skip_intro"
	PlaybackCompletionPercentage = "playback.completion_percentage"
)

// History Tracking - these keys configure the persistence of media consumption state.
const (
	HistorySaveOnWatch = "history.save_on_watch"
)

// Search Interaction - these keys define the UX parameters for search discovery.
const (
	SearchShowQuerySuggestions = "search.show_query_suggestions"
	SearchResultLimit          = "search.result_limit"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these settings govern non-interactive application behavior.
const (
	CliColored      = "cli.colored"
	CliVersionCheck = "cli.version_check"
)

// Icons - this key selects the visual variant for UI symbols.
const (
	IconsVariant = "icons.variant"
)
