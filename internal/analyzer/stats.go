package analyzer

// LevelCount is a count plus its share of all entries, used for the
// per-level breakdown.
type LevelCount struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// RankedItem is one row of a top-N ranking (IP or endpoint).
type RankedItem struct {
	Value      string  `json:"value"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// FlaggedIP is an IP whose error count strictly exceeded the configured
// threshold.
type FlaggedIP struct {
	IP            string  `json:"ip"`
	ErrorCount    int     `json:"error_count"`
	TotalRequests int     `json:"total_requests"`
	ErrorRate     float64 `json:"error_rate"`
}

// Stats is the complete aggregation result for one analysis run. It is built
// once by Analyze and never mutated afterwards, except for
// MalformedEntries, which the caller fills in from its own reading loop
// (lines that never became entries are invisible to the analyzer).
type Stats struct {
	TotalEntries     int                   `json:"total_entries"`
	MalformedEntries int                   `json:"malformed_entries"`
	LevelCounts      map[string]LevelCount `json:"level_counts"`
	TopIPs           []RankedItem          `json:"top_ips"`
	TopEndpoints     []RankedItem          `json:"top_endpoints"`
	FlaggedIPs       []FlaggedIP           `json:"flagged_ips"`
	// StatusCodes maps status code strings to raw counts. Percentages for
	// status codes are a presentation concern, unlike levels and rankings.
	StatusCodes    map[string]int `json:"status_code_distribution"`
	ErrorThreshold int            `json:"error_threshold"`
	TopN           int            `json:"top_n"`
}
