// Package analyzer reduces parsed log entries into ranked and thresholded
// statistics.
package analyzer

import (
	"sort"
	"strconv"

	"logsift/internal/models"
)

// Analyze aggregates entries into a Stats snapshot in a single forward pass.
//
// topN bounds the length of the IP and endpoint rankings. errorThreshold is
// a strict lower bound: an IP is flagged only when its error count is
// greater than the threshold, so a threshold of 0 flags any IP with at
// least one error.
//
// Analyze is total and deterministic: it always returns a snapshot, the
// empty input included, and the same entries always produce the same
// output. Map iteration order never leaks into the result; every ordered
// field is sorted explicitly.
func Analyze(entries []*models.LogEntry, topN, errorThreshold int) *Stats {
	total := len(entries)

	var infoCount, warnCount, errorCount int
	ipTotals := make(map[string]int)
	ipErrors := make(map[string]int)
	endpointCounts := make(map[string]int)
	statusCounts := make(map[uint16]int)

	for _, entry := range entries {
		switch entry.Level {
		case models.LevelInfo:
			infoCount++
		case models.LevelWarn:
			warnCount++
		case models.LevelError:
			errorCount++
			ipErrors[entry.IP]++
		}

		ipTotals[entry.IP]++
		endpointCounts[entry.Endpoint]++
		statusCounts[entry.StatusCode]++
	}

	pct := func(n int) float64 {
		if total == 0 {
			return 0.0
		}
		return float64(n) / float64(total) * 100.0
	}

	levelCounts := map[string]LevelCount{
		models.LevelInfo.String():  {Count: infoCount, Percentage: pct(infoCount)},
		models.LevelWarn.String():  {Count: warnCount, Percentage: pct(warnCount)},
		models.LevelError.String(): {Count: errorCount, Percentage: pct(errorCount)},
	}

	flagged := make([]FlaggedIP, 0)
	for ip, errCount := range ipErrors {
		if errCount <= errorThreshold {
			continue
		}
		totalReq := ipTotals[ip] // 0 if absent, unreachable in practice
		rate := 0.0
		if totalReq > 0 {
			rate = float64(errCount) / float64(totalReq) * 100.0
		}
		flagged = append(flagged, FlaggedIP{
			IP:            ip,
			ErrorCount:    errCount,
			TotalRequests: totalReq,
			ErrorRate:     rate,
		})
	}
	sort.Slice(flagged, func(i, j int) bool {
		if flagged[i].ErrorCount != flagged[j].ErrorCount {
			return flagged[i].ErrorCount > flagged[j].ErrorCount
		}
		return flagged[i].IP < flagged[j].IP
	})

	statusCodes := make(map[string]int, len(statusCounts))
	for code, count := range statusCounts {
		statusCodes[strconv.Itoa(int(code))] = count
	}

	return &Stats{
		TotalEntries: total,
		// MalformedEntries is set by the caller from its reading loop.
		LevelCounts:    levelCounts,
		TopIPs:         rank(ipTotals, topN, pct),
		TopEndpoints:   rank(endpointCounts, topN, pct),
		FlaggedIPs:     flagged,
		StatusCodes:    statusCodes,
		ErrorThreshold: errorThreshold,
		TopN:           topN,
	}
}

// rank turns a key->count map into the top-N ranking: count descending,
// ties broken by key ascending, truncated to n.
func rank(counts map[string]int, n int, pct func(int) float64) []RankedItem {
	pairs := make([]RankedItem, 0, len(counts))
	for key, count := range counts {
		pairs = append(pairs, RankedItem{Value: key, Count: count, Percentage: pct(count)})
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Count != pairs[j].Count {
			return pairs[i].Count > pairs[j].Count
		}
		return pairs[i].Value < pairs[j].Value
	})

	if n < 0 {
		n = 0
	}
	if len(pairs) > n {
		pairs = pairs[:n]
	}
	return pairs
}
