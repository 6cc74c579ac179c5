package telemetry

import (
	"encoding/json"
	"time"
)

type Stats struct {
	Period          string            `json:"period"`
	EventCounts     map[EventType]int `json:"event_counts"`
	TaskCompletions int               `json:"task_completions"`
	CatchUps        int               `json:"catch_ups"`
	StoreFallbacks  int               `json:"store_fallbacks"`
	CompletionsByID map[string]int    `json:"completions_by_id"`
}

// CalculateStats summarizes events recorded since the given time.
// A catch-up is a completion whose rollover had to restart from today.
func CalculateStats(events []Event, since time.Time) Stats {
	stats := Stats{
		Period:          since.Format("2006-01-02"),
		EventCounts:     make(map[EventType]int),
		CompletionsByID: make(map[string]int),
	}

	for _, event := range events {
		if event.Timestamp.Before(since) {
			continue
		}
		stats.EventCounts[event.Type]++

		switch event.Type {
		case EventStoreFallback:
			stats.StoreFallbacks++
		case EventTaskCompleted:
			stats.TaskCompletions++
			var metadata EventMetadata
			if err := json.Unmarshal([]byte(event.Metadata), &metadata); err != nil {
				continue
			}
			if id, ok := metadata["id"].(float64); ok {
				stats.CompletionsByID[jsonNumber(id)]++
			}
			if caught, ok := metadata["catch_up"].(bool); ok && caught {
				stats.CatchUps++
			}
		}
	}
	return stats
}

func jsonNumber(f float64) string {
	b, _ := json.Marshal(f)
	return string(b)
}
