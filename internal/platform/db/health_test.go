package db

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestPoolStats_JSONKeys(t *testing.T) {
	// Operators alert on these keys; renaming one silently breaks dashboards.
	raw, err := json.Marshal(PoolStats{
		TotalConns:      4,
		IdleConns:       2,
		AcquiredConns:   2,
		MaxConns:        10,
		AcquireCount:    37,
		AcquireDuration: "250ms",
		Healthy:         true,
	})
	if err != nil {
		t.Fatalf("marshal pool stats: %v", err)
	}

	out := string(raw)
	for _, key := range []string{
		"total_conns", "idle_conns", "acquired_conns",
		"max_conns", "acquire_count", "acquire_duration", "healthy",
	} {
		if !strings.Contains(out, `"`+key+`"`) {
			t.Errorf("pool stats JSON missing key %q: %s", key, out)
		}
	}
}
