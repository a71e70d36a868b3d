package postgres

import (
	"encoding/json"
	"time"
)

func jsonMarshal(v any) ([]byte, error)         { return json.Marshal(v) }
func jsonUnmarshal(data []byte, v any) error    { return json.Unmarshal(data, v) }
func secondsToDuration(s int64) time.Duration   { return time.Duration(s) * time.Second }
func durationToSeconds(d time.Duration) int64   { return int64(d / time.Second) }
