package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	TagsTracked   int        `json:"tags_tracked"`
	Inside        int        `json:"inside"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	StartTime     string     `json:"start_time"`
	Timestamp     string     `json:"timestamp"`
	MQTT          MQTTStatus `json:"mqtt"`
	Queue         QueueJSON  `json:"delivery_queue"`
	Counts        CountsJSON `json:"event_counts"`
	Config        ConfigJSON `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// QueueJSON is the JSON representation of delivery queue statistics.
type QueueJSON struct {
	Depth            int   `json:"depth"`
	OldestAgeSeconds int64 `json:"oldest_age_seconds"`
	Delivered        int   `json:"delivered"`
	Dropped          int   `json:"dropped"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	CheckIns  int `json:"check_ins"`
	CheckOuts int `json:"check_outs"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	HTTPAddr       string `json:"http_addr"`
	Broker         string `json:"broker,omitempty"`
	Endpoint       string `json:"endpoint"`
	QueueCapacity  int    `json:"queue_capacity"`
	SweepMs        int64  `json:"sweep_ms"`
	AbsenceSweepMs int64  `json:"absence_sweep_ms"`
}

func buildInner(snap Snapshot) StatusInner {
	return StatusInner{
		TagsTracked:   snap.TagsTracked,
		Inside:        snap.InsideCount,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Queue: QueueJSON{
			Depth:            snap.Queue.QueueDepth,
			OldestAgeSeconds: int64(snap.Queue.OldestAge.Truncate(time.Second).Seconds()),
			Delivered:        snap.Queue.Delivered,
			Dropped:          snap.Queue.Dropped,
		},
		Counts: CountsJSON{
			CheckIns:  snap.Counts.CheckIns,
			CheckOuts: snap.Counts.CheckOuts,
		},
		Config: ConfigJSON{
			HTTPAddr:       snap.Config.HTTPAddr,
			Broker:         snap.Config.Broker,
			Endpoint:       snap.Config.Endpoint,
			QueueCapacity:  snap.Config.QueueCapacity,
			SweepMs:        snap.Config.SweepMs,
			AbsenceSweepMs: snap.Config.AbsenceSweepMs,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint.
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}
