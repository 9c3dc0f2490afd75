package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/presence-engine/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"pct": func(f float64) string {
		return fmt.Sprintf("%.0f%%", f*100)
	},
	"opacity": func(f float64) string {
		// Keep rows legible even at zero certainty.
		return fmt.Sprintf("%.2f", 0.35+0.65*f)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Presence Engine</title>
<style>
body { font-family: monospace; max-width: 700px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
.inside { color: green; font-weight: bold; }
.outside { color: #888; }
.transitioning { color: orange; }
.unknown { color: orange; }
.stale { font-style: italic; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Presence Engine</h1>

<h2>Tags</h2>
{{if .Tags}}
<table>
<tr><th>Tag</th><th>Identity</th><th>State</th><th>RSSI</th><th>Receiver</th><th>Certainty</th><th>Last Seen</th></tr>
{{range .Tags}}
<tr style="opacity: {{opacity .Certainty}}"{{if .Stale}} class="stale"{{end}}>
<td>{{.TagID}}</td>
<td>{{.Identity}}</td>
<td class="{{if eq .State "INSIDE"}}inside{{else if eq .State "OUTSIDE"}}outside{{else if eq .State "TRANSITIONING"}}transitioning{{else}}unknown{{end}}">{{.State}}</td>
<td>{{.LastStrength}}</td>
<td>{{.LastReceiver}}</td>
<td>{{pct .Certainty}}</td>
<td>{{.LastSeen}}</td>
</tr>
{{end}}
</table>
{{else}}
<p>No tags tracked yet.</p>
{{end}}

<h2>Event Counts</h2>
<table>
<tr><th>Check-ins</th><td>{{.Snap.Counts.CheckIns}}</td></tr>
<tr><th>Check-outs</th><td>{{.Snap.Counts.CheckOuts}}</td></tr>
</table>

<h2>Delivery</h2>
<table>
<tr><th>Queue depth</th><td>{{.Snap.Queue.QueueDepth}}</td></tr>
<tr><th>Delivered</th><td>{{.Snap.Queue.Delivered}}</td></tr>
<tr><th>Dropped</th><td>{{.Snap.Queue.Dropped}}</td></tr>
<tr><th>Endpoint</th><td>{{.Snap.Config.Endpoint}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
{{if .Snap.Config.Broker}}<tr><th>MQTT</th><td class="{{if .Snap.MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .Snap.MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Snap.Config.Broker}}</td></tr>{{else}}<tr><th>MQTT</th><td>disabled</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.Snap.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Delivery sweep</th><td>{{.Snap.Config.SweepMs}}ms</td></tr>
<tr><th>Absence sweep</th><td>{{.Snap.Config.AbsenceSweepMs}}ms</td></tr>
<tr><th>HTTP</th><td>{{.Snap.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> &middot; <a href="/api/tags">Tags API</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot, tags []tagView) {
	data := struct {
		Snap   status.Snapshot
		Tags   []tagView
		Uptime time.Duration
	}{
		Snap:   snap,
		Tags:   tags,
		Uptime: snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
