package web

import (
	"fmt"
	"html/template"
	"io"
	"log"
	"time"

	"github.com/sweeney/sprinkler/internal/station"
	"github.com/sweeney/sprinkler/internal/status"
)

const stamp = "2006-01-02 15:04:05 MST"

// clock renders a duration the way the controller display does: whole days
// followed by hh:mm:ss.
func clock(d time.Duration) string {
	secs := int64(d / time.Second)
	days, secs := secs/86400, secs%86400
	hms := fmt.Sprintf("%02d:%02d:%02d", secs/3600, secs/60%60, secs%60)
	if days == 0 {
		return hms
	}
	return fmt.Sprintf("%dd %s", days, hms)
}

// board groups one board's worth of station cells for the grid.
type board struct {
	Index    int
	Stations []status.Station
}

func boards(stations []status.Station) []board {
	var out []board
	for _, s := range stations {
		b := s.SID / station.PerBoard
		if len(out) == 0 || out[len(out)-1].Index != b {
			out = append(out, board{Index: b})
		}
		out[len(out)-1].Stations = append(out[len(out)-1].Stations, s)
	}
	return out
}

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"clock":  clock,
	"boards": boards,
	"stamp":  func(t time.Time) string { return t.Local().Format(stamp) },
	"state": func(on bool) string {
		if on {
			return "on"
		}
		return "off"
	},
	"inc": func(i int) int { return i + 1 },
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Sprinkler</title>
<style>
body { font-family: sans-serif; max-width: 720px; margin: 1.5em auto; padding: 0 1em; color: #222; }
header { display: flex; justify-content: space-between; align-items: baseline; }
.grid { display: grid; grid-template-columns: 5em repeat(8, 1fr); gap: 3px; margin: 1em 0; }
.grid div { padding: 6px 4px; font-size: 0.85em; text-align: center; border-radius: 3px; }
.grid .label { background: none; text-align: right; color: #666; }
.on { background: #2e7d32; color: #fff; }
.off { background: #eee; }
.disabled { background: #fafafa; color: #aaa; text-decoration: line-through; }
dl { display: grid; grid-template-columns: 12em 1fr; row-gap: 4px; }
dt { color: #666; }
dd { margin: 0; }
.bad { color: #c62828; }
</style>
</head>
<body>
<header>
<h1>Sprinkler</h1>
<span class="{{if not .Flags.Enabled}}bad{{end}}">{{if .Flags.Enabled}}enabled{{else}}disabled{{end}}{{if .Flags.RainDelayed}}, rain delay until {{stamp .RainDelayStop}}{{end}}</span>
</header>

<div class="grid">
{{range boards .Stations}}<div class="label">board {{.Index}}</div>
{{range .Stations}}<div class="{{if .Disabled}}disabled{{else}}{{state .On}}{{end}}" title="{{.Type}}">{{.Name}}{{if ne .Type "standard"}} ({{.Type}}){{end}}</div>
{{end}}{{end}}</div>

<dl>
{{range $i, $s := .Sensors}}<dt>Sensor {{inc $i}} ({{$s.Type}})</dt><dd>{{if $s.Active}}active{{else}}inactive{{end}}{{if ne $s.Raw $s.Active}} (settling){{end}}</dd>
{{end}}<dt>Boards</dt><dd>{{.Boards}}</dd>
<dt>Hardware</dt><dd>{{.Config.Hardware}}</dd>
<dt>Broker</dt><dd class="{{if not .MQTTConnected}}bad{{end}}">{{.Config.Broker}}{{if not .MQTTConnected}} (offline){{end}}</dd>
<dt>Stations switched</dt><dd>{{.Counts.StationOn}} on / {{.Counts.StationOff}} off</dd>
<dt>Sensor changes</dt><dd>{{.Counts.SensorActive}} active / {{.Counts.SensorInactive}} inactive</dd>
<dt>Program switch</dt><dd>{{.Counts.ProgramSwitch}}</dd>
<dt>Errors</dt><dd class="{{if or .Counts.DispatchErrors .Counts.BusErrors}}bad{{end}}">dispatch {{.Counts.DispatchErrors}}, bus {{.Counts.BusErrors}}</dd>
<dt>Up</dt><dd>{{clock .Uptime}} since {{stamp .StartTime}}</dd>
{{if .LastRebootCause}}<dt>Last reboot</dt><dd>{{.LastRebootCause}}{{if .FactoryReset}} (factory reset){{end}}</dd>
{{end}}<dt>Poll</dt><dd>{{.Config.PollMs}} ms</dd>
</dl>

<p><a href="/index.json">index.json</a> | <a href="/stations">stations</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{snap, snap.Uptime()}
	if err := indexTmpl.Execute(w, data); err != nil {
		log.Printf("web: render index: %v", err)
	}
}
