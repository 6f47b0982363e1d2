package web

import (
	"fmt"
	"html/template"
	"io"
	"log"
	"time"

	"github.com/sweeney/ups-adapter/internal/status"
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
	"millivolts": func(mv int) string {
		return fmt.Sprintf("%d.%03d V", mv/1000, mv%1000)
	},
	"ms": func(d time.Duration) string {
		return fmt.Sprintf("%d ms", d.Milliseconds())
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>UPS Adapter</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
h2 { font-size: 1.1em; margin-top: 1.5em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.ok { color: green; font-weight: bold; }
.stale { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>UPS Adapter</h1>

<table>
<tr><th>External voltage</th>
<td>{{if .VoltageOK}}<span class="ok">{{millivolts .VoltageMV}}</span>{{else}}<span class="stale">{{millivolts .VoltageMV}} (stale)</span>{{end}}</td></tr>
<tr><th>Shutdown cause</th><td>{{.Cause}}</td></tr>
<tr><th>LED/button pin</th><td>{{if .PinState}}{{.PinState}}{{else}}UNKNOWN{{end}}</td></tr>
{{if .LastAction}}<tr><th>Last power action</th><td>{{.LastAction.Kind}} {{.LastAction.Op}}{{if .LastAction.Duration}} ({{ms .LastAction.Duration}}){{end}}</td></tr>{{end}}
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>MQTT</th>
<td>{{if .MQTTConnected}}<span class="connected">connected</span>{{else}}<span class="disconnected">disconnected</span>{{end}} ({{.Config.Broker}})</td></tr>
</table>

<h2>Configuration</h2>
<table>
<tr><th>Reset configuration</th><td>{{.Config.ResetConfig}}</td></tr>
<tr><th>LED off mode</th><td>{{.Config.LEDOffMode}}</td></tr>
<tr><th>Switch line</th><td>{{.Config.LineSwitch}}</td></tr>
<tr><th>LED/button line</th><td>{{.Config.LineLEDButton}}</td></tr>
</table>

<h2>Timings</h2>
<table>
<tr><th>Pulse length</th><td>{{ms .Timings.PulseLength}}</td></tr>
<tr><th>Pulse length (on)</th><td>{{ms .Timings.PulseLengthOn}}</td></tr>
<tr><th>Pulse length (off)</th><td>{{ms .Timings.PulseLengthOff}}</td></tr>
<tr><th>Switch recovery delay</th><td>{{ms .Timings.SwitchRecoveryDelay}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	if err := indexTmpl.Execute(w, snap); err != nil {
		log.Printf("web: render template: %v", err)
	}
}
