package proxy

import (
	"bytes"
	"fmt"
	"html"
	"net/http"
	"strconv"

	"github.com/ptzproxy/ptzproxy/internal/app"
)

// serveStatus renders a small HTML overview of every configured camera
// mapping plus the recent log tail.
func serveStatus(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	var buf bytes.Buffer

	buf.WriteString("<html><head><title>ptzproxy</title></head><body>\n")
	fmt.Fprintf(&buf, "<h1>ptzproxy %s</h1>\n<ul>\n", app.Version)

	for _, cam := range registry {
		fmt.Fprintf(&buf, `<li><b>%s</b>: <a href="%s">%s</a> &rarr; %s (status %s)</li>`+"\n",
			html.EscapeString(cam.Name),
			cam.proxyURL, cam.proxyURL,
			html.EscapeString(cam.Host+":"+strconv.Itoa(cam.Port)),
			cam.rules.State().Status(),
		)
	}

	buf.WriteString("</ul>\n<h2>Log</h2>\n<pre>")

	var logBuf bytes.Buffer
	_, _ = app.MemoryLog.WriteTo(&logBuf)
	buf.WriteString(html.EscapeString(logBuf.String()))

	buf.WriteString("</pre>\n</body></html>\n")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
