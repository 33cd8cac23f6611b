package server

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// reloadScript is the client side of the hot-reload channel: connect,
// wait for the reload token, refresh.
const reloadScript = `(function () {
	var proto = location.protocol === "https:" ? "wss://" : "ws://";
	var socket = new WebSocket(proto + location.host + "/ws/hot-reload");
	socket.onmessage = function (event) {
		if (event.data === "reload") {
			location.reload();
		}
	};
	socket.onclose = function () {
		setTimeout(function () { location.reload(); }, 1000);
	};
})();`

// injectReloadScript wraps a handler so HTML responses carry the
// hot-reload client. Development mode only; non-HTML responses pass
// through untouched.
func injectReloadScript(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Upgrade requests need the raw connection.
		if r.Header.Get("Upgrade") != "" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &bufferingWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		body := rec.buf.Bytes()
		if strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html") {
			if injected, ok := appendScript(body); ok {
				body = injected
			}
		}

		rec.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.WriteHeader(rec.status)
		w.Write(body)
	})
}

// appendScript parses the document and adds the reload script to the
// end of <body>. Parsing rather than string surgery keeps the injection
// correct for documents where "</body>" appears inside scripts or
// comments.
func appendScript(body []byte) ([]byte, bool) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, false
	}

	bodyNode := findElement(doc, atom.Body)
	if bodyNode == nil {
		return nil, false
	}

	script := &html.Node{
		Type:     html.ElementNode,
		Data:     "script",
		DataAtom: atom.Script,
	}
	script.AppendChild(&html.Node{
		Type: html.TextNode,
		Data: reloadScript,
	})
	bodyNode.AppendChild(script)

	var out bytes.Buffer
	if err := html.Render(&out, doc); err != nil {
		return nil, false
	}
	return out.Bytes(), true
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

// bufferingWriter captures a response so middleware can rewrite it.
type bufferingWriter struct {
	http.ResponseWriter
	buf    bytes.Buffer
	status int
}

func (b *bufferingWriter) WriteHeader(status int) {
	b.status = status
}

func (b *bufferingWriter) Write(p []byte) (int, error) {
	return b.buf.Write(p)
}
