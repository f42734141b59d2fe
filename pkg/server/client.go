package server

import (
	"crypto/sha256"
	"fmt"
	"net/http"
	"strings"

	clientdist "github.com/weft-ui/weft/client/dist"
)

var thinClientETag = func() string {
	sum := sha256.Sum256(clientdist.WeftJS)
	return fmt.Sprintf("%q", fmt.Sprintf("%x", sum[:]))
}()

// serveThinClient serves the embedded client bundle with ETag
// revalidation, so updates are picked up without a versioned URL.
func (s *Server) serveThinClient(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("ETag", thinClientETag)
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "public, max-age=0, must-revalidate")

	if etagMatches(r.Header.Get("If-None-Match"), thinClientETag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Write(clientdist.WeftJS)
}

// etagMatches handles If-None-Match lists and weak validators.
func etagMatches(ifNoneMatch, etag string) bool {
	if ifNoneMatch == "" || etag == "" {
		return false
	}
	for _, part := range strings.Split(ifNoneMatch, ",") {
		candidate := strings.TrimSpace(part)
		if candidate == etag {
			return true
		}
		if strings.HasPrefix(candidate, "W/") && strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}

const indexPage = `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>weft</title>
</head>
<body>
<div id="weft-root"></div>
<script src="/client.js"></script>
</body>
</html>
`

// serveIndex serves the host page: a mount point and the thin client.
func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(indexPage))
}
