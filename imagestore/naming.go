package imagestore

import (
	"fmt"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"
)

// DefaultExt is used when no extension can be recovered from the URL.
const DefaultExt = ".jpg"

// NamePrefix starts every stored image name.
const NamePrefix = "community_"

// queryFormats are the image types accepted from a ?format= parameter, as
// used by pbs.twimg.com when the path has no suffix.
var queryFormats = map[string]struct{}{
	"jpg": {}, "jpeg": {}, "png": {}, "gif": {}, "webp": {}, "avif": {},
}

// Extension derives a file extension (with leading dot) from an image URL.
// The path suffix wins, then a known ?format= value, then DefaultExt.
func Extension(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return DefaultExt
	}
	if ext := path.Ext(u.Path); validExt(ext) {
		return ext
	}
	if f := strings.ToLower(u.Query().Get("format")); f != "" {
		if _, ok := queryFormats[f]; ok {
			return "." + f
		}
	}
	return DefaultExt
}

// validExt accepts a dot followed by 1-5 ASCII letters or digits, which keeps
// generated names safe as plain file names.
func validExt(ext string) bool {
	if len(ext) < 2 || len(ext) > 6 || ext[0] != '.' {
		return false
	}
	for _, r := range ext[1:] {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

// Namer generates prefix<unix-ms><ext> names. Milliseconds are made strictly
// increasing per Namer, so two names from the same process never collide even
// when generated within the same millisecond or across a clock step back.
type Namer struct {
	prefix string
	now    func() time.Time

	mu   sync.Mutex
	last int64
}

// NewNamer creates a Namer using the wall clock.
func NewNamer(prefix string) *Namer {
	return &Namer{prefix: prefix, now: time.Now}
}

// Next returns the next unique name.
func (n *Namer) Next(ext string) string {
	n.mu.Lock()
	ms := n.now().UnixMilli()
	if ms <= n.last {
		ms = n.last + 1
	}
	n.last = ms
	n.mu.Unlock()
	return fmt.Sprintf("%s%d%s", n.prefix, ms, ext)
}

// validName rejects anything that could escape the flat image namespace.
func validName(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`) && !strings.Contains(name, "..")
}
