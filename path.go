package rescomp

import (
	"strings"

	"github.com/meigma/rescomp/internal/romtype"
)

// NormalizePath maps a request-style path such as "/www//css/./site.css"
// onto the slash-separated form FS lookups expect ("www/css/site.css").
// Empty, "/" and "." all name the image root.
//
// Empty and "." segments are dropped. ".." is kept as is, so a path that
// tries to climb out of the image still fails fs.ValidPath in Open and Stat.
func NormalizePath(p string) string {
	segs := make([]string, 0, strings.Count(p, "/")+1)
	for seg := range strings.SplitSeq(p, "/") {
		if seg == "" || seg == romtype.SelfName {
			continue
		}
		segs = append(segs, seg)
	}
	if len(segs) == 0 {
		return romtype.SelfName
	}
	return strings.Join(segs, "/")
}
