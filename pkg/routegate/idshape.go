package routegate

import (
	"regexp"
	"unicode/utf8"

	"github.com/google/uuid"
)

// InvalidIDMessage is the error text of an ID-shape rejection.
const InvalidIDMessage = "Invalid resource ID format"

// maxOpaqueIDLen is the longest non-UUID id that is still let through, short
// numeric or slug ids predate the move to UUIDs.
const maxOpaqueIDLen = 8

// resourcePath captures the segment two levels under /admin/ or /customer/.
var resourcePath = regexp.MustCompile(`^/(?:admin|customer)/[^/]+/([^/]+)`)

// knownSubPaths are page names that sit where an id normally would.
var knownSubPaths = map[string]struct{}{
	"new":       {},
	"add-pix":   {},
	"settings":  {},
	"dashboard": {},
}

// ResourceID returns the dynamic segment of path, if it has one.
func ResourceID(path string) (string, bool) {
	m := resourcePath.FindStringSubmatch(path)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ValidResourceID reports whether id is acceptable in a resource path.
func ValidResourceID(id string) bool {
	if _, ok := knownSubPaths[id]; ok {
		return true
	}
	if utf8.RuneCountInString(id) <= maxOpaqueIDLen {
		return true
	}
	return isCanonicalUUID(id)
}

// isCanonicalUUID accepts only the 8-4-4-4-12 form, in either case.
// uuid.Parse alone also takes urn: and braced forms.
func isCanonicalUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
