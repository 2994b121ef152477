package dedupe

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/okian/scout/internal/domain/model"
)

// HashPrefix marks ids derived from content instead of a source id.
const HashPrefix = "hash:"

const hashLen = 16

var commentsPath = regexp.MustCompile(`/comments/([A-Za-z0-9]+)`) //nolint:gochecknoglobals // compiled once

// DeriveID returns a stable identity for c:
//  1. "<source>:<native id>" when the source supplied one;
//  2. the same form with an id parsed from the URL (Reddit /comments/<id>/, ad snapshot ?id=<n>);
//  3. "hash:" + the first 16 hex chars of sha256(title + "|" + unix created).
//
// Ids from 1 and 2 agree for the same item. The hash form is best effort and
// misses duplicates whose title or timestamp were rendered differently.
func DeriveID(c model.Candidate) string {
	if id := normaliseNative(c.NativeID); id != "" {
		return string(c.Source) + ":" + id
	}
	if id := idFromURL(c.URL); id != "" {
		return string(c.Source) + ":" + id
	}
	sum := sha256.Sum256([]byte(c.Title + "|" + strconv.FormatInt(c.CreatedAt.Unix(), 10)))
	return HashPrefix + hex.EncodeToString(sum[:])[:hashLen]
}

// normaliseNative strips Reddit's "t3_" fullname prefix so listing ids and
// fullnames map to the same identity.
func normaliseNative(id string) string {
	id = strings.TrimSpace(id)
	return strings.TrimPrefix(id, "t3_")
}

func idFromURL(raw string) string {
	if raw == "" {
		return ""
	}
	if m := commentsPath.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(u.Query().Get("id"))
}
