package metadata

import (
	"fmt"

	"go.senan.xyz/taglib"
)

// ReadTags reads artist, title and album from an audio file. Missing tags
// come back as empty strings.
func ReadTags(path string) (RawTags, error) {
	tags, err := taglib.ReadTags(path)
	if err != nil {
		return RawTags{}, fmt.Errorf("failed to read tags from %s: %w", path, err)
	}

	return RawTags{
		Artist: firstTag(tags, taglib.Artist),
		Title:  firstTag(tags, taglib.Title),
		Album:  firstTag(tags, taglib.Album),
	}, nil
}

func firstTag(tags map[string][]string, key string) string {
	if vals, ok := tags[key]; ok && len(vals) > 0 {
		return vals[0]
	}
	return ""
}
