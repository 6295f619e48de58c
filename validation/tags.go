package validation

import "strings"

const MaxTagsPerRequest = 20

// ParseTags splits a comma separated list, trims and de-duplicates it and
// keeps the first MaxTagsPerRequest entries in input order.
func ParseTags(raw string) []string {
	seen := make(map[string]struct{})
	var tags []string
	for _, part := range strings.Split(raw, ",") {
		tag := strings.TrimSpace(part)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
		if len(tags) == MaxTagsPerRequest {
			break
		}
	}
	return tags
}
