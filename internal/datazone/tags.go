package datazone

import "github.com/AltairaLabs/datazone-handlers/internal/version"

// Tag key constants applied to every taggable resource the handlers create.
const (
	TagKeyManagedBy = "datazone-handlers:managed-by"
	TagKeyVersion   = "datazone-handlers:version"
)

// managedByValue is the value of the TagKeyManagedBy tag.
const managedByValue = "datazone-handlers"

// buildResourceTags merges the default management tags with user-defined
// tags. User-defined tags take precedence when keys overlap.
func buildResourceTags(userTags map[string]string) map[string]string {
	tags := make(map[string]string, len(userTags)+2) //nolint:mnd // 2 default tag keys

	tags[TagKeyManagedBy] = managedByValue
	tags[TagKeyVersion] = version.Version

	for k, v := range userTags {
		tags[k] = v
	}
	return tags
}

// userTags strips the default management tags from tags read back from the
// control plane, so a read-back model round-trips to the desired model.
func userTags(tags map[string]string) map[string]string {
	if len(tags) == 0 {
		return nil
	}
	out := make(map[string]string, len(tags))
	for k, v := range tags {
		if k == TagKeyManagedBy || k == TagKeyVersion {
			continue
		}
		out[k] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
