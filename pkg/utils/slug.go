package utils

import (
	"github.com/gosimple/slug"
)

// NormalizeSlug creates a file-name-safe slug using the gosimple/slug library.
// Underscores become hyphens, so "driver_standings" comes back as "driver-standings".
func NormalizeSlug(text string) string {
	if text == "" {
		return ""
	}

	return slug.Make(text)
}

// GenerateEndpointName derives an endpoint name from a human title such as "Pit Stops"
func GenerateEndpointName(title string) string {
	if title == "" {
		return "endpoint"
	}
	return NormalizeSlug(title)
}
