// Package media defines the domain models shared by the catalog resolver,
// the provider waterfall and the playback session.
package media

import "strings"

// NamespaceDelimiter separates a namespace prefix from the provider-local
// part of a compound episode id.
const NamespaceDelimiter = "$"

// Episode represents a discrete media segment within a series.
// ID is provider/catalog-specific and may be compound; see CleanID.
type Episode struct {
	ID        string `json:"id"`
	Number    int    `json:"number"`
	Title     string `json:"title,omitempty"`
	Thumbnail string `json:"image,omitempty"`
}

// CleanID strips any namespace prefix from a compound episode id, returning
// the provider-local part. Plain ids pass through unchanged.
func CleanID(id string) string {
	if !strings.Contains(id, NamespaceDelimiter) {
		return id
	}
	parts := strings.Split(id, NamespaceDelimiter)
	return parts[len(parts)-1]
}
