package content

// RenderedArtifact is what the pipeline stores under a page's cache key.
type RenderedArtifact struct {
	Content     string         `cbor:"content"`
	ContentMeta map[string]any `cbor:"content_meta,omitempty"`
}
