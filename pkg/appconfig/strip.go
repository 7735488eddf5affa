package appconfig

// InternalIDKey is the identifier the provider's store attaches to nested objects.
const InternalIDKey = "_id"

// StripInternalIDs returns a copy of doc where every top-level object value
// has its "_id" key removed. The top-level "_id" entry itself and non-object
// values pass through. doc is not modified.
func StripInternalIDs(doc Document) Document {
	out := make(Document, len(doc))
	for key, value := range doc {
		nested, ok := value.(map[string]any)
		if !ok || nested == nil || key == InternalIDKey {
			out[key] = value
			continue
		}
		if _, has := nested[InternalIDKey]; !has {
			out[key] = value
			continue
		}
		stripped := make(map[string]any, len(nested)-1)
		for k, v := range nested {
			if k != InternalIDKey {
				stripped[k] = v
			}
		}
		out[key] = stripped
	}
	return out
}
