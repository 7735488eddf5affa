package appconfig

// DeepMerge returns a new document with override laid over base.
//
// Objects present on both sides are merged recursively; any other override
// value replaces the base value, arrays included. Null override values are
// ignored. Neither input is modified and the result shares no maps with them.
func DeepMerge(base, override Document) Document {
	out := cloneDocument(base)
	for key, value := range override {
		if value == nil {
			continue
		}
		overrideMap, isMap := value.(map[string]any)
		baseMap, baseIsMap := out[key].(map[string]any)
		if isMap && baseIsMap {
			out[key] = DeepMerge(baseMap, overrideMap)
			continue
		}
		out[key] = cloneValue(value)
	}
	return out
}

func cloneDocument(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		return cloneDocument(typed)
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
