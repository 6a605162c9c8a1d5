package coretools

// objectSchema builds an object schema with the given properties and
// required field names. Unknown fields are deliberately left allowed so
// callers can pass forward-compatible extras.
func objectSchema(properties map[string]interface{}, required ...string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		req := make([]interface{}, 0, len(required))
		for _, field := range required {
			req = append(req, field)
		}
		schema["required"] = req
	}
	return schema
}
