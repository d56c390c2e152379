package track

// Entity is a schema-shaped record returned by the tracking server. The
// attribute set depends on the entity type and the server's configured
// schemas, so it stays a map with typed accessors rather than a struct.
type Entity map[string]interface{}

// Type returns the entity type name the server tagged the record with.
func (e Entity) Type() string {
	return e.String("__entity_type__")
}

// ID returns the entity id, or "" when absent.
func (e Entity) ID() string {
	return e.String("id")
}

// Name returns the entity name, or "" when absent.
func (e Entity) Name() string {
	return e.String("name")
}

// String returns the attribute as a string, or "" when absent or of
// another type.
func (e Entity) String(key string) string {
	if v, ok := e[key].(string); ok {
		return v
	}
	return ""
}

// Float returns the attribute as a float64 pointer, or nil when absent
// or null. JSON numbers always decode as float64.
func (e Entity) Float(key string) *float64 {
	if v, ok := e[key].(float64); ok {
		return &v
	}
	return nil
}

// Int returns the attribute as an int64 pointer, or nil when absent.
func (e Entity) Int(key string) *int64 {
	if v, ok := e[key].(float64); ok {
		n := int64(v)
		return &n
	}
	return nil
}

// Map returns the attribute as a nested map, or nil when absent. Custom
// attributes arrive this way.
func (e Entity) Map(key string) map[string]interface{} {
	if v, ok := e[key].(map[string]interface{}); ok {
		return v
	}
	return nil
}

// Entities returns the attribute as a list of nested entities, or nil
// when absent. Child collections arrive this way.
func (e Entity) Entities(key string) []Entity {
	raw, ok := e[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]Entity, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]interface{}); ok {
			out = append(out, Entity(m))
		}
	}
	return out
}
