package structure

// Structure is a JSON-shaped nested mapping: values are scalars, nested
// Structures, or lists. It is the wire representation of task definitions and
// service definitions, with no schema enforced by the merge engine itself.
type Structure = map[string]interface{}

// MergeFunc merges the base and overlay values of a single named field and
// returns the resulting value. Implementations must tolerate a nil or
// wrongly-typed base value (the field may be absent from the remote snapshot).
type MergeFunc func(base, overlay interface{}) interface{}

// strategies maps field names to their merge strategies. Populated statically
// below; extended via RegisterStrategy.
var strategies = map[string]MergeFunc{}

func init() {
	RegisterStrategy("containerDefinitions", KeyedList("name"))
	RegisterStrategy("environment", mergeEnvironment)
}

// RegisterStrategy installs a merge strategy for the named field. Registration
// is expected at package init time, before any Merge call; the registry is not
// safe for concurrent mutation.
func RegisterStrategy(field string, fn MergeFunc) {
	strategies[field] = fn
}

// Merge recursively folds overlay into base and returns base. Overlay takes
// precedence on scalar conflicts, registered keyed-list fields merge by
// element identity, nested mappings recurse, and every other value (including
// unregistered lists) is replaced outright. Keys present only in base are
// preserved untouched.
//
// When the overlay value's type conflicts with the base value's type at the
// same key, the overlay wins without any merge attempt. Merge never fails;
// a non-mapping overlay is a caller error, not something handled here.
func Merge(base, overlay Structure) Structure {
	if base == nil {
		base = Structure{}
	}
	for key, value := range overlay {
		if strategy, ok := strategies[key]; ok {
			base[key] = strategy(base[key], value)
			continue
		}
		if nested, ok := value.(map[string]interface{}); ok {
			sub, _ := base[key].(map[string]interface{})
			base[key] = Merge(sub, nested)
			continue
		}
		base[key] = value
	}
	return base
}

// KeyedList returns a strategy that merges two lists of mappings by the
// identity stored under key. Elements sharing an identity are merged
// recursively; base elements keep their original position and new overlay
// elements append in overlay order. Elements without a usable identity pass
// through positionally.
func KeyedList(key string) MergeFunc {
	return func(base, overlay interface{}) interface{} {
		out := make([]interface{}, 0)
		index := make(map[string]int)

		for _, element := range asList(base) {
			if m, ok := element.(map[string]interface{}); ok {
				if id, ok := m[key].(string); ok {
					index[id] = len(out)
					out = append(out, m)
					continue
				}
			}
			out = append(out, element)
		}

		for _, element := range asList(overlay) {
			m, ok := element.(map[string]interface{})
			if !ok {
				out = append(out, element)
				continue
			}
			id, _ := m[key].(string)
			if pos, ok := index[id]; ok {
				if existing, ok := out[pos].(map[string]interface{}); ok {
					out[pos] = Merge(existing, m)
					continue
				}
			}
			index[id] = len(out)
			out = append(out, m)
		}
		return out
	}
}

// mergeEnvironment merges environment-variable lists. The wire shape is a
// list of {name, value} pairs rather than a mapping, so the pairs are packed
// into an ordered index, updated from the overlay, and unpacked again: base
// variables keep their position, overlay values win, new variables append.
func mergeEnvironment(base, overlay interface{}) interface{} {
	out := make([]interface{}, 0)
	index := make(map[string]int)

	pack := func(element interface{}) (string, interface{}, bool) {
		m, ok := element.(map[string]interface{})
		if !ok {
			return "", nil, false
		}
		name, ok := m["name"].(string)
		if !ok {
			return "", nil, false
		}
		return name, m["value"], true
	}

	for _, element := range asList(base) {
		name, value, ok := pack(element)
		if !ok {
			out = append(out, element)
			continue
		}
		index[name] = len(out)
		out = append(out, map[string]interface{}{"name": name, "value": value})
	}

	for _, element := range asList(overlay) {
		name, value, ok := pack(element)
		if !ok {
			out = append(out, element)
			continue
		}
		if pos, ok := index[name]; ok {
			out[pos].(map[string]interface{})["value"] = value
			continue
		}
		index[name] = len(out)
		out = append(out, map[string]interface{}{"name": name, "value": value})
	}
	return out
}

func asList(v interface{}) []interface{} {
	list, _ := v.([]interface{})
	return list
}
