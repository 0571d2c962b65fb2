// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package document

// Resolve walks path inside doc. It reports false (absent) when any segment
// is missing, addresses a non-container, is out of range, or lands on null.
func Resolve(doc Value, path Path) (Value, bool) {
	cur := doc
	for _, seg := range path {
		var ok bool
		if seg.isIndex {
			cur, ok = cur.Index(seg.index)
		} else {
			cur, ok = cur.Field(seg.key)
		}
		if !ok {
			return Value{}, false
		}
	}
	if cur.IsNull() {
		return Value{}, false
	}
	return cur, true
}

// ResolveText resolves path and returns its scalar text.
func ResolveText(doc Value, path Path) (string, bool) {
	v, ok := Resolve(doc, path)
	if !ok {
		return "", false
	}
	return v.Text()
}
