// Package registry provides a generic thread-safe registry for values
// indexed by an ordered key.
//
// The catalog and tools packages use it for named node functions and
// tools; the service uses a bounded registry for its graph table.
//
// # Basic Usage
//
//	r := registry.New[string, miniflow.NodeFunc]()
//	r.Register("code_review.extract", extract)
//
//	fn, ok := r.Get("code_review.extract")
//
// Keys and Range visit entries in key order, so listings are stable.
//
// # Bounded Registries
//
// NewBounded caps the number of entries. Insert respects the cap and
// refuses duplicate keys; Register always succeeds and replaces:
//
//	graphs := registry.NewBounded[string, *miniflow.Graph](1000)
//	if err := graphs.Insert(id, g); errors.Is(err, registry.ErrFull) {
//	    // reject the request
//	}
//
// # Thread Safety
//
// All Registry methods are safe for concurrent use. Range iterates over
// a snapshot, so fn may mutate the registry.
package registry
