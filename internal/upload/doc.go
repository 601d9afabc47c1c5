// Package upload walks catalogs and delivers every item the cache has not
// seen yet.
//
// Traversal is depth-first and single-threaded. Under newest-first order a
// cached item or a fully cached child collection ends the current frame,
// since everything after it is older and was handled by an earlier run.
// Under oldest-first order cached entries are skipped and the walk goes on.
// The cache is written only after an item is fully delivered, so an
// interrupted run repeats at most the item in flight.
package upload
