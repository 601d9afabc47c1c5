// Package catalog models the hierarchical source catalogs that podcaster
// mirrors.
//
// A Node is either an *Item (a single media entry) or a *Collection (an ordered
// list of child nodes, possibly nested). Callers distinguish them with a type
// switch; the set of node types is closed. Collections may load their children
// lazily so that traversal only pays for the parts of a catalog it visits.
// Child order is the order reported by the source and is the base order for
// traversal.
package catalog
