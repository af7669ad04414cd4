// Package bindkit is a hierarchical binding-resolution engine: it maps
// identifiers (type plus optional qualifier) to live instances through
// registered construction recipes, applying singleton or unscoped lifetimes.
//
// Scopes form a tree. A child scope sees its ancestors' bindings, shadows
// them with its own, and bans just-in-time synthesis of its keys in every
// ancestor for as long as it lives; closing a child retracts exactly its own
// contributions.
//
// True construction cycles are detected per resolution call and broken with
// single-assignment deferred handles when the dependency declares that it
// can accept one; all other cycles fail with a CircularDependencyError
// naming the chain.
package bindkit
