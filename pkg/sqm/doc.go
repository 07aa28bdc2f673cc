// Package sqm turns a parse tree into a typed semantic query model.
//
// Compilation runs in two passes over the same parse tree, sharing one
// Context:
//
//  1. Index builds the Scope tree: one Scope per query or subquery, its
//     from-element-spaces and from-elements, with aliases registered.
//     Explicit join targets are resolved here.
//  2. Build walks the parse tree again, finds each query's Scope by parse
//     node id and produces the typed statement tree. Attribute paths are
//     resolved by the strategy on top of the resolver stack, which may
//     synthesize implicit joins.
//
// A Context must not be shared between compilations.
package sqm
