// Package sqlast is the SQL level tree produced by the generator: table
// spaces and table groups, column references, predicates, return
// descriptors and parameter binders. Render turns a statement into SQL text
// for a dialect.
package sqlast
