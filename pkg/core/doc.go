// Package core defines the shared language of the LeapQL compiler.
//
// This package contains:
//   - The compilation error taxonomy (SemanticError, ParsingError, ...)
//   - Join kinds shared by the object tree and the SQL tree
//   - Adapter and dialect configuration types
//
// The Golden Rule: pkg/core imports ONLY pkg/token and stdlib.
// All other packages depend on core, not the reverse.
package core
