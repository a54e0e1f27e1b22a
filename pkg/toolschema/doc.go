// Package toolschema models the JSON-Schema-like contracts that MCP servers
// attach to their tools and checks whether those contracts are usable by an
// AI tool-calling consumer.
//
// A Schema is a tagged union: exactly one type variant (string, number,
// integer, boolean, array, object or null) is active per node, and metadata
// such as title, description, enum or const sits beside it. Decode performs a
// strict conversion from raw JSON; Parse is the best-effort variant used when
// ingesting schemas from remote servers, falling back to an empty object
// schema that remembers the bytes it could not interpret.
//
// Validate is a predicate with a reason: a tool is usable when its input
// schema is an object and every required field is declared in properties.
package toolschema
