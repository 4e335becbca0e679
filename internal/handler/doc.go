// Package handler implements the HTTP layer of the labtopo API.
//
// All topology reads are served from the immutable in-memory registry;
// probe observation history comes from the repository. Errors are
// returned as JSON with {error, details} structure, and the registry
// error taxonomy maps onto HTTP status codes: NotFoundError becomes
// 404, unknown roles and bad parameters become 400.
package handler
