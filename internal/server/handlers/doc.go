// Package handlers contains HTTP handlers for the cardlink hook API.
//
// Card handlers expose the rewriter, the customizer, the resolver and the
// preview engine; monitoring handlers serve health. Errors are written through
// the foundation/errors HTTP adapter and bodies use the server/responses types.
package handlers
