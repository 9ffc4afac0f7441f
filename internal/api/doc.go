// Package api exposes the generation pipeline over HTTP. It decodes and
// validates requests, takes the caller's identity from the access token,
// calls the generation service and maps its errors to status codes without
// leaking provider or database details.
package api
