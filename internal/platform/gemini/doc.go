// Package gemini provides the Google provider client, backed by the
// google.golang.org/genai SDK.
//
// This package is an infrastructure adapter: it translates the
// provider-agnostic messages and options of internal/provider into genai
// requests and maps genai responses and errors back, without exposing SDK
// types to the rest of the application.
//
// Key components:
//
// 1. Client:
//   - Implements provider.ChatClient via Models.GenerateContent, with system
//     messages sent as the system instruction and images as inline parts
//   - Implements provider.ImageClient via Models.GenerateImages (Imagen)
//
// 2. Error handling:
//   - Retries transient API errors (429 and 5xx) with exponential backoff
//   - Reports safety blocks as provider.ErrContentBlocked, which is not retried
//   - Wraps every failure in a *provider.Error carrying the HTTP status
package gemini
