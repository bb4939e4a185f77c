// Package translator defines the capability that turns one source file's
// text into translated text via a remote model completion endpoint.
package translator

import "context"

// 🎯 Translator converts raw source text into translated text. A failed call
// fails the corresponding file permanently; no retries happen at this layer.
type Translator interface {
	Translate(ctx context.Context, content string) (string, error)
}
