// Package publish hands a built output directory to a static-hosting
// branch. The publisher is a collaborator with a narrow contract: local
// build success is never rolled back by a remote failure, and failures are
// reported once through the error callback and the returned error.
package publish

import "context"

// Publisher pushes the contents of a local directory to a remote host.
type Publisher interface {
	Publish(ctx context.Context, dir string) error
}
