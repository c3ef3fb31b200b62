//go:build !unix

package ui

import "context"

// Run is only supported on unix terminals.
func (t *Terminal) Run(ctx context.Context) error {
	return ErrNotTerminal
}
