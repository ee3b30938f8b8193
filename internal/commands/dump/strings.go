package dump

import (
	"context"
	"io"
)

// writeStrings writes one string literal per line.
func (r *renderer) writeStrings(ctx context.Context, w io.Writer) error {
	for _, lit := range r.m.StringLiterals() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := io.WriteString(w, lit+"\n"); err != nil {
			return err
		}
	}
	return nil
}
