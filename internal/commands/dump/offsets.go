package dump

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// writeOffsets lists "{Namespace.}{Type}{Method} 0x{ptr}" for every method
// with a native entry, one blank line after each type.
func (r *renderer) writeOffsets(ctx context.Context, w io.Writer) error {
	methods := r.m.Methods()
	for _, def := range r.m.TypeDefinitions() {
		if err := ctx.Err(); err != nil {
			return err
		}
		tname, err := r.qualifiedName(def)
		if err != nil {
			return err
		}
		var sb strings.Builder
		for i := int(def.MethodStart); i < int(def.MethodStart)+int(def.MethodCount); i++ {
			ptr, ok := r.m.MethodPointer(methods[i].MethodIndex)
			if !ok {
				continue
			}
			mname, err := r.m.GetString(methods[i].NameIndex)
			if err != nil {
				return err
			}
			fmt.Fprintf(&sb, "%s%s 0x%x\n", tname, mname, ptr)
		}
		sb.WriteString("\n")
		if _, err := io.WriteString(w, sb.String()); err != nil {
			return err
		}
	}
	return nil
}
