package dump

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/blacktop/il2cppdump/pkg/il2cpp/metadata"
)

// qualifiedName is Namespace.Name, or Name in the global namespace.
func (r *renderer) qualifiedName(def metadata.TypeDefinition) (string, error) {
	ns, err := r.m.TypeNamespace(def)
	if err != nil {
		return "", err
	}
	name, err := r.m.TypeName(def)
	if err != nil {
		return "", err
	}
	if ns == "" {
		return name, nil
	}
	return ns + "." + name, nil
}

// namespaceTypes returns the indices of the type definitions whose namespace
// starts with the configured proto namespace.
func (r *renderer) namespaceTypes() []int {
	var out []int
	for i, def := range r.m.TypeDefinitions() {
		ns, err := r.m.TypeNamespace(def)
		if err == nil && strings.HasPrefix(ns, r.conf.ProtoNamespace) {
			out = append(out, i)
		}
	}
	return out
}

func (r *renderer) hasNamespace() bool {
	return len(r.namespaceTypes()) > 0
}

// inNamespace reports whether a type definition sharing def's name is one of
// the namespace types.
func (r *renderer) inNamespace(selected []int, def metadata.TypeDefinition) bool {
	defs := r.m.TypeDefinitions()
	for _, i := range selected {
		if defs[i].NameIndex == def.NameIndex {
			return true
		}
	}
	return false
}

// defaultValue formats the constant of a field, if it has one.
func (r *renderer) defaultValue(fieldIndex int) (string, bool, error) {
	v, ok, err := r.m.DefaultValue(int32(fieldIndex))
	if err != nil || !ok {
		return "", false, err
	}
	return formatValue(v), true, nil
}

func formatValue(v any) string {
	switch v := v.(type) {
	case string:
		return strconv.Quote(v)
	case metadata.Char:
		return strconv.QuoteRune(rune(v))
	case bool:
		return strconv.FormatBool(v)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// genericArgument strips "Outer`1<" and ">" from a resolved generic instance
// name whose definition is prefix.
func genericArgument(name, prefix string) (string, bool) {
	if !strings.HasPrefix(name, prefix+"<") || !strings.HasSuffix(name, ">") {
		return "", false
	}
	return name[len(prefix)+1 : len(name)-1], true
}
