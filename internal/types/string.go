package types

import (
	"fmt"
	"strings"
)

// String renders a type for diagnostics: `list[int]`, `dict[str, int]`,
// `int | None`, `(float) -> float`.
func (in *Interner) String(id TypeID) string {
	if !id.IsValid() {
		return "<invalid>"
	}
	d := in.Get(id)
	switch d.Kind {
	case KindAny:
		return "Any"
	case KindNever:
		return "Never"
	case KindNone:
		return "None"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindStr:
		return "str"
	case KindBytes:
		return "bytes"
	case KindError:
		return "<error>"
	case KindList:
		return fmt.Sprintf("list[%s]", in.String(d.Elem))
	case KindSet:
		return fmt.Sprintf("set[%s]", in.String(d.Elem))
	case KindDict:
		return fmt.Sprintf("dict[%s, %s]", in.String(d.Key), in.String(d.Value))
	case KindTuple:
		parts := make([]string, len(d.Elems))
		for i, e := range d.Elems {
			parts[i] = in.String(e)
		}
		return fmt.Sprintf("tuple[%s]", strings.Join(parts, ", "))
	case KindFunction:
		parts := make([]string, len(d.Params))
		for i, p := range d.Params {
			parts[i] = in.String(p.Type)
		}
		return fmt.Sprintf("(%s) -> %s", strings.Join(parts, ", "), in.String(d.Result))
	case KindClass:
		if info := in.ClassOf(id); info != nil {
			return info.Name
		}
		return "<class>"
	case KindProtocol:
		if info := in.ProtocolOf(id); info != nil {
			return info.Name
		}
		return "<protocol>"
	case KindUnion:
		// None reads best last: `str | None`, not `None | str`.
		parts := make([]string, 0, len(d.Elems))
		hasNone := false
		for _, m := range d.Elems {
			if in.KindOf(m) == KindNone {
				hasNone = true
				continue
			}
			parts = append(parts, in.String(m))
		}
		if hasNone {
			parts = append(parts, "None")
		}
		return strings.Join(parts, " | ")
	case KindTypeVar:
		if info := in.TypeVarOf(id); info != nil {
			return info.Name
		}
		return "<typevar>"
	}
	return "<invalid>"
}
