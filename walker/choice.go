package walker

import "strings"

// findChoice resolves a full path whose last segment names a choice-type
// variant, e.g. "Observation.valueString" addressing "Observation.value[x]"
// when string is among the allowed types.
func (l *ElementList) findChoice(full string) int {
	dot := strings.LastIndexByte(full, '.')
	if dot < 0 {
		return -1
	}
	parent, last := full[:dot], full[dot+1:]

	for i := range l.Elements {
		path := l.Elements[i].Path
		if !strings.HasSuffix(path, "[x]") {
			continue
		}
		pdot := strings.LastIndexByte(path, '.')
		if pdot < 0 || path[:pdot] != parent {
			continue
		}
		base := strings.TrimSuffix(path[pdot+1:], "[x]")
		if !strings.HasPrefix(last, base) || len(last) == len(base) {
			continue
		}
		suffix := last[len(base):]
		for _, t := range l.Elements[i].Types {
			if upperFirst(t.Code) == suffix {
				return i
			}
		}
	}
	return -1
}

// ChoiceVariant reports whether rulePath addresses a choice variant and
// returns the chosen type code, e.g. ("value[x]", "string") for
// "valueString".
func (l *ElementList) ChoiceVariant(rulePath string) (typeCode string, ok bool) {
	i := l.Find(rulePath)
	if i < 0 {
		return "", false
	}
	path := l.Elements[i].Path
	if !strings.HasSuffix(path, "[x]") || l.FullPath(rulePath) == path {
		return "", false
	}
	full := l.FullPath(rulePath)
	base := strings.TrimSuffix(path, "[x]")
	suffix := strings.TrimPrefix(full, base)
	for _, t := range l.Elements[i].Types {
		if upperFirst(t.Code) == suffix {
			return t.Code, true
		}
	}
	return "", false
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}
