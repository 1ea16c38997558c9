// Package walker navigates and mutates the materialized element list of a
// structure under export: path lookup, choice-type resolution, demand
// unfolding of complex-type children, and element insertion.
package walker

import (
	"strings"

	"github.com/gofhir/fshc/pool"
	"github.com/gofhir/fshc/service"
)

// ElementList is the ordered, materialized element list of one structure
// under export. The first element is the root.
type ElementList struct {
	// Root is the root path segment shared by every element, e.g. "Patient".
	Root string

	// Elements holds the elements in snapshot order.
	Elements []service.ElementDefinition

	// byPath maps full element paths to positions; rebuilt after mutation.
	byPath map[string]int
}

// FromSnapshot builds an element list from a structure definition snapshot,
// deep-copying the elements so the source stays untouched.
func FromSnapshot(sd *service.StructureDefinition) *ElementList {
	return NewElementList(service.CloneElements(sd.Snapshot))
}

// NewElementList builds a list over the given elements without copying.
func NewElementList(elements []service.ElementDefinition) *ElementList {
	l := &ElementList{Elements: elements}
	if len(elements) > 0 {
		l.Root = rootSegment(elements[0].Path)
	}
	l.reindex()
	return l
}

func rootSegment(path string) string {
	if i := strings.IndexByte(path, '.'); i >= 0 {
		return path[:i]
	}
	return path
}

func (l *ElementList) reindex() {
	l.byPath = make(map[string]int, len(l.Elements))
	for i := range l.Elements {
		l.byPath[l.Elements[i].Path] = i
	}
}

// Rebase rewrites the root path segment of every element, used when a
// specialization inherits its parent's elements under a new type name.
func (l *ElementList) Rebase(newRoot string) {
	if newRoot == "" || newRoot == l.Root {
		return
	}
	old := l.Root
	for i := range l.Elements {
		e := &l.Elements[i]
		if e.Path == old {
			e.Path = newRoot
		} else if strings.HasPrefix(e.Path, old+".") {
			e.Path = newRoot + e.Path[len(old):]
		}
		e.ID = e.Path
	}
	l.Root = newRoot
	l.reindex()
}

// Get returns the element at the full path, or nil.
func (l *ElementList) Get(path string) *service.ElementDefinition {
	if i, ok := l.byPath[path]; ok {
		return &l.Elements[i]
	}
	return nil
}

// Index returns the position of the full path, or -1.
func (l *ElementList) Index(path string) int {
	if i, ok := l.byPath[path]; ok {
		return i
	}
	return -1
}

// FullPath converts a rule path (relative to the root) to a full element
// path. An empty rule path addresses the root element.
func (l *ElementList) FullPath(rulePath string) string {
	if rulePath == "" {
		return l.Root
	}
	pb := pool.AcquirePathBuilder()
	defer pb.Release()
	return pb.Join(l.Root, rulePath)
}

// Find resolves a rule path to an element position. It tries the direct
// path first, then a choice-type variant of the last segment (valueString
// addressing value[x]). Returns -1 when nothing matches.
func (l *ElementList) Find(rulePath string) int {
	full := l.FullPath(rulePath)
	if i, ok := l.byPath[full]; ok {
		return i
	}
	return l.findChoice(full)
}

// FindOrUnfold resolves like Find, but when the path points below an
// element of a single complex type it splices that type's child elements
// in from the snapshot source and retries. Unfolding mutates the list.
func (l *ElementList) FindOrUnfold(rulePath string, snaps service.SnapshotSource) int {
	if i := l.Find(rulePath); i >= 0 {
		return i
	}
	if snaps == nil {
		return -1
	}
	full := l.FullPath(rulePath)

	// Unfold at the longest existing prefix, repeatedly, until the path
	// resolves or no further unfolding is possible. The depth bound keeps
	// malformed paths from unfolding forever.
	for depth := 0; depth < 8; depth++ {
		prefix := l.longestExistingPrefix(full)
		if prefix == "" || prefix == full {
			return -1
		}
		if !l.unfold(prefix, snaps) {
			return -1
		}
		if i, ok := l.byPath[full]; ok {
			return i
		}
		if i := l.findChoice(full); i >= 0 {
			return i
		}
	}
	return -1
}

// longestExistingPrefix returns the longest dotted prefix of full present
// in the list.
func (l *ElementList) longestExistingPrefix(full string) string {
	p := full
	for {
		i := strings.LastIndexByte(p, '.')
		if i < 0 {
			return ""
		}
		p = p[:i]
		if _, ok := l.byPath[p]; ok {
			return p
		}
	}
}

// unfold splices the child elements of the single-typed element at path
// into the list. Returns false when the element is missing, polymorphic,
// or its type has no snapshot.
func (l *ElementList) unfold(path string, snaps service.SnapshotSource) bool {
	idx, ok := l.byPath[path]
	if !ok {
		return false
	}
	parent := &l.Elements[idx]
	if len(parent.Types) != 1 {
		return false
	}
	sd, ok := snaps.Snapshot(parent.Types[0].Code)
	if !ok || len(sd.Snapshot) < 2 {
		return false
	}

	// Skip the type's own root and rebase its children under the parent.
	typeRoot := sd.Snapshot[0].Path
	children := make([]service.ElementDefinition, 0, len(sd.Snapshot)-1)
	for i := 1; i < len(sd.Snapshot); i++ {
		child := sd.Snapshot[i].Clone()
		child.Path = path + strings.TrimPrefix(child.Path, typeRoot)
		child.ID = child.Path
		children = append(children, child)
	}

	out := make([]service.ElementDefinition, 0, len(l.Elements)+len(children))
	out = append(out, l.Elements[:idx+1]...)
	out = append(out, children...)
	out = append(out, l.Elements[idx+1:]...)
	l.Elements = out
	l.reindex()
	return true
}

// Insert adds a new element, placed after the last current descendant of
// its parent path, or at the end when the parent has no other children.
// Returns the position of the inserted element.
func (l *ElementList) Insert(ed service.ElementDefinition) int {
	parent := ed.Path
	if i := strings.LastIndexByte(parent, '.'); i >= 0 {
		parent = parent[:i]
	}

	pos := len(l.Elements)
	if parent != ed.Path {
		for i := range l.Elements {
			p := l.Elements[i].Path
			if p == parent || strings.HasPrefix(p, parent+".") {
				pos = i + 1
			}
		}
	}

	out := make([]service.ElementDefinition, 0, len(l.Elements)+1)
	out = append(out, l.Elements[:pos]...)
	out = append(out, ed)
	out = append(out, l.Elements[pos:]...)
	l.Elements = out
	l.reindex()
	return pos
}
