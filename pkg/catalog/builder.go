package catalog

import (
	"errors"
	"fmt"
	"html"
	"log"
)

// ErrSkipped marks an event that was discarded because its payload lacked a
// required identifying field. The stream continues; the node is never
// retried.
var ErrSkipped = errors.New("catalog: event skipped")

// Builder consumes an ordered event stream and grows the tree one node at a
// time. Parent inference relies on a single piece of memory: the most
// recently inserted node. Because the producer emits a valid depth-first
// preorder walk, and ranks never decrease from root to leaf along a path,
// climbing from that node to the first ancestor of strictly lower rank
// always lands on the correct parent — no stack or path structure needed.
//
// Builder is single-consumer state. The UI loop owns it and feeds it events
// in arrival order; nothing else may touch it.
type Builder struct {
	root *Node
	last *Node
}

// NewBuilder returns a builder with an empty tree.
func NewBuilder() *Builder {
	return &Builder{root: NewTree()}
}

// Root returns the tree's synthetic root node.
func (b *Builder) Root() *Node { return b.root }

// Insert reconstructs one event into a tree node. Events whose payload lacks
// a required field are logged and discarded (ErrSkipped); a skipped event
// does not advance the last-inserted pointer, so the next event still sees
// the position of the last real insertion.
func (b *Builder) Insert(ev Event) (*Node, error) {
	node, err := newNode(ev)
	if err != nil {
		log.Printf("ERROR cannot build %s node: %v", ev.Kind, err)
		return nil, fmt.Errorf("%w: %v", ErrSkipped, err)
	}

	b.parentFor(ev.Kind).add(node)
	b.last = node
	return node, nil
}

// parentFor infers the parent for an incoming node of the given generic
// kind. Courses always attach to the root regardless of the last inserted
// node; everything else climbs from the last inserted node to the first
// ancestor whose rank is strictly below the incoming rank, stopping at the
// root. Kept as its own function because the stop condition is the single
// most failure-prone piece of the whole reconstruction.
func (b *Builder) parentFor(kind Kind) *Node {
	if kind == KindCourse {
		return b.root
	}
	candidate := b.last
	if candidate == nil {
		// Stream did not start with a course; attach at the root rather
		// than dropping the branch.
		return b.root
	}
	for kind.Rank() <= candidate.Kind.Rank() && candidate.parent != nil {
		candidate = candidate.parent
	}
	return candidate
}

// newNode resolves an event's concrete kind and builds the node. Module and
// content events specialize via their subtype tag; courses and sections pass
// through unchanged. Titles are unescaped here, once.
func newNode(ev Event) (*Node, error) {
	switch ev.Kind {
	case KindCourse:
		if ev.Course == nil || ev.Course.ID == nil {
			return nil, errors.New("course record has no id")
		}
		return &Node{
			Kind:     KindCourse,
			Title:    html.UnescapeString(ev.Course.ShortName),
			RemoteID: *ev.Course.ID,
		}, nil

	case KindSection:
		if ev.Section == nil || ev.Section.ID == nil {
			return nil, errors.New("section record has no id")
		}
		return &Node{
			Kind:     KindSection,
			Title:    html.UnescapeString(ev.Section.Name),
			RemoteID: *ev.Section.ID,
		}, nil

	case KindModule:
		if ev.Module == nil || ev.Module.ID == nil {
			return nil, errors.New("module record has no id")
		}
		return &Node{
			Kind:     ModuleKind(ev.Module.ModName),
			Title:    html.UnescapeString(ev.Module.Name),
			RemoteID: *ev.Module.ID,
		}, nil

	case KindContent:
		if ev.Content == nil || ev.Content.Filename == "" {
			return nil, errors.New("content record has no filename")
		}
		return &Node{
			Kind:        ContentKind(ev.Content.Type),
			Title:       html.UnescapeString(ev.Content.Filename),
			ResourceURL: ev.Content.FileURL,
			FileSize:    ev.Content.FileSize,
		}, nil

	default:
		return nil, fmt.Errorf("unexpected event kind %s", ev.Kind)
	}
}
