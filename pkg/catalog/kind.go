// Package catalog models a remote course catalog as a tree and rebuilds that
// tree incrementally from a flat, strictly ordered stream of typed node
// events. The reconstruction needs no explicit stack: node kinds carry a rank
// that mirrors nesting depth, and a single "last inserted node" pointer is
// enough to infer every parent (see Builder).
package catalog

// Kind identifies what a catalog node is. Specialized module and content
// kinds share the rank of their generic kind, so rank comparisons see
// "a resource" and "a quiz" as siblings at module depth.
type Kind int

const (
	KindRoot Kind = iota
	KindCourse
	KindSection
	KindModule
	// Module specializations.
	KindForum
	KindResource
	KindFolder
	KindAttendance
	KindLabel
	KindQuiz
	KindContent
	// Content specializations.
	KindFile
	KindURL
)

// Rank is the total order used for parent inference: it strictly increases
// with nesting depth, except among specializations of a shared generic kind,
// which all collapse onto the generic kind's rank.
func (k Kind) Rank() int {
	switch k {
	case KindRoot:
		return 0
	case KindCourse:
		return 1
	case KindSection:
		return 2
	case KindModule, KindForum, KindResource, KindFolder, KindAttendance, KindLabel, KindQuiz:
		return 3
	case KindContent, KindFile, KindURL:
		return 10
	default:
		return 10
	}
}

// Selectable reports whether nodes of this kind carry a tri-state checkbox
// and take part in selection propagation.
func (k Kind) Selectable() bool {
	switch k {
	case KindFile, KindFolder, KindResource:
		return true
	}
	return false
}

func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindCourse:
		return "course"
	case KindSection:
		return "section"
	case KindModule:
		return "module"
	case KindForum:
		return "forum"
	case KindResource:
		return "resource"
	case KindFolder:
		return "folder"
	case KindAttendance:
		return "attendance"
	case KindLabel:
		return "label"
	case KindQuiz:
		return "quiz"
	case KindContent:
		return "content"
	case KindFile:
		return "file"
	case KindURL:
		return "url"
	default:
		return "unknown"
	}
}

// moduleKinds maps a module's modname tag to its specialized kind.
var moduleKinds = map[string]Kind{
	"folder":     KindFolder,
	"resource":   KindResource,
	"forum":      KindForum,
	"attendance": KindAttendance,
	"label":      KindLabel,
	"quiz":       KindQuiz,
}

// contentKinds maps a content item's type tag to its specialized kind.
var contentKinds = map[string]Kind{
	"file": KindFile,
	"url":  KindURL,
}

// ModuleKind resolves a modname tag to a specialized module kind. Unknown or
// missing tags fall back to the generic KindModule; there is no error case.
func ModuleKind(modname string) Kind {
	if k, ok := moduleKinds[modname]; ok {
		return k
	}
	return KindModule
}

// ContentKind resolves a content type tag to a specialized content kind,
// falling back to the generic KindContent.
func ContentKind(typ string) Kind {
	if k, ok := contentKinds[typ]; ok {
		return k
	}
	return KindContent
}
