package catalog

import (
	"errors"
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"muddle/pkg/moodle"
)

func i64(v int64) *int64 { return &v }

func courseEv(id *int64, shortname string) Event {
	return CourseEvent(&moodle.CourseRecord{ID: id, ShortName: shortname})
}

func sectionEv(id int64, name string) Event {
	return SectionEvent(&moodle.SectionRecord{ID: i64(id), Name: name})
}

func moduleEv(id int64, name, modname string) Event {
	return ModuleEvent(&moodle.ModuleRecord{ID: i64(id), Name: name, ModName: modname})
}

func contentEv(filename, fileurl, typ string) Event {
	return ContentEvent(&moodle.ContentRecord{Filename: filename, FileURL: fileurl, Type: typ})
}

// TestBuilderEndToEnd replays a small depth-first stream and checks the
// reconstructed shape, including that a later course attaches to the root
// instead of under the previous course's subtree.
func TestBuilderEndToEnd(t *testing.T) {
	b := NewBuilder()
	stream := []Event{
		courseEv(i64(1), "CS101"),
		sectionEv(10, "Week1"),
		moduleEv(100, "Slides", "resource"),
		contentEv("a.pdf", "http://x/a.pdf", "file"),
		courseEv(i64(2), "CS102"),
	}
	for _, ev := range stream {
		if _, err := b.Insert(ev); err != nil {
			t.Fatalf("Insert(%s): %v", ev.Kind, err)
		}
	}

	root := b.Root()
	if len(root.Children()) != 2 {
		t.Fatalf("expected 2 courses under root, got %d", len(root.Children()))
	}

	cs101 := root.Children()[0]
	if cs101.Title != "CS101" || cs101.Kind != KindCourse {
		t.Errorf("first course = %s %q, want course CS101", cs101.Kind, cs101.Title)
	}
	if len(cs101.Children()) != 1 || cs101.Children()[0].Title != "Week1" {
		t.Fatalf("expected CS101 -> Week1, got %+v", cs101.Children())
	}

	week1 := cs101.Children()[0]
	if len(week1.Children()) != 1 {
		t.Fatalf("expected 1 module under Week1, got %d", len(week1.Children()))
	}
	slides := week1.Children()[0]
	if slides.Kind != KindResource {
		t.Errorf("module with modname=resource resolved to %s, want resource", slides.Kind)
	}
	if len(slides.Children()) != 1 {
		t.Fatalf("expected 1 content under Slides, got %d", len(slides.Children()))
	}
	pdf := slides.Children()[0]
	if pdf.Kind != KindFile || pdf.Title != "a.pdf" || pdf.ResourceURL != "http://x/a.pdf" {
		t.Errorf("content = %s %q url=%q, want file a.pdf http://x/a.pdf", pdf.Kind, pdf.Title, pdf.ResourceURL)
	}

	cs102 := root.Children()[1]
	if cs102.Title != "CS102" || cs102.Parent() != root {
		t.Errorf("second course should attach to root, got parent=%v", cs102.Parent())
	}
	if len(cs102.Children()) != 0 {
		t.Errorf("CS102 should be empty, got %d children", len(cs102.Children()))
	}
}

// TestBuilderSkipMissingID verifies the skip policy: a course without an id
// produces no node, does not advance the last-inserted pointer, and later
// sibling courses still attach to the root.
func TestBuilderSkipMissingID(t *testing.T) {
	b := NewBuilder()

	if _, err := b.Insert(courseEv(i64(1), "CS101")); err != nil {
		t.Fatalf("insert CS101: %v", err)
	}
	if _, err := b.Insert(sectionEv(10, "Week1")); err != nil {
		t.Fatalf("insert Week1: %v", err)
	}

	_, err := b.Insert(courseEv(nil, "broken"))
	if !errors.Is(err, ErrSkipped) {
		t.Fatalf("expected ErrSkipped for course without id, got %v", err)
	}
	if b.Root().Len() != 2 {
		t.Errorf("skipped event must produce zero nodes, tree has %d", b.Root().Len())
	}

	// lastInserted still points at Week1: a follow-up section must become
	// Week1's sibling, and a follow-up course must attach to root.
	if _, err := b.Insert(sectionEv(11, "Week2")); err != nil {
		t.Fatalf("insert Week2: %v", err)
	}
	cs101 := b.Root().Children()[0]
	if len(cs101.Children()) != 2 {
		t.Fatalf("expected Week1+Week2 under CS101, got %d children", len(cs101.Children()))
	}

	if _, err := b.Insert(courseEv(i64(2), "CS102")); err != nil {
		t.Fatalf("insert CS102: %v", err)
	}
	if len(b.Root().Children()) != 2 {
		t.Errorf("expected CS102 under root, got %d root children", len(b.Root().Children()))
	}
}

// TestBuilderSiblingModules verifies the climb handles consecutive nodes of
// equal rank: a second module must become a sibling of the first, not a
// child, including across specialized kinds that share the module rank.
func TestBuilderSiblingModules(t *testing.T) {
	b := NewBuilder()
	events := []Event{
		courseEv(i64(1), "CS101"),
		sectionEv(10, "Week1"),
		moduleEv(100, "Slides", "resource"),
		moduleEv(101, "Homework", "quiz"),
		moduleEv(102, "Announcements", "forum"),
		sectionEv(11, "Week2"),
		moduleEv(103, "More slides", "resource"),
	}
	for _, ev := range events {
		if _, err := b.Insert(ev); err != nil {
			t.Fatalf("Insert(%s): %v", ev.Kind, err)
		}
	}

	cs101 := b.Root().Children()[0]
	if len(cs101.Children()) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(cs101.Children()))
	}
	week1 := cs101.Children()[0]
	if len(week1.Children()) != 3 {
		t.Errorf("expected 3 sibling modules in Week1, got %d", len(week1.Children()))
	}
	week2 := cs101.Children()[1]
	if len(week2.Children()) != 1 {
		t.Errorf("expected 1 module in Week2, got %d", len(week2.Children()))
	}
}

// TestBuilderTitleUnescaped verifies titles are HTML-unescaped once at
// construction.
func TestBuilderTitleUnescaped(t *testing.T) {
	b := NewBuilder()
	n, err := b.Insert(courseEv(i64(1), "Algorithms &amp; Data Structures"))
	if err != nil {
		t.Fatal(err)
	}
	if n.Title != "Algorithms & Data Structures" {
		t.Errorf("title = %q, want unescaped", n.Title)
	}
}

// TestSortByTitle verifies finalize orders every level, not just the top.
func TestSortByTitle(t *testing.T) {
	b := NewBuilder()
	events := []Event{
		courseEv(i64(2), "Zoology"),
		sectionEv(20, "beta"),
		sectionEv(21, "Alpha"),
		courseEv(i64(1), "Anatomy"),
	}
	for _, ev := range events {
		if _, err := b.Insert(ev); err != nil {
			t.Fatal(err)
		}
	}

	root := b.Root()
	root.SortByTitle()

	if root.Children()[0].Title != "Anatomy" || root.Children()[1].Title != "Zoology" {
		t.Errorf("root order = %q, %q; want Anatomy, Zoology",
			root.Children()[0].Title, root.Children()[1].Title)
	}
	zoo := root.Children()[1]
	if zoo.Children()[0].Title != "Alpha" || zoo.Children()[1].Title != "beta" {
		t.Errorf("section order = %q, %q; want case-insensitive Alpha, beta",
			zoo.Children()[0].Title, zoo.Children()[1].Title)
	}
}

// TestBuilderReconstruction is the property test for the core invariant: for
// any catalog shape, replaying its depth-first preorder event stream yields a
// tree isomorphic to the catalog (same parent/child relationships, same
// order).
func TestBuilderReconstruction(t *testing.T) {
	modnames := []string{"resource", "folder", "forum", "quiz", "label", "attendance", "unknown"}
	contentTypes := []string{"file", "url", "other"}

	rapid.Check(t, func(rt *rapid.T) {
		var events []Event

		type expectNode struct {
			kind     Kind
			title    string
			children []*expectNode
		}
		var expected []*expectNode

		nextID := int64(1)
		id := func() *int64 { v := nextID; nextID++; return &v }

		nCourses := rapid.IntRange(0, 4).Draw(rt, "courses")
		for c := 0; c < nCourses; c++ {
			course := &expectNode{kind: KindCourse, title: fmt.Sprintf("course-%d", c)}
			expected = append(expected, course)
			events = append(events, courseEv(id(), course.title))

			nSections := rapid.IntRange(0, 3).Draw(rt, fmt.Sprintf("sections-%d", c))
			for s := 0; s < nSections; s++ {
				section := &expectNode{kind: KindSection, title: fmt.Sprintf("section-%d-%d", c, s)}
				course.children = append(course.children, section)
				events = append(events, SectionEvent(&moodle.SectionRecord{ID: id(), Name: section.title}))

				nModules := rapid.IntRange(0, 3).Draw(rt, fmt.Sprintf("modules-%d-%d", c, s))
				for m := 0; m < nModules; m++ {
					tag := rapid.SampledFrom(modnames).Draw(rt, "modname")
					module := &expectNode{kind: ModuleKind(tag), title: fmt.Sprintf("module-%d-%d-%d", c, s, m)}
					section.children = append(section.children, module)
					events = append(events, ModuleEvent(&moodle.ModuleRecord{ID: id(), Name: module.title, ModName: tag}))

					nContents := rapid.IntRange(0, 3).Draw(rt, fmt.Sprintf("contents-%d-%d-%d", c, s, m))
					for f := 0; f < nContents; f++ {
						typ := rapid.SampledFrom(contentTypes).Draw(rt, "ctype")
						content := &expectNode{kind: ContentKind(typ), title: fmt.Sprintf("file-%d-%d-%d-%d", c, s, m, f)}
						module.children = append(module.children, content)
						events = append(events, ContentEvent(&moodle.ContentRecord{
							Filename: content.title, Type: typ, FileURL: "http://x/" + content.title,
						}))
					}
				}
			}
		}

		b := NewBuilder()
		for _, ev := range events {
			if _, err := b.Insert(ev); err != nil {
				rt.Fatalf("Insert(%s): %v", ev.Kind, err)
			}
		}

		var compare func(got *Node, want *expectNode, path string)
		compare = func(got *Node, want *expectNode, path string) {
			if got.Kind != want.kind || got.Title != want.title {
				rt.Fatalf("%s: got %s %q, want %s %q", path, got.Kind, got.Title, want.kind, want.title)
			}
			if len(got.Children()) != len(want.children) {
				rt.Fatalf("%s: got %d children, want %d", path, len(got.Children()), len(want.children))
			}
			for i, c := range want.children {
				compare(got.Children()[i], c, path+"/"+c.title)
			}
		}

		root := b.Root()
		if len(root.Children()) != len(expected) {
			rt.Fatalf("got %d courses, want %d", len(root.Children()), len(expected))
		}
		for i, c := range expected {
			compare(root.Children()[i], c, c.title)
		}
	})
}
