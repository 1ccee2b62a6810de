package catalog

import "muddle/pkg/moodle"

// Event is one discovered catalog record: the node's generic kind plus
// exactly one non-nil payload matching it. A tagged variant instead of a
// loose attribute bag keeps required-field checks in one place (newNode).
type Event struct {
	Kind    Kind
	Course  *moodle.CourseRecord
	Section *moodle.SectionRecord
	Module  *moodle.ModuleRecord
	Content *moodle.ContentRecord
}

// CourseEvent wraps a course record as an event.
func CourseEvent(c *moodle.CourseRecord) Event {
	return Event{Kind: KindCourse, Course: c}
}

// SectionEvent wraps a section record as an event.
func SectionEvent(s *moodle.SectionRecord) Event {
	return Event{Kind: KindSection, Section: s}
}

// ModuleEvent wraps a module record as an event.
func ModuleEvent(m *moodle.ModuleRecord) Event {
	return Event{Kind: KindModule, Module: m}
}

// ContentEvent wraps a content record as an event.
func ContentEvent(c *moodle.ContentRecord) Event {
	return Event{Kind: KindContent, Content: c}
}
