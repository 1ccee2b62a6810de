package catalog

import (
	"context"
	"fmt"
	"log"

	"muddle/pkg/moodle"
)

// API is the listing surface the fetcher walks. pkg/moodle.Client implements
// it; tests substitute a fake.
type API interface {
	SiteInfo(ctx context.Context) (*moodle.SiteInfo, error)
	UserCourses(ctx context.Context, userID int64) ([]moodle.CourseRecord, error)
	CourseContents(ctx context.Context, courseID int64) ([]moodle.SectionRecord, error)
}

// Fetcher walks the remote catalog depth-first, left to right, and emits
// every discovered record immediately — one event per node, never a buffered
// subtree. The resulting stream is finite, strictly ordered, and not
// restartable; a new walk needs a new Fetch call.
type Fetcher struct {
	api API
}

// NewFetcher creates a fetcher over the given API.
func NewFetcher(api API) *Fetcher {
	return &Fetcher{api: api}
}

// Fetch runs one full walk, calling emit for each discovered node in strict
// depth-first preorder: course, then its sections, each section's modules,
// each module's contents.
//
// Failure policy: a course record without an id is emitted (the consumer
// skips it) but its subtree is not descended into; a failed listing at any
// level is logged and treated as an empty child list. Neither aborts the
// walk. Only failing to resolve the identity behind the token is fatal,
// since no courses can be listed without it.
//
// Fetch blocks its own goroutine on every network call; run it off the
// consumer's thread.
func (f *Fetcher) Fetch(ctx context.Context, emit func(Event)) error {
	info, err := f.api.SiteInfo(ctx)
	if err != nil {
		return fmt.Errorf("catalog: resolve user: %w", err)
	}

	courses, err := f.api.UserCourses(ctx, info.UserID)
	if err != nil {
		log.Printf("ERROR listing courses failed, treating as empty: %v", err)
		courses = nil
	}

	for i := range courses {
		course := &courses[i]
		emit(CourseEvent(course))

		if course.ID == nil {
			log.Printf("ERROR cannot list sections of course without id (%q), skipping branch", course.ShortName)
			continue
		}

		sections, err := f.api.CourseContents(ctx, *course.ID)
		if err != nil {
			log.Printf("ERROR listing contents of course %d failed, treating as empty: %v", *course.ID, err)
			continue
		}

		for j := range sections {
			section := &sections[j]
			emit(SectionEvent(section))

			for k := range section.Modules {
				module := &section.Modules[k]
				emit(ModuleEvent(module))

				for l := range module.Contents {
					emit(ContentEvent(&module.Contents[l]))
				}
			}
		}
	}

	return nil
}

// Collect runs a full walk through a fresh builder and returns the finished,
// title-sorted tree. This is the non-interactive path (--dump) and the
// easiest way to exercise fetch and reconstruction together in tests.
func (f *Fetcher) Collect(ctx context.Context) (*Node, error) {
	b := NewBuilder()
	err := f.Fetch(ctx, func(ev Event) {
		// Skipped events are already logged by Insert.
		_, _ = b.Insert(ev)
	})
	if err != nil {
		return nil, err
	}
	root := b.Root()
	root.SortByTitle()
	return root, nil
}
