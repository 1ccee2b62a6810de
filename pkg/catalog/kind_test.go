package catalog

import "testing"

// TestRankOrdering verifies rank strictly increases with nesting depth and
// that specializations collapse onto their generic kind's rank.
func TestRankOrdering(t *testing.T) {
	order := []Kind{KindRoot, KindCourse, KindSection, KindModule, KindContent}
	for i := 1; i < len(order); i++ {
		if order[i].Rank() <= order[i-1].Rank() {
			t.Errorf("expected rank(%s)=%d > rank(%s)=%d",
				order[i], order[i].Rank(), order[i-1], order[i-1].Rank())
		}
	}

	for _, k := range []Kind{KindForum, KindResource, KindFolder, KindAttendance, KindLabel, KindQuiz} {
		if k.Rank() != KindModule.Rank() {
			t.Errorf("expected %s to share module rank %d, got %d", k, KindModule.Rank(), k.Rank())
		}
	}
	for _, k := range []Kind{KindFile, KindURL} {
		if k.Rank() != KindContent.Rank() {
			t.Errorf("expected %s to share content rank %d, got %d", k, KindContent.Rank(), k.Rank())
		}
	}
}

// TestSubtypeResolution verifies tag lookup and the generic fallback for
// unknown tags — unmapped tags are never an error.
func TestSubtypeResolution(t *testing.T) {
	moduleCases := []struct {
		tag  string
		want Kind
	}{
		{"folder", KindFolder},
		{"resource", KindResource},
		{"forum", KindForum},
		{"attendance", KindAttendance},
		{"label", KindLabel},
		{"quiz", KindQuiz},
		{"bigbluebutton", KindModule}, // unknown tag falls back
		{"", KindModule},              // missing tag falls back
	}
	for _, tc := range moduleCases {
		if got := ModuleKind(tc.tag); got != tc.want {
			t.Errorf("ModuleKind(%q) = %s, want %s", tc.tag, got, tc.want)
		}
	}

	contentCases := []struct {
		tag  string
		want Kind
	}{
		{"file", KindFile},
		{"url", KindURL},
		{"content", KindContent},
		{"", KindContent},
	}
	for _, tc := range contentCases {
		if got := ContentKind(tc.tag); got != tc.want {
			t.Errorf("ContentKind(%q) = %s, want %s", tc.tag, got, tc.want)
		}
	}
}

func TestSelectableKinds(t *testing.T) {
	selectable := map[Kind]bool{
		KindFile: true, KindFolder: true, KindResource: true,
	}
	all := []Kind{
		KindRoot, KindCourse, KindSection, KindModule, KindForum, KindResource,
		KindFolder, KindAttendance, KindLabel, KindQuiz, KindContent, KindFile, KindURL,
	}
	for _, k := range all {
		if got := k.Selectable(); got != selectable[k] {
			t.Errorf("%s.Selectable() = %v, want %v", k, got, selectable[k])
		}
	}
}
