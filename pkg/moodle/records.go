package moodle

// SiteInfo is the subset of core_webservice_get_site_info the catalog walk
// needs: the identity of the token's user.
type SiteInfo struct {
	SiteName string `json:"sitename"`
	UserID   int64  `json:"userid"`
	Username string `json:"username"`
}

// CourseRecord is one entry of core_enrol_get_users_courses. The ID is a
// pointer so a record that lacks its identifying key can be told apart from
// course id 0 and skipped instead of misattached.
type CourseRecord struct {
	ID        *int64 `json:"id"`
	ShortName string `json:"shortname"`
	FullName  string `json:"fullname"`
}

// SectionRecord is one entry of core_course_get_contents. Modules arrive
// embedded, so a single listing call covers two catalog levels.
type SectionRecord struct {
	ID      *int64         `json:"id"`
	Name    string         `json:"name"`
	Modules []ModuleRecord `json:"modules"`
}

// ModuleRecord is an activity inside a section. ModName carries the activity
// subtype tag ("resource", "folder", "forum", ...). Contents arrive embedded.
type ModuleRecord struct {
	ID       *int64          `json:"id"`
	Name     string          `json:"name"`
	ModName  string          `json:"modname"`
	Contents []ContentRecord `json:"contents"`
}

// ContentRecord is a downloadable item inside a module. Type is the content
// subtype tag ("file" or "url").
type ContentRecord struct {
	Type     string `json:"type"`
	Filename string `json:"filename"`
	FileURL  string `json:"fileurl"`
	FileSize int64  `json:"filesize"`
}
