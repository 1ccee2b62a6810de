// Package moodle implements the REST collaborator for the catalog browser:
// a thin client for Moodle's web service endpoint plus file download and
// OS-open helpers. It owns authentication (token) and transport; it knows
// nothing about the tree.
package moodle

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
)

const restPath = "/webservice/rest/server.php"

// Client talks to a single Moodle instance with a fixed web service token.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a client for the given instance URL and token.
// The transport timeout is per request; a hang stalls only the current
// refresh, never the UI.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

// wsError is Moodle's error envelope. The endpoint answers 200 OK even for
// failures, so every response body is sniffed for it before decoding.
type wsError struct {
	Exception string `json:"exception"`
	ErrorCode string `json:"errorcode"`
	Message   string `json:"message"`
}

func (e wsError) Error() string {
	return fmt.Sprintf("moodle: %s (%s)", e.Message, e.ErrorCode)
}

// rest performs one web service call and decodes the JSON response into out.
func (c *Client) rest(ctx context.Context, wsfunction string, params url.Values, out any) error {
	u, err := url.Parse(c.baseURL + restPath)
	if err != nil {
		return fmt.Errorf("moodle: invalid base url %q: %w", c.baseURL, err)
	}

	q := u.Query()
	q.Set("wstoken", c.token)
	q.Set("wsfunction", wsfunction)
	q.Set("moodlewsrestformat", "json")
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("moodle: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("moodle: %s: %w", wsfunction, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("moodle: %s: read response: %w", wsfunction, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("moodle: %s: status=%d body=%s", wsfunction, resp.StatusCode, body)
	}

	// Error envelopes come back as objects; list responses as arrays. A
	// failed sniff on an array body is expected and ignored.
	var envelope wsError
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Exception != "" {
		return envelope
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("moodle: %s: decode response: %w", wsfunction, err)
	}
	return nil
}

// SiteInfo fetches the token user's identity via core_webservice_get_site_info.
func (c *Client) SiteInfo(ctx context.Context) (*SiteInfo, error) {
	var info SiteInfo
	if err := c.rest(ctx, "core_webservice_get_site_info", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// UserCourses lists the courses the given user is enrolled in, in API order.
func (c *Client) UserCourses(ctx context.Context, userID int64) ([]CourseRecord, error) {
	params := url.Values{}
	params.Set("userid", strconv.FormatInt(userID, 10))

	var courses []CourseRecord
	if err := c.rest(ctx, "core_enrol_get_users_courses", params, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// CourseContents lists a course's sections, with modules and contents embedded.
func (c *Client) CourseContents(ctx context.Context, courseID int64) ([]SectionRecord, error) {
	params := url.Values{}
	params.Set("courseid", strconv.FormatInt(courseID, 10))

	var sections []SectionRecord
	if err := c.rest(ctx, "core_course_get_contents", params, &sections); err != nil {
		return nil, err
	}
	return sections, nil
}
