package reelsdk

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ResourceKind selects which backend file endpoint a resource URL targets.
type ResourceKind string

const (
	ResourceImage ResourceKind = "image"
	ResourceAudio ResourceKind = "audio"
	ResourceVideo ResourceKind = "video"
)

// ResourceRef identifies a generated asset.
type ResourceRef struct {
	Project string
	Chapter string
	// SpanID is required for images and audio, ignored for video.
	SpanID string
	Kind   ResourceKind
}

var errMissingSpan = errors.New("span id required")

// ResourceURL builds a cache-busted URL for a generated asset. The _t
// parameter is the Unix millisecond time of now.
func ResourceURL(base string, ref ResourceRef, now time.Time) (string, error) {
	if ref.Project == "" || ref.Chapter == "" {
		return "", fmt.Errorf("project and chapter required")
	}
	var path string
	q := url.Values{}
	q.Set("project_name", ref.Project)
	q.Set("chapter_name", ref.Chapter)
	switch ref.Kind {
	case ResourceImage, ResourceAudio:
		if ref.SpanID == "" {
			return "", fmt.Errorf("%s resource: %w", ref.Kind, errMissingSpan)
		}
		q.Set("span_id", ref.SpanID)
		path = "media/get_" + string(ref.Kind)
	case ResourceVideo:
		path = "video/get_video"
	default:
		return "", fmt.Errorf("unknown resource kind %q", ref.Kind)
	}
	return strings.TrimRight(base, "/") + "/" + path + "?" + q.Encode() +
		"&_t=" + strconv.FormatInt(now.UnixMilli(), 10), nil
}

// ResourceURL builds an asset URL against the client's base URL and clock.
func (c *Client) ResourceURL(ref ResourceRef) (string, error) {
	return ResourceURL(c.base(), ref, c.now())
}
