package events

import (
	"strings"

	domainerrors "github.com/crawlora/aws-platform-engineering/internal/errors"
	"github.com/crawlora/aws-platform-engineering/internal/validation"
)

// MediaInfoRequest asks for the technical metadata of a stored object.
type MediaInfoRequest struct {
	Path string `json:"path" validate:"required,min=1,max=512"`
}

// ParseMediaInfoRequest decodes a media-info request with the strict policy and
// checks that the path is an s3:// URL whose extension the locator claims.
func ParseMediaInfoRequest(raw []byte, v *validation.Validator, l *Locator) ParseResult[MediaInfoRequest] {
	res := Parse[MediaInfoRequest](raw, Strict, v)
	if !res.OK() {
		return res
	}
	if !strings.HasPrefix(res.Value.Path, "s3://") {
		return failed[MediaInfoRequest](domainerrors.UnsupportedPayloadf("Not an S3 file path: %s", res.Value.Path))
	}
	if err := l.Verify(res.Value.Path); err != nil {
		return failed[MediaInfoRequest](err)
	}
	return res
}
