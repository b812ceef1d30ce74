package events

import (
	"net/url"
	"path"
	"slices"
	"strings"

	lambdaevents "github.com/aws/aws-lambda-go/events"

	domainerrors "github.com/crawlora/aws-platform-engineering/internal/errors"
)

// SourceReference identifies the object a pipeline invocation works on.
type SourceReference struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

// URI returns the s3:// form of the reference.
func (s SourceReference) URI() string {
	return "s3://" + s.Bucket + "/" + s.Key
}

// Dir returns the directory part of the key, "" for keys at the bucket root.
func (s SourceReference) Dir() string {
	dir := path.Dir(s.Key)
	if dir == "." || dir == "/" {
		return ""
	}
	return dir
}

// PathElements splits the URI into bucket and key segments.
func (s SourceReference) PathElements() []string {
	return strings.Split(s.Bucket+"/"+s.Key, "/")
}

// DecodeStorageEvent extracts the first record of a storage notification.
// The notification may arrive wrapped in an SNS envelope whose Message is the
// JSON-encoded inner event. Bucket and key are URL-decoded.
func DecodeStorageEvent(raw []byte) ParseResult[SourceReference] {
	inner := raw
	if env := Decode[lambdaevents.SNSEvent](raw, Permissive); env.OK() &&
		len(env.Value.Records) > 0 && env.Value.Records[0].SNS.Message != "" {
		inner = []byte(env.Value.Records[0].SNS.Message)
	}

	res := Decode[lambdaevents.S3Event](inner, Permissive)
	if !res.OK() {
		return failed[SourceReference](unsupported("storage event", res.Err))
	}
	if len(res.Value.Records) == 0 {
		return failed[SourceReference](domainerrors.UnsupportedPayloadf("storage event has no records"))
	}

	entity := res.Value.Records[0].S3
	bucket, err := url.QueryUnescape(entity.Bucket.Name)
	if err != nil {
		return failed[SourceReference](unsupported("bucket name", err))
	}
	key, err := url.QueryUnescape(entity.Object.Key)
	if err != nil {
		return failed[SourceReference](unsupported("object key", err))
	}
	if bucket == "" || key == "" {
		return failed[SourceReference](domainerrors.UnsupportedPayloadf("storage event is missing bucket or key"))
	}

	return ParseResult[SourceReference]{Value: SourceReference{Bucket: bucket, Key: key}}
}

// Locator turns storage notifications into source references for one pipeline.
// Each pipeline claims a disjoint set of extensions and ignores the rest.
type Locator struct {
	suffixes []string
}

// NewLocator creates a locator for the given lower-case extensions (".mp4").
// An empty list accepts any extension.
func NewLocator(suffixes []string) *Locator {
	return &Locator{suffixes: suffixes}
}

// Locate decodes the event and verifies the key. The reference is returned
// alongside a verification error so failures can still name the object.
func (l *Locator) Locate(raw []byte) (SourceReference, error) {
	ref, err := DecodeStorageEvent(raw).Unwrap()
	if err != nil {
		return SourceReference{}, err
	}
	return ref, l.Verify(ref.Key)
}

// Verify checks that key names a file whose extension this locator claims.
func (l *Locator) Verify(key string) error {
	ext := Ext(key)
	if ext == "" {
		return domainerrors.UnsupportedFilef("Invalid file path: %s", key)
	}
	if len(l.suffixes) > 0 && !slices.Contains(l.suffixes, strings.ToLower(ext)) {
		return domainerrors.UnsupportedExtensionf("Invalid file extension: %s", key)
	}
	return nil
}

// Ext returns the extension of the last path element. Hidden files such as
// ".env" and names ending in a dot have no extension.
func Ext(key string) string {
	base := path.Base(key)
	ext := path.Ext(base)
	if ext == base || ext == "." {
		return ""
	}
	return ext
}
