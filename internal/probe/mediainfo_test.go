package probe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/crawlora/aws-platform-engineering/internal/errors"
	"github.com/crawlora/aws-platform-engineering/internal/logger"
)

const mediaInfoReportJSON = `{
	"creatingLibrary": {"name": "MediaLib", "version": "23.04"},
	"media": {
		"@ref": "https://signed.example/out/movie.mp4",
		"track": [
			{
				"@type": "General",
				"FileName": "movie",
				"FileExtension": "mp4",
				"FileNameExtension": "movie.mp4",
				"InternetMediaType": "video/mp4",
				"FileSize": "1048576",
				"FileSize_String": "1.00 MiB",
				"Duration": "12.500",
				"Format": "MPEG-4"
			},
			{"@type": "Video", "Width": "1920"}
		]
	}
}`

func TestMediaInfo_Lookup(t *testing.T) {
	runner := &fakeRunner{responses: []response{{stdout: mediaInfoReportJSON}}}
	m := NewMediaInfo(runner, "mediainfo", 5, 0, logger.Discard())

	track, err := m.Lookup(context.Background(), "https://signed.example/out/movie.mp4")
	require.NoError(t, err)
	require.NotNil(t, track)

	assert.Equal(t, []string{"--full", "--output=JSON", "https://signed.example/out/movie.mp4"}, runner.calls[0].args)
	assert.Equal(t, "General", track.Type)
	assert.Equal(t, "movie.mp4", track.FileNameExtension)
	assert.Equal(t, "1.00 MiB", track.FileSizeString)
	assert.InDelta(t, 12.5, track.DurationSeconds(), 0.001)
}

func TestMediaInfo_LookupNoMedia(t *testing.T) {
	runner := &fakeRunner{responses: []response{{stdout: `{"media": null}`}}}
	m := NewMediaInfo(runner, "mediainfo", 5, 0, logger.Discard())

	track, err := m.Lookup(context.Background(), "https://signed.example/blob")
	require.NoError(t, err)
	assert.Nil(t, track)
}

func TestMediaInfo_LookupRetries(t *testing.T) {
	runner := &fakeRunner{responses: []response{{stderr: "boom", err: errors.New("exit status 1")}}}
	m := NewMediaInfo(runner, "mediainfo", 3, time.Millisecond, logger.Discard())

	_, err := m.Lookup(context.Background(), "https://signed.example/blob")
	assert.ErrorIs(t, err, domainerrors.ErrMediaInfo)
	assert.Len(t, runner.calls, 3)
}

func TestContentTypeFromInfo(t *testing.T) {
	tests := []struct {
		name   string
		track  *GeneralTrack
		want   string
		wantOK bool
	}{
		{name: "nil", track: nil},
		{name: "svg override", track: &GeneralTrack{FileExtension: "svg", InternetMediaType: "text/xml"}, want: "image/svg+xml", wantOK: true},
		{name: "webp override", track: &GeneralTrack{FileExtension: "WEBP"}, want: "image/webp", wantOK: true},
		{name: "reported type", track: &GeneralTrack{FileExtension: "mp4", InternetMediaType: "video/mp4"}, want: "video/mp4", wantOK: true},
		{name: "no type", track: &GeneralTrack{FileExtension: "bin"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ContentTypeFromInfo(tt.track)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSniffContentType(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	assert.Equal(t, "image/png", SniffContentType(png))
	assert.Equal(t, DefaultContentType, SniffContentType(nil))
	assert.Equal(t, DefaultContentType, SniffContentType([]byte{0x00, 0x01, 0x02, 0x03, 0xfe, 0xff}))
}

type fakeObjects struct {
	head      []byte
	rangeErr  error
	rangeRead bool
}

func (f *fakeObjects) PresignGet(_ context.Context, bucket, key string, _ time.Duration) (string, error) {
	return "https://signed.example/" + bucket + "/" + key, nil
}

func (f *fakeObjects) GetRange(_ context.Context, _, _ string, offset, length int64) ([]byte, error) {
	f.rangeRead = true
	if f.rangeErr != nil {
		return nil, f.rangeErr
	}
	end := min(int64(len(f.head)), offset+length)
	return f.head[offset:end], nil
}

func TestContentTypeResolver(t *testing.T) {
	tests := []struct {
		name       string
		report     string
		objects    *fakeObjects
		want       string
		wantSniffs bool
	}{
		{
			name:    "mediainfo type",
			report:  mediaInfoReportJSON,
			objects: &fakeObjects{},
			want:    "video/mp4",
		},
		{
			name:       "sniffed when mediainfo knows nothing",
			report:     `{"media": null}`,
			objects:    &fakeObjects{head: []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")},
			want:       "image/png",
			wantSniffs: true,
		},
		{
			name:       "default when sniffing fails",
			report:     `{"media": null}`,
			objects:    &fakeObjects{rangeErr: errors.New("access denied")},
			want:       DefaultContentType,
			wantSniffs: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{responses: []response{{stdout: tt.report}}}
			info := NewMediaInfo(runner, "mediainfo", 1, 0, logger.Discard())
			r := NewContentTypeResolver(tt.objects, info, time.Hour, logger.Discard())

			got, err := r.Resolve(context.Background(), "out", "in/movie.mp4")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantSniffs, tt.objects.rangeRead)
			assert.Equal(t, "https://signed.example/out/in/movie.mp4", runner.calls[0].args[2])
		})
	}
}
