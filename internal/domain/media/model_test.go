package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeForFileName(t *testing.T) {
	tests := []struct {
		name string
		want FileType
	}{
		{"wedding.jpg", TypePhoto},
		{"WEDDING.JPEG", TypePhoto},
		{"photo/abc.webp", TypePhoto},
		{"clip.mp4", TypeVideo},
		{"clip.MOV", TypeVideo},
		{"voice.mp3", TypeAudio},
		{"voice.m4a", TypeAudio},
		{"notes.txt", TypeOther},
		{"no-extension", TypeOther},
		{"", TypeOther},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, TypeForFileName(tt.name), "TypeForFileName(%q)", tt.name)
	}
}

func TestRecordNormalize(t *testing.T) {
	tests := []struct {
		name   string
		record Record
		want   Record
	}{
		{
			name: "legacy fileURL and fileType migrate",
			record: Record{
				LegacyFileURL:  "/v1/media/photo/a.jpg",
				LegacyFileType: TypePhoto,
			},
			want: Record{
				URL:            "/v1/media/photo/a.jpg",
				Type:           TypePhoto,
				FileName:       "a.jpg",
				LegacyFileURL:  "/v1/media/photo/a.jpg",
				LegacyFileType: TypePhoto,
			},
		},
		{
			name: "fileName derived from key",
			record: Record{
				Key: "video/abc.mp4",
			},
			want: Record{
				Key:      "video/abc.mp4",
				Type:     TypeVideo,
				FileName: "abc.mp4",
			},
		},
		{
			name: "type derived from extension when absent",
			record: Record{
				URL: "https://cdn.example.com/photo/b.png",
			},
			want: Record{
				URL:      "https://cdn.example.com/photo/b.png",
				Type:     TypePhoto,
				FileName: "b.png",
			},
		},
		{
			name: "canonical fields win over legacy",
			record: Record{
				URL:           "/v1/media/photo/new.jpg",
				LegacyFileURL: "/v1/media/photo/old.jpg",
			},
			want: Record{
				URL:           "/v1/media/photo/new.jpg",
				Type:          TypePhoto,
				FileName:      "new.jpg",
				LegacyFileURL: "/v1/media/photo/old.jpg",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.record
			got.Normalize()
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRecordMatchesObject(t *testing.T) {
	tests := []struct {
		name   string
		record Record
		key    string
		want   bool
	}{
		{
			name:   "key match",
			record: Record{Key: "photo/a.jpg"},
			key:    "photo/a.jpg",
			want:   true,
		},
		{
			name:   "key mismatch",
			record: Record{Key: "photo/a.jpg"},
			key:    "photo/b.jpg",
			want:   false,
		},
		{
			name:   "keyed record never falls back to tail matching",
			record: Record{Key: "video/a.jpg", URL: "/v1/media/photo/a.jpg"},
			key:    "photo/a.jpg",
			want:   false,
		},
		{
			name:   "legacy record matched by url tail",
			record: Record{URL: "https://bucket.s3.amazonaws.com/photo/abc.jpg"},
			key:    "photo/abc.jpg",
			want:   true,
		},
		{
			name:   "legacy record matched by file name",
			record: Record{FileName: "abc.jpg"},
			key:    "photo/abc.jpg",
			want:   true,
		},
		{
			name:   "legacy record without any handle",
			record: Record{},
			key:    "photo/abc.jpg",
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.record.MatchesObject(tt.key))
		})
	}
}
