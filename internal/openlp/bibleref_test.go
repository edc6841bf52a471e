package openlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBibleReference(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		title string
		want  string
	}{
		{
			name:  "simple reference",
			title: "John 3:16",
			want:  "John 3:16",
		},
		{
			name:  "verse range",
			title: "Romans 8:28-30",
			want:  "Romans 8:28-30",
		},
		{
			name:  "numbered book",
			title: "1 Corinthians 13:4-8",
			want:  "1 Corinthians 13:4-8",
		},
		{
			name:  "chapterless book",
			title: "Jude 24-25",
			want:  "Jude 24-25",
		},
		{
			name:  "multiple references",
			title: "Psalm 23:1, 23:4-6",
			want:  "Psalm 23:1, 23:4-6",
		},
		{
			name:  "version suffix",
			title: "John 3:16-17 NIV",
			want:  "John 3:16-17 NIV",
		},
		{
			name:  "verse letter suffix",
			title: "Genesis 2:4b-7",
			want:  "Genesis 2:4b-7",
		},
		{
			name:  "reference with trailing text",
			title: "John 3:16 responsive reading",
			want:  "John 3:16",
		},
		{
			name:  "plain song title",
			title: "Amazing Grace",
			want:  "",
		},
		{
			name:  "empty title",
			title: "",
			want:  "",
		},
		{
			name:  "leading words fold into the book name",
			title: "Reading from John 3:16",
			want:  "Reading from John 3:16",
		},
		{
			name:  "punctuation before the reference",
			title: "Announcements - John 3:16",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, BibleReference(tt.title))
		})
	}
}
