package openlp

import "regexp"

// chapterVerse matches a single chapter:verse reference. The chapter part
// is optional because some books (Jude, Philemon) have none, and a verse
// may carry a letter suffix or span a range.
const chapterVerse = `(?:[1-9][0-9]*:)?` + // chapter
	`[1-9][0-9]*[a-z]?` + // verse
	`(?:-[1-9][0-9]*[a-z]?)?` // through verse

// bibleReferenceRE matches a scripture reference at the start of an item
// title: book name, one or more chapter/verse references, and an optional
// all-caps version abbreviation ("John 3:16-17 NIV").
var bibleReferenceRE = regexp.MustCompile(
	`^[A-Za-z0-9 ]+ ` +
		chapterVerse +
		`(?:, ` + chapterVerse + `)*` +
		`(?: [A-Z]{3,})?`,
)

// BibleReference extracts a leading scripture reference from an item
// title. It returns the empty string when the title does not start with
// a recognizable reference.
func BibleReference(title string) string {
	return bibleReferenceRE.FindString(title)
}
