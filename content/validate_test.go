package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validMatter() Frontmatter {
	return Frontmatter{
		Title:       "A Post",
		Description: "About something",
		Date:        "2024-01-15",
		Published:   true,
	}
}

func TestFrontmatterValidate(t *testing.T) {
	assert.NoError(t, validMatter().Validate())

	noTitle := validMatter()
	noTitle.Title = ""
	assert.Error(t, noTitle.Validate())

	noDescription := validMatter()
	noDescription.Description = ""
	assert.Error(t, noDescription.Validate())

	noDate := validMatter()
	noDate.Date = ""
	assert.Error(t, noDate.Validate())

	badDate := validMatter()
	badDate.Date = "Jan 15, 2024"
	err := badDate.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "2006-01-02")
}

func TestDocumentValidate(t *testing.T) {
	doc := Document{Matter: validMatter(), Body: "Some prose."}
	assert.NoError(t, doc.Validate())

	// Published documents need a body.
	doc.Body = "   "
	err := doc.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "empty body")

	// Drafts may be empty while being written.
	doc.Matter.Published = false
	assert.NoError(t, doc.Validate())
}
