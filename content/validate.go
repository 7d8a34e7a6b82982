package content

import (
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Validate enforces the content-integrity invariants: non-empty title and
// description, a parsable ISO date, and a non-empty body for published
// documents. Drafts may have an empty body while being written.
func (d Document) Validate() error {
	if err := d.Matter.Validate(); err != nil {
		return err
	}
	if d.Matter.Published && strings.TrimSpace(d.Body) == "" {
		return fmt.Errorf("published document has empty body")
	}
	return nil
}

// Validate checks the frontmatter fields in isolation.
func (m Frontmatter) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Title, validation.Required),
		validation.Field(&m.Description, validation.Required),
		validation.Field(&m.Date, validation.Required, validation.By(isoDate)),
	)
}

func isoDate(value any) error {
	s, _ := value.(string)
	if _, err := time.Parse(DateFormat, strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("date must be %s", DateFormat)
	}
	return nil
}
