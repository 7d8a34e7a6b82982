package content

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, data string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
}

const validDoc = `---
title: First Post
description: The very first post
date: 2024-01-15
published: true
tags:
  - go
  - web
---
# First

Body text.
`

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "first-post.md", validDoc)
	writeFile(t, dir, "nested/second-post.md", `---
title: Second Post
description: Another one
date: 2024-02-01
published: false
---
Draft body.
`)

	docs, problems, err := Load(dir, "")
	require.NoError(t, err)
	assert.Empty(t, problems)
	require.Len(t, docs, 2)

	// Sorted by date descending.
	assert.Equal(t, "Second Post", docs[0].Matter.Title)
	assert.Equal(t, "First Post", docs[1].Matter.Title)

	first := docs[1]
	assert.Equal(t, "first-post.md", first.Path)
	assert.Equal(t, "first-post", first.Slug())
	assert.Equal(t, []string{"go", "web"}, first.Matter.Tags)
	assert.True(t, first.Matter.Published)
	assert.Contains(t, first.Body, "# First")
	assert.NotContains(t, first.Body, "---")
}

func TestLoadGlobPattern(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "post.md", validDoc)
	writeFile(t, dir, "notes/note.markdown", validDoc)
	writeFile(t, dir, "README.txt", "not content")

	docs, problems, err := Load(dir, "**/*.{md,markdown}")
	require.NoError(t, err)
	assert.Empty(t, problems)
	assert.Len(t, docs, 2)
}

func TestLoadReportsProblemsWithoutFailing(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.md", validDoc)
	writeFile(t, dir, "missing-title.md", `---
description: No title here
date: 2024-03-01
---
Body.
`)
	writeFile(t, dir, "bad-date.md", `---
title: Bad Date
description: Has a bad date
date: March 1st
---
Body.
`)

	docs, problems, err := Load(dir, "")
	require.NoError(t, err)
	assert.Len(t, docs, 1)
	require.Len(t, problems, 2)

	paths := []string{problems[0].Path, problems[1].Path}
	assert.Contains(t, paths, "missing-title.md")
	assert.Contains(t, paths, "bad-date.md")
	for _, p := range problems {
		assert.NotEmpty(t, p.String())
	}
}

func TestLoadEmptyDir(t *testing.T) {
	docs, problems, err := Load(t.TempDir(), "")
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.Empty(t, problems)
}

func TestDocumentSlug(t *testing.T) {
	doc := Document{Path: "posts/my-first-post.md"}
	assert.Equal(t, "my-first-post", doc.Slug())

	doc.Matter.Slug = "custom-slug"
	assert.Equal(t, "custom-slug", doc.Slug())
}

func TestParseDate(t *testing.T) {
	m := Frontmatter{Date: "2024-06-15"}
	d, err := m.ParseDate()
	require.NoError(t, err)
	assert.Equal(t, 2024, d.Year())
	assert.Equal(t, 15, d.Day())

	m.Date = "15/06/2024"
	_, err = m.ParseDate()
	assert.Error(t, err)
}
