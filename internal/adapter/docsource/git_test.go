package docsource_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	goGit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptforge/promptforge/internal/adapter/docsource"
	"github.com/promptforge/promptforge/internal/domain"
)

func seedRepo(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()

	repo, err := goGit.PlainInit(dir, false)
	require.NoError(t, err)

	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(".")
	require.NoError(t, err)
	_, err = wt.Commit("seed docs", &goGit.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	return dir
}

func TestGitSource_Load(t *testing.T) {
	dir := seedRepo(t, map[string]string{
		"skills/secure-review.yaml":    "- id: skill_secure_review\n  name: Secure Review\n",
		"patterns/summarize.md":        "# Summarization Pattern\n\nCondense long inputs.",
		"guidelines/sql-injection.md":  "# SQL Injection\n\nNever concatenate queries.",
		"docs/page.html":               "<html><head><title>API Docs</title></head><body><h2>Usage</h2><p>Call the endpoint.</p></body></html>",
		"README.bin":                   "\x00\x01binary",
		"scripts/build.sh":             "#!/bin/sh\necho hi",
	})

	source := docsource.NewGitSource(dir, "")
	docs, version, err := source.Load()
	require.NoError(t, err)
	assert.Len(t, version, 12)
	require.Len(t, docs, 4)

	byTitle := map[string]string{}
	for _, d := range docs {
		byTitle[d.Title] = d.DocType
		assert.Equal(t, version, d.Version)
	}
	assert.Equal(t, domain.DocTypeSkillCard, byTitle["Secure Review"])
	assert.Equal(t, domain.DocTypePromptPattern, byTitle["Summarization Pattern"])
	assert.Equal(t, domain.DocTypeSecurityGuideline, byTitle["SQL Injection"])
	assert.Equal(t, domain.DocTypePromptPattern, byTitle["API Docs"])
}

func TestGitSource_LoadSubdir(t *testing.T) {
	dir := seedRepo(t, map[string]string{
		"skills/review.yaml": "- id: skill_review\n  name: Review\n",
		"notes/journal.md":   "# Journal\n\nUnrelated notes.",
	})

	source := docsource.NewGitSource(dir, "skills")
	docs, _, err := source.Load()
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Review", docs[0].Title)
}

func TestGitSource_FallbackTitleFromFilename(t *testing.T) {
	dir := seedRepo(t, map[string]string{
		"patterns/chain-of-thought.md": "Just body text, no header.",
	})

	source := docsource.NewGitSource(dir, "")
	docs, _, err := source.Load()
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Chain Of Thought", docs[0].Title)
}

func TestGitSource_NotARepo(t *testing.T) {
	source := docsource.NewGitSource(t.TempDir(), "")
	_, _, err := source.Load()
	assert.Error(t, err)
}
