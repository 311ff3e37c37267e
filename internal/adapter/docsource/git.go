// Package docsource loads seed documents for the knowledge base from
// external sources such as git repositories.
package docsource

import (
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"

	goGit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/promptforge/promptforge/internal/domain"
	"github.com/promptforge/promptforge/internal/usecase/ingest"
)

// Document is one seed document discovered in a source.
type Document struct {
	Path    string
	Title   string
	DocType string
	Content string
}

// GitSource reads seed documents from a git repository checkout. The HEAD
// commit hash doubles as the document version so re-seeding after a docs
// update produces distinguishable entries.
type GitSource struct {
	repoDir string
	subdir  string
}

// NewGitSource creates a source rooted at repoDir. When subdir is non-empty
// only files under that directory are loaded.
func NewGitSource(repoDir, subdir string) *GitSource {
	return &GitSource{repoDir: repoDir, subdir: strings.Trim(subdir, "/")}
}

var titleRE = regexp.MustCompile(`(?m)^#\s+(.+)$`)

// Load walks the HEAD commit tree and returns ingestable documents plus the
// short commit hash used as their version.
func (s *GitSource) Load() ([]ingest.Request, string, error) {
	repo, err := goGit.PlainOpenWithOptions(s.repoDir, &goGit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, "", fmt.Errorf("open repo: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		return nil, "", fmt.Errorf("resolve HEAD: %w", err)
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, "", fmt.Errorf("load HEAD commit: %w", err)
	}
	version := head.Hash().String()[:12]

	files, err := commit.Files()
	if err != nil {
		return nil, "", fmt.Errorf("list commit files: %w", err)
	}

	var docs []ingest.Request
	err = files.ForEach(func(f *object.File) error {
		if s.subdir != "" && !strings.HasPrefix(f.Name, s.subdir+"/") {
			return nil
		}
		doc, ok, err := s.readFile(f)
		if err != nil {
			return err
		}
		if ok {
			docs = append(docs, ingest.Request{
				Title:   doc.Title,
				DocType: doc.DocType,
				Content: doc.Content,
				Version: version,
			})
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return docs, version, nil
}

func (s *GitSource) readFile(f *object.File) (Document, bool, error) {
	ext := strings.ToLower(path.Ext(f.Name))
	switch ext {
	case ".md", ".txt", ".yaml", ".yml", ".html", ".htm":
	default:
		return Document{}, false, nil
	}

	reader, err := f.Reader()
	if err != nil {
		return Document{}, false, fmt.Errorf("read %s: %w", f.Name, err)
	}
	defer reader.Close()
	raw, err := io.ReadAll(reader)
	if err != nil {
		return Document{}, false, fmt.Errorf("read %s: %w", f.Name, err)
	}

	content := string(raw)
	title := ""
	if ext == ".html" || ext == ".htm" {
		title, content, err = ExtractHTML(content)
		if err != nil {
			return Document{}, false, fmt.Errorf("extract %s: %w", f.Name, err)
		}
	}
	if strings.TrimSpace(content) == "" {
		return Document{}, false, nil
	}
	if title == "" {
		title = extractTitle(content, f.Name)
	}

	return Document{
		Path:    f.Name,
		Title:   title,
		DocType: classifyDocType(f.Name, ext),
		Content: content,
	}, true, nil
}

// classifyDocType maps a file's location to a document category. Directory
// names win; otherwise YAML files are treated as skill cards and everything
// else as prompt patterns.
func classifyDocType(filePath, ext string) string {
	lower := strings.ToLower(filePath)
	switch {
	case strings.Contains(lower, "skill"):
		return domain.DocTypeSkillCard
	case strings.Contains(lower, "guideline"), strings.Contains(lower, "security"):
		return domain.DocTypeSecurityGuideline
	case strings.Contains(lower, "pattern"), strings.Contains(lower, "prompt"):
		return domain.DocTypePromptPattern
	case ext == ".yaml" || ext == ".yml":
		return domain.DocTypeSkillCard
	default:
		return domain.DocTypePromptPattern
	}
}

// extractTitle prefers the first markdown H1, falling back to a cleaned-up
// file name.
func extractTitle(content, filePath string) string {
	if m := titleRE.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1])
	}
	base := path.Base(filePath)
	base = strings.TrimSuffix(base, path.Ext(base))
	words := strings.FieldsFunc(base, func(r rune) bool { return r == '-' || r == '_' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
