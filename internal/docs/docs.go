// Package docs manages the local Markdown knowledge base served through the
// MCP documentation tools. Documents carry YAML frontmatter with at least a
// description; files without valid frontmatter are skipped during scans.
package docs

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"agrolake/internal/logging"

	"github.com/adrg/frontmatter"
)

// DocFrontmatter is the YAML frontmatter expected at the top of each document.
type DocFrontmatter struct {
	Description string `yaml:"description"`
	Title       string `yaml:"title,omitempty"`
	Category    string `yaml:"category,omitempty"`
}

// Document is a parsed knowledge-base entry.
type Document struct {
	FileName    string `json:"file_name"`
	Category    string `json:"category"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"-"`
}

// SearchResult pairs a matched document with its ranking score and a snippet.
type SearchResult struct {
	Document Document `json:"document"`
	Score    int      `json:"score"`
	Snippet  string   `json:"snippet"`
}

// Manager scans and searches the docs directory.
type Manager struct {
	dir    string
	logger *logging.AppLogger
}

func NewManager(dir string, logger *logging.AppLogger) (*Manager, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("docs directory not accessible: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("docs path %s is not a directory", dir)
	}
	return &Manager{dir: dir, logger: logger}, nil
}

// Dir returns the managed docs directory.
func (m *Manager) Dir() string {
	return m.dir
}

// Scan walks the docs directory and parses every Markdown file with valid
// frontmatter. Files without a description are skipped, not errors.
func (m *Manager) Scan() ([]Document, error) {
	var documents []Document
	var skipped int

	err := filepath.WalkDir(m.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// Hidden directories (.git from sync) are not documentation.
			if strings.HasPrefix(d.Name(), ".") && path != m.dir {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}

		doc, err := m.parseDocument(path)
		if err != nil {
			m.logger.Debug("Skipping file", "name", d.Name(), "reason", err)
			skipped++
			return nil
		}
		documents = append(documents, *doc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan docs directory: %w", err)
	}

	m.logger.Info("Docs scan completed",
		"validDocs", len(documents),
		"skippedFiles", skipped)

	return documents, nil
}

func (m *Manager) parseDocument(path string) (*Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var matter DocFrontmatter
	body, err := frontmatter.Parse(bytes.NewReader(content), &matter)
	if err != nil {
		return nil, fmt.Errorf("no valid frontmatter found: %w", err)
	}
	if strings.TrimSpace(matter.Description) == "" {
		return nil, fmt.Errorf("missing required 'description' field")
	}

	rel, err := filepath.Rel(m.dir, path)
	if err != nil {
		rel = filepath.Base(path)
	}

	category := matter.Category
	if category == "" {
		// Default the category to the first path segment under the docs dir.
		if idx := strings.IndexRune(rel, filepath.Separator); idx > 0 {
			category = rel[:idx]
		} else {
			category = "geral"
		}
	}

	name := filepath.Base(path)
	title := matter.Title
	if title == "" {
		title = strings.TrimSuffix(name, filepath.Ext(name))
	}

	return &Document{
		FileName:    name,
		Category:    category,
		Title:       title,
		Description: matter.Description,
		Content:     string(body),
	}, nil
}

// Get returns a single document by category and name (extension optional).
func (m *Manager) Get(category, name string) (*Document, error) {
	documents, err := m.Scan()
	if err != nil {
		return nil, err
	}

	base := strings.TrimSuffix(name, ".md")
	for i := range documents {
		doc := &documents[i]
		if category != "" && !strings.EqualFold(doc.Category, category) {
			continue
		}
		if strings.EqualFold(strings.TrimSuffix(doc.FileName, ".md"), base) {
			return doc, nil
		}
	}
	return nil, fmt.Errorf("document %q not found in category %q", name, category)
}

// maxSearchResults caps what Search returns; tool replies stay small.
const maxSearchResults = 5

// Search ranks documents against a query. Title matches weigh more than
// description matches, which weigh more than body matches. An empty category
// searches everything.
func (m *Manager) Search(query, category string) ([]SearchResult, int, error) {
	documents, err := m.Scan()
	if err != nil {
		return nil, 0, err
	}

	needle := strings.ToLower(strings.TrimSpace(query))
	var results []SearchResult

	for _, doc := range documents {
		if category != "" && !strings.EqualFold(doc.Category, category) {
			continue
		}

		score := 0
		if strings.Contains(strings.ToLower(doc.Title), needle) {
			score += 10
		}
		if strings.Contains(strings.ToLower(doc.Description), needle) {
			score += 5
		}
		body := strings.ToLower(doc.Content)
		if n := strings.Count(body, needle); n > 0 {
			score += n
		}
		if score == 0 {
			continue
		}

		results = append(results, SearchResult{
			Document: doc,
			Score:    score,
			Snippet:  snippet(doc.Content, needle),
		})
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })

	total := len(results)
	if len(results) > maxSearchResults {
		results = results[:maxSearchResults]
	}
	return results, total, nil
}

// snippet extracts a short window of text around the first match.
func snippet(content, needle string) string {
	lower := strings.ToLower(content)
	idx := strings.Index(lower, needle)
	if idx < 0 {
		if len(content) > 160 {
			return content[:160]
		}
		return content
	}

	start := idx - 60
	if start < 0 {
		start = 0
	}
	end := idx + len(needle) + 100
	if end > len(content) {
		end = len(content)
	}
	return strings.TrimSpace(content[start:end])
}
