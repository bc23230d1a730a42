package storage

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dbod-pe/promptpack/internal/models"
	"gopkg.in/yaml.v3"
)

// Storage handles all file system operations for the template library
type Storage struct {
	rootPath string
	cache    *MetadataCache
}

// NewStorage creates a new storage instance. An empty rootPath falls back to
// $PROMPTPACK_DIR, then ~/.promptpack.
func NewStorage(rootPath string) (*Storage, error) {
	if rootPath == "" {
		rootPath = os.Getenv("PROMPTPACK_DIR")
	}
	if rootPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		rootPath = filepath.Join(homeDir, ".promptpack")
	}

	cache := NewMetadataCache(rootPath)
	if err := cache.Load(); err != nil {
		// Cache is an optimization only
		fmt.Fprintf(os.Stderr, "Warning: failed to load metadata cache: %v\n", err)
	}

	return &Storage{
		rootPath: rootPath,
		cache:    cache,
	}, nil
}

// InitLibrary creates the directory structure for a template library
func (s *Storage) InitLibrary() error {
	dirs := []string{
		s.rootPath,
		filepath.Join(s.rootPath, "templates"),
		filepath.Join(s.rootPath, "renders"),
		filepath.Join(s.rootPath, ".promptpack"),
		filepath.Join(s.rootPath, ".promptpack", "cache"),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// GetBaseDir returns the root path of the storage
func (s *Storage) GetBaseDir() string {
	return s.rootPath
}

// TemplatePath returns the library-relative path for a template id
func TemplatePath(id string) string {
	return filepath.Join("templates", id+".md")
}

// LoadTemplate loads a template from a markdown file with YAML frontmatter
func (s *Storage) LoadTemplate(path string) (*models.Template, error) {
	fullPath := filepath.Join(s.rootPath, path)

	file, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open template file: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file: %w", err)
	}

	template, err := ParseTemplate(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	template.FilePath = path
	return template, nil
}

// SaveTemplate saves a template to a markdown file with YAML frontmatter
func (s *Storage) SaveTemplate(template *models.Template) error {
	if template.FilePath == "" {
		template.FilePath = TemplatePath(template.ID)
	}
	fullPath := filepath.Join(s.rootPath, template.FilePath)

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	content, err := SerializeTemplate(template)
	if err != nil {
		return fmt.Errorf("failed to serialize template: %w", err)
	}

	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write template file: %w", err)
	}

	s.cache.Invalidate(template.FilePath)
	return nil
}

// DeleteTemplate deletes a template file from the file system
func (s *Storage) DeleteTemplate(template *models.Template) error {
	fullPath := filepath.Join(s.rootPath, template.FilePath)

	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		return fmt.Errorf("template file does not exist: %s", fullPath)
	}

	if err := os.Remove(fullPath); err != nil {
		return fmt.Errorf("failed to delete template file: %w", err)
	}

	s.cache.Invalidate(template.FilePath)
	return nil
}

// ListTemplates returns all templates in the library, using the metadata
// cache to skip re-parsing unchanged files
func (s *Storage) ListTemplates() ([]*models.Template, error) {
	templatesDir := filepath.Join(s.rootPath, "templates")
	if _, err := os.Stat(templatesDir); os.IsNotExist(err) {
		return []*models.Template{}, nil
	}

	var templates []*models.Template
	existingFiles := make(map[string]bool)
	cacheModified := false

	err := filepath.Walk(templatesDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() && strings.HasSuffix(path, ".md") {
			relPath, _ := filepath.Rel(s.rootPath, path)
			existingFiles[relPath] = true

			if cached, valid := s.cache.Get(relPath, info); valid {
				templates = append(templates, cached.ToTemplate())
				return nil
			}

			template, err := s.LoadTemplate(relPath)
			if err != nil {
				// Skip unparsable files but keep walking
				fmt.Fprintf(os.Stderr, "Warning: failed to load template %s: %v\n", relPath, err)
				return nil
			}

			s.cache.Set(relPath, info, template)
			cacheModified = true

			templates = append(templates, template)
		}

		return nil
	})

	s.cache.Cleanup(existingFiles)

	if cacheModified {
		if err := s.cache.Save(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to save metadata cache: %v\n", err)
		}
	}

	return templates, err
}

// SaveRender records a rendered transcript under renders/ for later review
func (s *Storage) SaveRender(templateID, content string) (string, error) {
	dir := filepath.Join(s.rootPath, "renders")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create renders directory: %w", err)
	}

	name := fmt.Sprintf("%s-%s.md", templateID, time.Now().Format("20060102-150405"))
	fullPath := filepath.Join(dir, name)

	if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write render transcript: %w", err)
	}

	return filepath.Join("renders", name), nil
}

// Helper functions

// ParseTemplate parses YAML frontmatter + markdown content into a Template
func ParseTemplate(content []byte) (*models.Template, error) {
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if !scanner.Scan() || scanner.Text() != "---" {
		return nil, fmt.Errorf("missing frontmatter delimiter")
	}

	var frontmatterLines []string
	for scanner.Scan() {
		line := scanner.Text()
		if line == "---" {
			break
		}
		frontmatterLines = append(frontmatterLines, line)
	}

	frontmatter := strings.Join(frontmatterLines, "\n")
	var template models.Template
	if err := yaml.Unmarshal([]byte(frontmatter), &template); err != nil {
		return nil, fmt.Errorf("failed to parse frontmatter: %w", err)
	}

	var contentLines []string
	for scanner.Scan() {
		contentLines = append(contentLines, scanner.Text())
	}
	template.Content = strings.Join(contentLines, "\n")
	template.Content = strings.TrimLeft(template.Content, " \t\n")

	return &template, nil
}

// SerializeTemplate converts a template to YAML frontmatter + markdown content
func SerializeTemplate(template *models.Template) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("---\n")

	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(template); err != nil {
		return nil, fmt.Errorf("failed to encode frontmatter: %w", err)
	}

	buf.WriteString("---\n")

	if template.Content != "" {
		buf.WriteString("\n")
		buf.WriteString(template.Content)
		if !strings.HasSuffix(template.Content, "\n") {
			buf.WriteString("\n")
		}
	}

	return buf.Bytes(), nil
}

func calculateHash(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}
