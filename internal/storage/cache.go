package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dbod-pe/promptpack/internal/models"
)

// TemplateMetadata represents cached metadata for a template. Content is
// deliberately not cached; full loads always go back to the file.
type TemplateMetadata struct {
	ID          string           `json:"id"`
	Version     string           `json:"version"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Slots       []models.Slot    `json:"slots,omitempty"`
	Contract    *models.Contract `json:"contract,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	FilePath    string           `json:"file_path"`
	ModTime     time.Time        `json:"mod_time"`
	Size        int64            `json:"size"`
	FileHash    string           `json:"file_hash"`
}

// ToTemplate reconstructs a metadata-only template for list views
func (m *TemplateMetadata) ToTemplate() *models.Template {
	return &models.Template{
		ID:          m.ID,
		Version:     m.Version,
		Name:        m.Name,
		Description: m.Description,
		Slots:       m.Slots,
		Contract:    m.Contract,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
		FilePath:    m.FilePath,
	}
}

// MetadataCache handles caching of template metadata
type MetadataCache struct {
	cacheDir  string
	cacheFile string
	metadata  map[string]*TemplateMetadata
	mu        sync.RWMutex
}

// NewMetadataCache creates a new metadata cache rooted in the library dir
func NewMetadataCache(baseDir string) *MetadataCache {
	cacheDir := filepath.Join(baseDir, ".promptpack", "cache")
	return &MetadataCache{
		cacheDir:  cacheDir,
		cacheFile: filepath.Join(cacheDir, "metadata.json"),
		metadata:  make(map[string]*TemplateMetadata),
	}
}

// Load loads the metadata cache from disk
func (c *MetadataCache) Load() error {
	if err := os.MkdirAll(c.cacheDir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	if _, err := os.Stat(c.cacheFile); os.IsNotExist(err) {
		return nil // No cache file exists yet
	}

	data, err := os.ReadFile(c.cacheFile)
	if err != nil {
		return fmt.Errorf("failed to read cache file: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := json.Unmarshal(data, &c.metadata); err != nil {
		// Corrupt cache is discarded, not fatal
		c.metadata = make(map[string]*TemplateMetadata)
	}

	return nil
}

// Save persists the metadata cache to disk
func (c *MetadataCache) Save() error {
	c.mu.RLock()
	data, err := json.MarshalIndent(c.metadata, "", "  ")
	c.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}

	if err := os.MkdirAll(c.cacheDir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	return os.WriteFile(c.cacheFile, data, 0644)
}

// Get returns cached metadata if it is still valid for the file on disk
func (c *MetadataCache) Get(relPath string, info os.FileInfo) (*TemplateMetadata, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cached, exists := c.metadata[relPath]
	if !exists {
		return nil, false
	}

	if !cached.ModTime.Equal(info.ModTime()) || cached.Size != info.Size() {
		return nil, false
	}

	return cached, true
}

// Set stores metadata for a freshly parsed template
func (c *MetadataCache) Set(relPath string, info os.FileInfo, template *models.Template) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.metadata[relPath] = &TemplateMetadata{
		ID:          template.ID,
		Version:     template.Version,
		Name:        template.Name,
		Description: template.Description,
		Slots:       template.Slots,
		Contract:    template.Contract,
		CreatedAt:   template.CreatedAt,
		UpdatedAt:   template.UpdatedAt,
		FilePath:    relPath,
		ModTime:     info.ModTime(),
		Size:        info.Size(),
		FileHash:    calculateHash([]byte(template.Content)),
	}
}

// Invalidate drops a single cache entry
func (c *MetadataCache) Invalidate(relPath string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.metadata, relPath)
}

// Cleanup removes cache entries for files that no longer exist
func (c *MetadataCache) Cleanup(existingFiles map[string]bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for relPath := range c.metadata {
		if !existingFiles[relPath] {
			delete(c.metadata, relPath)
		}
	}
}
