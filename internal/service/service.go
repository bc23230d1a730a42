package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sahilm/fuzzy"
	"go.uber.org/zap"

	"github.com/dbod-pe/promptpack/internal/builtin"
	"github.com/dbod-pe/promptpack/internal/conformance"
	"github.com/dbod-pe/promptpack/internal/config"
	"github.com/dbod-pe/promptpack/internal/errors"
	"github.com/dbod-pe/promptpack/internal/git"
	"github.com/dbod-pe/promptpack/internal/models"
	"github.com/dbod-pe/promptpack/internal/renderer"
	"github.com/dbod-pe/promptpack/internal/storage"
	"github.com/dbod-pe/promptpack/internal/validation"
)

// Service provides business logic for template management: CRUD and search
// over the library, the validate-then-render pipeline, and contract
// verification of agent output.
type Service struct {
	storage   *storage.Storage
	validator *validation.Validator
	verifier  *conformance.Verifier
	gitSync   *git.GitSync
	cfg       *config.Config
	logger    *zap.Logger
}

// NewService creates a new service instance over the configured library
func NewService(cfg *config.Config, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	store, err := storage.NewStorage(cfg.LibraryDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	svc := &Service{
		storage:   store,
		validator: validation.NewValidator(),
		verifier:  conformance.NewVerifier(),
		gitSync:   git.NewGitSync(store.GetBaseDir(), logger),
		cfg:       cfg,
		logger:    logger,
	}

	if err := svc.InitLibrary(); err != nil {
		return nil, err
	}

	// Git availability probing must not block startup
	go func() {
		if err := svc.gitSync.Initialize(); err != nil {
			logger.Debug("git sync unavailable", zap.Error(err))
		}
	}()

	return svc, nil
}

// InitLibrary creates the library structure and seeds the builtin templates
func (s *Service) InitLibrary() error {
	if err := s.storage.InitLibrary(); err != nil {
		return errors.StorageError("init library", err)
	}
	return s.seedBuiltins()
}

// seedBuiltins installs embedded templates that are not yet in the library.
// Existing files are never overwritten; local edits win.
func (s *Service) seedBuiltins() error {
	templates, err := builtin.Templates()
	if err != nil {
		return errors.StorageError("load builtin templates", err)
	}

	existing, err := s.storage.ListTemplates()
	if err != nil {
		return errors.StorageError("list templates", err)
	}
	present := make(map[string]bool, len(existing))
	for _, t := range existing {
		present[t.ID] = true
	}

	for _, t := range templates {
		if present[t.ID] {
			continue
		}
		now := time.Now()
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		if err := s.storage.SaveTemplate(t); err != nil {
			return errors.StorageError("seed builtin template "+t.ID, err)
		}
		s.logger.Info("seeded builtin template", zap.String("id", t.ID))
	}

	return nil
}

// ListTemplates returns all templates in the library
func (s *Service) ListTemplates() ([]*models.Template, error) {
	templates, err := s.storage.ListTemplates()
	if err != nil {
		return nil, errors.StorageError("list templates", err)
	}
	return templates, nil
}

// GetTemplate loads a template with its full content by id
func (s *Service) GetTemplate(id string) (*models.Template, error) {
	tmpl, err := s.storage.LoadTemplate(storage.TemplatePath(id))
	if err == nil {
		return tmpl, nil
	}

	// Fall back to a scan for templates stored under non-standard paths
	templates, listErr := s.storage.ListTemplates()
	if listErr != nil {
		return nil, errors.NotFoundError(fmt.Sprintf("Template '%s'", id))
	}
	for _, t := range templates {
		if t.ID == id {
			return s.storage.LoadTemplate(t.FilePath)
		}
	}

	return nil, errors.NotFoundError(fmt.Sprintf("Template '%s'", id))
}

// SaveTemplate validates minimal identity fields and persists the template
func (s *Service) SaveTemplate(tmpl *models.Template) error {
	if tmpl.ID == "" {
		return errors.ValidationError("Template id must not be empty")
	}

	now := time.Now()
	if tmpl.CreatedAt.IsZero() {
		tmpl.CreatedAt = now
	}
	tmpl.UpdatedAt = now

	if err := s.storage.SaveTemplate(tmpl); err != nil {
		return errors.StorageError("save template", err)
	}

	s.logger.Debug("template saved", zap.String("id", tmpl.ID))
	return nil
}

// DeleteTemplate removes a template from the library
func (s *Service) DeleteTemplate(id string) error {
	tmpl, err := s.GetTemplate(id)
	if err != nil {
		return err
	}
	if err := s.storage.DeleteTemplate(tmpl); err != nil {
		return errors.StorageError("delete template", err)
	}
	return nil
}

// SearchTemplates fuzzy-matches templates by id, name and description
func (s *Service) SearchTemplates(query string) ([]*models.Template, error) {
	templates, err := s.ListTemplates()
	if err != nil {
		return nil, err
	}
	if query == "" {
		return templates, nil
	}

	haystack := make([]string, len(templates))
	for i, t := range templates {
		haystack[i] = t.ID + " " + t.Name + " " + t.Description
	}

	matches := fuzzy.Find(query, haystack)
	results := make([]*models.Template, 0, len(matches))
	for _, m := range matches {
		results = append(results, templates[m.Index])
	}

	return results, nil
}

// RenderResult is the outcome of a successful render
type RenderResult struct {
	Template       *models.Template       `json:"-"`
	TemplateID     string                 `json:"template_id"`
	Text           string                 `json:"text"`
	Inputs         map[string]interface{} `json:"inputs"`
	TranscriptPath string                 `json:"transcript_path,omitempty"`
}

// Render validates slot values against the template and substitutes them
// into the body. Invalid input is rejected here, before anything could be
// dispatched to a generation agent.
func (s *Service) Render(id string, inputs map[string]interface{}) (*RenderResult, error) {
	tmpl, err := s.GetTemplate(id)
	if err != nil {
		return nil, err
	}

	result := s.validator.ValidateTemplate(tmpl, inputs)
	if !result.Valid {
		return nil, result.ToAppError()
	}
	validated := result.GetValidatedData()

	text, err := renderer.NewRenderer(tmpl).RenderText(validated)
	if err != nil {
		return nil, errors.RenderError(id, err)
	}

	rendered := &RenderResult{
		Template:   tmpl,
		TemplateID: tmpl.ID,
		Text:       text,
		Inputs:     validated,
	}

	if s.cfg != nil && s.cfg.RecordRenders {
		path, err := s.storage.SaveRender(tmpl.ID, text)
		if err != nil {
			s.logger.Warn("failed to record render transcript", zap.Error(err))
		} else {
			rendered.TranscriptPath = path
		}
	}

	s.logger.Debug("template rendered", zap.String("id", tmpl.ID))
	return rendered, nil
}

// RenderJSON renders the template as a chat-message JSON array
func (s *Service) RenderJSON(id string, inputs map[string]interface{}) (string, error) {
	rendered, err := s.Render(id, inputs)
	if err != nil {
		return "", err
	}
	return renderer.NewRenderer(rendered.Template).RenderJSON(rendered.Inputs)
}

// Verify checks agent output against a template's output contract. The
// inputs are the slot values of the originating request; they carry the
// requested variant count for commit templates.
func (s *Service) Verify(id string, output string, inputs map[string]interface{}) (*conformance.Report, error) {
	tmpl, err := s.GetTemplate(id)
	if err != nil {
		return nil, err
	}

	validated := inputs
	if len(inputs) > 0 {
		result := s.validator.ValidateTemplate(tmpl, inputs)
		if !result.Valid {
			return nil, result.ToAppError()
		}
		validated = result.GetValidatedData()
	}

	report, err := s.verifier.Verify(tmpl, output, validated)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("output verified",
		zap.String("id", tmpl.ID),
		zap.Bool("valid", report.Valid),
		zap.Int("violations", len(report.Violations)))

	return report, nil
}

// BaseDir returns the library root directory
func (s *Service) BaseDir() string {
	return s.storage.GetBaseDir()
}

// Git sync passthroughs

// SetupGitRepository wires the library to a remote repository
func (s *Service) SetupGitRepository(repoURL string) error {
	if err := s.gitSync.SetupRepository(repoURL); err != nil {
		return errors.GitError("setup", err)
	}
	return nil
}

// SyncNow runs one immediate library sync
func (s *Service) SyncNow(ctx context.Context) error {
	if err := s.gitSync.Sync(ctx); err != nil {
		return errors.GitError("sync", err)
	}
	return nil
}

// StartPeriodicSync begins background syncing at the configured interval
func (s *Service) StartPeriodicSync(ctx context.Context) {
	if s.cfg == nil || !s.cfg.GitSync || s.cfg.SyncInterval <= 0 {
		return
	}
	s.gitSync.StartPeriodicSync(ctx, time.Duration(s.cfg.SyncInterval)*time.Minute)
}

// GitStatus reports the current sync state
func (s *Service) GitStatus() string {
	return s.gitSync.Status()
}
