package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"codepad/internal/logger"
	"codepad/internal/models"

	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed problems.yaml
var defaultBank []byte

var (
	ErrProblemNotFound  = errors.New("problem not found")
	ErrSolutionNotFound = errors.New("solution not found")
)

type bankFile struct {
	Problems []models.Problem `yaml:"problems"`
}

// Catalog is the read-only problem bank, safe for concurrent readers.
// Order is the bank's declaration order and drives previous/next navigation.
type Catalog struct {
	problems []*models.Problem
	byID     map[string]*models.Problem
	bySlug   map[string]*models.Problem
}

// LoadDefault loads the bank compiled into the binary.
func LoadDefault() (*Catalog, error) {
	return Parse(defaultBank)
}

// LoadFromFile loads a bank from a YAML file on disk
func LoadFromFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return Parse(data)
}

// Load picks the file at path when set, the embedded bank otherwise.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return LoadDefault()
	}
	return LoadFromFile(path)
}

func Parse(data []byte) (*Catalog, error) {
	var bank bankFile
	if err := yaml.Unmarshal(data, &bank); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(bank.Problems) == 0 {
		return nil, errors.New("catalog has no problems")
	}

	c := &Catalog{
		byID:   make(map[string]*models.Problem, len(bank.Problems)),
		bySlug: make(map[string]*models.Problem, len(bank.Problems)),
	}
	for i := range bank.Problems {
		p := &bank.Problems[i]
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("invalid problem at index %d: %w", i, err)
		}
		if p.Slug == "" {
			p.Slug = slug.Make(p.Title)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate problem ID %s", p.ID)
		}
		if _, dup := c.bySlug[p.Slug]; dup {
			return nil, fmt.Errorf("duplicate problem slug %s", p.Slug)
		}
		c.problems = append(c.problems, p)
		c.byID[p.ID] = p
		c.bySlug[p.Slug] = p
	}

	logger.Log.Info("Problem catalog loaded", zap.Int("count", len(c.problems)))
	return c, nil
}

// List returns all problems in bank order
func (c *Catalog) List() []*models.Problem {
	out := make([]*models.Problem, len(c.problems))
	copy(out, c.problems)
	return out
}

// Get resolves a problem by ID or slug.
func (c *Catalog) Get(idOrSlug string) (*models.Problem, error) {
	if p, ok := c.byID[idOrSlug]; ok {
		return p, nil
	}
	if p, ok := c.bySlug[idOrSlug]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrProblemNotFound, idOrSlug)
}

func (c *Catalog) First() *models.Problem {
	return c.problems[0]
}

// Neighbors returns the problems before and after id; either may be nil at
// the ends of the bank.
func (c *Catalog) Neighbors(id string) (prev, next *models.Problem, err error) {
	for i, p := range c.problems {
		if p.ID != id {
			continue
		}
		if i > 0 {
			prev = c.problems[i-1]
		}
		if i < len(c.problems)-1 {
			next = c.problems[i+1]
		}
		return prev, next, nil
	}
	return nil, nil, fmt.Errorf("%w: %s", ErrProblemNotFound, id)
}

func (c *Catalog) Solution(id, language string) (string, error) {
	p, err := c.Get(id)
	if err != nil {
		return "", err
	}
	code, ok := p.Solutions[language]
	if !ok {
		return "", fmt.Errorf("%w: problem %s, language %s", ErrSolutionNotFound, id, language)
	}
	return code, nil
}
