package models

import (
	"errors"
	"fmt"
	"strings"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

type Example struct {
	Input       string `yaml:"input" json:"input"`
	Output      string `yaml:"output" json:"output"`
	Explanation string `yaml:"explanation,omitempty" json:"explanation,omitempty"`
}

type Problem struct {
	ID              string            `yaml:"id" json:"id"`
	Slug            string            `yaml:"slug,omitempty" json:"slug"`
	Title           string            `yaml:"title" json:"title"`
	Difficulty      Difficulty        `yaml:"difficulty" json:"difficulty"`
	Tags            []string          `yaml:"tags" json:"tags"`
	Description     string            `yaml:"description" json:"description"`
	Examples        []Example         `yaml:"examples" json:"examples"`
	Constraints     []string          `yaml:"constraints" json:"constraints"`
	StarterCode     string            `yaml:"starter_code" json:"starter_code"`
	Language        string            `yaml:"language" json:"language"`
	TestCases       []string          `yaml:"test_cases" json:"test_cases"`
	ExpectedOutputs []string          `yaml:"expected_outputs" json:"expected_outputs"`
	StarterCodeMap  map[string]string `yaml:"starter_code_map,omitempty" json:"starter_code_map,omitempty"`
	Solutions       map[string]string `yaml:"solutions,omitempty" json:"-"`
}

type ProblemListItem struct {
	ID         string     `json:"id"`
	Slug       string     `json:"slug"`
	Title      string     `json:"title"`
	Difficulty Difficulty `json:"difficulty"`
	Tags       []string   `json:"tags"`
}

func (p *Problem) ListItem() ProblemListItem {
	return ProblemListItem{
		ID:         p.ID,
		Slug:       p.Slug,
		Title:      p.Title,
		Difficulty: p.Difficulty,
		Tags:       p.Tags,
	}
}

// Validate checks the record is usable by the harness. Test cases and
// expected outputs are index-aligned, so their lengths must match.
func (p *Problem) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return errors.New("problem ID cannot be empty")
	}
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("problem %s: title cannot be empty", p.ID)
	}
	if !p.Difficulty.Valid() {
		return fmt.Errorf("problem %s: unknown difficulty %q", p.ID, p.Difficulty)
	}
	if strings.TrimSpace(p.Language) == "" {
		return fmt.Errorf("problem %s: default language is required", p.ID)
	}
	if len(p.TestCases) != len(p.ExpectedOutputs) {
		return fmt.Errorf("problem %s: %d test cases but %d expected outputs",
			p.ID, len(p.TestCases), len(p.ExpectedOutputs))
	}
	return nil
}

// StarterFor returns the starter source for lang. The default language
// falls back to StarterCode when the map has no entry for it.
func (p *Problem) StarterFor(lang string) (string, bool) {
	if code, ok := p.StarterCodeMap[lang]; ok {
		return code, true
	}
	if lang == p.Language {
		return p.StarterCode, true
	}
	return "", false
}
