// Package exercise loads authored lesson content from YAML and serves it
// from an in-memory registry. Definitions are validated at load time so a
// content bug surfaces when the content ships, not when a learner hits it.
package exercise

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/codedrill/drill/internal/domain"
	"gopkg.in/yaml.v3"
)

// LessonFile represents the YAML structure for a lesson manifest
type LessonFile struct {
	ID        string   `yaml:"id"`
	ModuleID  string   `yaml:"module"`
	Title     string   `yaml:"title"`
	Exercises []string `yaml:"exercises"`
}

// ExerciseFile represents the YAML structure for an exercise. Exactly one
// variant section must be present, matching the variant field.
type ExerciseFile struct {
	Prompt          string   `yaml:"prompt"`
	Variant         string   `yaml:"variant"`
	Concepts        []string `yaml:"concepts"`
	Hints           []string `yaml:"hints"`
	Difficulty      string   `yaml:"difficulty"`
	ExpectedSeconds int      `yaml:"expected_seconds"`

	Trace *struct {
		Code  string `yaml:"code"`
		Steps []struct {
			Line   int               `yaml:"line"`
			Vars   map[string]string `yaml:"vars"`
			Output string            `yaml:"output"`
		} `yaml:"steps"`
	} `yaml:"trace"`

	Parsons *struct {
		Blocks []struct {
			ID         string `yaml:"id"`
			Code       string `yaml:"code"`
			Distractor bool   `yaml:"distractor"`
		} `yaml:"blocks"`
		SolutionOrder []string `yaml:"solution_order"`
	} `yaml:"parsons"`

	FillIn *struct {
		Template string `yaml:"template"`
		Blanks   []struct {
			Answer        string `yaml:"answer"`
			CaseSensitive bool   `yaml:"case_sensitive"`
			Hint          string `yaml:"hint"`
		} `yaml:"blanks"`
	} `yaml:"fillin"`

	Write *struct {
		Starter string `yaml:"starter"`
		Tests   []struct {
			Name  string `yaml:"name"`
			Check string `yaml:"check"`
		} `yaml:"tests"`
		TimeoutMs int `yaml:"timeout_ms"`
	} `yaml:"write"`
}

// Lesson groups an ordered sequence of exercises under a module.
type Lesson struct {
	ID          string
	ModuleID    string
	Title       string
	ExerciseIDs []string
}

// Loader handles loading lessons and exercises from YAML files
type Loader struct {
	basePath string
}

// NewLoader creates a new exercise loader rooted at basePath
func NewLoader(basePath string) *Loader {
	return &Loader{basePath: basePath}
}

// LoadLesson loads a lesson manifest from moduleID/lessonID/lesson.yaml
func (l *Loader) LoadLesson(moduleID, lessonID string) (*Lesson, error) {
	lessonPath := filepath.Join(l.basePath, moduleID, lessonID, "lesson.yaml")

	data, err := os.ReadFile(lessonPath)
	if err != nil {
		return nil, fmt.Errorf("read lesson file: %w", err)
	}

	var lessonFile LessonFile
	if err := yaml.Unmarshal(data, &lessonFile); err != nil {
		return nil, fmt.Errorf("parse lesson file: %w", err)
	}

	lesson := &Lesson{
		ID:          lessonID,
		ModuleID:    moduleID,
		Title:       lessonFile.Title,
		ExerciseIDs: make([]string, len(lessonFile.Exercises)),
	}
	for i, slug := range lessonFile.Exercises {
		lesson.ExerciseIDs[i] = fmt.Sprintf("%s/%s/%s", moduleID, lessonID, slug)
	}

	return lesson, nil
}

// LoadExercise loads and validates one exercise definition. The id is the
// full slug, moduleID/lessonID/name.
func (l *Loader) LoadExercise(id string) (*domain.Exercise, error) {
	parts := strings.Split(id, "/")
	if len(parts) != 3 {
		return nil, fmt.Errorf("invalid exercise id: %s", id)
	}

	data, err := os.ReadFile(filepath.Join(l.basePath, id+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("read exercise file: %w", err)
	}

	var exFile ExerciseFile
	if err := yaml.Unmarshal(data, &exFile); err != nil {
		return nil, fmt.Errorf("parse exercise file: %w", err)
	}

	ex := &domain.Exercise{
		ID:              id,
		ModuleID:        parts[0],
		LessonID:        parts[1],
		Prompt:          exFile.Prompt,
		Concepts:        exFile.Concepts,
		Hints:           exFile.Hints,
		Difficulty:      domain.Difficulty(exFile.Difficulty),
		ExpectedSeconds: exFile.ExpectedSeconds,
		Variant:         domain.Variant(exFile.Variant),
	}

	if exFile.Trace != nil {
		spec := &domain.TraceSpec{
			Code:  exFile.Trace.Code,
			Steps: make([]domain.TraceStep, len(exFile.Trace.Steps)),
		}
		for i, s := range exFile.Trace.Steps {
			spec.Steps[i] = domain.TraceStep{Line: s.Line, Vars: s.Vars, Output: s.Output}
		}
		ex.Trace = spec
	}

	if exFile.Parsons != nil {
		spec := &domain.ParsonsSpec{
			Blocks:        make([]domain.CodeBlock, len(exFile.Parsons.Blocks)),
			SolutionOrder: exFile.Parsons.SolutionOrder,
		}
		for i, b := range exFile.Parsons.Blocks {
			spec.Blocks[i] = domain.CodeBlock{ID: b.ID, Code: b.Code, Distractor: b.Distractor}
		}
		ex.Parsons = spec
	}

	if exFile.FillIn != nil {
		spec := &domain.FillInSpec{
			Template: exFile.FillIn.Template,
			Blanks:   make([]domain.Blank, len(exFile.FillIn.Blanks)),
		}
		for i, b := range exFile.FillIn.Blanks {
			spec.Blanks[i] = domain.Blank{Answer: b.Answer, CaseSensitive: b.CaseSensitive, Hint: b.Hint}
		}
		ex.FillIn = spec
	}

	if exFile.Write != nil {
		spec := &domain.WriteSpec{
			Starter:   exFile.Write.Starter,
			Tests:     make([]domain.TestCase, len(exFile.Write.Tests)),
			TimeoutMs: exFile.Write.TimeoutMs,
		}
		for i, tc := range exFile.Write.Tests {
			spec.Tests[i] = domain.TestCase{Name: tc.Name, Check: tc.Check}
		}
		ex.Write = spec
	}

	if err := ex.Validate(); err != nil {
		return nil, fmt.Errorf("validate exercise %s: %w", id, err)
	}

	return ex, nil
}

// LoadAllLessons walks the base directory for lesson manifests. Layout is
// basePath/<module>/<lesson>/lesson.yaml; directories without a manifest
// are skipped.
func (l *Loader) LoadAllLessons() ([]*Lesson, error) {
	modules, err := os.ReadDir(l.basePath)
	if err != nil {
		return nil, fmt.Errorf("read exercises directory: %w", err)
	}

	var lessons []*Lesson
	for _, mod := range modules {
		if !mod.IsDir() {
			continue
		}
		entries, err := os.ReadDir(filepath.Join(l.basePath, mod.Name()))
		if err != nil {
			return nil, fmt.Errorf("read module directory %s: %w", mod.Name(), err)
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			manifest := filepath.Join(l.basePath, mod.Name(), entry.Name(), "lesson.yaml")
			if _, err := os.Stat(manifest); os.IsNotExist(err) {
				continue
			}
			lesson, err := l.LoadLesson(mod.Name(), entry.Name())
			if err != nil {
				return nil, fmt.Errorf("load lesson %s/%s: %w", mod.Name(), entry.Name(), err)
			}
			lessons = append(lessons, lesson)
		}
	}

	return lessons, nil
}

// LoadLessonExercises loads all exercises a lesson manifest names
func (l *Loader) LoadLessonExercises(moduleID, lessonID string) ([]*domain.Exercise, error) {
	lesson, err := l.LoadLesson(moduleID, lessonID)
	if err != nil {
		return nil, err
	}

	exercises := make([]*domain.Exercise, 0, len(lesson.ExerciseIDs))
	for _, id := range lesson.ExerciseIDs {
		ex, err := l.LoadExercise(id)
		if err != nil {
			return nil, fmt.Errorf("load exercise %s: %w", id, err)
		}
		exercises = append(exercises, ex)
	}

	return exercises, nil
}
