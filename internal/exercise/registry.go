package exercise

import (
	"fmt"
	"sort"
	"sync"

	"github.com/codedrill/drill/internal/domain"
)

// Registry provides access to lessons and exercises
type Registry struct {
	loader    *Loader
	mu        sync.RWMutex
	lessons   map[string]*Lesson
	exercises map[string]*domain.Exercise
}

// NewRegistry creates a new exercise registry
func NewRegistry(loader *Loader) *Registry {
	return &Registry{
		loader:    loader,
		lessons:   make(map[string]*Lesson),
		exercises: make(map[string]*domain.Exercise),
	}
}

// Load loads all lessons and exercises into memory
func (r *Registry) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	lessons, err := r.loader.LoadAllLessons()
	if err != nil {
		return fmt.Errorf("load lessons: %w", err)
	}

	for _, lesson := range lessons {
		r.lessons[lesson.ModuleID+"/"+lesson.ID] = lesson

		exercises, err := r.loader.LoadLessonExercises(lesson.ModuleID, lesson.ID)
		if err != nil {
			return fmt.Errorf("load exercises for lesson %s/%s: %w", lesson.ModuleID, lesson.ID, err)
		}
		for _, ex := range exercises {
			r.exercises[ex.ID] = ex
		}
	}

	return nil
}

// Reload reloads all content (useful during authoring)
func (r *Registry) Reload() error {
	r.mu.Lock()
	r.lessons = make(map[string]*Lesson)
	r.exercises = make(map[string]*domain.Exercise)
	r.mu.Unlock()

	return r.Load()
}

// GetLesson returns a lesson by moduleID/lessonID key
func (r *Registry) GetLesson(moduleID, lessonID string) (*Lesson, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lesson, ok := r.lessons[moduleID+"/"+lessonID]
	if !ok {
		return nil, fmt.Errorf("lesson not found: %s/%s", moduleID, lessonID)
	}
	return lesson, nil
}

// GetExercise returns an exercise by ID
func (r *Registry) GetExercise(id string) (*domain.Exercise, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ex, ok := r.exercises[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrExerciseNotFound, id)
	}
	return ex, nil
}

// ListLessons returns all loaded lessons sorted by module then lesson ID
func (r *Registry) ListLessons() []*Lesson {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lessons := make([]*Lesson, 0, len(r.lessons))
	for _, lesson := range r.lessons {
		lessons = append(lessons, lesson)
	}
	sort.Slice(lessons, func(i, j int) bool {
		if lessons[i].ModuleID != lessons[j].ModuleID {
			return lessons[i].ModuleID < lessons[j].ModuleID
		}
		return lessons[i].ID < lessons[j].ID
	})
	return lessons
}

// ListExercises returns all loaded exercises
func (r *Registry) ListExercises() []*domain.Exercise {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exercises := make([]*domain.Exercise, 0, len(r.exercises))
	for _, ex := range r.exercises {
		exercises = append(exercises, ex)
	}
	return exercises
}

// ListLessonExercises returns a lesson's exercises in authored order
func (r *Registry) ListLessonExercises(moduleID, lessonID string) ([]*domain.Exercise, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lesson, ok := r.lessons[moduleID+"/"+lessonID]
	if !ok {
		return nil, fmt.Errorf("lesson not found: %s/%s", moduleID, lessonID)
	}

	exercises := make([]*domain.Exercise, 0, len(lesson.ExerciseIDs))
	for _, id := range lesson.ExerciseIDs {
		if ex, ok := r.exercises[id]; ok {
			exercises = append(exercises, ex)
		}
	}
	return exercises, nil
}

// GetExercisesByConcept returns exercises tagged with a concept
func (r *Registry) GetExercisesByConcept(concept string) []*domain.Exercise {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var exercises []*domain.Exercise
	for _, ex := range r.exercises {
		for _, c := range ex.Concepts {
			if c == concept {
				exercises = append(exercises, ex)
				break
			}
		}
	}
	return exercises
}

// NextExercise returns the exercise after the given one in its lesson, or
// nil when it is the last
func (r *Registry) NextExercise(currentID string) (*domain.Exercise, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	current, ok := r.exercises[currentID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrExerciseNotFound, currentID)
	}

	lesson, ok := r.lessons[current.ModuleID+"/"+current.LessonID]
	if !ok {
		return nil, fmt.Errorf("lesson not found: %s/%s", current.ModuleID, current.LessonID)
	}

	for i, id := range lesson.ExerciseIDs {
		if id == currentID {
			if i+1 < len(lesson.ExerciseIDs) {
				if next, ok := r.exercises[lesson.ExerciseIDs[i+1]]; ok {
					return next, nil
				}
			}
			return nil, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", domain.ErrExerciseNotFound, currentID)
}

// Stats returns statistics about loaded content
func (r *Registry) Stats() RegistryStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := RegistryStats{
		LessonCount:   len(r.lessons),
		ExerciseCount: len(r.exercises),
		ByVariant:     make(map[string]int),
	}
	for _, ex := range r.exercises {
		stats.ByVariant[string(ex.Variant)]++
	}
	return stats
}

// RegistryStats holds statistics about the registry
type RegistryStats struct {
	LessonCount   int
	ExerciseCount int
	ByVariant     map[string]int
}
