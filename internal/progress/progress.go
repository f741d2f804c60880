// Package progress owns the per-learner progress aggregate: module
// completion, the final assessment outcome, and what unlocks next. All
// transitions are pure functions over the aggregate; persistence writes
// the whole aggregate after each transition.
package progress

import (
	"fmt"

	"github.com/ocrp-academy/trainportal/internal/assessment"
	"github.com/ocrp-academy/trainportal/internal/bank"
)

// Section identifies a navigable part of the curriculum.
type Section string

const (
	SectionModule1    Section = "module-1"
	SectionModule2    Section = "module-2"
	SectionModule3    Section = "module-3"
	SectionModule4    Section = "module-4"
	SectionAssessment Section = "assessment"
)

// ModuleProgress tracks one content module. Scores only ever move forward:
// a module, once completed, stays completed.
type ModuleProgress struct {
	Completed       bool `json:"completed"`
	Score           int  `json:"score"`
	PercentComplete int  `json:"percent_complete"`
}

// UserProgress is the aggregate for one learner.
type UserProgress struct {
	UserID     string                 `json:"user_id"`
	Modules    map[int]ModuleProgress `json:"modules"`
	Assessment assessment.Result      `json:"assessment"`
}

// New returns a fresh aggregate with all modules at zero.
func New(userID string) UserProgress {
	mods := make(map[int]ModuleProgress, bank.MaxModuleID)
	for id := bank.MinModuleID; id <= bank.MaxModuleID; id++ {
		mods[id] = ModuleProgress{}
	}
	return UserProgress{UserID: userID, Modules: mods}
}

// CompleteModule marks a module completed with the given score and returns
// the updated aggregate. The input aggregate is not modified.
func CompleteModule(p UserProgress, moduleID, score int) (UserProgress, error) {
	if moduleID < bank.MinModuleID || moduleID > bank.MaxModuleID {
		return p, fmt.Errorf("progress: module id %d out of range", moduleID)
	}
	if score < 0 || score > 100 {
		return p, fmt.Errorf("progress: score %d out of range", score)
	}
	out := clone(p)
	out.Modules[moduleID] = ModuleProgress{Completed: true, Score: score, PercentComplete: 100}
	return out, nil
}

// RecordAssessment archives the final assessment outcome. It does not
// navigate anywhere: showing the result and unlocking the certificate are
// separate concerns, and only the latter reads Passed.
func RecordAssessment(p UserProgress, r assessment.Result) UserProgress {
	out := clone(p)
	out.Assessment = r
	return out
}

// NextSectionAfter derives the section unlocked by completing a module:
// the next module, or the final assessment after module 4.
func NextSectionAfter(moduleID int) (Section, error) {
	switch moduleID {
	case 1:
		return SectionModule2, nil
	case 2:
		return SectionModule3, nil
	case 3:
		return SectionModule4, nil
	case 4:
		return SectionAssessment, nil
	}
	return "", fmt.Errorf("progress: module id %d out of range", moduleID)
}

// AssessmentUnlocked reports whether all four modules are completed.
func AssessmentUnlocked(p UserProgress) bool {
	for id := bank.MinModuleID; id <= bank.MaxModuleID; id++ {
		if !p.Modules[id].Completed {
			return false
		}
	}
	return true
}

// CertificateEligible reports whether the learner may be issued the
// completion certificate.
func CertificateEligible(p UserProgress) bool {
	return p.Assessment.Completed && p.Assessment.Passed
}

func clone(p UserProgress) UserProgress {
	out := p
	out.Modules = make(map[int]ModuleProgress, len(p.Modules))
	for k, v := range p.Modules {
		out.Modules[k] = v
	}
	return out
}
