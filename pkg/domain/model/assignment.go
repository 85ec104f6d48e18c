package model

import (
	"github.com/clinboard/clinboard/pkg/domain/types"
)

// Assignment is one coordinator-to-study assignment
type Assignment struct {
	StudyID       types.StudyID
	CoordinatorID types.CoordinatorID
}

// AssignmentMap holds both directions of the coordinator-study relation
type AssignmentMap struct {
	ByStudy       map[types.StudyID][]types.CoordinatorID
	ByCoordinator map[types.CoordinatorID][]types.StudyID
}

// BuildAssignmentMap builds the bidirectional assignment map from raw
// assignment pairs. Duplicate pairs are collapsed.
func BuildAssignmentMap(assignments []Assignment) *AssignmentMap {
	m := &AssignmentMap{
		ByStudy:       make(map[types.StudyID][]types.CoordinatorID),
		ByCoordinator: make(map[types.CoordinatorID][]types.StudyID),
	}

	seen := make(map[Assignment]bool, len(assignments))
	for _, a := range assignments {
		if a.StudyID == "" || a.CoordinatorID == "" {
			continue
		}
		if seen[a] {
			continue
		}
		seen[a] = true

		m.ByStudy[a.StudyID] = append(m.ByStudy[a.StudyID], a.CoordinatorID)
		m.ByCoordinator[a.CoordinatorID] = append(m.ByCoordinator[a.CoordinatorID], a.StudyID)
	}

	return m
}

// Coordinators returns the distinct coordinator IDs in the map
func (m *AssignmentMap) Coordinators() []types.CoordinatorID {
	ids := make([]types.CoordinatorID, 0, len(m.ByCoordinator))
	for id := range m.ByCoordinator {
		ids = append(ids, id)
	}
	return ids
}
