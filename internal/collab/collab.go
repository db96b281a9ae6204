// Package collab holds the membership rules of a collaboration project.
//
// Every transition takes the project by value and returns the updated copy,
// so a rejected transition leaves the caller's project untouched. Only ids
// are compared; loading and persisting the project is the caller's job.
package collab

import (
	"fmt"
	"slices"

	"github.com/devex-hq/devex-api/internal/apperr"
	"github.com/devex-hq/devex-api/internal/models"
	"github.com/google/uuid"
)

type Action string

const (
	ActionAccept Action = "accept"
	ActionReject Action = "reject"
)

var (
	ErrNotOpen          = fmt.Errorf("%w: project is not open for collaboration", apperr.ErrInvalidState)
	ErrAuthorCannotJoin = fmt.Errorf("%w: you are the author of this project", apperr.ErrForbidden)
	ErrAlreadyMember    = fmt.Errorf("%w: you are already a collaborator", apperr.ErrConflict)
	ErrAlreadyRequested = fmt.Errorf("%w: join request already pending", apperr.ErrConflict)
	ErrNotAuthor        = fmt.Errorf("%w: only the project author can do this", apperr.ErrForbidden)
	ErrNotMember        = fmt.Errorf("%w: not a member of this project", apperr.ErrForbidden)
	ErrInvalidAction    = fmt.Errorf("%w: action must be accept or reject", apperr.ErrValidation)
	ErrInvalidStatus    = fmt.Errorf("%w: unknown project status", apperr.ErrValidation)
)

func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionAccept, ActionReject:
		return a, nil
	}
	return "", ErrInvalidAction
}

// RequestJoin puts requester into the pending list of an open project.
func RequestJoin(p models.CollabProject, requester uuid.UUID) (models.CollabProject, error) {
	if p.Status != models.CollabStatusOpen {
		return p, ErrNotOpen
	}
	if p.AuthorID == requester {
		return p, ErrAuthorCannotJoin
	}
	if slices.Contains(p.Collaborators, requester) {
		return p, ErrAlreadyMember
	}
	if slices.Contains(p.PendingRequests, requester) {
		return p, ErrAlreadyRequested
	}

	next := clone(p)
	next.PendingRequests = append(next.PendingRequests, requester)
	return next, nil
}

// ManageRequest resolves applicant's pending request. The applicant leaves the
// pending list whether or not a request existed; accept also adds them to the
// collaborators once.
func ManageRequest(p models.CollabProject, actor, applicant uuid.UUID, action Action) (models.CollabProject, error) {
	if p.AuthorID != actor {
		return p, ErrNotAuthor
	}
	if action != ActionAccept && action != ActionReject {
		return p, ErrInvalidAction
	}

	next := clone(p)
	next.PendingRequests = without(next.PendingRequests, applicant)
	if action == ActionAccept && applicant != p.AuthorID && !slices.Contains(next.Collaborators, applicant) {
		next.Collaborators = append(next.Collaborators, applicant)
	}
	return next, nil
}

// RemoveCollaborator drops member from the collaborators, if present.
func RemoveCollaborator(p models.CollabProject, actor, member uuid.UUID) (models.CollabProject, error) {
	if p.AuthorID != actor {
		return p, ErrNotAuthor
	}

	next := clone(p)
	next.Collaborators = without(next.Collaborators, member)
	return next, nil
}

// SetStatus changes the project status. No transition changes it implicitly.
func SetStatus(p models.CollabProject, actor uuid.UUID, status string) (models.CollabProject, error) {
	if p.AuthorID != actor {
		return p, ErrNotAuthor
	}
	if !models.IsValidCollabStatus(status) {
		return p, ErrInvalidStatus
	}

	next := clone(p)
	next.Status = status
	return next, nil
}

func AuthorizeDelete(p models.CollabProject, actor uuid.UUID) error {
	if p.AuthorID != actor {
		return ErrNotAuthor
	}
	return nil
}

// CanAccessRoom reports whether user may read or post in the project's chat room.
func CanAccessRoom(p models.CollabProject, user uuid.UUID) bool {
	return p.AuthorID == user || slices.Contains(p.Collaborators, user)
}

func AuthorizeRoom(p models.CollabProject, user uuid.UUID) error {
	if !CanAccessRoom(p, user) {
		return ErrNotMember
	}
	return nil
}

func RoleOf(p models.CollabProject, user uuid.UUID) string {
	switch {
	case p.AuthorID == user:
		return models.CollabRoleAuthor
	case slices.Contains(p.Collaborators, user):
		return models.CollabRoleCollaborator
	case slices.Contains(p.PendingRequests, user):
		return models.CollabRolePending
	}
	return models.CollabRoleNone
}

// CheckInvariants verifies the author is in neither list and the lists are
// disjoint and duplicate free.
func CheckInvariants(p models.CollabProject) error {
	seen := make(map[uuid.UUID]string, len(p.Collaborators)+len(p.PendingRequests))
	for _, id := range p.Collaborators {
		if id == p.AuthorID {
			return fmt.Errorf("author %s listed as collaborator", id)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("collaborator %s listed twice", id)
		}
		seen[id] = models.CollabRoleCollaborator
	}
	for _, id := range p.PendingRequests {
		if id == p.AuthorID {
			return fmt.Errorf("author %s listed as pending", id)
		}
		if role, dup := seen[id]; dup {
			return fmt.Errorf("pending user %s already %s", id, role)
		}
		seen[id] = models.CollabRolePending
	}
	return nil
}

func clone(p models.CollabProject) models.CollabProject {
	p.RequiredSkills = slices.Clone(p.RequiredSkills)
	p.Collaborators = slices.Clone(p.Collaborators)
	p.PendingRequests = slices.Clone(p.PendingRequests)
	if p.Collaborators == nil {
		p.Collaborators = []uuid.UUID{}
	}
	if p.PendingRequests == nil {
		p.PendingRequests = []uuid.UUID{}
	}
	return p
}

func without(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	return slices.DeleteFunc(ids, func(x uuid.UUID) bool { return x == id })
}
