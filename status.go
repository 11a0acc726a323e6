package sightings

import (
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// PostStatus is the moderation state of a sighting post.
type PostStatus string

const (
	StatusBorrador  PostStatus = "BORRADOR"
	StatusRevision  PostStatus = "REVISION"
	StatusActivo    PostStatus = "ACTIVO"
	StatusRechazado PostStatus = "RECHAZADO"
	StatusEliminado PostStatus = "ELIMINADO"
)

func (s PostStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no transition can leave this status.
func (s PostStatus) IsTerminal() bool {
	return s == StatusEliminado
}

// StatusSet holds the recognized post statuses. The state machine takes one
// at construction time so tests can exercise reduced or extended sets.
type StatusSet struct {
	members map[PostStatus]struct{}
	ordered []PostStatus
}

// NewStatusSet builds a set from the provided statuses, preserving order and
// dropping duplicates.
func NewStatusSet(statuses ...PostStatus) *StatusSet {
	s := &StatusSet{
		members: make(map[PostStatus]struct{}, len(statuses)),
	}
	for _, st := range statuses {
		if _, ok := s.members[st]; ok {
			continue
		}
		s.members[st] = struct{}{}
		s.ordered = append(s.ordered, st)
	}
	return s
}

// DefaultStatusSet returns the set of statuses the moderation workflow uses.
func DefaultStatusSet() *StatusSet {
	return NewStatusSet(
		StatusBorrador,
		StatusRevision,
		StatusActivo,
		StatusRechazado,
		StatusEliminado,
	)
}

// Contains reports set membership.
func (s *StatusSet) Contains(st PostStatus) bool {
	_, ok := s.members[st]
	return ok
}

// Members returns the statuses in registration order.
func (s *StatusSet) Members() []PostStatus {
	out := make([]PostStatus, len(s.ordered))
	copy(out, s.ordered)
	return out
}

// Parse resolves a raw string to a member of the set, case insensitive.
func (s *StatusSet) Parse(raw string) (PostStatus, error) {
	st := PostStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.Contains(st) {
		return "", goerrors.New(
			fmt.Sprintf("unknown post status: %q", raw),
			goerrors.CategoryBadInput,
		).WithTextCode("UNKNOWN_STATUS").WithCode(goerrors.CodeBadRequest)
	}
	return st, nil
}
