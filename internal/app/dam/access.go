package dam

import (
	"strings"

	"github.com/dalemusser/stratadam/internal/app/system/normalize"
)

// Actor identifies the storefront caller of a catalog operation.
type Actor struct {
	Shop  string
	Roles []string
}

// HasRole reports whether the actor carries the given role tag.
func (a Actor) HasRole(role string) bool {
	role = normalize.Role(role)
	for _, r := range a.Roles {
		if normalize.Role(r) == role {
			return true
		}
	}
	return false
}

// Access decides which actors may read or mutate a catalog, based on
// configured role lists.
type Access struct {
	readRoles  map[string]struct{}
	writeRoles map[string]struct{}
}

// NewAccess builds an Access from comma-separated role lists. Roles in the
// write list implicitly grant read.
func NewAccess(readRoles, writeRoles string) *Access {
	a := &Access{
		readRoles:  make(map[string]struct{}),
		writeRoles: make(map[string]struct{}),
	}
	for _, r := range normalize.Roles(readRoles) {
		a.readRoles[r] = struct{}{}
	}
	for _, r := range normalize.Roles(writeRoles) {
		a.writeRoles[r] = struct{}{}
		a.readRoles[r] = struct{}{}
	}
	return a
}

// CanRead reports whether the actor may run read operations.
func (a *Access) CanRead(actor Actor) bool {
	return a.anyRole(actor, a.readRoles)
}

// CanWrite reports whether the actor may run mutating operations.
func (a *Access) CanWrite(actor Actor) bool {
	return a.anyRole(actor, a.writeRoles)
}

// RequireRead returns an access-denied error if the actor may not read.
func (a *Access) RequireRead(actor Actor) error {
	if !a.CanRead(actor) {
		return ErrAccessDenied("role %q may not browse this catalog", strings.Join(actor.Roles, ","))
	}
	return nil
}

// RequireWrite returns an access-denied error if the actor may not mutate.
func (a *Access) RequireWrite(actor Actor) error {
	if !a.CanWrite(actor) {
		return ErrAccessDenied("role %q may not modify this catalog", strings.Join(actor.Roles, ","))
	}
	return nil
}

func (a *Access) anyRole(actor Actor, allowed map[string]struct{}) bool {
	for _, r := range actor.Roles {
		if _, ok := allowed[normalize.Role(r)]; ok {
			return true
		}
	}
	return false
}
