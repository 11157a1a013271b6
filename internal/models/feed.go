package models

import "fmt"

// Scope selects which authors a feed listing draws from
type Scope string

const (
	ScopeAll       Scope = "all"
	ScopeMine      Scope = "mine"
	ScopeFollowing Scope = "following"
)

// ParseScope validates a scope value. An empty value means ScopeAll.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case "", ScopeAll:
		return ScopeAll, nil
	case ScopeMine, ScopeFollowing:
		return Scope(s), nil
	default:
		return "", fmt.Errorf("unknown scope %q", s)
	}
}

// PostFilter describes one page of a feed listing
type PostFilter struct {
	CallerID string
	Scope    Scope
	Query    string
	Limit    int
	Offset   int
}
