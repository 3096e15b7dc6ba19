package graph

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/emergent-company/primary-api/pkg/apperror"
)

var nonSlugRun = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases name and collapses every run of characters outside
// [a-z0-9] into a single underscore.
func Slugify(name string) (string, error) {
	slug := nonSlugRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "_")
	slug = strings.Trim(slug, "_")
	if slug == "" {
		return "", apperror.NewInvalidInput(fmt.Sprintf("cannot derive an id from name %q", name))
	}
	return slug, nil
}

// CapabilityID is the id of the capability node merged for name. It has no
// collision suffix; the same name always maps to the same node.
func CapabilityID(name string) (string, error) {
	return Slugify(name)
}

// GenerateID derives an id from name that no node under any label uses yet.
//
// Ids equal to the slug or to slug_<n> count as collisions. With none the
// slug is returned as-is, otherwise slug_<collisions+1>, moved forward past
// any suffix already taken. Two concurrent callers can get the same answer.
func (m *Manager) GenerateID(ctx context.Context, name string) (string, error) {
	slug, err := Slugify(name)
	if err != nil {
		return "", err
	}

	nodes, err := m.store.FindNodes(ctx, NodeQuery{Property: "id", Value: slug, Match: MatchContains})
	if err != nil {
		return "", err
	}

	taken := map[string]bool{}
	for _, n := range nodes {
		if id := n.ID(); isSlugVariant(slug, id) {
			taken[id] = true
		}
	}
	if len(taken) == 0 {
		return slug, nil
	}

	for n := len(taken) + 1; ; n++ {
		candidate := slug + "_" + strconv.Itoa(n)
		if !taken[candidate] {
			return candidate, nil
		}
	}
}

func isSlugVariant(slug, id string) bool {
	if id == slug {
		return true
	}
	suffix, ok := strings.CutPrefix(id, slug+"_")
	if !ok || suffix == "" {
		return false
	}
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
