package entities

import (
	"path"
	"sort"
	"strings"
)

// Category classifies a tracked file by what a change to it invalidates.
type Category string

const (
	CategoryHomepage   Category = "homepage"
	CategoryReportData Category = "report-data"
	CategoryCode       Category = "code"
)

// Change is a tracked file whose content differs from its stored fingerprint.
// An empty Fingerprint means the file disappeared since the last observation.
type Change struct {
	Path        string
	Category    Category
	Fingerprint string
	Previous    string
}

// Deleted reports whether the change is a removal.
func (c Change) Deleted() bool {
	return c.Fingerprint == ""
}

// ChangeSet is the result of one detection pass.
type ChangeSet struct {
	Changes []Change
}

// NewChangeSet builds a change set ordered by path.
func NewChangeSet(changes ...Change) ChangeSet {
	sorted := make([]Change, len(changes))
	copy(sorted, changes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })
	return ChangeSet{Changes: sorted}
}

// Empty reports whether nothing changed.
func (cs ChangeSet) Empty() bool {
	return len(cs.Changes) == 0
}

// Has reports whether at least one change belongs to the category.
func (cs ChangeSet) Has(category Category) bool {
	return cs.Count(category) > 0
}

// Count returns the number of distinct changed paths in the category.
func (cs ChangeSet) Count(category Category) int {
	seen := make(map[string]struct{})
	for _, c := range cs.Changes {
		if c.Category == category {
			seen[c.Path] = struct{}{}
		}
	}
	return len(seen)
}

// Filter returns the subset of changes in any of the given categories.
func (cs ChangeSet) Filter(categories ...Category) ChangeSet {
	var out []Change
	for _, c := range cs.Changes {
		for _, category := range categories {
			if c.Category == category {
				out = append(out, c)
				break
			}
		}
	}
	return ChangeSet{Changes: out}
}

// Paths returns the changed paths.
func (cs ChangeSet) Paths() []string {
	paths := make([]string, 0, len(cs.Changes))
	for _, c := range cs.Changes {
		paths = append(paths, c.Path)
	}
	return paths
}

// Classifier maps workspace-relative paths to categories.
type Classifier struct {
	HomepagePath string
	ReportPath   string
}

// NewClassifier normalizes the configured homepage and report paths.
func NewClassifier(homepagePath, reportPath string) Classifier {
	return Classifier{
		HomepagePath: cleanRelative(homepagePath),
		ReportPath:   cleanRelative(reportPath),
	}
}

// Classify returns the category of a workspace-relative path.
// The homepage rule is checked first because the homepage usually lives inside the report directory.
func (c Classifier) Classify(p string) Category {
	p = cleanRelative(p)
	if within(p, c.HomepagePath) {
		return CategoryHomepage
	}
	if within(p, c.ReportPath) {
		return CategoryReportData
	}
	return CategoryCode
}

func within(p, root string) bool {
	if root == "" {
		return false
	}
	return p == root || strings.HasPrefix(p, root+"/")
}

func cleanRelative(p string) string {
	p = strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	if p == "" {
		return ""
	}
	p = path.Clean(p)
	p = strings.TrimPrefix(p, "./")
	if p == "." {
		return ""
	}
	return p
}
