package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	testkit "github.com/rios0rios0/testkit/pkg/test"

	"github.com/h0uter/multimr/domain"
)

// SpecBuilder helps create merge request specs with a fluent interface.
type SpecBuilder struct {
	*testkit.BaseBuilder
	title       string
	description string
	assignee    string
	reviewers   []string
	labels      []string
	draft       bool
	dryRun      bool
}

// NewSpecBuilder creates a new spec builder with sensible defaults.
func NewSpecBuilder() *SpecBuilder {
	return &SpecBuilder{
		BaseBuilder: testkit.NewBaseBuilder(),
		title:       "Update shared pipeline",
		description: "Synchronized change across repositories.",
		assignee:    "alice",
		reviewers:   []string{"bob"},
	}
}

// WithTitle sets the title.
func (b *SpecBuilder) WithTitle(title string) *SpecBuilder {
	b.title = title
	return b
}

// WithAssignee sets the assignee.
func (b *SpecBuilder) WithAssignee(assignee string) *SpecBuilder {
	b.assignee = assignee
	return b
}

// WithReviewers sets the reviewers.
func (b *SpecBuilder) WithReviewers(reviewers ...string) *SpecBuilder {
	b.reviewers = reviewers
	return b
}

// WithLabels sets the labels.
func (b *SpecBuilder) WithLabels(labels ...string) *SpecBuilder {
	b.labels = labels
	return b
}

// AsDraft marks the spec as a draft request.
func (b *SpecBuilder) AsDraft() *SpecBuilder {
	b.draft = true
	return b
}

// AsDryRun marks the spec as a dry run.
func (b *SpecBuilder) AsDryRun() *SpecBuilder {
	b.dryRun = true
	return b
}

// Build creates the spec (satisfies testkit.Builder interface).
func (b *SpecBuilder) Build() interface{} {
	return b.BuildSpec()
}

// BuildSpec creates the spec with a concrete return type.
func (b *SpecBuilder) BuildSpec() domain.MergeRequestSpec {
	return domain.MergeRequestSpec{
		Title:       b.title,
		Description: b.description,
		Assignee:    b.assignee,
		Reviewers:   b.reviewers,
		Labels:      b.labels,
		Draft:       b.draft,
		DryRun:      b.dryRun,
	}
}

// Reset clears the builder state, allowing it to be reused.
func (b *SpecBuilder) Reset() testkit.Builder {
	b.BaseBuilder.Reset()
	b.title = "Update shared pipeline"
	b.description = "Synchronized change across repositories."
	b.assignee = "alice"
	b.reviewers = []string{"bob"}
	b.labels = nil
	b.draft = false
	b.dryRun = false
	return b
}

// Clone creates a deep copy of the SpecBuilder.
func (b *SpecBuilder) Clone() testkit.Builder {
	return &SpecBuilder{
		BaseBuilder: b.BaseBuilder.Clone().(*testkit.BaseBuilder),
		title:       b.title,
		description: b.description,
		assignee:    b.assignee,
		reviewers:   append([]string(nil), b.reviewers...),
		labels:      append([]string(nil), b.labels...),
		draft:       b.draft,
		dryRun:      b.dryRun,
	}
}
