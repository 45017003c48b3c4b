// Package view derives the per-category sections shown on screen from the
// expense store and maps positional deletes back onto the store.
package view

import (
	"context"
	"slices"

	"iexpense/internal/core"
	"iexpense/internal/expenses"
	"iexpense/internal/log"
)

// Source is the part of the store the view reads and mutates.
type Source interface {
	Items() []core.ExpenseRecord
	RemoveRecord(ctx context.Context, rec core.ExpenseRecord) bool
}

var _ Source = (*expenses.Store)(nil)

type (
	Row struct {
		Position int
		Record   core.ExpenseRecord
		Band     core.Band
	}

	Section struct {
		Title    string
		Category core.Category
		Rows     []Row
		Total    core.Money
	}
)

// SectionTitle is the heading of a category's section.
func SectionTitle(c core.Category) string {
	return c.String() + " Expenses"
}

// Partition returns the records of one category in their original order.
func Partition(items []core.ExpenseRecord, c core.Category) []core.ExpenseRecord {
	out := make([]core.ExpenseRecord, 0, len(items))
	for _, r := range items {
		if r.Category == c {
			out = append(out, r)
		}
	}
	return out
}

// View holds a reference to the store; it never keeps its own copy of the
// records.
type View struct {
	source Source
	logger *log.Logger
}

func New(source Source, logger *log.Logger) *View {
	if logger == nil {
		logger = log.Discard()
	}
	return &View{source: source, logger: logger.WithComponent(log.ComponentView)}
}

// Partition evaluates the category's partition against the current store.
func (v *View) Partition(c core.Category) []core.ExpenseRecord {
	return Partition(v.source.Items(), c)
}

// Sections builds one section per category in display order from a single
// snapshot of the store.
func (v *View) Sections() []Section {
	items := v.source.Items()
	sections := make([]Section, 0, len(core.Categories()))
	for _, c := range core.Categories() {
		sec := Section{Title: SectionTitle(c), Category: c}
		for i, r := range Partition(items, c) {
			sec.Rows = append(sec.Rows, Row{Position: i, Record: r, Band: core.BandOf(r.Amount)})
			sec.Total.Cents += r.Amount.Cents
		}
		sections = append(sections, sec)
	}
	return sections
}

// Target names a row by its position in a partition. When ID is set the
// row must still hold that record for the target to resolve.
type Target struct {
	Position int
	ID       string
}

// DeleteAt removes the records at the given positions of the category's
// partition. Every position is resolved against one snapshot before anything
// is removed, so earlier removals cannot shift later positions. Positions
// outside the partition are ignored. Each removal is persisted by the store
// on its own. The removed records are returned in partition order.
func (v *View) DeleteAt(ctx context.Context, c core.Category, positions []int) []core.ExpenseRecord {
	targets := make([]Target, len(positions))
	for i, p := range positions {
		targets[i] = Target{Position: p}
	}
	return v.DeleteTargets(ctx, c, targets)
}

// DeleteTargets is DeleteAt for rows that were rendered with their record
// identifier. A target whose row now holds a different record is ignored,
// so a repeated or stale submission never removes a neighbour.
func (v *View) DeleteTargets(ctx context.Context, c core.Category, targets []Target) []core.ExpenseRecord {
	if len(targets) == 0 {
		return nil
	}

	partition := v.Partition(c)
	resolved := make([]core.ExpenseRecord, 0, len(targets))
	for _, t := range uniqueTargets(targets) {
		if t.Position < 0 || t.Position >= len(partition) {
			v.logger.DebugContext(ctx, "Ignoring delete position outside partition",
				log.FieldCategory, c.String(), log.FieldPosition, t.Position, log.FieldCount, len(partition))
			continue
		}
		rec := partition[t.Position]
		if t.ID != "" && rec.ID != t.ID {
			v.logger.DebugContext(ctx, "Ignoring delete position that no longer holds the record",
				log.FieldCategory, c.String(), log.FieldPosition, t.Position,
				log.FieldExpenseID, t.ID, "current_id", rec.ID)
			continue
		}
		resolved = append(resolved, rec)
	}

	removed := make([]core.ExpenseRecord, 0, len(resolved))
	for _, rec := range resolved {
		if v.source.RemoveRecord(ctx, rec) {
			removed = append(removed, rec)
		}
	}

	v.logger.InfoContext(ctx, "Deleted expenses from section",
		log.FieldOperation, log.OpDelete, log.FieldCategory, c.String(),
		"requested", len(targets), log.FieldCount, len(removed))
	return removed
}

// uniqueTargets orders targets by position and keeps the first of each.
func uniqueTargets(in []Target) []Target {
	out := slices.Clone(in)
	slices.SortStableFunc(out, func(a, b Target) int { return a.Position - b.Position })
	return slices.CompactFunc(out, func(a, b Target) bool { return a.Position == b.Position })
}
