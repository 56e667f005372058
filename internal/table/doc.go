// Package table provides the labeled table model consumed by the shape accessor.
//
// A table is either a *Series (one indicator) or a *Frame (named indicator
// columns). Both address their rows through an *Index made of one or two
// levels, each level being datetime-valued or plain-valued:
//
//	ix, _ := table.PanelIndex(times, assets)
//	close := table.MustSeries("close", ix, values)
//
// Tables are never mutated by the packages that consume them; selections
// always produce new tables.
package table
