package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"

	"github.com/dm/fleetmon/internal/format"
	"github.com/dm/fleetmon/internal/model"
)

const nodeIDColumnWidth = 24

// NodeTableModel is a sortable, paginated, searchable table of node status.
type NodeTableModel struct {
	tableModel
	allRows     []model.NodeStatus // unfiltered source data
	displayRows []model.NodeStatus // after filter + sort applied
}

// NewNodeTable returns a NodeTableModel with a 5-column layout and default
// sort by LastSeen (col 4) descending, so recently active nodes surface.
func NewNodeTable() NodeTableModel {
	cols := []columnDef{
		{Title: "Node ID", Width: nodeIDColumnWidth},
		{Title: "Workers", Width: 8},
		{Title: "Version", Width: 10},
		{Title: "Last Seen", Width: 12},
		{Title: "Status", Width: 8},
	}
	m := NodeTableModel{
		tableModel: newTableModel(cols),
	}
	m.sortCol = 3 // LastSeen
	m.sortDesc = true
	return m
}

// SetData applies the current search filter and sort to rows, storing the
// result as displayRows ready for rendering.
func (m *NodeTableModel) SetData(rows []model.NodeStatus) {
	m.allRows = rows
	filtered := filterNodeRows(m.allRows, m.search)
	m.displayRows = sortNodeRows(filtered, m.sortCol, m.sortDesc)
	m.clampPage(len(m.displayRows))
	m.clampCursor(len(currentPageRows(m.displayRows, m.page, m.pageSize)))
}

// Update handles keyboard events for sorting, pagination, and search. It
// delegates to the embedded tableModel and re-applies filter/sort when the
// sort column, direction, or search term changes.
func (m NodeTableModel) Update(msg tea.Msg) (NodeTableModel, tea.Cmd) {
	prevSort := m.sortCol
	prevDesc := m.sortDesc
	prevSearch := m.search

	base, cmd := m.tableModel.Update(msg)
	m.tableModel = base

	if m.sortCol != prevSort || m.sortDesc != prevDesc || m.search != prevSearch {
		filtered := filterNodeRows(m.allRows, m.search)
		m.displayRows = sortNodeRows(filtered, m.sortCol, m.sortDesc)
	}
	m.clampPage(len(m.displayRows))
	m.clampCursor(len(currentPageRows(m.displayRows, m.page, m.pageSize)))
	return m, cmd
}

// Selected returns the node under the cursor, or nil when the table is empty.
func (m *NodeTableModel) Selected() *model.NodeStatus {
	page := currentPageRows(m.displayRows, m.page, m.pageSize)
	if len(page) == 0 || m.cursor >= len(page) {
		return nil
	}
	row := page[m.cursor]
	return &row
}

// currentPageRows slices out the rows visible on the given page.
func currentPageRows(rows []model.NodeStatus, page, pageSize int) []model.NodeStatus {
	allIdx := make([]int, len(rows))
	for i := range rows {
		allIdx[i] = i
	}
	idx := currentPageIndices(allIdx, page, pageSize)
	out := make([]model.NodeStatus, 0, len(idx))
	for _, i := range idx {
		out = append(out, rows[i])
	}
	return out
}

// renderTable renders the complete "Fleet Nodes" section: a title bar
// followed by the table body for the current page.
func (m *NodeTableModel) renderTable(app *App) string {
	pc := pageCount(len(m.displayRows), m.pageSize)
	hdr := m.renderTitle("Fleet Nodes", m.page+1, pc)

	pageRows := currentPageRows(m.displayRows, m.page, m.pageSize)
	if len(pageRows) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, hdr, StyleDim.Render("  (no nodes)"))
	}

	// Column header strings, with a sort direction arrow on the active column.
	headers := make([]string, len(m.columns))
	for i, c := range m.columns {
		if i == m.sortCol {
			arrow := "↓"
			if !m.sortDesc {
				arrow = "↑"
			}
			headers[i] = c.Title + arrow
		} else {
			headers[i] = c.Title
		}
	}

	sortCol := m.sortCol
	cursor := m.cursor
	focused := m.focused
	t := ltable.New().
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == ltable.HeaderRow {
				if col == sortCol {
					return StyleTableHeader.Foreground(colorBlue)
				}
				return StyleTableHeader
			}
			base := StyleTableRow
			if focused && row == cursor {
				base = base.Background(colorDark)
			} else if row%2 == 0 {
				base = base.Background(colorAlt)
			}
			switch col {
			case 0:
				return base.Foreground(colorBlue)
			case 1:
				return base.Foreground(colorCyan)
			case 2:
				return base.Foreground(colorPurple)
			default:
				return base
			}
		}).
		BorderStyle(lipgloss.NewStyle().Foreground(colorGray)).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(true).
		BorderColumn(false)

	if app != nil && app.width > 0 {
		t = t.Width(app.width)
	}

	now := time.Now()
	if app != nil && app.now != nil {
		now = app.now()
	}
	for _, r := range pageRows {
		t = t.Row(
			format.TruncateID(sanitize(r.NodeID), nodeIDColumnWidth),
			strconv.Itoa(r.WorkerCount),
			sanitize(r.ReporterVersion),
			format.FormatAgo(r.LastSeen, now),
			onlineCell(r.Online),
		)
	}

	// Detail line: the selected row's full untruncated id.
	var detailLine string
	if m.focused {
		if sel := m.Selected(); sel != nil {
			detailLine = StyleDim.Render("  " + sanitize(sel.NodeID))
		}
	}
	if detailLine != "" {
		return lipgloss.JoinVertical(lipgloss.Left, hdr, t.String(), detailLine)
	}
	return lipgloss.JoinVertical(lipgloss.Left, hdr, t.String())
}

// renderTitle renders the title bar with search/sort/page hints.
func (m *NodeTableModel) renderTitle(title string, page, pageCount int) string {
	pageInfo := fmt.Sprintf("Page %d/%d", page, pageCount)

	var right string
	switch {
	case m.searching:
		right = "Search: " + m.input.View()
	case m.search != "":
		right = fmt.Sprintf("filter=%q  %s", m.search, pageInfo)
	default:
		right = fmt.Sprintf("[/: search]  [1-5: sort]  [←→: page]  %s", pageInfo)
	}

	return StyleDim.Render(title + "  " + right)
}

func onlineCell(online bool) string {
	if online {
		return OnlineStyle(true).Render("● online")
	}
	return OnlineStyle(false).Render("○ offline")
}

// sanitize strips control characters so wire-supplied strings cannot corrupt
// the terminal.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}
