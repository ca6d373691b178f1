package output

import (
	"encoding/json"
	"fmt"
	"time"

	"recyclebin/internal/core/entity"
	"recyclebin/internal/domain/lifecycle"
)

// EntityList renders the registered entities.
type EntityList []lifecycle.EntityInfo

func (l EntityList) Headers() []string { return []string{"Name", "Label"} }

func (l EntityList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, e := range l {
		rows = append(rows, []string{e.Name, e.Label})
	}
	return rows
}

// TrashRow is the flattened view of one trashed record.
type TrashRow struct {
	ID        string `json:"id" yaml:"id"`
	Title     string `json:"title" yaml:"title"`
	DeletedAt string `json:"deletedAt" yaml:"deletedAt"`
	DeletedBy string `json:"deletedBy" yaml:"deletedBy"`
}

// TrashPage is one page of the trash listing.
type TrashPage struct {
	Entity   string     `json:"entity" yaml:"entity"`
	Items    []TrashRow `json:"items" yaml:"items"`
	Current  int        `json:"current" yaml:"current"`
	PageSize int        `json:"pageSize" yaml:"pageSize"`
	Pages    int        `json:"pages" yaml:"pages"`
	Total    int64      `json:"total" yaml:"total"`
}

// NewTrashPage flattens a lifecycle page.
func NewTrashPage(entityName string, page lifecycle.PageResult) TrashPage {
	out := TrashPage{
		Entity:   entityName,
		Items:    make([]TrashRow, 0, len(page.Items)),
		Current:  page.Current,
		PageSize: page.PageSize,
		Pages:    page.Pages,
		Total:    page.Total,
	}
	for _, rec := range page.Items {
		out.Items = append(out.Items, NewTrashRow(rec))
	}
	return out
}

func (p TrashPage) Headers() []string { return []string{"ID", "Title", "Deleted At", "Deleted By"} }

func (p TrashPage) Rows() [][]string {
	rows := make([][]string, 0, len(p.Items)+1)
	for _, r := range p.Items {
		rows = append(rows, []string{r.ID, r.Title, r.DeletedAt, r.DeletedBy})
	}
	rows = append(rows, []string{"", fmt.Sprintf("page %d/%d, %d total", p.Current, p.Pages, p.Total), "", ""})
	return rows
}

// NewTrashRow extracts the display columns from any record.
func NewTrashRow(rec entity.Record) TrashRow {
	state := rec.SoftDeleteState()
	row := TrashRow{ID: rec.GetID().String(), Title: title(rec), DeletedBy: "-", DeletedAt: "-"}
	if state.DeletedAt != nil {
		row.DeletedAt = state.DeletedAt.UTC().Format(time.RFC3339)
	}
	if a := state.DeletedBy; a != nil {
		row.DeletedBy = a.Email
		if row.DeletedBy == "" {
			row.DeletedBy = a.ID
		}
	}
	return row
}

// title picks the first human-readable field of the record's JSON form.
func title(rec entity.Record) string {
	raw, err := json.Marshal(rec)
	if err != nil {
		return ""
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return ""
	}
	for _, key := range []string{"name", "email", "slug", "sku"} {
		if s, ok := fields[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
