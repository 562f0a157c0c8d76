// ABOUTME: Schema-based HTML renderer for the console pages.
// ABOUTME: Renders search result tables and the resource form from resource schemas.

package admin

import (
	"fmt"
	"html"
	"strings"

	"github.com/2389/reco/internal/form"
	"github.com/2389/reco/plugins/core"
)

// Column is one results table column
type Column struct {
	Header   string
	Accessor func(core.Record) string
}

// ColumnsFor builds the results columns from a schema's ListColumns
func ColumnsFor(schema core.ResourceSchema) []Column {
	columns := make([]Column, 0, len(schema.ListColumns))
	for _, name := range schema.ListColumns {
		field, ok := schema.Field(name)
		if !ok {
			continue
		}
		attr := field.Name
		columns = append(columns, Column{
			Header: field.Display,
			Accessor: func(r core.Record) string {
				return core.FormatValue(r[attr])
			},
		})
	}
	return columns
}

// RenderResults renders records as a table, one row per record in input
// order. first is records[0]; ok is false when there are no records.
func RenderResults(records []core.Record, columns []Column) (string, core.Record, bool) {
	var sb strings.Builder

	sb.WriteString(`<table class="table table-striped" cellpadding="10">`)
	sb.WriteString(`<thead><tr>`)
	for _, col := range columns {
		sb.WriteString(fmt.Sprintf(`<th class="col-md-2">%s</th>`, html.EscapeString(col.Header)))
	}
	sb.WriteString(`</tr></thead><tbody>`)

	for i, record := range records {
		sb.WriteString(fmt.Sprintf(`<tr id="row_%d">`, i))
		for _, col := range columns {
			sb.WriteString(`<td>`)
			sb.WriteString(html.EscapeString(col.Accessor(record)))
			sb.WriteString(`</td>`)
		}
		sb.WriteString(`</tr>`)
	}
	sb.WriteString(`</tbody></table>`)

	if len(records) == 0 {
		return sb.String(), nil, false
	}
	return sb.String(), records[0], true
}

// RenderSchemaResults renders records with the schema's list columns
func RenderSchemaResults(schema core.ResourceSchema, records []core.Record) (string, core.Record, bool) {
	return RenderResults(records, ColumnsFor(schema))
}

// RenderResourceForm renders one input per schema field, addressed by selector
func RenderResourceForm(schema core.ResourceSchema, state form.State) string {
	var sb strings.Builder

	for _, field := range schema.Fields {
		value := state.Value(field.Selector)
		selector := html.EscapeString(field.Selector)

		sb.WriteString(`<div class="form-group">`)
		sb.WriteString(fmt.Sprintf(`<label class="control-label col-sm-2" for="%s">%s:</label>`,
			selector, html.EscapeString(field.Display)))
		sb.WriteString(`<div class="col-sm-10">`)

		switch field.Kind {
		case core.KindBoolean:
			sb.WriteString(renderSelect(field, []string{"true", "false"}, value))
		case core.KindEnum:
			sb.WriteString(renderSelect(field, field.Options, value))
		default:
			readonly := ""
			if !field.Editable && !field.Identifier {
				readonly = " readonly"
			}
			sb.WriteString(fmt.Sprintf(`<input type="text" class="form-control" id="%s" name="%s" value="%s" placeholder="%s"%s>`,
				selector, selector, html.EscapeString(value), html.EscapeString(field.Display), readonly))
		}

		sb.WriteString(`</div></div>`)
	}

	return sb.String()
}

func renderSelect(field core.FieldSchema, options []string, value string) string {
	var sb strings.Builder
	selector := html.EscapeString(field.Selector)
	sb.WriteString(fmt.Sprintf(`<select class="form-control" id="%s" name="%s">`, selector, selector))
	sb.WriteString(`<option value=""></option>`)
	for _, opt := range options {
		selected := ""
		if opt == value {
			selected = " selected"
		}
		sb.WriteString(fmt.Sprintf(`<option value="%s"%s>%s</option>`,
			html.EscapeString(opt), selected, html.EscapeString(opt)))
	}
	sb.WriteString(`</select>`)
	return sb.String()
}

// RenderActions renders one submit button per action
func RenderActions(actions []core.ActionSchema) string {
	var sb strings.Builder
	for i, action := range actions {
		if i > 0 {
			sb.WriteString(" ")
		}
		label := action.Display
		if label == "" {
			label = action.Name
		}
		sb.WriteString(fmt.Sprintf(`<button type="submit" class="btn btn-primary" id="%s-btn" name="action" value="%s">%s</button>`,
			html.EscapeString(action.Name), html.EscapeString(action.Name), html.EscapeString(label)))
	}
	return sb.String()
}
