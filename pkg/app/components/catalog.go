package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/kerbaras/mirrorbook/pkg/app/styles"
	"github.com/kerbaras/mirrorbook/pkg/data"
)

// CatalogTable renders the fetch catalog as a static table
type CatalogTable struct {
	Entries []*data.CacheEntry
	Width   int
}

func NewCatalogTable(entries []*data.CacheEntry) *CatalogTable {
	return &CatalogTable{Entries: entries, Width: 100}
}

// TotalSize sums the cached bytes
func (c *CatalogTable) TotalSize() int64 {
	var total int64
	for _, e := range c.Entries {
		total += e.Size
	}
	return total
}

func (c *CatalogTable) columns() []table.Column {
	urlWidth := c.Width - 12 - 10 - 20 - 8
	if urlWidth < 20 {
		urlWidth = 20
	}
	return []table.Column{
		{Title: "URL", Width: urlWidth},
		{Title: "Type", Width: 12},
		{Title: "Size", Width: 10},
		{Title: "Fetched", Width: 20},
	}
}

// Rows returns one table row per entry
func (c *CatalogTable) Rows() []table.Row {
	urlWidth := c.columns()[0].Width
	rows := make([]table.Row, 0, len(c.Entries))
	for _, e := range c.Entries {
		rows = append(rows, table.Row{
			truncateString(e.URL, urlWidth),
			shortContentType(e.ContentType),
			FormatSize(e.Size),
			e.FetchedAt.Local().Format(time.DateTime),
		})
	}
	return rows
}

func (c *CatalogTable) View() string {
	if len(c.Entries) == 0 {
		return styles.MutedStyle.Render("Cache catalog is empty")
	}

	t := table.New(
		table.WithColumns(c.columns()),
		table.WithRows(c.Rows()),
		table.WithFocused(false),
		table.WithHeight(len(c.Entries)+2),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.Inherit(styles.HeaderStyle)
	s.Selected = s.Cell
	t.SetStyles(s)

	return t.View()
}

// FormatSize renders a byte count for humans
func FormatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGT"[exp])
}

func shortContentType(ct string) string {
	mediaType, _, _ := strings.Cut(ct, ";")
	return strings.TrimSpace(mediaType)
}
