package parley

import (
	"fmt"
	"unicode/utf8"
)

const (
	// bodyLimit is the longest field body stored verbatim.
	bodyLimit = 1024
	// bodyKeep is how much of an overlong body survives truncation.
	bodyKeep = 1000
	// ellipsis marks a truncated body.
	ellipsis = "..."
)

// Field is one titled entry on a page.
type Field struct {
	Title  string
	Body   string
	Inline bool
}

// Page is one renderable content unit within a step's page model.
type Page struct {
	Title       string
	Description string
	Author      string
	Footer      string
	Color       int
	Fields      []Field
}

// cloneBase copies the page's base style without its fields. New overflow
// pages inherit the style of page 0.
func (p *Page) cloneBase() *Page {
	return &Page{
		Title:       p.Title,
		Description: p.Description,
		Author:      p.Author,
		Color:       p.Color,
	}
}

// PageModel holds an ordered sequence of pages and enforces per-page field
// capacity, creating new pages on overflow and renumbering footers on change.
type PageModel struct {
	pages      []*Page
	maxPerPage int
	numbered   bool
	position   int

	// footerNote is appended to every auto-computed footer; set when
	// pagination controls cannot be attached.
	footerNote string
	// customFooter disables automatic "Page i/N" footers.
	customFooter bool

	// added counts every option ever added, for global numbering.
	added int
}

// newPageModel builds an empty model. Capacity is clamped to [1, 10];
// zero or negative means the default.
func newPageModel(maxPerPage int, numbered bool) *PageModel {
	if maxPerPage <= 0 {
		maxPerPage = DefaultMaxPerPage
	}
	if maxPerPage > MaxPerPageLimit {
		maxPerPage = MaxPerPageLimit
	}
	return &PageModel{maxPerPage: maxPerPage, numbered: numbered}
}

// Pages returns the model's pages in order.
func (m *PageModel) Pages() []*Page {
	return m.pages
}

// Len returns the number of pages.
func (m *PageModel) Len() int {
	return len(m.pages)
}

// Position returns the currently displayed page index.
func (m *PageModel) Position() int {
	return m.position
}

// ensurePage lazily creates page 0.
func (m *PageModel) ensurePage() *Page {
	if len(m.pages) == 0 {
		m.pages = append(m.pages, &Page{})
	}
	return m.pages[len(m.pages)-1]
}

// AddOption appends one field, creating a new page when the current one is
// at capacity. Both title and body empty adds a blank spacer field; exactly
// one empty is an argument error unless that side is explicitly Blank.
func (m *PageModel) AddOption(title, body string, inline bool) error {
	if (title == "") != (body == "") {
		return fmt.Errorf("option title and body must both be set; pass Blank for an intentionally empty side (title=%q)", title)
	}

	spacer := title == "" && body == ""
	if spacer {
		title, body = Blank, Blank
	}

	if utf8.RuneCountInString(body) > bodyLimit {
		body = string([]rune(body)[:bodyKeep]) + ellipsis
	}

	page := m.ensurePage()
	if len(page.Fields) >= m.maxPerPage {
		page = m.pages[0].cloneBase()
		if m.customFooter {
			page.Footer = m.pages[0].Footer
		}
		m.pages = append(m.pages, page)
		m.refoot()
	}

	if m.numbered && !spacer {
		title = fmt.Sprintf("%d. %s", m.added+1, title)
	}
	m.added++

	page.Fields = append(page.Fields, Field{Title: title, Body: body, Inline: inline})
	return nil
}

// AddPage appends a fresh page with the given title and description,
// regardless of the current page's capacity.
func (m *PageModel) AddPage(title, description string) {
	base := &Page{Title: title, Description: description}
	if len(m.pages) > 0 {
		base.Author = m.pages[0].Author
		base.Color = m.pages[0].Color
		if m.customFooter {
			base.Footer = m.pages[0].Footer
		}
	}
	m.pages = append(m.pages, base)
	m.refoot()
}

// SetTitle applies a title uniformly to every page, creating page 0 first
// if absent.
func (m *PageModel) SetTitle(title string) {
	m.ensurePage()
	for _, p := range m.pages {
		p.Title = title
	}
}

// SetDescription applies a description uniformly to every page.
func (m *PageModel) SetDescription(description string) {
	m.ensurePage()
	for _, p := range m.pages {
		p.Description = description
	}
}

// SetAuthor applies an author line uniformly to every page.
func (m *PageModel) SetAuthor(author string) {
	m.ensurePage()
	for _, p := range m.pages {
		p.Author = author
	}
}

// SetFooter applies a custom footer uniformly to every page and disables
// automatic page numbering footers.
func (m *PageModel) SetFooter(footer string) {
	m.ensurePage()
	m.customFooter = true
	for _, p := range m.pages {
		p.Footer = footer
	}
}

// SetColor applies an accent color uniformly to every page.
func (m *PageModel) SetColor(color int) {
	m.ensurePage()
	for _, p := range m.pages {
		p.Color = color
	}
}

// SetFooterNote appends a warning suffix to every auto-computed footer and
// recomputes them. Used when pagination controls cannot be attached.
func (m *PageModel) SetFooterNote(note string) {
	m.footerNote = note
	m.refoot()
}

// RemoveAllEmbeds clears all pages and resets the pagination position.
func (m *PageModel) RemoveAllEmbeds() {
	m.pages = nil
	m.position = 0
	m.added = 0
}

// refoot recomputes every page's footer as "Page i/N" plus the footer note.
func (m *PageModel) refoot() {
	if m.customFooter {
		return
	}
	total := len(m.pages)
	for i, p := range m.pages {
		// A lone page carries no numbering footer.
		if total < 2 {
			p.Footer = ""
			continue
		}
		footer := fmt.Sprintf("Page %d/%d", i+1, total)
		if m.footerNote != "" {
			footer += " " + m.footerNote
		}
		p.Footer = footer
	}
}
