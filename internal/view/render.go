// Package view renders the HTML documents and fragments served to the
// browser. Fragments carry htmx attributes that address them by element ID so
// the client can swap them in place.
package view

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"

	"htmx-todo/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed public
var publicFS embed.FS

// Static returns the embedded static assets, rooted so that "style/styles.css"
// is served at "/style/styles.css".
func Static() fs.FS {
	sub, err := fs.Sub(publicFS, "public")
	if err != nil {
		panic(err)
	}
	return sub
}

const (
	textStyle      = "flex-grow: 1; cursor: text;"
	completedStyle = "text-decoration: line-through; flex-grow: 1; cursor: text;"
)

// NavLink is an entry in the page navigation bar.
type NavLink struct {
	Label string
	Href  string
}

// ItemOptions controls how a single todo is rendered.
type ItemOptions struct {
	Editing bool
	// Error is shown next to the edit input. Ignored unless Editing is set.
	Error string
}

// ListOptions controls how the todo list is rendered.
type ListOptions struct {
	// Error is shown next to the add form.
	Error string
	// SubmitKey is sent as the Idempotency-Key header when the add form is
	// submitted. Omitted when empty.
	SubmitKey string
}

type itemView struct {
	ID        string
	Content   string
	Completed bool
	Editing   bool
	Error     string
	TextStyle template.CSS
}

func newItemView(t domain.Todo, opts ItemOptions) itemView {
	v := itemView{
		ID:        t.ID,
		Content:   t.Content,
		Completed: t.Completed,
		Editing:   opts.Editing,
		TextStyle: textStyle,
	}
	if t.Completed {
		v.TextStyle = completedStyle
	}
	if opts.Editing {
		v.Error = opts.Error
	}
	return v
}

type listView struct {
	Items     []itemView
	Error     string
	SubmitKey string
}

type indexView struct {
	Title string
	List  listView
}

type navView struct {
	Label  string
	Href   string
	Active bool
}

type pageView struct {
	Title string
	Nav   []navView
	Body  template.HTML
}

// Renderer turns todos into HTML. It is safe for concurrent use.
type Renderer struct {
	tmpl *template.Template
	nav  []NavLink
}

// New parses the embedded templates. nav is rendered on every full page.
func New(nav ...NavLink) (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{tmpl: tmpl, nav: nav}, nil
}

// Item renders a single todo as a list item.
func (r *Renderer) Item(t domain.Todo, opts ItemOptions) (string, error) {
	return r.execute("item", newItemView(t, opts))
}

// List renders every todo in order followed by the add form.
func (r *Renderer) List(todos []domain.Todo, opts ListOptions) (string, error) {
	return r.execute("list", newListView(todos, opts))
}

// Index renders the body of the todo page: a heading and the list.
func (r *Renderer) Index(title string, todos []domain.Todo, opts ListOptions) (template.HTML, error) {
	s, err := r.execute("index", indexView{Title: title, List: newListView(todos, opts)})
	return template.HTML(s), err
}

func newListView(todos []domain.Todo, opts ListOptions) listView {
	v := listView{
		Items:     make([]itemView, 0, len(todos)),
		Error:     opts.Error,
		SubmitKey: opts.SubmitKey,
	}
	for _, t := range todos {
		v.Items = append(v.Items, newItemView(t, ItemOptions{}))
	}
	return v
}

// Error renders the validation message element. An empty message renders an
// empty element so that a previous error is cleared when swapped in.
func (r *Renderer) Error(msg string) (string, error) {
	return r.execute("error", msg)
}

// Page wraps body in the full HTML document.
func (r *Renderer) Page(title string, body template.HTML) (string, error) {
	v := pageView{Title: title, Body: body}
	for _, n := range r.nav {
		v.Nav = append(v.Nav, navView{Label: n.Label, Href: n.Href, Active: n.Label == title})
	}
	return r.execute("page", v)
}

// OtherPage renders the static secondary page body.
func (r *Renderer) OtherPage() (template.HTML, error) {
	s, err := r.execute("other", nil)
	return template.HTML(s), err
}

// Counter renders the counter heading that the increment button targets.
func (r *Renderer) Counter(n int64) (string, error) {
	return r.execute("counter", n)
}

// CounterBody renders the counter heading and its increment button.
func (r *Renderer) CounterBody(n int64) (template.HTML, error) {
	s, err := r.execute("counter-body", n)
	return template.HTML(s), err
}

func (r *Renderer) execute(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
