// Package web provides the embedded web UI for browsing the evaluation
// history and submitting new source.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/lemonberrylabs/loxide/pkg/service"
	"github.com/lemonberrylabs/loxide/pkg/store"
)

//go:embed templates/*.html
var templateFS embed.FS

// Handler serves the web UI pages.
type Handler struct {
	svc     *service.Service
	funcMap template.FuncMap
}

// pageData wraps all page-specific data with common fields.
type pageData struct {
	NavActive string
	Data      interface{}
}

// New creates a new web UI handler.
func New(svc *service.Service) *Handler {
	return &Handler{
		svc: svc,
		funcMap: template.FuncMap{
			"timeAgo":        timeAgo,
			"formatTime":     formatTime,
			"formatDuration": formatDuration,
			"stateClass":     stateClass,
			"stateIcon":      stateIcon,
			"truncate":       truncate,
			"countLines":     countLines,
		},
	}
}

func (h *Handler) render(c *fiber.Ctx, status int, page, navActive string, data interface{}) error {
	// Each page is parsed with the layout on its own so define blocks don't
	// collide across pages.
	tmpl, err := template.New("").Funcs(h.funcMap).ParseFS(templateFS, "templates/layout.html", "templates/"+page)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("template error: %v", err))
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, page, pageData{NavActive: navActive, Data: data}); err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("template error: %v", err))
	}

	c.Set("Content-Type", "text/html; charset=utf-8")
	return c.Status(status).Send(buf.Bytes())
}

// Register adds web UI routes to the Fiber app.
func (h *Handler) Register(app *fiber.App) {
	app.Get("/ui", h.evaluationList)
	app.Post("/ui/evaluations", h.submit)
	app.Get("/ui/evaluations/:id", h.evaluationDetail)

	// Redirect root to UI
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/ui")
	})
}

// --- Page Data Types ---

type listContent struct {
	Evaluations    []*store.Evaluation
	SucceededCount int
	PartialCount   int
	FailedCount    int
	Error          string
	Source         string
}

type detailContent struct {
	Evaluation *store.Evaluation
}

type notFoundContent struct {
	Message string
}

// --- Page Handlers ---

func (h *Handler) evaluationList(c *fiber.Ctx) error {
	return h.render(c, fiber.StatusOK, "evaluation_list.html", "evaluations", h.list("", ""))
}

func (h *Handler) list(source, errMsg string) listContent {
	evs := h.svc.List(0)
	content := listContent{Evaluations: evs, Source: source, Error: errMsg}
	for _, ev := range evs {
		switch ev.State {
		case store.EvaluationSucceeded:
			content.SucceededCount++
		case store.EvaluationPartial:
			content.PartialCount++
		case store.EvaluationFailed:
			content.FailedCount++
		}
	}
	return content
}

func (h *Handler) submit(c *fiber.Ctx) error {
	source := c.FormValue("source")
	ev, err := h.svc.Evaluate(c.UserContext(), source, c.FormValue("expect"))
	if err != nil {
		return h.render(c, fiber.StatusBadRequest, "evaluation_list.html", "evaluations", h.list(source, err.Error()))
	}
	return c.Redirect("/ui/evaluations/"+ev.ID, fiber.StatusSeeOther)
}

func (h *Handler) evaluationDetail(c *fiber.Ctx) error {
	id := c.Params("id")
	ev, err := h.svc.Get(id)
	if err != nil {
		return h.render(c, fiber.StatusNotFound, "not_found.html", "", notFoundContent{
			Message: fmt.Sprintf("Evaluation '%s' not found", id),
		})
	}
	return h.render(c, fiber.StatusOK, "evaluation_detail.html", "evaluations", detailContent{Evaluation: ev})
}

// --- Template Helpers ---

func timeAgo(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		m := int(d.Minutes())
		if m == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", m)
	case d < 24*time.Hour:
		h := int(d.Hours())
		if h == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", h)
	default:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
}

func stateClass(state store.EvaluationState) string {
	switch state {
	case store.EvaluationSucceeded:
		return "state-succeeded"
	case store.EvaluationPartial:
		return "state-partial"
	case store.EvaluationFailed:
		return "state-failed"
	default:
		return ""
	}
}

func stateIcon(state store.EvaluationState) template.HTML {
	switch state {
	case store.EvaluationSucceeded:
		return "&#10003;"
	case store.EvaluationPartial:
		return "&#9680;"
	case store.EvaluationFailed:
		return "&#10007;"
	default:
		return "&#8226;"
	}
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}
