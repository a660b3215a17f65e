package web

import (
	"database/sql"
	"html/template"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/guangnotepad/guang/internal/codec"
	"github.com/guangnotepad/guang/internal/config"
	"github.com/guangnotepad/guang/internal/db"
	"github.com/guangnotepad/guang/internal/errors"
	"github.com/guangnotepad/guang/internal/ops"
)

// Handlers contains HTTP route handlers for the viewer.
type Handlers struct {
	db       *sql.DB
	cfg      *config.Config
	renderer *Renderer
}

// HandleList handles GET /documents: recently opened or saved documents.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Recent(h.db, ops.RecentInput{
		Limit:  parseIntParam(r, "limit", h.cfg.RecentLimit),
		Offset: parseIntParam(r, "offset", 0),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	items := make([]ItemView, len(result.Items))
	for i, rec := range result.Items {
		items[i] = itemView(rec)
	}

	h.renderer.renderPage(w, r, "list", ListPageData{
		PageData: PageData{
			Title:   "Recent documents",
			Version: h.renderer.version,
		},
		Items:      items,
		Pagination: pageLinks(result.Pagination),
	})
}

// HandleDetail handles GET /documents/{id}: an HTML preview of the file.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("document ID is required"))
		return
	}

	rec, err := db.GetByID(h.db, id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	input := ops.RenderInput{Path: rec.Path, Literal: parseBoolParam(r, "literal")}
	if rec.Format == codec.Plain.String() {
		input.Encoding = rec.Encoding
	}
	out, err := ops.Render(h.cfg, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	var size int
	if fi, err := os.Stat(rec.Path); err == nil {
		size = int(fi.Size())
	}

	// ops.Render escapes document text itself
	h.renderer.renderPage(w, r, "detail", DetailPageData{
		PageData: PageData{
			Title:   displayName(rec.Name, rec.ID),
			Version: h.renderer.version,
		},
		Item:         itemView(*rec),
		RenderedHTML: template.HTML(out.HTML),
		Bytes:        size,
	})
}

// HandleForget handles DELETE /documents/{id}. The file itself is untouched.
func (h *Handlers) HandleForget(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("document ID is required"))
		return
	}

	result, err := ops.Forget(h.db, ops.ForgetInput{ID: id})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/documents")
		w.WriteHeader(http.StatusOK)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		renderJSON(w, http.StatusOK, map[string]any{
			"forgotten": true,
			"id":        result.ID,
			"path":      result.Path,
		})
		return
	}

	http.Redirect(w, r, "/documents", http.StatusFound)
}

func itemView(rec db.Record) ItemView {
	return ItemView{
		ID:        rec.ID,
		Name:      displayName(rec.Name, rec.ID),
		Path:      rec.Path,
		Format:    rec.Format,
		Encoding:  rec.Encoding,
		LastEvent: rec.LastEvent,
		OpenCount: rec.OpenCount,
		SaveCount: rec.SaveCount,
		UpdatedAt: rec.UpdatedAt,
	}
}

func pageLinks(p ops.Pagination) PageLinks {
	links := PageLinks{Limit: p.Limit, Prev: -1, Next: -1, Total: p.Total}
	if p.Offset > 0 {
		links.Prev = max(p.Offset-p.Limit, 0)
	}
	if p.HasMore {
		links.Next = p.Offset + p.Limit
	}
	return links
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// parseBoolParam parses a boolean query parameter.
func parseBoolParam(r *http.Request, name string) bool {
	s := r.URL.Query().Get(name)
	return s == "true" || s == "1"
}

// displayName returns the file name if present, or a truncated ID.
func displayName(name, id string) string {
	if name != "" {
		return name
	}
	if len(id) > 10 {
		return id[:10] + "..."
	}
	return id
}
