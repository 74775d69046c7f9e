package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/technosprint/timesheet/internal/export"
	"github.com/technosprint/timesheet/internal/store"
	"github.com/technosprint/timesheet/internal/timesheet"
)

// Repository is the read side the handlers need beyond the timesheet
// service. *store.Store satisfies it.
type Repository interface {
	GetEntry(id string) (*store.TimeEntry, error)
	ListProjects(includeArchived bool) ([]store.Project, error)
	Ping() error
}

// Handler serves the timesheet API.
type Handler struct {
	svc  *timesheet.Service
	repo Repository
	now  func() time.Time
}

func NewHandler(svc *timesheet.Service, repo Repository) *Handler {
	return &Handler{svc: svc, repo: repo, now: time.Now}
}

// Health handles GET /health.
func (h *Handler) Health(c *gin.Context) {
	db := "connected"
	if err := h.repo.Ping(); err != nil {
		db = "disconnected"
	}
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Database:  db,
		Timestamp: h.now().UTC().Format(time.RFC3339),
	})
}

// loadView resolves the owner and query from the request and loads the
// view. It writes the error response itself and reports false on failure.
func (h *Handler) loadView(c *gin.Context) (timesheet.View, bool) {
	owner, ok := currentUser(c)
	if !ok {
		abort(c, http.StatusUnauthorized, "User not authenticated", codeMissingToken)
		return timesheet.View{}, false
	}
	if other := c.Query("user"); other != "" && other != owner {
		if !isAdmin(c) {
			abort(c, http.StatusForbidden, "Only admins may view other timesheets", codeForbidden)
			return timesheet.View{}, false
		}
		owner = other
	}

	q := timesheet.Query{Reference: h.now(), Granularity: timesheet.Week}
	if raw := c.Query("date"); raw != "" {
		d, ok := timesheet.ParseDate(raw)
		if !ok {
			abort(c, http.StatusBadRequest, "date must be YYYY-MM-DD", codeInvalidDate)
			return timesheet.View{}, false
		}
		q.Reference = d
	}
	if raw := c.Query("granularity"); raw != "" {
		g, err := timesheet.ParseGranularity(raw)
		if err != nil {
			respondError(c, err)
			return timesheet.View{}, false
		}
		q.Granularity = g
	}
	q.Filter.SearchQuery = c.Query("q")
	q.Filter.Projects = c.QueryArray("project")
	for _, cat := range c.QueryArray("category") {
		q.Filter.Categories = append(q.Filter.Categories, store.Category(cat))
	}

	v, err := h.svc.Load(owner, q)
	if err != nil {
		respondError(c, err)
		return timesheet.View{}, false
	}
	return v, true
}

// Timesheet handles GET /api/timesheet.
func (h *Handler) Timesheet(c *gin.Context) {
	v, ok := h.loadView(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toTimesheetResponse(v))
}

// ExportCSV handles GET /api/timesheet/export.csv. The file holds every
// entry loaded for the period regardless of the filter parameters.
func (h *Handler) ExportCSV(c *gin.Context) {
	v, ok := h.loadView(c)
	if !ok {
		return
	}
	name := export.FileName("csv", h.now())
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Status(http.StatusOK)
	if err := export.WriteCSV(c.Writer, v.Loaded); err != nil {
		_ = c.Error(err)
	}
}

// CreateEntry handles POST /api/entries.
func (h *Handler) CreateEntry(c *gin.Context) {
	owner, ok := currentUser(c)
	if !ok {
		abort(c, http.StatusUnauthorized, "User not authenticated", codeMissingToken)
		return
	}
	var req EntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "Invalid request body", codeInvalidRequest)
		return
	}
	if req.OwnerID != "" && req.OwnerID != owner {
		if !isAdmin(c) {
			abort(c, http.StatusForbidden, "Only admins may log time for others", codeForbidden)
			return
		}
		owner = req.OwnerID
	}

	e, err := h.svc.Add(req.input(owner))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toEntryResponse(*e))
}

// ownedEntry loads entry :id and checks the caller may change it.
func (h *Handler) ownedEntry(c *gin.Context) (*store.TimeEntry, bool) {
	user, ok := currentUser(c)
	if !ok {
		abort(c, http.StatusUnauthorized, "User not authenticated", codeMissingToken)
		return nil, false
	}
	e, err := h.repo.GetEntry(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if e.OwnerID != user && !isAdmin(c) {
		abort(c, http.StatusForbidden, "Entry belongs to another user", codeForbidden)
		return nil, false
	}
	return e, true
}

// UpdateEntry handles PUT /api/entries/:id.
func (h *Handler) UpdateEntry(c *gin.Context) {
	var req EntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "Invalid request body", codeInvalidRequest)
		return
	}
	existing, ok := h.ownedEntry(c)
	if !ok {
		return
	}
	e, err := h.svc.Edit(existing.ID, req.input(existing.OwnerID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toEntryResponse(*e))
}

// DeleteEntry handles DELETE /api/entries/:id.
func (h *Handler) DeleteEntry(c *gin.Context) {
	existing, ok := h.ownedEntry(c)
	if !ok {
		return
	}
	if err := h.svc.Remove(existing.ID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Projects handles GET /api/projects.
func (h *Handler) Projects(c *gin.Context) {
	projects, err := h.repo.ListProjects(c.Query("archived") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	resp := ProjectListResponse{Projects: make([]ProjectResponse, 0, len(projects))}
	for _, p := range projects {
		resp.Projects = append(resp.Projects, toProjectResponse(p))
	}
	c.JSON(http.StatusOK, resp)
}
