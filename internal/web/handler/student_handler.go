package handler

import (
	"net/http"

	"anoa.com/studentroster/internal/roster/form"
	"anoa.com/studentroster/internal/roster/model"
	"anoa.com/studentroster/internal/roster/store"
	"anoa.com/studentroster/internal/web/session"
	"github.com/gin-gonic/gin"
)

type nav struct {
	Active string
	User   model.User
}

type listPage struct {
	Nav      nav
	State    store.State
	Students []model.Student
	Classes  []string
	Count    int
	Confirm  string
}

type formPage struct {
	Nav         nav
	Title       string
	Action      string
	Editing     bool
	Input       form.Input
	Errors      form.Errors
	SubmitError string
	Loading     bool
}

type filterForm struct {
	Search string `form:"search"`
	Class  string `form:"class"`
	SortBy string `form:"sort_by"`
}

type StudentHandler struct {
	sessions *session.Manager
	cookie   CookieConfig
}

func NewStudentHandler(sessions *session.Manager, cookie CookieConfig) *StudentHandler {
	return &StudentHandler{sessions: sessions, cookie: cookie}
}

func mustSession(c *gin.Context) *session.Session {
	s, _ := currentSession(c)
	return s
}

// ensureLoaded fetches the records on the first visit of a session. A failed
// fetch is left in the store state for the view to show. It returns false
// when the session has ended and the response is already written.
func (h *StudentHandler) ensureLoaded(c *gin.Context, s *session.Session, force bool) bool {
	if force || !s.Store.State().Loaded {
		if err := s.Store.FetchAll(c.Request.Context()); h.rejected(c, s, err) {
			return false
		}
	}
	return true
}

func (h *StudentHandler) rejected(c *gin.Context, s *session.Session, err error) bool {
	return endIfRejected(c, h.sessions, h.cookie, s, err)
}

func (h *StudentHandler) List(c *gin.Context) {
	s := mustSession(c)
	if !h.ensureLoaded(c, s, c.Query("refresh") != "") {
		return
	}

	visible := s.Store.Visible()
	c.HTML(http.StatusOK, "students.html", listPage{
		Nav:      nav{Active: "list", User: s.User()},
		State:    s.Store.State(),
		Students: visible,
		Classes:  s.Store.Classes(),
		Count:    len(visible),
		Confirm:  c.Query("confirm"),
	})
}

func (h *StudentHandler) ApplyFilters(c *gin.Context) {
	s := mustSession(c)

	var f filterForm
	if err := c.ShouldBind(&f); err == nil {
		s.Store.SetSearch(f.Search)
		s.Store.SetClassFilter(f.Class)
		if field, ok := model.ParseSortField(f.SortBy); ok {
			s.Store.SetSortField(field)
		}
	}
	c.Redirect(http.StatusSeeOther, "/students")
}

func (h *StudentHandler) ToggleSortOrder(c *gin.Context) {
	s := mustSession(c)
	if s.Store.State().Filters.SortOrder == model.SortAsc {
		s.Store.SetSortOrder(model.SortDesc)
	} else {
		s.Store.SetSortOrder(model.SortAsc)
	}
	c.Redirect(http.StatusSeeOther, "/students")
}

func (h *StudentHandler) ClearError(c *gin.Context) {
	mustSession(c).Store.ClearError()
	c.Redirect(http.StatusSeeOther, "/students")
}

func (h *StudentHandler) Delete(c *gin.Context) {
	s := mustSession(c)
	// a failure stays in the store and shows as the list banner
	if err := s.Store.Delete(c.Request.Context(), c.Param("id")); h.rejected(c, s, err) {
		return
	}
	c.Redirect(http.StatusSeeOther, "/students")
}

func (h *StudentHandler) ShowCreate(c *gin.Context) {
	s := mustSession(c)
	if !h.ensureLoaded(c, s, false) {
		return
	}
	c.HTML(http.StatusOK, "form.html", newFormPage(s, "", form.Input{}))
}

func (h *StudentHandler) Create(c *gin.Context) {
	s := mustSession(c)
	if !h.ensureLoaded(c, s, false) {
		return
	}

	var in form.Input
	if err := c.ShouldBind(&in); err != nil {
		page := newFormPage(s, "", in)
		page.SubmitError = err.Error()
		c.HTML(http.StatusBadRequest, "form.html", page)
		return
	}

	if errs := form.Validate(in, s.Store.State().Records, ""); errs != nil {
		page := newFormPage(s, "", in)
		page.Errors = errs
		c.HTML(http.StatusUnprocessableEntity, "form.html", page)
		return
	}

	if _, err := s.Store.Create(c.Request.Context(), in.NewStudent()); err != nil {
		if h.rejected(c, s, err) {
			return
		}
		page := newFormPage(s, "", in)
		page.SubmitError = err.Error()
		c.HTML(failureStatus(err), "form.html", page)
		return
	}
	c.Redirect(http.StatusSeeOther, "/students")
}

func (h *StudentHandler) ShowEdit(c *gin.Context) {
	s := mustSession(c)
	if !h.ensureLoaded(c, s, false) {
		return
	}

	current, ok := s.Store.Find(c.Param("id"))
	if !ok {
		c.Redirect(http.StatusSeeOther, "/students")
		return
	}
	c.HTML(http.StatusOK, "form.html", newFormPage(s, current.ID, form.FromStudent(current)))
}

func (h *StudentHandler) Update(c *gin.Context) {
	s := mustSession(c)
	if !h.ensureLoaded(c, s, false) {
		return
	}

	current, ok := s.Store.Find(c.Param("id"))
	if !ok {
		c.Redirect(http.StatusSeeOther, "/students")
		return
	}

	var in form.Input
	if err := c.ShouldBind(&in); err != nil {
		page := newFormPage(s, current.ID, in)
		page.SubmitError = err.Error()
		c.HTML(http.StatusBadRequest, "form.html", page)
		return
	}

	if errs := form.Validate(in, s.Store.State().Records, current.ID); errs != nil {
		page := newFormPage(s, current.ID, in)
		page.Errors = errs
		c.HTML(http.StatusUnprocessableEntity, "form.html", page)
		return
	}

	patch := in.Patch(current)
	if patch == (model.StudentPatch{}) {
		c.Redirect(http.StatusSeeOther, "/students")
		return
	}

	if _, err := s.Store.Update(c.Request.Context(), current.ID, patch); err != nil {
		if h.rejected(c, s, err) {
			return
		}
		page := newFormPage(s, current.ID, in)
		page.SubmitError = err.Error()
		c.HTML(failureStatus(err), "form.html", page)
		return
	}
	c.Redirect(http.StatusSeeOther, "/students")
}

func newFormPage(s *session.Session, id string, in form.Input) formPage {
	page := formPage{
		Nav:     nav{Active: "add", User: s.User()},
		Title:   "Add New Student",
		Action:  "/students/add",
		Input:   in,
		Loading: s.Store.State().Loading,
	}
	if id != "" {
		page.Nav.Active = ""
		page.Title = "Edit Student"
		page.Action = "/students/edit/" + id
		page.Editing = true
	}
	return page
}
