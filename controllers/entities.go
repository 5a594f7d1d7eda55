package controllers

import (
	"mime/multipart"
	"net/http"
	"strings"

	"TenantHub/models"
	"TenantHub/paths"
	"TenantHub/services"

	util "github.com/KanapuramVaishnavi/Core/util"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

func Employees(router gin.IRouter, h *Handler) {
	entityRoutes(router.Group("/employee"), h, paths.KindEmployee, "employee")
}

func Projects(router gin.IRouter, h *Handler) {
	entityRoutes(router.Group("/project"), h, paths.KindProject, "project")
}

func entityRoutes(g *gin.RouterGroup, h *Handler, kind, module string) {
	g.POST("/create/:tenantId", h.authorize(module, "create"), h.createEntity(kind))
	g.GET("/fetch/:code", h.authorize(module, "view"), h.fetchEntity(kind))
	g.GET("/fetchAll/:tenantId", h.authorize(module, "view"), h.fetchAllEntities(kind))
	g.PUT("/update/:code", h.authorize(module, "update"), h.updateEntity(kind))
	g.DELETE("/delete/:code", h.authorize(module, "delete"), h.deleteEntity(kind))
	g.POST("/upload/:code", h.authorize("document", "create"), h.uploadDocuments(kind))
	g.DELETE("/document/:code/:documentId", h.authorize("document", "delete"), h.deleteDocument(kind))
}

func newRecord(kind string) interface{} {
	if kind == paths.KindProject {
		return &models.Project{}
	}
	return &models.Employee{}
}

func newRecords(kind string) interface{} {
	if kind == paths.KindProject {
		return &[]models.Project{}
	}
	return &[]models.Employee{}
}

func (h *Handler) createEntity(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in services.EntityInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, util.FailedResponse(err))
			return
		}
		code, err := h.Documents.CreateEntity(c.Request.Context(), kind, c.Param("tenantId"), in)
		if err != nil {
			fail(c, err)
			return
		}
		out := newRecord(kind)
		if err := h.Documents.FetchEntity(c.Request.Context(), kind, code, out); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, util.SuccessResponse(out))
	}
}

func (h *Handler) fetchEntity(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		out := newRecord(kind)
		if err := h.Documents.FetchEntity(c.Request.Context(), kind, c.Param("code"), out); err != nil {
			fail(c, err)
			return
		}
		succeed(c, out)
	}
}

func (h *Handler) fetchAllEntities(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		out := newRecords(kind)
		if err := h.Documents.ListEntities(c.Request.Context(), kind, c.Param("tenantId"), out); err != nil {
			fail(c, err)
			return
		}
		succeed(c, out)
	}
}

type entityPatch struct {
	Name   *string `json:"name"`
	Status *string `json:"status"`
}

/*
* Multipart bodies carry optional name and status fields plus files
* JSON bodies carry only name and status
* The rename is applied before the files are placed
 */
func (h *Handler) updateEntity(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var upd services.EntityUpdate
		if strings.HasPrefix(c.ContentType(), "multipart/") {
			form, err := h.readForm(c)
			if err != nil {
				c.JSON(statusForForm(err), util.FailedResponse(err))
				return
			}
			if v, ok := form.Value["name"]; ok && len(v) > 0 {
				upd.Name = &v[0]
			}
			if v, ok := form.Value["status"]; ok && len(v) > 0 {
				upd.Status = &v[0]
			}
			files, closeAll, err := openFiles(form)
			if err != nil {
				c.JSON(http.StatusBadRequest, util.FailedResponse(err))
				return
			}
			defer closeAll()
			upd.Files = files
		} else {
			var patch entityPatch
			if err := c.ShouldBindJSON(&patch); err != nil {
				c.JSON(http.StatusBadRequest, util.FailedResponse(err))
				return
			}
			upd.Name, upd.Status = patch.Name, patch.Status
		}

		res, err := h.Documents.UpdateEntity(c.Request.Context(), kind, c.Param("code"), upd)
		if err != nil {
			fail(c, err)
			return
		}
		succeed(c, res)
	}
}

func (h *Handler) deleteEntity(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.Documents.DeleteEntity(c.Request.Context(), kind, c.Param("code")); err != nil {
			fail(c, err)
			return
		}
		succeed(c, "Deleted successfully")
	}
}

/*
* Limit the body size and read the multipart form
* Open every file under the "files" field
* Pass to the upload; per-file failures come back in the result
 */
func (h *Handler) uploadDocuments(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		form, err := h.readForm(c)
		if err != nil {
			c.JSON(statusForForm(err), util.FailedResponse(err))
			return
		}
		files, closeAll, err := openFiles(form)
		if err != nil {
			c.JSON(http.StatusBadRequest, util.FailedResponse(err))
			return
		}
		defer closeAll()

		res, err := h.Documents.UploadDocuments(c.Request.Context(), kind, c.Param("code"), files)
		if err != nil {
			fail(c, err)
			return
		}
		status := http.StatusCreated
		if len(res.Documents) == 0 {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, util.SuccessResponse(uploadResponse(res)))
	}
}

func (h *Handler) deleteDocument(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := h.Documents.DeleteDocument(c.Request.Context(), kind, c.Param("code"), c.Param("documentId"))
		if err != nil {
			fail(c, err)
			return
		}
		succeed(c, "Deleted successfully")
	}
}

var errBodyTooLarge = errors.New("upload exceeds the size limit")

func (h *Handler) readForm(c *gin.Context) (*multipart.Form, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload())
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, errBodyTooLarge
		}
		return nil, errors.Wrap(err, "read multipart form")
	}
	return form, nil
}

func statusForForm(err error) int {
	if errors.Is(err, errBodyTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func openFiles(form *multipart.Form) ([]services.UploadFile, func(), error) {
	var (
		files   []services.UploadFile
		opened  []multipart.File
		closeFn = func() {
			for _, f := range opened {
				f.Close()
			}
		}
	)
	for _, fh := range form.File["files"] {
		f, err := fh.Open()
		if err != nil {
			closeFn()
			return nil, nil, errors.Wrapf(err, "open %s", fh.Filename)
		}
		opened = append(opened, f)
		files = append(files, services.UploadFile{Name: fh.Filename, Content: f})
	}
	return files, closeFn, nil
}

type uploadFailure struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

func uploadResponse(res *services.UploadResult) gin.H {
	failures := make([]uploadFailure, 0, len(res.Failures))
	for _, f := range res.Failures {
		failures = append(failures, uploadFailure{Name: f.Name, Error: f.Err.Error()})
	}
	return gin.H{"documents": res.Documents, "failures": failures}
}
