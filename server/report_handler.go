package server

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	errs "github.com/infieles/reportes/errors"
	"github.com/infieles/reportes/models"
	"github.com/infieles/reportes/server/response"
	"github.com/infieles/reportes/services"
	"github.com/pkg/errors"
)

const photosField = "fotos"

func (s *Server) handleHome() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"mensaje": "API Local funcionando", "status": "ok"})
	}
}

func (s *Server) handleListReports() gin.HandlerFunc {
	return func(c *gin.Context) {
		page := getIntFromQuery(c, "page", models.DefaultPage)
		limit := getIntFromQuery(c, "limit", models.DefaultPerPage)

		result, err := s.ReportService.ListReports(c.Request.Context(), page, limit)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, result.ToResponse())
	}
}

func (s *Server) handleGetReport() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := getReportID(c)
		if !ok {
			response.Error(c, errs.ErrReportNotFound)
			return
		}

		report, err := s.ReportService.GetReport(c.Request.Context(), id)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, report.ToResponse())
	}
}

func (s *Server) handleCreateReport() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.Config.MaxUploadBytes)

		var req models.CreateReportRequest
		if err := c.ShouldBindWith(&req, binding.Form); err != nil {
			response.Error(c, bodyError(err))
			return
		}
		report, err := req.ToReport()
		if err != nil {
			response.Error(c, err)
			return
		}

		var uploads []services.Upload
		form, err := c.MultipartForm()
		switch {
		case err == nil:
			uploads = toUploads(form.File[photosField])
		case errors.Is(err, http.ErrNotMultipart):
		default:
			response.Error(c, bodyError(err))
			return
		}

		created, err := s.ReportService.CreateReport(c.Request.Context(), report, uploads)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Message(c, http.StatusCreated, "Guardado", gin.H{"id": created.ID})
	}
}

func (s *Server) handleUpdateReport() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := getReportID(c)
		if !ok {
			response.Error(c, errs.ErrReportNotFound)
			return
		}

		var req models.UpdateReportRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, errs.Wrap(errs.KindValidation, err, "JSON inválido"))
			return
		}
		update, err := req.ToUpdate()
		if err != nil {
			response.Error(c, err)
			return
		}

		if _, err := s.ReportService.UpdateReport(c.Request.Context(), id, update); err != nil {
			response.Error(c, err)
			return
		}
		response.Message(c, http.StatusOK, "Actualizado", nil)
	}
}

func (s *Server) handleDeleteReport() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := getReportID(c)
		if !ok {
			response.Error(c, errs.ErrReportNotFound)
			return
		}

		if err := s.ReportService.DeleteReport(c.Request.Context(), id); err != nil {
			response.Error(c, err)
			return
		}
		response.Message(c, http.StatusOK, "Eliminado", nil)
	}
}

// getIntFromQuery falls back to def when the parameter is missing or not an
// integer. Range checks happen in the service.
func getIntFromQuery(c *gin.Context, key string, def int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// getReportID parses the :id path segment. Anything that is not a positive
// integer cannot name a report.
func getReportID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func toUploads(headers []*multipart.FileHeader) []services.Upload {
	uploads := make([]services.Upload, 0, len(headers))
	for _, fh := range headers {
		fh := fh
		uploads = append(uploads, services.Upload{
			Filename: fh.Filename,
			Open: func() (io.ReadCloser, error) {
				return fh.Open()
			},
		})
	}
	return uploads
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
		return errs.ErrBodyTooLarge
	}
	return errs.Wrap(errs.KindValidation, err, "datos inválidos")
}
