package server

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/contact-extractor/internal/common"
	"github.com/joseph-ayodele/contact-extractor/internal/entity"
)

const xlsxMime = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// handleHealth answers 200 when OCR and at least one provider are usable, 503 otherwise.
// The body is the same in both cases.
func (s *Server) handleHealth(c *gin.Context) {
	h := s.svc.Health(c.Request.Context())
	code := http.StatusOK
	if !h.Ready() {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"ready": h.Ready(), "health": h})
}

// handleExtract runs a synchronous extraction of the multipart "file" field. With
// ?format=xlsx a successful answer is the contacts workbook instead of JSON.
func (s *Server) handleExtract(c *gin.Context) {
	data, filename, mimeType, err := s.upload(c)
	if err != nil {
		handleError(c, err)
		return
	}

	res, err := s.svc.Extract(c.Request.Context(), data, filename, mimeType)
	if err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{
			"error":  errorBody{Code: common.CodeOf(err), Message: err.Error()},
			"result": res,
		})
		return
	}

	if strings.EqualFold(c.Query("format"), "xlsx") {
		b, err := s.exporter.ContactsXLSX([]entity.Result{res})
		if err != nil {
			handleError(c, common.NewAppError(common.CodeInternal, "export", err))
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.xlsx"`, strings.TrimSuffix(filename, filepath.Ext(filename))))
		c.Data(http.StatusOK, xlsxMime, b)
		return
	}
	c.JSON(http.StatusOK, res)
}

// handleSubmit queues the multipart "file" field and returns the job identifier.
func (s *Server) handleSubmit(c *gin.Context) {
	data, filename, mimeType, err := s.upload(c)
	if err != nil {
		handleError(c, err)
		return
	}
	id, err := s.svc.Submit(c.Request.Context(), data, filename, mimeType)
	if err != nil {
		handleError(c, err)
		return
	}
	c.Header("Location", "/v1/jobs/"+id)
	c.JSON(http.StatusAccepted, gin.H{"job_id": id})
}

func (s *Server) handleStatus(c *gin.Context) {
	st, err := s.svc.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	if strings.EqualFold(c.Query("format"), "xlsx") {
		if st.Result == nil {
			handleError(c, common.NewTaxonomyError(common.CodeInvalidInput, "job "+st.JobID+" has no result yet", nil))
			return
		}
		b, err := s.exporter.ContactsXLSX([]entity.Result{*st.Result})
		if err != nil {
			handleError(c, common.NewAppError(common.CodeInternal, "export", err))
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.xlsx"`, st.JobID))
		c.Data(http.StatusOK, xlsxMime, b)
		return
	}
	c.JSON(http.StatusOK, st)
}

type ingestRequest struct {
	Root       string `json:"root" binding:"required"`
	SkipHidden *bool  `json:"skip_hidden"`
}

// handleIngest submits every supported file under a directory inside the watch directory.
// Relative roots are taken from the watch directory.
func (s *Server) handleIngest(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, common.NewTaxonomyError(common.CodeInvalidInput, "root is required", err))
		return
	}
	skipHidden := true
	if req.SkipHidden != nil {
		skipHidden = *req.SkipHidden
	}
	root, err := within(s.ingestBase, req.Root)
	if err != nil {
		handleError(c, common.NewTaxonomyError(common.CodeInvalidInput, "root must be a directory under the watch directory", err))
		return
	}
	results, stats, err := s.ingestor.IngestDirectory(c.Request.Context(), root, skipHidden)
	if err != nil {
		handleError(c, common.NewTaxonomyError(common.CodeInvalidInput, "ingest directory", err))
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"results": results, "stats": stats})
}

// upload reads the "file" form field, enforcing the upload limit.
func (s *Server) upload(c *gin.Context) ([]byte, string, string, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, "", "", common.NewTaxonomyError(common.CodeInvalidInput, `multipart field "file" is required`, err)
	}
	if s.maxUpload > 0 && fh.Size > s.maxUpload {
		return nil, "", "", common.NewTaxonomyError(common.CodeInvalidInput,
			fmt.Sprintf("file is %d bytes, the limit is %d", fh.Size, s.maxUpload), nil)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, "", "", common.NewTaxonomyError(common.CodeInvalidInput, "open upload", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", "", common.NewTaxonomyError(common.CodeInvalidInput, "read upload", err)
	}
	mimeType := fh.Header.Get("Content-Type")
	if mimeType == "application/octet-stream" {
		mimeType = ""
	}
	return data, fh.Filename, mimeType, nil
}

// resolveDir returns the absolute, symlink-free form of dir.
func resolveDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// within resolves root and checks that it is base or a directory below it.
func within(base, root string) (string, error) {
	if !filepath.IsAbs(root) {
		root = filepath.Join(base, root)
	}
	resolved, err := resolveDir(root)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(base, resolved)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside %s", resolved, base)
	}
	return resolved, nil
}
