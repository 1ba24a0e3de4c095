package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/scout-labs/tradescout/export"
	"github.com/scout-labs/tradescout/models"
)

// Download returns a handler for POST /api/download. It renders the result
// set carried in the request body — exactly as returned by /api/search,
// never re-fetched — into the requested format and serves it as an
// attachment with a Content-Disposition filename hint.
func Download() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.DownloadRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "No results to download"})
			return
		}
		req.Defaults()

		if req.Results == nil || len(req.Results.Products) == 0 {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "No results to download"})
			return
		}

		var (
			data []byte
			err  error
		)
		switch req.Format {
		case "excel":
			data, err = export.Excel(req.Results)
		case "json":
			data, err = export.JSON(req.Results)
		default:
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid format. Use 'excel' or 'json'"})
			return
		}
		if err != nil {
			respondError(c, models.NewAPIError(models.ErrCodeExportFailed, "failed to render export", err))
			return
		}

		filename := export.Filename(req.Results.ProductName, req.Format, time.Now())

		slog.Info("serving export",
			"product", req.Results.ProductName,
			"format", req.Format,
			"filename", filename,
			"bytes", len(data),
		)

		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		c.Data(http.StatusOK, export.MIME(req.Format), data)
	}
}
