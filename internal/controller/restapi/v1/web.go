package v1

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/murtazox04/kelishamiz-backend/internal/controller/restapi/v1/validate"
)

var (
	//go:embed web/index.html
	webFiles embed.FS

	uploadPage = template.Must(template.ParseFS(webFiles, "web/index.html"))
)

type uploadPageData struct {
	MaxFiles   int
	MaxFileMiB int64
}

func (r *V1) showUI(ctx *fiber.Ctx) error {
	var buf bytes.Buffer

	err := uploadPage.Execute(&buf, uploadPageData{
		MaxFiles:   validate.MaxFilesPerUpload,
		MaxFileMiB: validate.MaxFileSize >> 20,
	})
	if err != nil {
		r.logger.Error(err, "restapi - v1 - showUI")

		return errorResponse(ctx, http.StatusInternalServerError, "problems with load UI")
	}

	ctx.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)

	return ctx.Send(buf.Bytes())
}
