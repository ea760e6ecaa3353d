package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/tu-usuario/kardex-fifo/internal/application/dto"
	"github.com/tu-usuario/kardex-fifo/internal/application/ingest"
	"github.com/tu-usuario/kardex-fifo/internal/domain"
)

// ImportHandler maneja la carga masiva de transacciones por CSV (protegido).
type ImportHandler struct {
	uc *ingest.UseCase
}

// NewImportHandler construye el handler.
func NewImportHandler(uc *ingest.UseCase) *ImportHandler {
	return &ImportHandler{uc: uc}
}

// Upload godoc
// @Summary      Carga masiva de transacciones por CSV
// @Description  Multipart con campo "file". Las filas duplicadas (hash de
//
//	contenido ya registrado) se saltan; las inválidas se reportan
//	con su línea sin abortar el resto. latin1=true transcodifica
//	desde ISO-8859-1 (exportes de Excel es-CO).
//
// @Tags         import
// @Security     Bearer
// @Accept       mpfd
// @Produce      json
// @Param        file    formData  file    true   "archivo CSV"
// @Param        latin1  query     bool    false  "transcodificar desde ISO-8859-1"
// @Success      200  {object}  dto.ImportResult
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/import/csv [post]
func (h *ImportHandler) Upload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_FILE", Message: "campo multipart 'file' requerido"})
	}
	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_FILE", Message: "no se pudo abrir el archivo"})
	}
	defer file.Close()

	latin1 := c.QueryBool("latin1", false)
	result, err := h.uc.ImportCSV(c.Context(), file, latin1, GetUserName(c), c.IP())
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(result)
}

// Template godoc
// @Summary      Descargar la plantilla CSV de carga
// @Tags         import
// @Security     Bearer
// @Produce      plain
// @Success      200  {string}  string
// @Router       /api/import/template [get]
func (h *ImportHandler) Template(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="plantilla_kardex.csv"`)
	return c.SendString(ingest.Template())
}
