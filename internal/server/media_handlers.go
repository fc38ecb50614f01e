package server

import (
	"io"
	"mime/multipart"

	"chirp/internal/models"
	"chirp/internal/service"

	"github.com/gofiber/fiber/v2"
)

func readUpload(file *multipart.FileHeader) (service.UploadFile, error) {
	src, err := file.Open()
	if err != nil {
		return service.UploadFile{}, err
	}
	defer func() { _ = src.Close() }()

	content, err := io.ReadAll(src)
	if err != nil {
		return service.UploadFile{}, err
	}
	return service.UploadFile{
		Filename:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		Content:     content,
	}, nil
}

// UploadImage handles POST /api/medias/upload-image (multipart field "image", up to four files)
// @Summary Upload images
// @Tags medias
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param image formData file true "Image"
// @Success 200 {object} object{message=string,result=[]models.Media}
// @Failure 400 {object} models.ErrorResponse
// @Router /medias/upload-image [post]
func (s *Server) UploadImage(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil || len(form.File["image"]) == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("No file uploaded"))
	}

	files := make([]service.UploadFile, 0, len(form.File["image"]))
	for _, fh := range form.File["image"] {
		f, err := readUpload(fh)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Unable to read uploaded file"))
		}
		files = append(files, f)
	}

	medias, err := s.mediaService.UploadImages(c.UserContext(), files)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Upload success", "result": medias})
}

// UploadVideo handles POST /api/medias/upload-video (multipart field "video")
func (s *Server) UploadVideo(c *fiber.Ctx) error {
	fh, err := c.FormFile("video")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("No file uploaded"))
	}
	f, err := readUpload(fh)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unable to read uploaded file"))
	}

	medias, err := s.mediaService.UploadVideo(c.UserContext(), f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Upload success", "result": medias})
}
