package controller

import (
	"context"
	"errors"
	"mime/multipart"
	"strconv"

	"realty_backend/internal/model"
	"realty_backend/internal/store"
	"realty_backend/pkg/apperror"
	imageproc "realty_backend/pkg/utils/image"
	"realty_backend/pkg/utils/storage"
	"realty_backend/pkg/utils/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	MaxPropertyImages = 30
	generalUploadDir  = "general"
)

type UploadedImage struct {
	URL    string `json:"url"`
	Name   string `json:"name"`
	Size   int    `json:"size"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type UploadController struct {
	files      storage.FileStore
	properties store.PropertyStore
	cache      invalidator
	maxBytes   int64
	log        *logrus.Logger
}

type invalidator interface {
	Invalidate(ctx context.Context) error
}

func NewUploadController(files storage.FileStore, properties store.PropertyStore, cache invalidator, maxBytes int64, log *logrus.Logger) *UploadController {
	return &UploadController{files: files, properties: properties, cache: cache, maxBytes: maxBytes, log: log}
}

// save validates, re-encodes and stores one uploaded image under dir.
func (uc *UploadController) save(ctx context.Context, dir string, file *multipart.FileHeader) (*UploadedImage, error) {
	if err := validation.ValidateImage(file, uc.maxBytes); err != nil {
		return nil, apperror.Validation("image", err.Error())
	}

	src, err := file.Open()
	if err != nil {
		return nil, apperror.Internal("Could not read upload", err)
	}
	defer src.Close()

	img, err := imageproc.Process(src)
	if err != nil {
		return nil, apperror.Validation("image", "File is not a valid image")
	}

	name := uuid.NewString() + img.Ext
	size := img.Body.Len()
	url, err := uc.files.Save(ctx, dir, name, img.ContentType, img.Body)
	if err != nil {
		return nil, apperror.Internal("Could not save file", err)
	}
	return &UploadedImage{URL: url, Name: name, Size: size, Width: img.Width, Height: img.Height}, nil
}

// formFiles returns the files under "images", falling back to "image".
func formFiles(c *fiber.Ctx) ([]*multipart.FileHeader, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, apperror.Validation("images", "No file uploaded")
	}
	files := form.File["images"]
	if len(files) == 0 {
		files = form.File["image"]
	}
	if len(files) == 0 {
		return nil, apperror.Validation("images", "No file uploaded")
	}
	return files, nil
}

func (uc *UploadController) UploadImage(c *fiber.Ctx) error {
	file, err := c.FormFile("image")
	if err != nil {
		return apperror.Validation("image", "No file uploaded")
	}
	img, err := uc.save(c.UserContext(), generalUploadDir, file)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Image uploaded successfully",
		"image":   img,
	})
}

// UploadImages stores several images. Files that fail are reported per name
// and do not abort the rest.
func (uc *UploadController) UploadImages(c *fiber.Ctx) error {
	files, err := formFiles(c)
	if err != nil {
		return err
	}
	if len(files) > MaxPropertyImages {
		return apperror.Validationf("images", "Maximum %d images allowed", MaxPropertyImages)
	}

	uploaded := []UploadedImage{}
	failed := fiber.Map{}
	for _, file := range files {
		img, err := uc.save(c.UserContext(), generalUploadDir, file)
		if err != nil {
			failed[file.Filename] = err.Error()
			continue
		}
		uploaded = append(uploaded, *img)
	}
	if len(uploaded) == 0 {
		return apperror.Validation("images", "No image could be uploaded")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Images uploaded successfully",
		"images":  uploaded,
		"failed":  failed,
	})
}

// UploadPropertyImages stores images in the listing's directory and appends
// them to its gallery. The first image of an empty gallery becomes primary.
func (uc *UploadController) UploadPropertyImages(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.UserContext()
	p, err := uc.properties.Get(ctx, strconv.FormatUint(uint64(id), 10))
	if err != nil {
		return err
	}

	files, err := formFiles(c)
	if err != nil {
		return err
	}
	if len(p.Images)+len(files) > MaxPropertyImages {
		return apperror.Validationf("images", "Maximum image limit reached (%d)", MaxPropertyImages)
	}

	gallery := make([]any, 0, len(p.Images)+len(files))
	for _, img := range p.Images {
		gallery = append(gallery, imageField(img))
	}
	uploaded := []UploadedImage{}
	for _, file := range files {
		img, err := uc.save(ctx, propertyDir(id), file)
		if err != nil {
			uc.cleanup(ctx, uploaded)
			return err
		}
		uploaded = append(uploaded, *img)
		gallery = append(gallery, imageField(model.Image{
			URL:       img.URL,
			IsPrimary: len(gallery) == 0,
			Order:     len(gallery),
		}))
	}

	updated, _, err := uc.properties.Update(ctx, id, map[string]any{"images": gallery})
	if err != nil {
		uc.cleanup(ctx, uploaded)
		return err
	}
	if uc.cache != nil {
		if err := uc.cache.Invalidate(ctx); err != nil {
			uc.log.WithError(err).Warn("Failed to invalidate listing cache")
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Images uploaded successfully",
		"images":   uploaded,
		"property": updated,
	})
}

func imageField(img model.Image) map[string]any {
	return map[string]any{"url": img.URL, "is_primary": img.IsPrimary, "order": img.Order}
}

func (uc *UploadController) cleanup(ctx context.Context, images []UploadedImage) {
	for _, img := range images {
		if err := uc.files.Delete(ctx, img.URL); err != nil {
			uc.log.WithError(err).WithField("url", img.URL).Warn("Could not delete file")
		}
	}
}

func (uc *UploadController) DeleteImage(c *fiber.Ctx) error {
	url := c.Query("url")
	if url == "" {
		return apperror.Validation("url", "url is required")
	}
	if err := uc.files.Delete(c.UserContext(), url); err != nil {
		if errors.Is(err, storage.ErrInvalidPath) {
			return apperror.Validation("url", "Invalid file url")
		}
		return apperror.Internal("Could not delete file", err)
	}
	return c.JSON(fiber.Map{"message": "Image deleted successfully"})
}
