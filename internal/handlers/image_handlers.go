package handlers

import (
	"errors"
	"mime"
	"net/http"
	"strings"

	"cardapio/internal/media"
	"cardapio/internal/services"
	"cardapio/internal/storage"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ImageHandlers serves stored main images and thumbnails.
type ImageHandlers struct {
	imageService services.ImageService
}

func NewImageHandlers(imageService services.ImageService) *ImageHandlers {
	return &ImageHandlers{imageService: imageService}
}

// ServeImage handles GET /uploads/produtos/:name
//
//	@Summary	Fetch a stored image or thumbnail
//	@Tags		images
//	@Produce	image/jpeg,image/png,image/gif
//	@Param		name	path	string	true	"Stored name, e.g. <uuid>.jpg or <uuid>_thumb.jpg"
//	@Success	200
//	@Failure	404	{object}	echo.HTTPError
//	@Router		/uploads/produtos/{name} [get]
func (h *ImageHandlers) ServeImage(c echo.Context) error {
	name := c.Param("name")

	data, err := h.imageService.FetchBytes(c.Request().Context(), name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidName) {
			return echo.NewHTTPError(http.StatusNotFound, "Image not found")
		}
		log.Error().Err(err).Str("stored_name", name).Msg("failed to read image")
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Image storage unavailable")
	}

	// stored names never change content
	c.Response().Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	return c.Blob(http.StatusOK, contentTypeFor(name), data)
}

func contentTypeFor(name string) string {
	ext := strings.ToLower(media.Extension(name))
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return echo.MIMEOctetStream
}
