package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cardapio/internal/media"
	"cardapio/internal/models"
	"cardapio/internal/services"
	"cardapio/internal/storage"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// DefaultMaxUploadBytes caps a single uploaded file.
const DefaultMaxUploadBytes = 10 << 20

// ProductHandlers handles HTTP requests for products
type ProductHandlers struct {
	productService services.ProductService
	maxUploadBytes int64
}

// NewProductHandlers creates a new product handlers instance
func NewProductHandlers(productService services.ProductService, maxUploadBytes int64) *ProductHandlers {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &ProductHandlers{
		productService: productService,
		maxUploadBytes: maxUploadBytes,
	}
}

// ImageResponse is one product image as returned by the API.
type ImageResponse struct {
	ID           uuid.UUID `json:"id"`
	ImageURL     string    `json:"image_url"`
	ThumbnailURL string    `json:"thumbnail_url"`
	ContentType  string    `json:"content_type,omitempty"`
	SizeBytes    int64     `json:"size_bytes,omitempty"`
	IsPrincipal  bool      `json:"is_principal"`
	Position     int       `json:"position"`
}

// ProductResponse is a product as returned by the API.
type ProductResponse struct {
	ID                 uuid.UUID       `json:"id"`
	Name               string          `json:"name"`
	Description        *string         `json:"description,omitempty"`
	Price              float64         `json:"price"`
	PrincipalImageURL  string          `json:"principal_image_url,omitempty"`
	PrincipalThumbnail string          `json:"principal_thumbnail_url,omitempty"`
	Images             []ImageResponse `json:"images"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

func toProductResponse(p *models.Product) ProductResponse {
	resp := ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Images:      make([]ImageResponse, 0, len(p.Images)),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if principal := p.PrincipalImage(); principal != nil {
		resp.PrincipalImageURL = principal.ImageURL()
		resp.PrincipalThumbnail = principal.ThumbnailURL()
	}
	for _, image := range p.Images {
		resp.Images = append(resp.Images, ImageResponse{
			ID:           image.ID,
			ImageURL:     image.ImageURL(),
			ThumbnailURL: image.ThumbnailURL(),
			ContentType:  image.ContentType,
			SizeBytes:    image.SizeBytes,
			IsPrincipal:  image.IsPrincipal,
			Position:     image.Position,
		})
	}
	return resp
}

// CreateProduct handles POST /v1/products
//
//	@Summary		Create a product
//	@Description	Multipart form. Uploaded files are validated, resized and stored with a thumbnail.
//	@Tags			products
//	@Accept			mpfd
//	@Produce		json
//	@Param			name			formData	string	true	"Product name"
//	@Param			description		formData	string	false	"Description"
//	@Param			price			formData	number	true	"Price"
//	@Param			files			formData	file	false	"Image files (jpeg, png, gif)"
//	@Param			image_urls		formData	string	false	"External image URLs"
//	@Param			principal_index	formData	int		false	"Index of the principal image, uploads first then URLs"
//	@Success		201				{object}	ProductResponse
//	@Failure		400				{object}	echo.HTTPError
//	@Failure		401				{object}	echo.HTTPError
//	@Failure		503				{object}	echo.HTTPError
//	@Security		BearerAuth
//	@Router			/v1/products [post]
func (h *ProductHandlers) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()

	product, input, err := h.parseProductForm(c)
	if err != nil {
		return err
	}

	if err := h.productService.Create(ctx, product, input); err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, toProductResponse(product))
}

// GetProduct handles GET /v1/products/:id
//
//	@Summary	Get a product
//	@Tags		products
//	@Produce	json
//	@Param		id	path		string	true	"Product ID"
//	@Success	200	{object}	ProductResponse
//	@Failure	404	{object}	echo.HTTPError
//	@Router		/v1/products/{id} [get]
func (h *ProductHandlers) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := parseUUID(c.Param("id"), "product ID")
	if err != nil {
		return err
	}

	product, err := h.productService.GetByID(ctx, id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, toProductResponse(product))
}

// ListProducts handles GET /v1/products
//
//	@Summary	List products
//	@Tags		products
//	@Produce	json
//	@Param		limit	query		int	false	"Page size"	default(50)
//	@Param		offset	query		int	false	"Offset"
//	@Success	200		{array}		ProductResponse
//	@Router		/v1/products [get]
func (h *ProductHandlers) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()

	limit, offset := 50, 0
	if l := c.QueryParam("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 1000 {
			limit = parsed
		}
	}
	if o := c.QueryParam("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	products, err := h.productService.List(ctx, limit, offset)
	if err != nil {
		return mapError(err)
	}

	resp := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, toProductResponse(p))
	}
	return c.JSON(http.StatusOK, resp)
}

// UpdateProduct handles PUT /v1/products/:id
//
//	@Summary		Update a product
//	@Description	Replaces the product fields and appends any new images.
//	@Tags			products
//	@Accept			mpfd
//	@Produce		json
//	@Param			id				path		string	true	"Product ID"
//	@Param			name			formData	string	true	"Product name"
//	@Param			description		formData	string	false	"Description"
//	@Param			price			formData	number	true	"Price"
//	@Param			files			formData	file	false	"Image files (jpeg, png, gif)"
//	@Param			image_urls		formData	string	false	"External image URLs"
//	@Param			principal_index	formData	int		false	"Index of the principal image among the new ones"
//	@Success		200				{object}	ProductResponse
//	@Failure		400				{object}	echo.HTTPError
//	@Failure		404				{object}	echo.HTTPError
//	@Security		BearerAuth
//	@Router			/v1/products/{id} [put]
func (h *ProductHandlers) UpdateProduct(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := parseUUID(c.Param("id"), "product ID")
	if err != nil {
		return err
	}

	product, input, err := h.parseProductForm(c)
	if err != nil {
		return err
	}
	product.ID = id

	updated, err := h.productService.Update(ctx, product, input)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, toProductResponse(updated))
}

// DeleteProduct handles DELETE /v1/products/:id
//
//	@Summary	Delete a product and its stored images
//	@Tags		products
//	@Param		id	path	string	true	"Product ID"
//	@Success	204
//	@Failure	404	{object}	echo.HTTPError
//	@Security	BearerAuth
//	@Router		/v1/products/{id} [delete]
func (h *ProductHandlers) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := parseUUID(c.Param("id"), "product ID")
	if err != nil {
		return err
	}

	if err := h.productService.Delete(ctx, id); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteProductImage handles DELETE /v1/products/:id/images/:imageId
//
//	@Summary	Remove one image from a product
//	@Tags		products
//	@Param		id		path	string	true	"Product ID"
//	@Param		imageId	path	string	true	"Image ID"
//	@Success	204
//	@Failure	404	{object}	echo.HTTPError
//	@Security	BearerAuth
//	@Router		/v1/products/{id}/images/{imageId} [delete]
func (h *ProductHandlers) DeleteProductImage(c echo.Context) error {
	ctx := c.Request().Context()

	productID, imageID, err := parseImagePath(c)
	if err != nil {
		return err
	}

	if err := h.productService.DeleteImage(ctx, productID, imageID); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// SetPrincipalImage handles POST /v1/products/:id/images/:imageId/principal
//
//	@Summary	Make an image the principal one
//	@Tags		products
//	@Param		id		path	string	true	"Product ID"
//	@Param		imageId	path	string	true	"Image ID"
//	@Success	204
//	@Failure	404	{object}	echo.HTTPError
//	@Security	BearerAuth
//	@Router		/v1/products/{id}/images/{imageId}/principal [post]
func (h *ProductHandlers) SetPrincipalImage(c echo.Context) error {
	ctx := c.Request().Context()

	productID, imageID, err := parseImagePath(c)
	if err != nil {
		return err
	}

	if err := h.productService.SetPrincipal(ctx, productID, imageID); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ProductHandlers) parseProductForm(c echo.Context) (*models.Product, services.ImageInput, error) {
	var input services.ImageInput

	price, err := strconv.ParseFloat(strings.TrimSpace(c.FormValue("price")), 64)
	if err != nil {
		return nil, input, echo.NewHTTPError(http.StatusBadRequest, "price must be a number")
	}
	if err := models.ValidatePrice(price); err != nil {
		return nil, input, mapError(err)
	}
	product := &models.Product{
		Name:  strings.TrimSpace(c.FormValue("name")),
		Price: price,
	}
	if description := strings.TrimSpace(c.FormValue("description")); description != "" {
		product.Description = &description
	}

	if idx := strings.TrimSpace(c.FormValue("principal_index")); idx != "" {
		parsed, err := strconv.Atoi(idx)
		if err != nil {
			return nil, input, echo.NewHTTPError(http.StatusBadRequest, "principal_index must be an integer")
		}
		input.PrincipalIndex = &parsed
	}

	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			// url-encoded forms carry no files
			input.URLs = c.Request().Form["image_urls"]
			return product, input, nil
		}
		return nil, input, echo.NewHTTPError(http.StatusBadRequest, "invalid multipart form")
	}
	input.URLs = form.Value["image_urls"]

	for _, fh := range form.File["files"] {
		upload, err := h.readUpload(fh)
		if err != nil {
			return nil, input, err
		}
		input.Uploads = append(input.Uploads, upload)
	}
	return product, input, nil
}

func (h *ProductHandlers) readUpload(fh *multipart.FileHeader) (services.Upload, error) {
	if fh.Size > h.maxUploadBytes {
		return services.Upload{}, echo.NewHTTPError(http.StatusRequestEntityTooLarge,
			fmt.Sprintf("file %s exceeds the maximum size of %d bytes", fh.Filename, h.maxUploadBytes))
	}

	src, err := fh.Open()
	if err != nil {
		return services.Upload{}, echo.NewHTTPError(http.StatusBadRequest, "failed to open uploaded file")
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, h.maxUploadBytes+1))
	if err != nil {
		return services.Upload{}, echo.NewHTTPError(http.StatusBadRequest, "failed to read uploaded file")
	}
	if int64(len(data)) > h.maxUploadBytes {
		return services.Upload{}, echo.NewHTTPError(http.StatusRequestEntityTooLarge,
			fmt.Sprintf("file %s exceeds the maximum size of %d bytes", fh.Filename, h.maxUploadBytes))
	}

	return services.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func parseImagePath(c echo.Context) (uuid.UUID, uuid.UUID, error) {
	productID, err := parseUUID(c.Param("id"), "product ID")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	imageID, err := parseUUID(c.Param("imageId"), "image ID")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return productID, imageID, nil
}

func parseUUID(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+field)
	}
	return id, nil
}

// mapError turns service errors into HTTP errors. Validation messages are
// returned verbatim.
func mapError(err error) error {
	switch {
	case errors.Is(err, media.ErrRejected),
		errors.Is(err, media.ErrDecode),
		errors.Is(err, media.ErrEncode),
		errors.Is(err, models.ErrInvalidProduct),
		errors.Is(err, models.ErrInvalidImage):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrProductNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Product not found")
	case errors.Is(err, models.ErrImageNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Image not found")
	case errors.Is(err, storage.ErrIO):
		log.Error().Err(err).Msg("image storage unavailable")
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Image storage unavailable")
	default:
		log.Error().Err(err).Msg("request failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}
}
