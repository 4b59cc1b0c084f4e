package api

import (
	"context"        // Context for Redis operations
	"errors"         // Error matching
	"fmt"            // Cache key formatting
	"io"             // Reading uploads
	"math"           // Non-finite price checks
	"mime/multipart" // Uploaded file headers
	"net/http"       // HTTP status codes
	"strconv"        // String conversion
	"strings"        // String manipulation
	"time"           // Time durations

	"artisanhub/internal/domain"     // Importing domain models
	"artisanhub/internal/middleware" // Context helpers
	"artisanhub/internal/notify"     // Event names
	"artisanhub/internal/storage"    // Image storage
	"artisanhub/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

const (
	productListPrefix = "products:list:" // Every listing page lives under this prefix
	productItemPrefix = "products:item:" // One entry per product detail
	productListTTL    = 60 * time.Second
	defaultPageSize   = 20
	maxPageSize       = 100
	maxProductImages  = 10
	maxImageBytes     = 10 << 20
)

// ImageEnhancer rewrites product photos before they are stored
type ImageEnhancer interface {
	EnhanceImage(ctx context.Context, data []byte, mimeType string) ([]byte, error)
}

// ProductListResponse is one page of products
type ProductListResponse struct {
	Products []domain.Product `json:"products"`
	Page     int              `json:"page"`
	Limit    int              `json:"limit"`
	Total    int64            `json:"total"`
	Cached   bool             `json:"cached"`
}

// UpdateProductRequest carries the fields to change; absent fields are kept
type UpdateProductRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Category    *string  `json:"category"`
	Story       *string  `json:"story"`
	Stock       *int     `json:"stock"`
}

func orderedImages(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}

func positiveQueryInt(c *gin.Context, key string, fallback, max int) int {
	if v, err := strconv.Atoi(c.Query(key)); err == nil && v > 0 && v <= max {
		return v
	}
	return fallback
}

func productItemKey(id uint) string {
	return productItemPrefix + strconv.FormatUint(uint64(id), 10)
}

// invalidateProductCache drops every listing page and, when id is set, that product's detail entry
func invalidateProductCache(ctx context.Context, rdb *redis.Client, id uint) {
	if err := utils.DeleteCachePrefix(ctx, rdb, productListPrefix); err != nil {
		logrus.WithField("error", err.Error()).Warn("Failed to invalidate product cache")
	}
	if id == 0 {
		return
	}
	if err := utils.DeleteCache(ctx, rdb, productItemKey(id)); err != nil {
		logrus.WithFields(logrus.Fields{"product_id": id, "error": err.Error()}).Warn("Failed to invalidate product cache")
	}
}

func currentSeller(c *gin.Context) (*domain.User, bool) {
	v, exists := c.Get(middleware.CtxUser)
	if !exists {
		return nil, false
	}
	user, ok := v.(*domain.User)
	return user, ok
}

// ListProductsHandler returns a page of products, optionally filtered by seller and category
func ListProductsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var sellerID uint64
		if raw := c.Query("sellerId"); raw != "" {
			v, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid sellerId"})
				return
			}
			sellerID = v
		}
		category := strings.TrimSpace(c.Query("category"))
		page := positiveQueryInt(c, "page", 1, 1<<20)
		limit := positiveQueryInt(c, "limit", defaultPageSize, maxPageSize)

		ctx := c.Request.Context()
		cacheKey := fmt.Sprintf("%sseller=%d:category=%s:page=%d:limit=%d", productListPrefix, sellerID, category, page, limit)
		var cached ProductListResponse
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			cached.Cached = true
			c.JSON(http.StatusOK, cached)
			return
		}

		filter := func(q *gorm.DB) *gorm.DB {
			if sellerID != 0 {
				q = q.Where("seller_id = ?", sellerID)
			}
			if category != "" {
				q = q.Where("category = ?", category)
			}
			return q
		}
		var total int64 // Total matching products
		if err := db.Model(&domain.Product{}).Scopes(filter).Count(&total).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to count products"})
			return
		}
		products := []domain.Product{}
		if err := db.Scopes(filter).
			Preload("Images", orderedImages).
			Order("created_at desc, id desc").
			Offset((page - 1) * limit).
			Limit(limit).
			Find(&products).Error; err != nil {
			logrus.WithField("error", err.Error()).Error("Failed to fetch products")
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch products"})
			return
		}
		for i := range products {
			products[i].Photo = products[i].FirstImageURL()
			products[i].Images = nil // Listings only carry the cover photo
		}
		resp := ProductListResponse{Products: products, Page: page, Limit: limit, Total: total}
		_ = utils.SetCache(ctx, rdb, cacheKey, resp, productListTTL) // Cache the page for 60 seconds
		c.JSON(http.StatusOK, resp)
	}
}

func loadProduct(c *gin.Context, db *gorm.DB) (*domain.Product, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid product id"})
		return nil, false
	}
	var product domain.Product
	if err := db.Preload("Images", orderedImages).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Product not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch product"})
		return nil, false
	}
	product.Photo = product.FirstImageURL()
	return &product, true
}

// GetProductHandler returns one product with all of its images
func GetProductHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if id, err := strconv.ParseUint(c.Param("id"), 10, 64); err == nil {
			var cached domain.Product // Try the detail cache first
			if found, err := utils.GetCache(ctx, rdb, productItemKey(uint(id)), &cached); err == nil && found {
				c.JSON(http.StatusOK, gin.H{"product": cached, "cached": true})
				return
			}
		}
		product, ok := loadProduct(c, db)
		if !ok {
			return
		}
		_ = utils.SetCache(ctx, rdb, productItemKey(product.ID), product, productListTTL) // Cache the product for 60 seconds
		c.JSON(http.StatusOK, gin.H{"product": product, "cached": false})
	}
}

type pendingImage struct {
	filename string
	mime     string
	data     []byte
}

func readImage(fh *multipart.FileHeader) (pendingImage, error) {
	_, mime, err := storage.NormalizeExt(fh.Filename)
	if err != nil {
		return pendingImage{}, fmt.Errorf("%w: %s", err, fh.Filename)
	}
	if fh.Size > maxImageBytes {
		return pendingImage{}, fmt.Errorf("image too large: %s", fh.Filename)
	}
	f, err := fh.Open()
	if err != nil {
		return pendingImage{}, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxImageBytes+1))
	if err != nil {
		return pendingImage{}, err
	}
	return pendingImage{filename: fh.Filename, mime: mime, data: data}, nil
}

// enhance returns the enhanced image, or the original when enhancement is off or fails
func enhance(ctx context.Context, enhancer ImageEnhancer, img pendingImage) []byte {
	if enhancer == nil {
		return img.data
	}
	out, err := enhancer.EnhanceImage(ctx, img.data, img.mime)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"file":  img.filename,
			"error": err.Error(),
		}).Warn("Image enhancement failed, storing original")
		return img.data
	}
	return out
}

// CreateProductHandler accepts a multipart product with up to ten images
func CreateProductHandler(db *gorm.DB, rdb *redis.Client, store storage.ImageStore, enhancer ImageEnhancer, events Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentSeller(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		form, err := c.MultipartForm()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid multipart form"})
			return
		}
		if raw := strings.TrimSpace(c.PostForm("seller_id")); raw != "" {
			if id, err := strconv.ParseUint(raw, 10, 64); err != nil || uint(id) != user.ID {
				c.JSON(http.StatusForbidden, gin.H{"message": "You can only add products to your own shop"})
				return
			}
		}
		if user.Seller == nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Seller not found"})
			return
		}

		product := domain.Product{
			SellerID:    user.ID,
			Name:        strings.TrimSpace(c.PostForm("name")),
			Description: c.PostForm("description"),
			Category:    strings.TrimSpace(c.PostForm("category")),
			Story:       c.PostForm("story"),
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(c.PostForm("price")), 64)
		if product.Name == "" || err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Name and price are required"})
			return
		}
		product.Price = price
		if raw := strings.TrimSpace(c.PostForm("stock")); raw != "" {
			stock, err := strconv.Atoi(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"message": "Stock must be a whole number"})
				return
			}
			product.Stock = stock
		}
		if msg := validateProduct(&product); msg != "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": msg})
			return
		}

		files := form.File["images"]
		if len(files) > maxProductImages {
			c.JSON(http.StatusBadRequest, gin.H{"message": fmt.Sprintf("At most %d images allowed", maxProductImages)})
			return
		}
		pending := make([]pendingImage, 0, len(files))
		for _, fh := range files {
			img, err := readImage(fh)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
				return
			}
			pending = append(pending, img)
		}

		ctx := c.Request.Context()
		stored := make([]storage.StoredImage, 0, len(pending))
		rollback := func() { // Best effort cleanup of already stored files
			for _, s := range stored {
				_ = store.Delete(context.Background(), s.PublicID)
			}
		}
		for _, img := range pending {
			s, err := store.Save(ctx, img.filename, enhance(ctx, enhancer, img))
			if err != nil {
				rollback()
				logrus.WithFields(logrus.Fields{
					"seller_id": user.ID,
					"backend":   store.Backend(),
					"error":     err.Error(),
				}).Error("Failed to store image")
				c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to store image"})
				return
			}
			stored = append(stored, s)
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Omit("Images").Create(&product).Error; err != nil {
				return err
			}
			for _, s := range stored {
				img := domain.ProductImage{ProductID: product.ID, URL: s.URL, PublicID: s.PublicID}
				if err := tx.Create(&img).Error; err != nil {
					return err
				}
				product.Images = append(product.Images, img)
			}
			return nil
		})
		if err != nil {
			rollback()
			logrus.WithFields(logrus.Fields{
				"seller_id": user.ID,
				"error":     err.Error(),
			}).Error("Failed to create product")
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create product"})
			return
		}

		logrus.WithFields(logrus.Fields{
			"product_id":  product.ID,
			"seller_id":   user.ID,
			"image_count": len(product.Images),
		}).Info("Product created")
		invalidateProductCache(ctx, rdb, 0)
		events.Publish(notify.EventProductCreated, gin.H{
			"productId":  product.ID,
			"sellerId":   user.ID,
			"name":       product.Name,
			"price":      product.Price,
			"category":   product.Category,
			"imageCount": len(product.Images),
		})
		c.JSON(http.StatusCreated, gin.H{
			"message":    "Product uploaded successfully",
			"productId":  product.ID,
			"imageCount": len(product.Images),
			"firstImage": product.FirstImageURL(),
		})
	}
}

func validateProduct(p *domain.Product) string {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return "Name is required"
	case math.IsNaN(p.Price) || math.IsInf(p.Price, 0) || p.Price <= 0: // NaN and Inf cannot be encoded as JSON
		return "Price must be greater than zero"
	case p.Stock < 0:
		return "Stock cannot be negative"
	}
	return ""
}

// UploadImageHandler stores a single image and returns its URL
func UploadImageHandler(store storage.ImageStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		fh, err := c.FormFile("image")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "No file uploaded"})
			return
		}
		img, err := readImage(fh)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		s, err := store.Save(c.Request.Context(), img.filename, img.data)
		if err != nil {
			logrus.WithFields(logrus.Fields{"backend": store.Backend(), "error": err.Error()}).Error("Failed to store image")
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to store image"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "File uploaded successfully", "fileUrl": s.URL})
	}
}

// UpdateProductHandler applies a partial update to a product the caller owns
func UpdateProductHandler(db *gorm.DB, rdb *redis.Client, events Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentSeller(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		var req UpdateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request"})
			return
		}
		product, ok := loadProduct(c, db)
		if !ok {
			return
		}
		if product.SellerID != user.ID {
			c.JSON(http.StatusForbidden, gin.H{"message": "You can only modify your own products"})
			return
		}

		updates := map[string]any{}
		if req.Name != nil {
			product.Name = strings.TrimSpace(*req.Name)
			updates["name"] = product.Name
		}
		if req.Description != nil {
			product.Description = *req.Description
			updates["description"] = product.Description
		}
		if req.Price != nil {
			product.Price = *req.Price
			updates["price"] = product.Price
		}
		if req.Category != nil {
			product.Category = strings.TrimSpace(*req.Category)
			updates["category"] = product.Category
		}
		if req.Story != nil {
			product.Story = *req.Story
			updates["story"] = product.Story
		}
		if req.Stock != nil {
			product.Stock = *req.Stock
			updates["stock"] = product.Stock
		}
		if len(updates) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"message": "No fields to update"})
			return
		}
		if msg := validateProduct(product); msg != "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": msg})
			return
		}
		if err := db.Model(&domain.Product{ID: product.ID}).Updates(updates).Error; err != nil {
			logrus.WithFields(logrus.Fields{"product_id": product.ID, "error": err.Error()}).Error("Failed to update product")
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update product"})
			return
		}
		// Reload so the response carries the stored updatedAt
		var fresh domain.Product
		if err := db.Preload("Images", orderedImages).First(&fresh, product.ID).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch product"})
			return
		}
		fresh.Photo = fresh.FirstImageURL()
		product = &fresh

		invalidateProductCache(c.Request.Context(), rdb, product.ID)
		events.Publish(notify.EventProductUpdated, gin.H{"productId": product.ID, "sellerId": user.ID, "fields": updates})
		c.JSON(http.StatusOK, gin.H{"message": "Product updated successfully", "product": product})
	}
}

// DeleteProductHandler removes a product the caller owns together with its images
func DeleteProductHandler(db *gorm.DB, rdb *redis.Client, store storage.ImageStore, events Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentSeller(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		product, ok := loadProduct(c, db)
		if !ok {
			return
		}
		if product.SellerID != user.ID {
			c.JSON(http.StatusForbidden, gin.H{"message": "You can only delete your own products"})
			return
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("product_id = ?", product.ID).Delete(&domain.ProductImage{}).Error; err != nil {
				return err
			}
			return tx.Delete(&domain.Product{}, product.ID).Error
		})
		if err != nil {
			logrus.WithFields(logrus.Fields{"product_id": product.ID, "error": err.Error()}).Error("Failed to delete product")
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to delete product"})
			return
		}
		for _, img := range product.Images {
			if err := store.Delete(c.Request.Context(), img.PublicID); err != nil {
				logrus.WithFields(logrus.Fields{
					"product_id": product.ID,
					"public_id":  img.PublicID,
					"error":      err.Error(),
				}).Warn("Failed to delete stored image")
			}
		}

		logrus.WithFields(logrus.Fields{"product_id": product.ID, "seller_id": user.ID}).Info("Product deleted")
		invalidateProductCache(c.Request.Context(), rdb, product.ID)
		events.Publish(notify.EventProductDeleted, gin.H{"productId": product.ID, "sellerId": user.ID})
		c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
	}
}
