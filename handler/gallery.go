package handler

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"log"
	"mall_manager/constants"
	"mall_manager/database"
	"mall_manager/helper"
	"mall_manager/model"
	"mall_manager/utils"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gofiber/fiber/v2"
)

// GenerateSignature signs direct-to-cloudinary upload params for the admin
// and restaurant dashboards.
func GenerateSignature(c *fiber.Ctx) error {
	claim, _ := helper.GetInfoUserFromToken(c)
	if claim.Role != constants.RoleAdmin && claim.Role != constants.RoleRestaurant {
		return utils.ErrorResponse(c, fiber.StatusForbidden, constants.FORBIDDEN, nil)
	}

	type SigParams struct {
		Folder       string `json:"folder"`
		PublicID     string `json:"public_id"`
		ResourceType string `json:"resource_type"` // parsed but not signed
	}

	var params SigParams
	if err := c.BodyParser(&params); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.INVALID_INPUT, err)
	}

	timestamp := time.Now().Unix()
	timestampStr := fmt.Sprintf("%d", timestamp)

	paramMap := make(map[string]string)
	if params.Folder != "" {
		paramMap["folder"] = params.Folder
	}
	if params.PublicID != "" {
		paramMap["public_id"] = params.PublicID
	}
	paramMap["timestamp"] = timestampStr

	keys := make([]string, 0, len(paramMap))
	for k := range paramMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// Cloudinary signs the raw sorted query string, no URL encoding.
	var stringToSign strings.Builder
	for i, k := range keys {
		if i > 0 {
			stringToSign.WriteString("&")
		}
		stringToSign.WriteString(k)
		stringToSign.WriteString("=")
		stringToSign.WriteString(paramMap[k])
	}
	stringToSign.WriteString(os.Getenv("CLOUDINARY_API_SECRET"))

	h := sha1.New()
	h.Write([]byte(stringToSign.String()))
	signature := hex.EncodeToString(h.Sum(nil))

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"signature": signature,
		"timestamp": timestamp,
		"apiKey":    os.Getenv("CLOUDINARY_API_KEY"),
		"cloudName": os.Getenv("CLOUDINARY_CLOUD_NAME"),
	})
}

// UploadGalleryImage accepts a multipart file and pushes it to cloudinary.
func UploadGalleryImage(c *fiber.Ctx) error {
	restaurantId, err := c.ParamsInt("restaurantId")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.DATA_INPUT_IS_NOT_NUMBER, err)
	}

	claim, _ := helper.GetInfoUserFromToken(c)
	if !canManageRestaurant(claim, uint(restaurantId)) {
		return utils.ErrorResponse(c, fiber.StatusForbidden, constants.FORBIDDEN, nil)
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Missing image file", err)
	}

	f, err := fileHeader.Open()
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Cannot read image file", err)
	}
	defer f.Close()

	cld := helper.InitCloudinary()
	uploadResult, err := cld.Upload.Upload(c.Context(), f, uploader.UploadParams{
		Folder: fmt.Sprintf("restaurants/%d/gallery", restaurantId),
	})
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadGateway, "Upload failed", err)
	}

	image := model.GalleryImage{
		RestaurantId: uint(restaurantId),
		Url:          uploadResult.SecureURL,
		PublicId:     uploadResult.PublicID,
		Caption:      utils.StringPtr(c.FormValue("caption")),
	}
	if err := database.DB.Create(&image).Error; err != nil {
		// keep storage consistent with the DB when the row fails
		cld.Upload.Destroy(context.Background(), uploader.DestroyParams{PublicID: uploadResult.PublicID})
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusCreated, image)
}

// AddGalleryImage records an image the dashboard already uploaded straight
// to cloudinary with a signature from GenerateSignature.
func AddGalleryImage(c *fiber.Ctx) error {
	restaurantId, err := c.ParamsInt("restaurantId")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.DATA_INPUT_IS_NOT_NUMBER, err)
	}

	claim, _ := helper.GetInfoUserFromToken(c)
	if !canManageRestaurant(claim, uint(restaurantId)) {
		return utils.ErrorResponse(c, fiber.StatusForbidden, constants.FORBIDDEN, nil)
	}

	input := c.Locals("input").(model.AddGalleryImageInput)
	image := model.GalleryImage{
		RestaurantId: uint(restaurantId),
		Url:          input.Url,
		PublicId:     input.PublicId,
		Caption:      input.Caption,
	}
	if err := database.DB.Create(&image).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusCreated, image)
}

func DeleteGalleryImage(c *fiber.Ctx) error {
	imageId := c.Locals("inputId").(int)

	var image model.GalleryImage
	if err := database.DB.First(&image, imageId).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Image not found", err)
	}

	claim, _ := helper.GetInfoUserFromToken(c)
	if !canManageRestaurant(claim, image.RestaurantId) {
		return utils.ErrorResponse(c, fiber.StatusForbidden, constants.FORBIDDEN, nil)
	}

	cld := helper.InitCloudinary()
	if _, err := cld.Upload.Destroy(context.Background(), uploader.DestroyParams{PublicID: image.PublicId}); err != nil {
		log.Printf("failed to destroy cloudinary asset %s: %v", image.PublicId, err)
	}

	if err := database.DB.Delete(&image).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"deleted": image.ID})
}
