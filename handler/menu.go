package handler

import (
	"errors"
	"mall_manager/constants"
	"mall_manager/database"
	"mall_manager/helper"
	"mall_manager/model"
	"mall_manager/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/jinzhu/copier"
	"gorm.io/gorm"
)

func CreateMenuCategory(c *fiber.Ctx) error {
	restaurantId, err := c.ParamsInt("restaurantId")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.DATA_INPUT_IS_NOT_NUMBER, err)
	}
	input := c.Locals("input").(model.CreateMenuCategoryInput)

	claim, _ := helper.GetInfoUserFromToken(c)
	if !canManageRestaurant(claim, uint(restaurantId)) {
		return utils.ErrorResponse(c, fiber.StatusForbidden, constants.FORBIDDEN, nil)
	}

	category := model.MenuCategory{
		RestaurantId: uint(restaurantId),
		Name:         input.Name,
		SortOrder:    input.SortOrder,
	}
	if err := database.DB.Create(&category).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Failed to create category", err)
	}

	return utils.SuccessResponse(c, fiber.StatusCreated, category)
}

func CreateMenuItem(c *fiber.Ctx) error {
	input := c.Locals("input").(model.CreateMenuItemInput)
	category := c.Locals("category").(model.MenuCategory)

	claim, _ := helper.GetInfoUserFromToken(c)
	if !canManageRestaurant(claim, category.RestaurantId) {
		return utils.ErrorResponse(c, fiber.StatusForbidden, constants.FORBIDDEN, nil)
	}

	var item model.MenuItem
	copier.Copy(&item, &input)
	item.RestaurantId = category.RestaurantId
	item.IsAvailable = true

	if err := database.DB.Create(&item).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Failed to create menu item", err)
	}

	return utils.SuccessResponse(c, fiber.StatusCreated, item)
}

func EditMenuItem(c *fiber.Ctx) error {
	itemId := c.Locals("inputId").(int)
	input := c.Locals("input").(model.EditMenuItemInput)

	var item model.MenuItem
	if err := database.DB.First(&item, itemId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Menu item not found", err)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}

	claim, _ := helper.GetInfoUserFromToken(c)
	if !canManageRestaurant(claim, item.RestaurantId) {
		return utils.ErrorResponse(c, fiber.StatusForbidden, constants.FORBIDDEN, nil)
	}

	copier.CopyWithOption(&item, &input, copier.Option{IgnoreEmpty: true})
	if input.IsAvailable != nil {
		item.IsAvailable = *input.IsAvailable
	}
	if err := database.DB.Save(&item).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update menu item", err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, item)
}

func DeleteMenuItem(c *fiber.Ctx) error {
	itemId := c.Locals("inputId").(int)

	var item model.MenuItem
	if err := database.DB.First(&item, itemId).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Menu item not found", err)
	}

	claim, _ := helper.GetInfoUserFromToken(c)
	if !canManageRestaurant(claim, item.RestaurantId) {
		return utils.ErrorResponse(c, fiber.StatusForbidden, constants.FORBIDDEN, nil)
	}

	if err := database.DB.Delete(&item).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete menu item", err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"deleted": item.ID})
}

// GetMenu is the public menu of one restaurant, grouped by category.
func GetMenu(c *fiber.Ctx) error {
	restaurantId, err := c.ParamsInt("restaurantId")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.DATA_INPUT_IS_NOT_NUMBER, err)
	}

	var categories []model.MenuCategory
	if err := database.DB.
		Preload("Items", "is_available IS true").
		Where("restaurant_id = ?", restaurantId).
		Order("sort_order").
		Find(&categories).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, categories)
}
