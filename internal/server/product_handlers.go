package server

import (
	"bigvyapaar/internal/models"
	"bigvyapaar/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createProductRequest struct {
	ProductName string `json:"product_name"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// @Summary List products
// @Tags products
// @Produce json
// @Success 200 {array} models.Product
// @Security BearerAuth
// @Router /products [get]
func (s *Server) GetProducts(c *fiber.Ctx) error {
	products, err := s.productService.ListProducts(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(products)
}

// @Summary Get product
// @Tags products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} models.Product
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /products/{id} [get]
func (s *Server) GetProduct(c *fiber.Ctx) error {
	product, err := s.productService.GetProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(product)
}

// CreateProduct lists a new product owned by the caller.
// @Summary Create product
// @Tags products
// @Accept json
// @Produce json
// @Param request body object{product_name=string,category=string,description=string} true "Product"
// @Success 201 {object} models.Product
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /products [post]
func (s *Server) CreateProduct(c *fiber.Ctx) error {
	var req createProductRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	product, err := s.productService.CreateProduct(c.UserContext(), service.CreateProductInput{
		ProductName: req.ProductName,
		Category:    req.Category,
		Description: req.Description,
		OwnerID:     userID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// @Summary Update product
// @Description Only the product's creator may edit it
// @Tags products
// @Accept json
// @Produce json
// @Param id path string true "Product ID"
// @Param request body models.ProductPatch true "Fields to change"
// @Success 200 {object} models.Product
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /products/{id} [put]
func (s *Server) UpdateProduct(c *fiber.Ctx) error {
	var patch models.ProductPatch
	if ok, err := parseBody(c, &patch); !ok {
		return err
	}

	product, err := s.productService.UpdateProduct(c.UserContext(), c.Params("id"), userID(c), patch)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(product)
}

// @Summary Delete product
// @Tags products
// @Param id path string true "Product ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /products/{id} [delete]
func (s *Server) DeleteProduct(c *fiber.Ctx) error {
	if err := s.productService.DeleteProduct(c.UserContext(), c.Params("id"), userID(c)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
