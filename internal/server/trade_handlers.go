package server

import (
	"bigvyapaar/internal/models"
	"bigvyapaar/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type createTradeRequest struct {
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Address  string          `json:"address"`
}

type tradeRequestBody struct {
	TradeID    string `json:"trade_id"`
	ProductID  string `json:"product_id"`
	ReceiverID string `json:"receiver_id"`
}

// CreateTrade posts a bid or ask on a product for the caller.
// @Summary Post a bid or ask
// @Tags trades
// @Accept json
// @Produce json
// @Param productId path string true "Product ID"
// @Param side path string true "bid or ask"
// @Param request body object{price=number,quantity=int,address=string} true "Trade"
// @Success 201 {object} models.Product
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /trades/{productId}/{side} [post]
func (s *Server) CreateTrade(c *fiber.Ctx) error {
	side, err := models.ParseTradeSide(c.Params("side"))
	if err != nil {
		return respondError(c, err)
	}
	var req createTradeRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	ctx := c.UserContext()
	caller, err := s.stores.Users.GetByID(ctx, userID(c))
	if err != nil {
		return respondError(c, err)
	}

	product, err := s.tradeService.CreateTrade(ctx, service.CreateTradeInput{
		ProductID: c.Params("productId"),
		Side:      side,
		UserID:    caller.ID,
		Username:  caller.Username,
		Price:     req.Price,
		Quantity:  req.Quantity,
		Address:   req.Address,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// UpdateTrade patches price, quantity or address of the caller's trade.
// @Summary Update trade
// @Tags trades
// @Accept json
// @Produce json
// @Param productId path string true "Product ID"
// @Param side path string true "bid or ask"
// @Param tradeId path string true "Trade ID"
// @Param request body models.TradePatch true "Fields to change"
// @Success 200 {object} models.Product
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /trades/{productId}/{side}/{tradeId} [put]
func (s *Server) UpdateTrade(c *fiber.Ctx) error {
	side, err := models.ParseTradeSide(c.Params("side"))
	if err != nil {
		return respondError(c, err)
	}
	var patch models.TradePatch
	if ok, err := parseBody(c, &patch); !ok {
		return err
	}

	product, err := s.tradeService.UpdateTrade(c.UserContext(), service.UpdateTradeInput{
		ProductID:   c.Params("productId"),
		TradeID:     c.Params("tradeId"),
		Side:        side,
		RequesterID: userID(c),
		Patch:       patch,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(product)
}

// @Summary Delete trade
// @Tags trades
// @Produce json
// @Param productId path string true "Product ID"
// @Param side path string true "bid or ask"
// @Param tradeId path string true "Trade ID"
// @Success 200 {object} models.Product
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /trades/{productId}/{side}/{tradeId} [delete]
func (s *Server) DeleteTrade(c *fiber.Ctx) error {
	side, err := models.ParseTradeSide(c.Params("side"))
	if err != nil {
		return respondError(c, err)
	}

	product, err := s.tradeService.DeleteTrade(c.UserContext(), c.Params("productId"), c.Params("tradeId"), userID(c), side)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(product)
}

// SubmitTradeRequest asks the owner of a trade to take it up with the caller.
// @Summary Request a trade
// @Tags trades
// @Accept json
// @Produce json
// @Param request body object{trade_id=string,product_id=string,receiver_id=string} true "Trade request"
// @Success 201 {object} models.TradeRequest
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /trades/request [post]
func (s *Server) SubmitTradeRequest(c *fiber.Ctx) error {
	var req tradeRequestBody
	if ok, err := parseBody(c, &req); !ok {
		return err
	}
	if req.TradeID == "" || req.ProductID == "" {
		return badRequest(c, "trade_id and product_id are required")
	}

	request, err := s.requestService.Submit(c.UserContext(), service.SubmitRequestInput{
		SenderID:   userID(c),
		TradeID:    req.TradeID,
		ProductID:  req.ProductID,
		ReceiverID: req.ReceiverID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(request)
}

// RespondTradeRequest accepts or rejects a pending request addressed to the caller.
// @Summary Respond to a trade request
// @Description Accepting opens a chat with the requester
// @Tags trades
// @Produce json
// @Param tradeId path string true "Trade ID"
// @Param decision path string true "accept or reject"
// @Success 200 {object} service.RespondResult
// @Failure 404 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /trades/respond/{tradeId}/{decision} [post]
func (s *Server) RespondTradeRequest(c *fiber.Ctx) error {
	decision, err := service.ParseDecision(c.Params("decision"))
	if err != nil {
		return respondError(c, err)
	}

	result, err := s.requestService.Respond(c.UserContext(), userID(c), c.Params("tradeId"), decision)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// GetTradeRequests lists requests addressed to the caller and the trade ids
// the caller has requested.
// @Summary List trade requests
// @Tags trades
// @Produce json
// @Success 200 {object} object{requests=[]models.TradeRequest,sent=[]string}
// @Security BearerAuth
// @Router /trades/requests [get]
func (s *Server) GetTradeRequests(c *fiber.Ctx) error {
	ctx := c.UserContext()
	pending, err := s.requestService.Pending(ctx, userID(c))
	if err != nil {
		return respondError(c, err)
	}
	sent, err := s.requestService.Sent(ctx, userID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"requests": pending,
		"sent":     sent,
	})
}
