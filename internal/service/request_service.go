package service

import (
	"context"
	"time"

	"bigvyapaar/internal/models"
	"bigvyapaar/internal/observability"
	"bigvyapaar/internal/repository"

	"github.com/google/uuid"
)

// Decision is the receiver's answer to a trade request.
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

// ParseDecision validates a decision taken from a route.
func ParseDecision(s string) (Decision, error) {
	switch Decision(s) {
	case DecisionAccept, DecisionReject:
		return Decision(s), nil
	}
	return "", models.NewValidationError("Decision must be accept or reject")
}

// SubmitRequestInput identifies the trade a sender wants to take up.
type SubmitRequestInput struct {
	SenderID  string
	TradeID   string
	ProductID string
	// ReceiverID defaults to the trade's owner when empty.
	ReceiverID string
}

// RespondResult describes what a response did.
type RespondResult struct {
	Decision Decision         `json:"decision"`
	TradeID  string           `json:"trade_id"`
	Chat     *EstablishedChat `json:"chat,omitempty"`
}

// RequestService runs the trade request workflow stored on user documents.
type RequestService struct {
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	chats       *ChatEstablisher
}

// NewRequestService returns a new RequestService.
func NewRequestService(productRepo repository.ProductRepository, userRepo repository.UserRepository, chats *ChatEstablisher) *RequestService {
	return &RequestService{
		productRepo: productRepo,
		userRepo:    userRepo,
		chats:       chats,
	}
}

// Submit records a trade request on the receiver and marks the trade as
// requested on the sender. The two writes are separate documents; both are
// idempotent so a failed submit can simply be retried.
func (s *RequestService) Submit(ctx context.Context, in SubmitRequestInput) (*models.TradeRequest, error) {
	ctx, span := observability.StartServiceSpan(ctx, "RequestService", "Submit")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	var product *models.Product
	if product, err = s.productRepo.GetByID(ctx, in.ProductID); err != nil {
		return nil, err
	}

	var sender *models.User
	if sender, err = s.userRepo.GetByID(ctx, in.SenderID); err != nil {
		return nil, err
	}
	if sender.HasSentRequest(in.TradeID) {
		err = models.NewConflictError("Trade request already sent")
		return nil, err
	}

	trade, ok := product.FindTrade(in.TradeID)
	if !ok {
		err = models.NewNotFoundError("Trade not found")
		return nil, err
	}

	receiverID := in.ReceiverID
	if receiverID == "" {
		receiverID = trade.UserID
	}

	request := models.TradeRequest{
		ID:          uuid.NewString(),
		TradeID:     trade.ID,
		ProductID:   product.ID,
		ProductName: product.ProductName,
		Price:       trade.Price,
		Quantity:    trade.Quantity,
		Address:     trade.Address,
		UserID:      sender.ID,
		Username:    sender.Username,
		CreatedAt:   time.Now().UTC(),
	}

	if _, err = s.userRepo.Update(ctx, receiverID, func(u *models.User) error {
		for _, r := range u.Requests {
			if r.TradeID == request.TradeID && r.UserID == request.UserID {
				// left over from an earlier partial submit
				request = r
				return repository.ErrNoChange
			}
		}
		u.Requests = append(u.Requests, request)
		return nil
	}); err != nil {
		return nil, err
	}

	if _, err = s.userRepo.Update(ctx, sender.ID, func(u *models.User) error {
		if u.HasSentRequest(request.TradeID) {
			return models.NewConflictError("Trade request already sent")
		}
		u.TradeRequestSent = append(u.TradeRequestSent, request.TradeID)
		return nil
	}); err != nil {
		if models.ErrorCode(err) == models.CodeConflict {
			return nil, err
		}
		observability.SagaPartialFailures.WithLabelValues("submit_request").Inc()
		observability.Logger.ErrorContext(ctx, "trade request partially applied",
			"trade_id", request.TradeID, "sender_id", sender.ID, "receiver_id", receiverID, "error", err)
		err = models.NewUpstreamError("Trade request partially applied, retry to complete it", err)
		return nil, err
	}

	return &request, nil
}

// Respond accepts or rejects the caller's pending request for tradeID.
// Accepting establishes a chat with the requester before the request is removed.
func (s *RequestService) Respond(ctx context.Context, userID, tradeID string, decision Decision) (*RespondResult, error) {
	ctx, span := observability.StartServiceSpan(ctx, "RequestService", "Respond")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	var user *models.User
	if user, err = s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	request, ok := user.FindRequest(tradeID)
	if !ok {
		err = models.NewNotFoundError("Trade request not found")
		return nil, err
	}

	result := &RespondResult{Decision: decision, TradeID: tradeID}
	switch decision {
	case DecisionReject:
	case DecisionAccept:
		if result.Chat, err = s.chats.Establish(ctx, user, *request); err != nil {
			return nil, err
		}
	default:
		err = models.NewValidationError("Decision must be accept or reject")
		return nil, err
	}

	// The request is cleared even when the chat was already established, so
	// the responder is not left holding a request that can never complete.
	if _, err = s.userRepo.Update(ctx, userID, func(u *models.User) error {
		if !u.RemoveRequests(tradeID) {
			return repository.ErrNoChange
		}
		return nil
	}); err != nil {
		if decision == DecisionAccept {
			observability.SagaPartialFailures.WithLabelValues("accept_request").Inc()
			err = models.NewUpstreamError("Chat created but the request could not be cleared", err)
		}
		return nil, err
	}

	return result, nil
}

// Pending returns the requests addressed to userID.
func (s *RequestService) Pending(ctx context.Context, userID string) ([]models.TradeRequest, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Requests == nil {
		return []models.TradeRequest{}, nil
	}
	return user.Requests, nil
}

// Sent returns the trade ids userID has requested.
func (s *RequestService) Sent(ctx context.Context, userID string) ([]string, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.TradeRequestSent == nil {
		return []string{}, nil
	}
	return user.TradeRequestSent, nil
}
