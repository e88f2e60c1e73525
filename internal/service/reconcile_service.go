package service

import (
	"context"

	"bigvyapaar/internal/models"
	"bigvyapaar/internal/observability"
	"bigvyapaar/internal/repository"
)

// ReconcileReport counts what a reconciliation pass repaired.
type ReconcileReport struct {
	ChatsScanned    int `json:"chats_scanned"`
	LinksRepaired   int `json:"links_repaired"`
	UsersScanned    int `json:"users_scanned"`
	MarkersRepaired int `json:"markers_repaired"`
	Failures        int `json:"failures"`
}

// Reconciler repairs documents left behind by partially applied workflows.
type Reconciler struct {
	userRepo repository.UserRepository
	chatRepo repository.ChatRepository
	links    *ChatEstablisher
}

// NewReconciler returns a new Reconciler.
func NewReconciler(userRepo repository.UserRepository, chatRepo repository.ChatRepository) *Reconciler {
	return &Reconciler{
		userRepo: userRepo,
		chatRepo: chatRepo,
		links:    NewChatEstablisher(userRepo, chatRepo),
	}
}

// ReconcileChats makes sure both participants of every chat link to it.
func (r *Reconciler) ReconcileChats(ctx context.Context, report *ReconcileReport) error {
	chats, err := r.chatRepo.List(ctx)
	if err != nil {
		return err
	}
	for _, chat := range chats {
		report.ChatsScanned++
		pairs := []struct {
			userID string
			link   models.ChatLink
		}{
			{chat.User1.ID, models.ChatLink{ChatID: chat.ID, PartnerID: chat.User2.ID, PartnerName: chat.User2.Username, IsUser1: true}},
			{chat.User2.ID, models.ChatLink{ChatID: chat.ID, PartnerID: chat.User1.ID, PartnerName: chat.User1.Username, IsUser1: false}},
		}
		for _, p := range pairs {
			added, err := r.links.addLink(ctx, p.userID, p.link)
			if err != nil {
				report.Failures++
				observability.Logger.WarnContext(ctx, "reconcile: chat link not repaired",
					"chat_id", chat.ID, "user_id", p.userID, "error", err)
				continue
			}
			if added {
				report.LinksRepaired++
			}
		}
	}
	return nil
}

// ReconcileRequests makes sure every pending request is recorded as sent on
// its sender.
func (r *Reconciler) ReconcileRequests(ctx context.Context, report *ReconcileReport) error {
	users, err := r.userRepo.List(ctx)
	if err != nil {
		return err
	}
	for _, u := range users {
		report.UsersScanned++
		for _, req := range u.Requests {
			added := false
			_, err := r.userRepo.Update(ctx, req.UserID, func(sender *models.User) error {
				added = false
				if sender.HasSentRequest(req.TradeID) {
					return repository.ErrNoChange
				}
				sender.TradeRequestSent = append(sender.TradeRequestSent, req.TradeID)
				added = true
				return nil
			})
			if err != nil {
				report.Failures++
				observability.Logger.WarnContext(ctx, "reconcile: sent marker not repaired",
					"trade_id", req.TradeID, "sender_id", req.UserID, "error", err)
				continue
			}
			if added {
				report.MarkersRepaired++
			}
		}
	}
	return nil
}

// Run performs every reconciliation pass.
func (r *Reconciler) Run(ctx context.Context) (*ReconcileReport, error) {
	report := &ReconcileReport{}
	if err := r.ReconcileChats(ctx, report); err != nil {
		return report, err
	}
	if err := r.ReconcileRequests(ctx, report); err != nil {
		return report, err
	}
	return report, nil
}
