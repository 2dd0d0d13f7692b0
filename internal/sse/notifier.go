package sse

import (
	"github.com/agrolink/agrolink_api/internal/models"
)

// HubNotifier pushes domain events to the admin dashboard through a Hub.
type HubNotifier struct {
	hub *Hub
}

func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) NotifyProductListed(p *models.Product) {
	if n.hub.ClientCount() == 0 {
		return
	}
	n.hub.Broadcast(string(models.EventProductListed), models.NewProductListedEvent(p))
}

func (n *HubNotifier) NotifyUserRegistered(u *models.User) {
	if n.hub.ClientCount() == 0 {
		return
	}
	n.hub.Broadcast(string(models.EventUserRegistered), models.NewUserRegisteredEvent(u))
}

// NopNotifier discards events.
type NopNotifier struct{}

func (NopNotifier) NotifyProductListed(*models.Product) {}
func (NopNotifier) NotifyUserRegistered(*models.User)   {}
