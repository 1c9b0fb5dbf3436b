package content

import (
	"contentledger/core/events"
	"contentledger/core/types"
)

const (
	// EventTypeContentRegistered is emitted when content is registered or
	// re-registered under an existing id.
	EventTypeContentRegistered = "content.registered"
	// EventTypeContentPurchased is emitted on every successful purchase.
	EventTypeContentPurchased = "content.purchased"
	// EventTypePurchaseTerminated is emitted when a buyer ends a purchase.
	EventTypePurchaseTerminated = "content.purchase_terminated"
	// EventTypeEarningsWithdrawn is emitted when a creator collects earnings.
	EventTypeEarningsWithdrawn = "content.earnings_withdrawn"
	// EventTypeCommissionUpdated is emitted when the platform rate changes.
	EventTypeCommissionUpdated = "content.commission_updated"
	// EventTypeAdminTransferred is emitted when administration moves.
	EventTypeAdminTransferred = "content.admin_transferred"
)

type eventEnvelope struct {
	evt *types.Event
}

func (e eventEnvelope) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e eventEnvelope) Event() *types.Event { return e.evt }

// WrapEvent converts a raw event payload into the emitter-friendly envelope.
func WrapEvent(evt *types.Event) events.Event { return eventEnvelope{evt: evt} }

// ContentRegisteredEvent returns the payload announcing a registration.
func ContentRegisteredEvent(contentID string, creator string, price string) *types.Event {
	return &types.Event{
		Type: EventTypeContentRegistered,
		Attributes: map[string]string{
			"contentId": contentID,
			"creator":   creator,
			"price":     price,
		},
	}
}

// ContentPurchasedEvent returns the payload for a completed purchase.
func ContentPurchasedEvent(contentID string, buyer string, price string, fee string, earnings string, endBlock string) *types.Event {
	return &types.Event{
		Type: EventTypeContentPurchased,
		Attributes: map[string]string{
			"contentId": contentID,
			"buyer":     buyer,
			"price":     price,
			"fee":       fee,
			"earnings":  earnings,
			"endBlock":  endBlock,
		},
	}
}

// PurchaseTerminatedEvent captures a buyer-initiated termination.
func PurchaseTerminatedEvent(contentID string, buyer string, endBlock string) *types.Event {
	return &types.Event{
		Type: EventTypePurchaseTerminated,
		Attributes: map[string]string{
			"contentId": contentID,
			"buyer":     buyer,
			"endBlock":  endBlock,
		},
	}
}

// EarningsWithdrawnEvent captures a creator collecting their balance.
func EarningsWithdrawnEvent(creator string, amount string) *types.Event {
	return &types.Event{
		Type: EventTypeEarningsWithdrawn,
		Attributes: map[string]string{
			"creator": creator,
			"amount":  amount,
		},
	}
}

// CommissionUpdatedEvent captures a platform rate change.
func CommissionUpdatedEvent(admin string, permille string) *types.Event {
	return &types.Event{
		Type: EventTypeCommissionUpdated,
		Attributes: map[string]string{
			"admin":    admin,
			"permille": permille,
		},
	}
}

// AdminTransferredEvent captures the handover of administrative control.
func AdminTransferredEvent(previous string, next string) *types.Event {
	return &types.Event{
		Type: EventTypeAdminTransferred,
		Attributes: map[string]string{
			"previous": previous,
			"next":     next,
		},
	}
}
