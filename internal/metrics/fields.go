package metrics

// Common metric attribute keys to keep telemetry consistent/searchable.
const (
	AttrMethod   = "method"
	AttrPath     = "path"
	AttrStatus   = "status"
	AttrSource   = "source"
	AttrKind     = "kind"
	AttrOutcome  = "outcome"
	AttrPlatform = "platform"
)

// Delivery outcomes recorded per notification.
const (
	OutcomeDelivered = "delivered"
	OutcomeTransient = "transient"
	OutcomePermanent = "permanent"
)
