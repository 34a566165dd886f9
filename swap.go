package hxnav

// SwapMode is the htmx hx-swap strategy for a wired link.
//
// Dispatch responses normally carry only headers and out-of-band toasts, so
// wired links default to SwapNone. Handlers that render a fragment for the
// clicked element can ask for one of the other modes.
type SwapMode string

const (
	// SwapNone discards the response body. Out-of-band swaps still apply.
	SwapNone SwapMode = "none"

	// SwapOuter replaces the target element including its tag.
	SwapOuter SwapMode = "outerHTML"

	// SwapInner replaces the target's contents.
	SwapInner SwapMode = "innerHTML"

	// SwapBeforeEnd appends the response to the target's contents.
	SwapBeforeEnd SwapMode = "beforeend"
)
