// Package ui implements the interactive terminal interface using bubbletea's Elm architecture.
//
// Recommendations are annotated and every genre mention is bound through [Interactions],
// which owns the single [OverlaySlot]. Moving focus between mentions (tab / shift+tab)
// shows the focused mention's artist and hides it again on blur; enter toggles it; esc
// hides the overlay and keeps its content.
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the [Msg] union type.
// Network work runs in commands against the [session.Controller], whose loading flag drives the spinner.
//
// Login opens the browser and, when a [CodeWaiter] is provided, waits for the redirect.
// A code passed in [Options] is exchanged on start.
package ui
