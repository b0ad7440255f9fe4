// Package artifact defines the document artifact model: forms, documents,
// checklists and bundles, together with their fields, annexes, parties and
// named logic keys.
//
// Artifacts are plain immutable definitions. They carry conditional-logic
// expression strings (visible, required, disabled, include) but never
// evaluate them; static validation and runtime evaluation live in
// pkg/logic. Variants are discriminated by Kind and dispatched with type
// switches, never by probing for field presence.
package artifact
