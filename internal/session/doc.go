// Package session sequences the processing of answer-sheet scans.
//
// A Session keeps everything that must stay coherent across the commands
// of one sheet: the binarized scan, the detected corners, the fitted
// layout-to-scan transform and its inverse, a pending upside-down
// rotation, the identity of the box being measured and the report
// overlay. Every operation returns a Reply holding the protocol lines to
// print and the faults raised, in order.
//
// # States
//
//	Empty -> Loaded -> Registered -> Fitted -> Measuring
//
// Load always moves to Loaded, and on to Registered when enough marks
// were found. Fit moves to Fitted; measuring requires it. A new Load
// starts over from Empty.
//
// # Faults
//
// Load failures are fatal: the session is halted (Halted returns true)
// until the next Load. Every other fault is reported and processing goes
// on: a singular fit keeps the previous transform, missing marks leave
// degraded corners, and zoom or report write failures are logged.
package session
