// Package log captures plugin-controller protocol events.
//
// It is separate from operational logging (slog). Protocol capture records
// every frame, request and response crossing the controller link so a
// session can be replayed and inspected later.
//
//	// Console while developing:
//	client.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// Binary capture:
//	fl, _ := log.NewFileLogger("/var/log/hspi/plugin.hlog")
//	client.ProtocolLogger = log.NewMultiLogger(log.NewSlogAdapter(slog.Default()), fl)
//
// Events are recorded per layer: transport (FrameEvent), wire
// (MessageEvent) and entity (StateChangeEvent). Errors from any layer use
// ErrorEventData.
//
// Capture files are a stream of CBOR-encoded events with the .hlog
// extension. Reader iterates them with an optional Filter.
package log
